package preset

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watch reloads the preset at path whenever it is written or replaced and
// hands each valid result to onLoad. Invalid files are logged and skipped.
// The parent directory is watched so editors that save via rename are seen.
// Watch returns once the watch is installed; it stops when ctx is done.
func Watch(ctx context.Context, path string, logger *slog.Logger, onLoad func(*Spec)) error {
	if logger == nil {
		logger = slog.Default()
	}
	path = filepath.Clean(path)
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("can't create watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		watcher.Close()
		return err
	}

	go func() {
		defer watcher.Close()
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != path {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
					continue
				}
				s, err := LoadJSON(path)
				if err != nil {
					logger.Warn("preset reload failed", "path", path, "err", err)
					continue
				}
				logger.Info("preset reloaded", "path", path, "name", s.Name)
				onLoad(s)
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warn("preset watcher error", "err", err)
			case <-ctx.Done():
				return
			}
		}
	}()
	return nil
}

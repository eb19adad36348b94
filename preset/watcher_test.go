package preset

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestWatchReloadsOnWriteAndRename(t *testing.T) {
	dir := t.TempDir()
	path := writePreset(t, dir, `{"name": "one"}`)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	loaded := make(chan string, 16)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	if err := Watch(ctx, path, logger, func(s *Spec) { loaded <- s.Name }); err != nil {
		t.Fatalf("Watch: %v", err)
	}

	expect := func(want string) {
		t.Helper()
		deadline := time.After(3 * time.Second)
		for {
			select {
			case got := <-loaded:
				if got == want {
					return
				}
			case <-deadline:
				t.Fatalf("timed out waiting for preset %q", want)
			}
		}
	}

	if err := os.WriteFile(path, []byte(`{"name": "two"}`), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	expect("two")

	// invalid content is skipped
	if err := os.WriteFile(path, []byte(`{"master": -1}`), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	tmp := filepath.Join(dir, "preset.json.tmp")
	if err := os.WriteFile(tmp, []byte(`{"name": "three"}`), 0o644); err != nil {
		t.Fatalf("write tmp: %v", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		t.Fatalf("rename: %v", err)
	}
	expect("three")
}

func TestWatchMissingDirectory(t *testing.T) {
	err := Watch(context.Background(), filepath.Join(t.TempDir(), "nope", "p.json"), nil, func(*Spec) {})
	if err == nil {
		t.Fatalf("expected error for missing directory")
	}
}

package output

import (
	"errors"
	"sync"
	"time"
)

// ErrStarted is returned when Start is called twice.
var ErrStarted = errors.New("output: device already started")

// HeadlessConfig describes a Headless device.
type HeadlessConfig struct {
	SampleRate int
	Channels   int
	BlockSize  int
	// Realtime paces callbacks at the block period; otherwise blocks are
	// rendered back to back.
	Realtime bool
	// MaxBlocks stops the device after that many callbacks; 0 runs until Abort.
	MaxBlocks int
	// Sink receives a copy of every rendered block, on the callback goroutine.
	Sink func(block []float32)
}

// Headless drives a Callback from a goroutine. It stands in for a sound card
// in offline rendering and tests.
type Headless struct {
	cfg HeadlessConfig

	mu      sync.Mutex
	started bool
	quit    chan struct{}
	done    chan struct{}
	blocks  uint64
}

// NewHeadless creates a headless device.
func NewHeadless(cfg HeadlessConfig) *Headless {
	return &Headless{cfg: cfg, quit: make(chan struct{}), done: make(chan struct{})}
}

func (h *Headless) Start(cb Callback) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.started {
		return ErrStarted
	}
	h.started = true
	go h.run(cb)
	return nil
}

func (h *Headless) run(cb Callback) {
	defer close(h.done)
	frames := h.cfg.BlockSize
	buf := make([]float32, frames*h.cfg.Channels)

	var ticker *time.Ticker
	if h.cfg.Realtime && h.cfg.SampleRate > 0 {
		period := time.Duration(frames) * time.Second / time.Duration(h.cfg.SampleRate)
		ticker = time.NewTicker(period)
		defer ticker.Stop()
	}

	for n := 0; h.cfg.MaxBlocks == 0 || n < h.cfg.MaxBlocks; n++ {
		if ticker != nil {
			select {
			case <-h.quit:
				return
			case <-ticker.C:
			}
		} else {
			select {
			case <-h.quit:
				return
			default:
			}
		}
		cb(buf, frames)
		h.mu.Lock()
		h.blocks++
		h.mu.Unlock()
		if h.cfg.Sink != nil {
			h.cfg.Sink(buf)
		}
	}
}

// Abort stops the callback loop and waits for the in-flight block.
func (h *Headless) Abort() error {
	h.mu.Lock()
	started := h.started
	select {
	case <-h.quit:
	default:
		close(h.quit)
	}
	h.mu.Unlock()
	if started {
		<-h.done
	}
	return nil
}

func (h *Headless) Close() error { return nil }

// Done is closed once the callback loop has exited.
func (h *Headless) Done() <-chan struct{} { return h.done }

// Blocks returns the number of callbacks issued.
func (h *Headless) Blocks() uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.blocks
}

func (h *Headless) SampleRate() int { return h.cfg.SampleRate }
func (h *Headless) Channels() int   { return h.cfg.Channels }
func (h *Headless) BlockSize() int  { return h.cfg.BlockSize }

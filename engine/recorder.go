package engine

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// PopTimeout bounds how long the writer waits for a block before rechecking
// its stop and pause state.
const PopTimeout = 250 * time.Millisecond

// ErrJoinTimeout is returned when a background loop does not exit in time.
var ErrJoinTimeout = errors.New("engine: timed out waiting for loop to exit")

// RecorderConfig describes a Recorder.
type RecorderConfig struct {
	Path       string
	SampleRate int
	Channels   int
	// Capacity is the queue length in blocks.
	Capacity int
	// BlockSamples is the largest block Push accepts without allocating.
	BlockSamples int
	Logger       *slog.Logger
}

// Recorder streams 16-bit PCM blocks to a WAV file from a background
// goroutine. Push never blocks: when the queue is full the block is dropped.
type Recorder struct {
	f        *os.File
	enc      *wav.Encoder
	channels int
	rate     int
	log      *slog.Logger

	queue chan []int
	free  chan []int

	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
	started  atomic.Bool
	stopping atomic.Bool
	failed   atomic.Bool

	// gate, when non-nil, holds the writer before its next pop. Only
	// tests set it.
	pauseMu sync.Mutex
	gate    chan struct{}

	dropped atomic.Uint64
	written atomic.Uint64
}

// NewRecorder creates the output file and encoder. Call Start to run the writer.
func NewRecorder(cfg RecorderConfig) (*Recorder, error) {
	if cfg.Capacity <= 0 || cfg.BlockSamples <= 0 {
		return nil, fmt.Errorf("recorder capacity and block size must be > 0")
	}
	if cfg.Channels < 1 {
		return nil, fmt.Errorf("recorder channels must be >= 1")
	}
	f, err := os.Create(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("create recording: %w", err)
	}
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	r := &Recorder{
		f:        f,
		enc:      wav.NewEncoder(f, cfg.SampleRate, 16, cfg.Channels, 1),
		channels: cfg.Channels,
		rate:     cfg.SampleRate,
		log:      log,
		queue:    make(chan []int, cfg.Capacity),
		free:     make(chan []int, cfg.Capacity+2),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	for range cfg.Capacity + 2 {
		r.free <- make([]int, 0, cfg.BlockSamples)
	}
	return r, nil
}

// Start launches the writer goroutine.
func (r *Recorder) Start() {
	if r.started.CompareAndSwap(false, true) {
		go r.run()
	}
}

// Push converts samples to 16-bit values and enqueues them. It reports false
// when the block was dropped.
func (r *Recorder) Push(samples []float32) bool {
	if r.stopping.Load() || r.failed.Load() {
		r.dropped.Add(1)
		return false
	}
	var blk []int
	select {
	case blk = <-r.free:
	default:
		r.dropped.Add(1)
		return false
	}
	blk = blk[:0]
	for _, x := range samples {
		blk = append(blk, toPCM16(x))
	}
	select {
	case r.queue <- blk:
		return true
	default:
		r.free <- blk
		r.dropped.Add(1)
		return false
	}
}

// toPCM16 clips x to [-1,1] and scales it by 32767, truncating toward zero.
func toPCM16(x float32) int {
	x = min(max(x, -1), 1)
	return int(x * 32767)
}

func (r *Recorder) run() {
	defer close(r.done)
	timer := time.NewTimer(PopTimeout)
	defer timer.Stop()
	for {
		r.waitWhilePaused()
		timer.Reset(PopTimeout)
		select {
		case blk := <-r.queue:
			if !r.write(blk) {
				return
			}
		case <-r.stop:
			r.drain()
			return
		case <-timer.C:
		}
	}
}

func (r *Recorder) drain() {
	for {
		select {
		case blk := <-r.queue:
			if !r.write(blk) {
				return
			}
		default:
			return
		}
	}
}

func (r *Recorder) write(blk []int) bool {
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: r.channels, SampleRate: r.rate},
		Data:           blk,
		SourceBitDepth: 16,
	}
	err := r.enc.Write(buf)
	r.free <- blk
	if err != nil {
		r.failed.Store(true)
		r.log.Warn("recording stopped after write error", "err", err)
		return false
	}
	r.written.Add(1)
	return true
}

func (r *Recorder) waitWhilePaused() {
	r.pauseMu.Lock()
	gate := r.gate
	r.pauseMu.Unlock()
	if gate == nil {
		return
	}
	select {
	case <-gate:
	case <-r.stop:
	}
}

// Stop refuses further blocks, lets the writer drain the queue, then
// finalizes the WAV header and closes the file. If the writer does not exit
// within timeout, the file is left open and ErrJoinTimeout is returned.
func (r *Recorder) Stop(timeout time.Duration) error {
	var err error
	r.stopOnce.Do(func() {
		r.stopping.Store(true)
		close(r.stop)
		if r.started.Load() {
			select {
			case <-r.done:
			case <-time.After(timeout):
				r.log.Warn("recorder did not finish in time", "timeout", timeout)
				err = ErrJoinTimeout
				return
			}
		} else {
			r.drain()
		}
		err = errors.Join(r.enc.Close(), r.f.Close())
	})
	return err
}

// Dropped returns the number of blocks discarded by Push.
func (r *Recorder) Dropped() uint64 { return r.dropped.Load() }

// Written returns the number of blocks written to the file.
func (r *Recorder) Written() uint64 { return r.written.Load() }

// Failed reports whether a write error stopped the recorder.
func (r *Recorder) Failed() bool { return r.failed.Load() }

// Package engine runs the real-time audio pipeline: it drains control
// events, renders the mixer, applies the master limiter, feeds the level
// meter and optionally records the output.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cwbudde/algo-synth/dsp"
	"github.com/cwbudde/algo-synth/event"
	"github.com/cwbudde/algo-synth/mixer"
	"github.com/cwbudde/algo-synth/output"
)

// Meter bar geometry used in the periodic log line.
const (
	BarFloorDB = -60
	BarCeilDB  = 0
	BarWidth   = 20
)

// Stats are engine counters since creation.
type Stats struct {
	Blocks         uint64
	CallbackFaults uint64
	RecordDropped  uint64
	RecordWritten  uint64
	DeviceStatus   uint64
	LateJoins      uint64
}

// Engine drives a Mixer from an output device callback.
type Engine struct {
	cfg Config
	mix *mixer.Mixer
	src event.Source
	dev output.Device
	log *slog.Logger

	limiter *dsp.Limiter
	meter   *Meter
	room    *roomStage
	rec     *Recorder

	events []event.Event
	buf    []float32

	stopping atomic.Bool
	blocks   atomic.Uint64
	faults   atomic.Uint64
	late     atomic.Uint64
	onMeter  atomic.Pointer[func(Snapshot)]

	mu        sync.Mutex
	started   bool
	stopped   bool
	stopDone  chan struct{}
	stopErr   error
	quit      chan struct{}
	meterDone chan struct{}
}

// New validates cfg and prepares an engine. Nothing runs until Start.
func New(m *mixer.Mixer, src event.Source, dev output.Device, cfg Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if m == nil || src == nil || dev == nil {
		return nil, errors.New("engine: mixer, event source and device are required")
	}
	if dev.Channels() != cfg.Channels {
		return nil, fmt.Errorf("engine: device has %d channels, config wants %d", dev.Channels(), cfg.Channels)
	}
	if dev.SampleRate() != cfg.SampleRate {
		return nil, fmt.Errorf("engine: device runs at %d Hz, config wants %d", dev.SampleRate(), cfg.SampleRate)
	}
	maxFrames := max(cfg.BlockSize, dev.BlockSize())
	e := &Engine{
		cfg:     cfg,
		mix:     m,
		src:     src,
		dev:     dev,
		log:     cfg.logger(),
		limiter: dsp.NewLimiter(cfg.LimiterDrive, maxFrames*cfg.Channels),
		meter:   &Meter{},
		events:  make([]event.Event, 0, cfg.MaxEventsPerBlock),
		buf:     make([]float32, maxFrames*cfg.Channels),
	}
	if cfg.Room != nil {
		room, err := newRoomStage(*cfg.Room, cfg.SampleRate, maxFrames)
		if err != nil {
			return nil, err
		}
		e.room = room
	}
	return e, nil
}

// RenderBlock is the device callback. It fills out with frames*Channels
// interleaved samples and never blocks on I/O.
func (e *Engine) RenderBlock(out []float32, frames int) {
	n := frames * e.cfg.Channels
	if n > len(out) {
		n = len(out)
	}
	if e.stopping.Load() {
		clear(out)
		return
	}
	defer func() {
		if r := recover(); r != nil {
			clear(out)
			e.faults.Add(1)
		}
	}()

	e.events = e.src.Drain(e.events[:0], e.cfg.MaxEventsPerBlock)
	e.mix.RouteEvents(e.events)
	clear(e.events)

	if n > len(e.buf) {
		e.buf = make([]float32, n)
	}
	x := e.buf[:n]
	if err := e.mix.Render(x, frames, e.cfg.SampleRate, e.cfg.Channels); err != nil {
		clear(out)
		e.faults.Add(1)
		return
	}
	if e.room != nil {
		e.room.process(x, frames, e.cfg.Channels)
	}

	dsp.Scale(x, e.cfg.PreGain)
	res := e.limiter.Process(x)
	e.meter.Update(res.PrePeak, res.PostPeak, float32(dsp.RMS(x)), res.Limited, frames)

	copy(out, x)
	clear(out[n:])
	e.blocks.Add(1)

	if e.rec != nil && !e.stopping.Load() {
		e.rec.Push(x)
	}
}

// Start opens the recording (if configured), starts the device and the
// meter loop. Cancelling ctx stops the engine.
func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.stopped {
		return ErrStopped
	}
	if e.started {
		return ErrAlreadyRunning
	}

	if e.cfg.RecordPath != "" {
		rec, err := NewRecorder(RecorderConfig{
			Path:         e.cfg.RecordPath,
			SampleRate:   e.cfg.SampleRate,
			Channels:     e.cfg.Channels,
			Capacity:     e.cfg.RecordQueue,
			BlockSamples: len(e.buf),
			Logger:       e.log,
		})
		if err != nil {
			return err
		}
		rec.Start()
		e.rec = rec
	}

	if err := e.dev.Start(e.RenderBlock); err != nil {
		if e.rec != nil {
			_ = e.rec.Stop(e.cfg.JoinTimeout)
			e.rec = nil
		}
		return fmt.Errorf("start device: %w", err)
	}
	e.started = true

	e.quit = make(chan struct{})
	e.meterDone = make(chan struct{})
	go e.meterLoop(ctx)

	go func() {
		select {
		case <-ctx.Done():
			if err := e.Stop(); err != nil {
				e.log.Warn("engine stop", "err", err)
			}
		case <-e.quit:
		}
	}()
	e.log.Debug("engine started", "sample_rate", e.cfg.SampleRate, "block", e.cfg.BlockSize, "channels", e.cfg.Channels)
	return nil
}

// Stop shuts down in order: stop flag, device abort and close, meter loop
// join, recorder drain and file close. It is safe to call more than once;
// later calls wait for the first to finish and return the same error.
func (e *Engine) Stop() error {
	e.mu.Lock()
	if !e.started {
		e.mu.Unlock()
		return ErrNotRunning
	}
	if e.stopped {
		done := e.stopDone
		e.mu.Unlock()
		<-done
		return e.stopErr
	}
	e.stopped = true
	done := make(chan struct{})
	e.stopDone = done
	e.mu.Unlock()

	e.stopping.Store(true)
	var errs []error
	if err := e.dev.Abort(); err != nil {
		errs = append(errs, fmt.Errorf("abort device: %w", err))
	}
	if err := e.dev.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close device: %w", err))
	}

	close(e.quit)
	select {
	case <-e.meterDone:
	case <-time.After(e.cfg.JoinTimeout):
		e.late.Add(1)
		e.log.Warn("meter loop did not exit in time", "timeout", e.cfg.JoinTimeout)
	}

	if e.rec != nil {
		if err := e.rec.Stop(e.cfg.JoinTimeout); err != nil {
			if errors.Is(err, ErrJoinTimeout) {
				e.late.Add(1)
			} else {
				errs = append(errs, fmt.Errorf("close recording: %w", err))
			}
		}
	}
	e.log.Debug("engine stopped", "blocks", e.blocks.Load())
	e.stopErr = errors.Join(errs...)
	close(done)
	return e.stopErr
}

func (e *Engine) meterLoop(ctx context.Context) {
	defer close(e.meterDone)
	t := time.NewTicker(e.cfg.MeterPeriod)
	defer t.Stop()
	var lastStatus, lastDropped uint64
	for {
		select {
		case <-e.quit:
			return
		case <-ctx.Done():
			return
		case <-t.C:
		}
		s := e.meter.SnapshotAndReset()
		e.logSnapshot(s)
		if fn := e.onMeter.Load(); fn != nil {
			(*fn)(s)
		}

		st := e.Stats()
		if st.DeviceStatus > lastStatus {
			e.log.Warn("output device status", "events", st.DeviceStatus-lastStatus)
		}
		if st.RecordDropped > lastDropped {
			e.log.Warn("recording dropped blocks", "blocks", st.RecordDropped-lastDropped)
		}
		lastStatus, lastDropped = st.DeviceStatus, st.RecordDropped
	}
}

func (e *Engine) logSnapshot(s Snapshot) {
	lim := ""
	if s.LimitedBlocks > 0 {
		lim = "LIM"
	}
	e.log.Info(fmt.Sprintf("audio %s %s", s.Bar(BarFloorDB, BarCeilDB, BarWidth), lim),
		"peak_pre_dbfs", fmt.Sprintf("%.1f", s.PeakPreDB),
		"peak_post_dbfs", fmt.Sprintf("%.1f", s.PeakPostDB),
		"rms_dbfs", fmt.Sprintf("%.1f", s.RMSDB),
		"frames", s.Frames,
		"blocks_limited", s.LimitedBlocks,
	)
}

// OnMeter registers fn to receive every periodic meter snapshot. It is
// called from the meter goroutine.
func (e *Engine) OnMeter(fn func(Snapshot)) {
	if fn == nil {
		e.onMeter.Store(nil)
		return
	}
	e.onMeter.Store(&fn)
}

// Meter returns the engine's level meter.
func (e *Engine) Meter() *Meter { return e.meter }

// Stats returns a snapshot of the engine counters.
func (e *Engine) Stats() Stats {
	s := Stats{
		Blocks:         e.blocks.Load(),
		CallbackFaults: e.faults.Load(),
		LateJoins:      e.late.Load(),
	}
	if sr, ok := e.dev.(output.StatusReporter); ok {
		s.DeviceStatus = sr.StatusEvents()
	}
	e.mu.Lock()
	rec := e.rec
	e.mu.Unlock()
	if rec != nil {
		s.RecordDropped = rec.Dropped()
		s.RecordWritten = rec.Written()
	}
	return s
}

// Config returns the engine configuration.
func (e *Engine) Config() Config { return e.cfg }

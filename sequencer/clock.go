// Package sequencer drives note patterns from a tick clock into an event bus.
package sequencer

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"time"
)

const (
	DefaultBPM = 120.0
	DefaultPPQ = 24
)

// ErrClockRunning is returned by Start on a clock that is already ticking.
var ErrClockRunning = errors.New("clock already running")

// Clock emits PPQ ticks per beat on its own goroutine. Deadlines advance by
// whole tick periods from the start time, so scheduling jitter does not
// accumulate into tempo drift.
type Clock struct {
	ppq   int
	bpm   atomic.Uint64 // float64 bits
	ticks atomic.Int64

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewClock returns a stopped clock.
func NewClock(bpm float64, ppq int) (*Clock, error) {
	if ppq <= 0 {
		return nil, fmt.Errorf("ppq must be > 0")
	}
	c := &Clock{ppq: ppq}
	if err := c.SetBPM(bpm); err != nil {
		return nil, err
	}
	return c, nil
}

// SetBPM changes the tempo, taking effect from the next tick.
func (c *Clock) SetBPM(bpm float64) error {
	if bpm <= 0 || math.IsNaN(bpm) || math.IsInf(bpm, 0) {
		return fmt.Errorf("bpm must be > 0")
	}
	c.bpm.Store(math.Float64bits(bpm))
	return nil
}

func (c *Clock) BPM() float64 { return math.Float64frombits(c.bpm.Load()) }
func (c *Clock) PPQ() int     { return c.ppq }

// Ticks returns how many ticks have fired since the clock was created.
func (c *Clock) Ticks() int64 { return c.ticks.Load() }

// TickDuration is the current period of one tick.
func (c *Clock) TickDuration() time.Duration {
	return time.Duration(60 / (c.BPM() * float64(c.ppq)) * float64(time.Second))
}

// Start calls tick once per tick until ctx is done or Stop is called.
func (c *Clock) Start(ctx context.Context, tick func()) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.done != nil {
		return ErrClockRunning
	}
	ctx, c.cancel = context.WithCancel(ctx)
	c.done = make(chan struct{})
	go c.run(ctx, tick, c.done)
	return nil
}

func (c *Clock) run(ctx context.Context, tick func(), done chan struct{}) {
	defer close(done)
	next := time.Now()
	timer := time.NewTimer(0)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}
		tick()
		c.ticks.Add(1)
		next = next.Add(c.TickDuration())
		timer.Reset(max(0, time.Until(next)))
	}
}

// Stop halts the clock and waits for the tick goroutine to exit. The clock
// may be started again afterwards.
func (c *Clock) Stop() {
	c.mu.Lock()
	cancel, done := c.cancel, c.done
	c.cancel, c.done = nil, nil
	c.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
}

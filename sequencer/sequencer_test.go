package sequencer

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/cwbudde/algo-synth/event"
)

type tickEvent struct {
	tick int
	ev   event.Event
}

// recorder is an event.Poster that stamps events with the current tick.
type recorder struct {
	mu     sync.Mutex
	tick   int
	events []tickEvent
	full   bool
}

func (r *recorder) Post(e event.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.full {
		return event.ErrBusFull
	}
	r.events = append(r.events, tickEvent{tick: r.tick, ev: e})
	return nil
}

func drive(r *recorder, onTick func(), ticks int) {
	for i := 0; i < ticks; i++ {
		r.tick = i
		onTick()
	}
}

func TestBeatsToTicks(t *testing.T) {
	cases := []struct {
		beats float64
		want  int
	}{
		{Quarter, 24},
		{Half, 48},
		{Eighth, 12},
		{Sixteenth, 6},
		{Dotted(Eighth), 18},
		{Triplet(Quarter), 16},
		{0.001, 1},
	}
	for _, tc := range cases {
		if got := BeatsToTicks(tc.beats, 24); got != tc.want {
			t.Fatalf("BeatsToTicks(%v): expected %d, got %d", tc.beats, tc.want, got)
		}
	}
}

func TestStepSequencerTiming(t *testing.T) {
	r := &recorder{}
	// 24 ppq, 4 steps per beat: 6 ticks per step, gate 0.5 -> 3 ticks
	s, err := NewStepSequencer(r, 2, 24, 4, []Step{NoteStep(60), RestStep(), NoteStep(64)})
	if err != nil {
		t.Fatalf("NewStepSequencer: %v", err)
	}
	if s.StepTicks() != 6 {
		t.Fatalf("expected 6 ticks per step, got %d", s.StepTicks())
	}
	drive(r, s.OnTick, 24)

	want := []tickEvent{
		{0, event.NoteOnEvent(60, 100, 2)},
		{3, event.NoteOffEvent(60, 2)},
		{12, event.NoteOnEvent(64, 100, 2)},
		{15, event.NoteOffEvent(64, 2)},
		{18, event.NoteOnEvent(60, 100, 2)},
		{21, event.NoteOffEvent(60, 2)},
	}
	if len(r.events) != len(want) {
		t.Fatalf("expected %d events, got %d: %+v", len(want), len(r.events), r.events)
	}
	for i := range want {
		if r.events[i] != want[i] {
			t.Fatalf("event %d: expected %+v, got %+v", i, want[i], r.events[i])
		}
	}
}

func TestStepSequencerFullGateRetriggers(t *testing.T) {
	r := &recorder{}
	st := NoteStep(50)
	st.Gate = 1
	s, _ := NewStepSequencer(r, 0, 4, 1, []Step{st})
	drive(r, s.OnTick, 9)
	// on@0, off@4 then on@4, off@8 then on@8
	kinds := []event.Kind{event.NoteOn, event.NoteOff, event.NoteOn, event.NoteOff, event.NoteOn}
	if len(r.events) != len(kinds) {
		t.Fatalf("expected %d events, got %+v", len(kinds), r.events)
	}
	for i, k := range kinds {
		if r.events[i].ev.Kind != k {
			t.Fatalf("event %d: expected %v, got %v", i, k, r.events[i].ev.Kind)
		}
	}
	if r.events[1].tick != 4 || r.events[2].tick != 4 {
		t.Fatalf("expected release and retrigger on tick 4, got %+v", r.events[1:3])
	}
}

func TestTickSequencerDurationsAndEnd(t *testing.T) {
	r := &recorder{}
	steps := []Step{
		TimedStep(60, BeatsToTicks(Quarter, 24)),
		TimedRest(BeatsToTicks(Eighth, 24)),
		TimedStep(67, BeatsToTicks(Eighth, 24)),
	}
	s, err := NewTickSequencer(r, 1, steps, false)
	if err != nil {
		t.Fatalf("NewTickSequencer: %v", err)
	}
	drive(r, s.OnTick, 100)

	// gate 0.9: round(21.6)=22 and round(10.8)=11
	want := []tickEvent{
		{0, event.NoteOnEvent(60, 90, 1)},
		{22, event.NoteOffEvent(60, 1)},
		{36, event.NoteOnEvent(67, 90, 1)},
		{47, event.NoteOffEvent(67, 1)},
	}
	if len(r.events) != len(want) {
		t.Fatalf("expected %d events, got %+v", len(want), r.events)
	}
	for i := range want {
		if r.events[i] != want[i] {
			t.Fatalf("event %d: expected %+v, got %+v", i, want[i], r.events[i])
		}
	}
	if !s.Done() {
		t.Fatalf("expected non-looping sequence to finish")
	}
}

func TestTickSequencerLoopsAndReleases(t *testing.T) {
	r := &recorder{}
	s, _ := NewTickSequencer(r, 0, []Step{TimedStep(40, 10)}, true)
	drive(r, s.OnTick, 25)
	if s.Done() {
		t.Fatalf("looping sequence must not finish")
	}
	ons := 0
	for _, e := range r.events {
		if e.ev.Kind == event.NoteOn {
			ons++
		}
	}
	if ons != 3 {
		t.Fatalf("expected 3 note-ons over 25 ticks, got %d", ons)
	}

	// tick 20 started a note that is still held
	n := len(r.events)
	s.Release()
	if len(r.events) != n+1 || r.events[n].ev.Kind != event.NoteOff {
		t.Fatalf("expected Release to post a note-off, got %+v", r.events[n:])
	}
	if s.Position() != 0 {
		t.Fatalf("expected Release to rewind, position=%d", s.Position())
	}
}

func TestSequencerCountsDroppedEvents(t *testing.T) {
	r := &recorder{full: true}
	s, _ := NewStepSequencer(r, 0, 24, 4, Arpeggio(8))
	drive(r, s.OnTick, 48)
	if s.Posted() != 0 || s.Dropped() == 0 {
		t.Fatalf("expected only drops, posted=%d dropped=%d", s.Posted(), s.Dropped())
	}
}

func TestSequencerValidation(t *testing.T) {
	r := &recorder{}
	if _, err := NewStepSequencer(nil, 0, 24, 4, nil); err == nil {
		t.Fatalf("expected error for nil poster")
	}
	if _, err := NewStepSequencer(r, 0, 24, 0, nil); err == nil {
		t.Fatalf("expected error for zero steps per beat")
	}
	if _, err := NewStepSequencer(r, 0, 4, 8, nil); err == nil {
		t.Fatalf("expected error for steps per beat above ppq")
	}
	if _, err := NewStepSequencer(r, 0, 24, 4, []Step{{Note: 200, Velocity: 1}}); err == nil {
		t.Fatalf("expected error for note out of range")
	}
	if _, err := NewTickSequencer(r, 0, []Step{{Note: 60, Velocity: 90}}, false); err == nil {
		t.Fatalf("expected error for zero duration")
	}
}

func TestPatterns(t *testing.T) {
	a := Arpeggio(8)
	if a[0].Note != 69 || a[2].Note != 73 || !a[3].Rest || a[2].Velocity != 65 {
		t.Fatalf("unexpected arpeggio: %+v", a[:4])
	}
	b := BassLine(4)
	if b[1].Note != 47 || !b[3].Rest {
		t.Fatalf("unexpected bass line: %+v", b)
	}
	l := LeadLine(4)
	if l[2].Note != 75 || !l[1].Rest {
		t.Fatalf("unexpected lead line: %+v", l)
	}
}

func TestClockTicksAndStops(t *testing.T) {
	c, err := NewClock(6000, 24) // ~0.42 ms per tick
	if err != nil {
		t.Fatalf("NewClock: %v", err)
	}
	var mu sync.Mutex
	n := 0
	if err := c.Start(context.Background(), func() { mu.Lock(); n++; mu.Unlock() }); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := c.Start(context.Background(), func() {}); !errors.Is(err, ErrClockRunning) {
		t.Fatalf("expected ErrClockRunning, got %v", err)
	}
	time.Sleep(100 * time.Millisecond)
	c.Stop()
	c.Stop()

	mu.Lock()
	got := n
	mu.Unlock()
	if got < 20 {
		t.Fatalf("expected steady ticking, got %d ticks", got)
	}
	if int64(got) != c.Ticks() {
		t.Fatalf("tick counter mismatch: callback=%d counter=%d", got, c.Ticks())
	}
	time.Sleep(10 * time.Millisecond)
	if c.Ticks() != int64(got) {
		t.Fatalf("clock kept ticking after Stop")
	}
}

func TestClockContextCancel(t *testing.T) {
	c, _ := NewClock(DefaultBPM, DefaultPPQ)
	ctx, cancel := context.WithCancel(context.Background())
	if err := c.Start(ctx, func() {}); err != nil {
		t.Fatalf("Start: %v", err)
	}
	cancel()
	done := make(chan struct{})
	go func() { c.Stop(); close(done) }()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("Stop did not return after context cancel")
	}
}

func TestClockValidation(t *testing.T) {
	if _, err := NewClock(0, 24); err == nil {
		t.Fatalf("expected error for zero bpm")
	}
	if _, err := NewClock(120, 0); err == nil {
		t.Fatalf("expected error for zero ppq")
	}
	c, _ := NewClock(120, 24)
	if d := c.TickDuration(); d < 20*time.Millisecond || d > 21*time.Millisecond {
		t.Fatalf("expected ~20.8ms per tick at 120 bpm, got %v", d)
	}
}

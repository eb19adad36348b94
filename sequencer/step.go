package sequencer

import (
	"fmt"
	"math"
	"sync/atomic"

	"github.com/cwbudde/algo-synth/event"
)

// Step is one slot of a pattern. Duration is only used by TickSequencer.
type Step struct {
	Note     int
	Velocity int
	Gate     float64 // fraction of the step the note is held
	Duration int     // ticks
	Rest     bool
}

// NoteStep is a step with the step sequencer's defaults.
func NoteStep(note int) Step {
	return Step{Note: note, Velocity: 100, Gate: 0.5}
}

// RestStep is a silent step.
func RestStep() Step { return Step{Rest: true} }

// TimedStep is a step with the tick sequencer's defaults (velocity 90, gate 0.9).
func TimedStep(note, durationTicks int) Step {
	return Step{Note: note, Velocity: 90, Gate: 0.9, Duration: durationTicks}
}

// TimedRest is a silent step lasting durationTicks.
func TimedRest(durationTicks int) Step {
	return Step{Rest: true, Duration: durationTicks}
}

// player walks a list of steps one tick at a time. NoteOff for a step is
// posted before the NoteOn of the next, so a gate of 1 still retriggers.
// Not safe for concurrent use; OnTick runs on the clock goroutine.
type player struct {
	out     event.Poster
	channel int
	steps   []Step
	loop    bool
	// length returns the duration of a step in ticks.
	length func(Step) int

	idx      int
	elapsed  int
	dur      int
	gate     int
	started  bool
	sounding bool
	note     int
	done     bool

	posted  atomic.Uint64
	dropped atomic.Uint64
}

func (p *player) post(e event.Event) {
	if err := p.out.Post(e); err != nil {
		p.dropped.Add(1)
		return
	}
	p.posted.Add(1)
}

func (p *player) off() {
	if p.sounding {
		p.post(event.NoteOffEvent(p.note, p.channel))
		p.sounding = false
	}
}

// OnTick advances the pattern by one clock tick.
func (p *player) OnTick() {
	if p.done {
		return
	}
	if p.sounding && p.elapsed >= p.gate {
		p.off()
	}
	if p.started && p.elapsed >= p.dur {
		p.idx++
		p.elapsed = 0
		p.started = false
	}
	if !p.started {
		if p.idx >= len(p.steps) {
			if !p.loop || len(p.steps) == 0 {
				p.done = true
				return
			}
			p.idx = 0
		}
		st := p.steps[p.idx]
		p.dur = max(1, p.length(st))
		p.gate = min(p.dur, max(1, int(math.Round(st.Gate*float64(p.dur)))))
		if !st.Rest {
			p.note = st.Note
			p.post(event.NoteOnEvent(st.Note, st.Velocity, p.channel))
			p.sounding = true
		}
		p.started = true
	}
	p.elapsed++
}

// Release posts NoteOff for a sounding note and rewinds to the first step.
func (p *player) Release() {
	p.off()
	p.idx, p.elapsed, p.started, p.done = 0, 0, false, false
}

// Done reports whether a non-looping pattern has played out.
func (p *player) Done() bool { return p.done }

// Position is the index of the current step.
func (p *player) Position() int { return p.idx }

// Posted and Dropped count events accepted and rejected by the poster.
func (p *player) Posted() uint64  { return p.posted.Load() }
func (p *player) Dropped() uint64 { return p.dropped.Load() }

// StepSequencer plays equal-length steps, StepsPerBeat to a beat.
type StepSequencer struct {
	player
	stepTicks int
}

// NewStepSequencer builds a looping step sequencer for a clock with ppq
// ticks per beat.
func NewStepSequencer(out event.Poster, channel, ppq, stepsPerBeat int, steps []Step) (*StepSequencer, error) {
	if out == nil {
		return nil, fmt.Errorf("nil event poster")
	}
	if ppq <= 0 || stepsPerBeat <= 0 {
		return nil, fmt.Errorf("ppq and steps_per_beat must be > 0")
	}
	if stepsPerBeat > ppq {
		return nil, fmt.Errorf("steps_per_beat must be <= ppq")
	}
	if err := validateSteps(steps, false); err != nil {
		return nil, err
	}
	stepTicks := ppq / stepsPerBeat
	return &StepSequencer{
		player: player{
			out:     out,
			channel: channel,
			steps:   append([]Step(nil), steps...),
			loop:    true,
			length:  func(Step) int { return stepTicks },
		},
		stepTicks: stepTicks,
	}, nil
}

// SetLoop controls whether the pattern restarts after the last step.
func (s *StepSequencer) SetLoop(loop bool) { s.loop = loop }

// StepTicks is the length of one step in ticks.
func (s *StepSequencer) StepTicks() int { return s.stepTicks }

// TickSequencer plays steps with individual durations.
type TickSequencer struct {
	player
}

// NewTickSequencer builds a tick sequencer; loop selects whether it
// restarts after the last step.
func NewTickSequencer(out event.Poster, channel int, steps []Step, loop bool) (*TickSequencer, error) {
	if out == nil {
		return nil, fmt.Errorf("nil event poster")
	}
	if err := validateSteps(steps, true); err != nil {
		return nil, err
	}
	return &TickSequencer{player{
		out:     out,
		channel: channel,
		steps:   append([]Step(nil), steps...),
		loop:    loop,
		length:  func(st Step) int { return st.Duration },
	}}, nil
}

func validateSteps(steps []Step, timed bool) error {
	for i, st := range steps {
		if timed && st.Duration <= 0 {
			return fmt.Errorf("step %d: duration must be > 0", i)
		}
		if st.Rest {
			continue
		}
		if st.Note < 0 || st.Note > 127 {
			return fmt.Errorf("step %d: note must be in [0,127]", i)
		}
		if st.Velocity < 0 || st.Velocity > 127 {
			return fmt.Errorf("step %d: velocity must be in [0,127]", i)
		}
		if st.Gate < 0 || st.Gate > 1 {
			return fmt.Errorf("step %d: gate must be in [0,1]", i)
		}
	}
	return nil
}

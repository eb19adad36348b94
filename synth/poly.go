package synth

import (
	"sync"

	"github.com/cwbudde/algo-synth/dsp"
)

// SustainController is the MIDI controller number of the sustain pedal.
const SustainController = 64

type slot struct {
	key      float64
	voice    Voice
	pending  bool // held by the sustain pedal
	released bool // note-off seen; delivered to the voice at the next render
	applied  bool
}

// Poly is a polyphonic instrument keyed by frequency. Every note-on appends
// a new voice; nothing is stolen. Output is scaled by master/sqrt(N), where N
// is the pool size at the start of the render call, smoothed across blocks.
//
// mu guards the pool and is never held while voices render. Voice state is
// only touched by Render, which renderMu serializes.
type Poly struct {
	mu       sync.Mutex
	renderMu sync.Mutex
	factory  VoiceFactory
	master   float32
	smoother *dsp.GainSmoother
	slots    []slot
	sustain  bool
	active   []Voice
	scratch  []float32
}

// PolyOption configures a Poly.
type PolyOption func(*Poly)

// WithSmoothing sets the per-block gain smoothing coefficient.
func WithSmoothing(alpha float32) PolyOption {
	return func(p *Poly) { p.smoother = dsp.NewGainSmoother(alpha) }
}

// WithMaxVoices preallocates the pool for n voices.
func WithMaxVoices(n int) PolyOption {
	return func(p *Poly) {
		if n > cap(p.slots) {
			p.slots = make([]slot, 0, n)
		}
	}
}

// NewPoly creates an instrument drawing voices from factory.
func NewPoly(factory VoiceFactory, master float32, opts ...PolyOption) *Poly {
	p := &Poly{
		factory:  factory,
		master:   master,
		smoother: dsp.NewGainSmoother(dsp.DefaultSmoothing),
		slots:    make([]slot, 0, 32),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// NoteOn starts a new voice at key Hz. The voice is built before the lock is taken.
func (p *Poly) NoteOn(key float64, velocity int) {
	v := p.factory.NewVoice(key, velocity)
	p.mu.Lock()
	p.slots = append(p.slots, slot{key: key, voice: v})
	p.mu.Unlock()
}

// NoteOff releases every sounding voice at key. With the sustain pedal down,
// the most recent matching voice is marked for release on pedal-up instead.
func (p *Poly) NoteOff(key float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.sustain {
		for i := len(p.slots) - 1; i >= 0; i-- {
			s := &p.slots[i]
			if s.key == key && !s.pending && !s.released {
				s.pending = true
				return
			}
		}
		return
	}
	for i := len(p.slots) - 1; i >= 0; i-- {
		s := &p.slots[i]
		if s.key == key && !s.released {
			s.released = true
		}
	}
}

// CC handles controller changes; only the sustain pedal is recognized.
func (p *Poly) CC(control, value int) {
	if control != SustainController {
		return
	}
	down := value >= 64
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.sustain && !down {
		for i := range p.slots {
			s := &p.slots[i]
			if s.pending {
				s.released = true
				s.pending = false
			}
		}
	}
	p.sustain = down
}

// Sustain reports whether the pedal is down.
func (p *Poly) Sustain() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.sustain
}

// Render mixes all voices into dst, drops finished voices and applies the
// voice-count compensation. Note-offs received since the last call are
// delivered to their voices first. The pool lock covers only the snapshot
// and the prune, so control calls never wait for rendering.
func (p *Poly) Render(dst []float32, sampleRate int) {
	p.renderMu.Lock()
	defer p.renderMu.Unlock()

	p.mu.Lock()
	p.active = p.active[:0]
	for i := range p.slots {
		s := &p.slots[i]
		if s.released && !s.applied {
			s.voice.Release()
			s.applied = true
		}
		p.active = append(p.active, s.voice)
	}
	p.mu.Unlock()

	count := len(p.active)
	clear(dst)
	p.scratch = grow(p.scratch, len(dst))
	for _, v := range p.active {
		v.Render(p.scratch, sampleRate)
		for n, x := range p.scratch {
			dst[n] += x
		}
	}

	// slots appended after the snapshot sit past count and are kept
	p.mu.Lock()
	live := p.slots[:0]
	for i, s := range p.slots {
		if i >= count || !s.voice.Finished() {
			live = append(live, s)
		}
	}
	clear(p.slots[len(live):])
	p.slots = live
	p.mu.Unlock()
	clear(p.active)

	dsp.Scale(dst, p.smoother.Next(dsp.VoiceCountGain(p.master, count)))
}

// NumActiveVoices returns the pool size.
func (p *Poly) NumActiveVoices() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.slots)
}

// Master returns the master gain.
func (p *Poly) Master() float32 {
	return p.master
}

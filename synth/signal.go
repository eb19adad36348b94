package synth

import "math"

const twoPi = 2 * math.Pi

// Signal is a stateful, phase-continuous generator driven by a fundamental frequency.
type Signal interface {
	// Render writes len(dst) samples at freq Hz and advances internal phase.
	Render(dst []float32, freq float64, sampleRate int)
	Reset()
}

// Sine is a single sinusoid. Phase is advanced before each sample.
type Sine struct {
	Gain  float32
	phase float64
	start float64
}

// NewSine creates a sine starting at phase radians.
func NewSine(phase float64, gain float32) *Sine {
	return &Sine{Gain: gain, phase: phase, start: phase}
}

func (s *Sine) Render(dst []float32, freq float64, sampleRate int) {
	inc := twoPi * freq / float64(sampleRate)
	ph := s.phase
	for i := range dst {
		ph += inc
		if ph >= twoPi {
			ph -= twoPi
		}
		dst[i] = float32(math.Sin(ph)) * s.Gain
	}
	s.phase = ph
}

func (s *Sine) Reset() { s.phase = s.start }

// SawNaive is a non-bandlimited sawtooth in [-1,1).
type SawNaive struct {
	Gain  float32
	phase float64
}

// NewSawNaive creates a sawtooth starting at phase in cycles.
func NewSawNaive(phase float64, gain float32) *SawNaive {
	phase -= math.Floor(phase)
	return &SawNaive{Gain: gain, phase: phase}
}

func (s *SawNaive) Render(dst []float32, freq float64, sampleRate int) {
	inc := freq / float64(sampleRate)
	ph := s.phase
	for i := range dst {
		ph += inc
		if ph >= 1 {
			ph -= 1
		}
		dst[i] = float32(2*ph-1) * s.Gain
	}
	s.phase = ph
}

func (s *SawNaive) Reset() { s.phase = 0 }

// Sum adds child signals scaled by per-child gains, without renormalizing.
// Mix is the same operation; by convention its weights sum to at most 1.
type Sum struct {
	children []Signal
	gains    []float32
	scratch  []float32
}

// NewSum combines signals; nil gains means unity for every child.
func NewSum(signals []Signal, gains []float32) *Sum {
	if gains == nil {
		gains = make([]float32, len(signals))
		for i := range gains {
			gains[i] = 1
		}
	}
	n := len(signals)
	if len(gains) < n {
		n = len(gains)
	}
	return &Sum{children: signals[:n], gains: gains[:n]}
}

// NewMix is NewSum with explicit weights.
func NewMix(signals []Signal, weights []float32) *Sum {
	return NewSum(signals, weights)
}

func (s *Sum) Render(dst []float32, freq float64, sampleRate int) {
	s.scratch = grow(s.scratch, len(dst))
	clear(dst)
	for c, child := range s.children {
		child.Render(s.scratch, freq, sampleRate)
		g := s.gains[c]
		for i, v := range s.scratch {
			dst[i] += v * g
		}
	}
}

func (s *Sum) Reset() {
	for _, c := range s.children {
		c.Reset()
	}
}

// RingMod multiplies two signals sample by sample.
type RingMod struct {
	A, B    Signal
	scratch []float32
}

func NewRingMod(a, b Signal) *RingMod {
	return &RingMod{A: a, B: b}
}

func (r *RingMod) Render(dst []float32, freq float64, sampleRate int) {
	r.scratch = grow(r.scratch, len(dst))
	r.A.Render(dst, freq, sampleRate)
	r.B.Render(r.scratch, freq, sampleRate)
	for i, v := range r.scratch {
		dst[i] *= v
	}
}

func (r *RingMod) Reset() {
	r.A.Reset()
	r.B.Reset()
}

// Detune renders its inner signal at freq*Ratio.
type Detune struct {
	Inner Signal
	Ratio float64
}

func NewDetune(inner Signal, ratio float64) *Detune {
	return &Detune{Inner: inner, Ratio: ratio}
}

func (d *Detune) Render(dst []float32, freq float64, sampleRate int) {
	d.Inner.Render(dst, freq*d.Ratio, sampleRate)
}

func (d *Detune) Reset() { d.Inner.Reset() }

// grow returns buf resliced to n, reallocating only when capacity is short.
func grow(buf []float32, n int) []float32 {
	if cap(buf) < n {
		return make([]float32, n)
	}
	return buf[:n]
}

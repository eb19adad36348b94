package dsp

import dspcore "github.com/cwbudde/algo-dsp/dsp/core"

// DefaultSmoothing is the per-block coefficient used for gain smoothing.
const DefaultSmoothing = 0.2

// GainSmoother is a one-pole follower advanced once per block:
// gain = (1-Alpha)*gain + Alpha*target.
type GainSmoother struct {
	Alpha  float32
	gain   float32
	primed bool
}

// NewGainSmoother creates a smoother; alpha outside (0,1] falls back to DefaultSmoothing.
func NewGainSmoother(alpha float32) *GainSmoother {
	if alpha <= 0 || alpha > 1 {
		alpha = DefaultSmoothing
	}
	return &GainSmoother{Alpha: alpha}
}

// Next advances toward target and returns the new gain. The first call
// snaps to target.
func (s *GainSmoother) Next(target float32) float32 {
	if !s.primed {
		s.gain = target
		s.primed = true
		return s.gain
	}
	g := (1-s.Alpha)*s.gain + s.Alpha*target
	s.gain = float32(dspcore.FlushDenormals(float64(g)))
	return s.gain
}

// Value returns the current gain without advancing.
func (s *GainSmoother) Value() float32 {
	return s.gain
}

// Reset forgets the current gain so the next call snaps again.
func (s *GainSmoother) Reset() {
	s.gain = 0
	s.primed = false
}

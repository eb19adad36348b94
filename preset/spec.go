// Package preset describes instruments as data: built-in tables, JSON
// preset files and a watcher that reloads them.
package preset

import (
	"fmt"

	"github.com/cwbudde/algo-synth/synth"
)

// Kind selects the voice architecture of a preset.
type Kind string

const (
	// Additive voices share one harmonic stack and one ADSR.
	Additive Kind = "additive"
	// Spectral voices carry an envelope per partial.
	Spectral Kind = "spectral"
)

// Spec is a fully resolved instrument definition.
type Spec struct {
	Name          string
	Kind          Kind
	Master        float32
	VelocityCurve float64

	// Additive
	Amplitudes []float64
	Envelope   synth.EnvelopeSpec
	Declick    float64

	// Spectral
	Partials []synth.SpectralPartial

	Tuning synth.EqualTemperament
	// RoomIR is an optional impulse response suggested for the master room stage.
	RoomIR string
}

// DefaultSpec returns a plain additive organ tone.
func DefaultSpec() *Spec {
	return &Spec{
		Name:          "default",
		Kind:          Additive,
		Master:        0.6,
		VelocityCurve: synth.DefaultVelocityCurve,
		Amplitudes:    synth.PowerLawAmplitudes(6, 2),
		Envelope:      synth.ADSRSpec(0.005, 0.08, 0.6, 0.2),
		Declick:       synth.DefaultDeclick,
		Tuning:        synth.DefaultTuning(),
	}
}

// Clone returns a deep copy of s.
func (s *Spec) Clone() *Spec {
	c := *s
	c.Amplitudes = append([]float64(nil), s.Amplitudes...)
	c.Partials = append([]synth.SpectralPartial(nil), s.Partials...)
	return &c
}

func (s *Spec) Validate() error {
	if s.Master <= 0 {
		return fmt.Errorf("master must be > 0")
	}
	if s.VelocityCurve <= 0 {
		return fmt.Errorf("velocity_curve must be > 0")
	}
	if s.Tuning.BaseFreq <= 0 || s.Tuning.TonesPerOctave <= 0 {
		return fmt.Errorf("tuning base_freq and tones_per_octave must be > 0")
	}
	if s.Kind == Spectral && len(s.Partials) == 0 {
		return fmt.Errorf("spectral preset needs at least one partial")
	}
	_, err := s.Factory()
	return err
}

// Factory returns the voice factory described by s.
func (s *Spec) Factory() (synth.VoiceFactory, error) {
	switch s.Kind {
	case Additive:
		f := synth.NewAdditiveFactory(s.Amplitudes)
		f.VelocityCurve = s.VelocityCurve
		f.Envelope = s.Envelope
		f.Declick = s.Declick
		if err := f.Validate(); err != nil {
			return nil, err
		}
		return f, nil
	case Spectral:
		f := &synth.SpectralFactory{Partials: s.Partials, VelocityCurve: s.VelocityCurve}
		if err := f.Validate(); err != nil {
			return nil, err
		}
		return f, nil
	default:
		return nil, fmt.Errorf("unknown preset kind %q", s.Kind)
	}
}

// Build returns a note-driven polyphonic instrument for s.
func (s *Spec) Build(opts ...synth.PolyOption) (*synth.NoteAdapter, error) {
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("preset %s: %w", s.Name, err)
	}
	factory, err := s.Factory()
	if err != nil {
		return nil, err
	}
	return synth.NewNoteAdapter(synth.NewPoly(factory, s.Master, opts...), s.Tuning), nil
}

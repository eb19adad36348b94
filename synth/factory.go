package synth

import "fmt"

// AdditiveFactory builds harmonic-stack voices with a shared ADSR shape.
type AdditiveFactory struct {
	Amplitudes    []float64
	VelocityCurve float64
	Envelope      EnvelopeSpec
	Declick       float64
}

// NewAdditiveFactory returns a factory with the default envelope
// (5 ms attack, 80 ms decay, 0.6 sustain, 200 ms release).
func NewAdditiveFactory(amps []float64) *AdditiveFactory {
	return &AdditiveFactory{
		Amplitudes:    amps,
		VelocityCurve: DefaultVelocityCurve,
		Envelope:      ADSRSpec(0.005, 0.08, 0.6, 0.20),
		Declick:       DefaultDeclick,
	}
}

func (f *AdditiveFactory) NewVoice(freq float64, velocity int) Voice {
	return NewAdditiveVoice(freq, velocity, NewHarmonicStack(f.Amplitudes), f.Envelope.New(), f.VelocityCurve, f.Declick)
}

// Validate checks the factory can build voices.
func (f *AdditiveFactory) Validate() error {
	if len(f.Amplitudes) == 0 {
		return fmt.Errorf("additive voice needs at least one amplitude")
	}
	if f.VelocityCurve <= 0 {
		return fmt.Errorf("velocity curve must be > 0")
	}
	return f.Envelope.Validate()
}

// SpectralPartial pairs a partial with the envelope that shapes it.
type SpectralPartial struct {
	Partial
	Envelope EnvelopeSpec
}

// SpectralFactory builds spectral voices with one fresh envelope per partial.
type SpectralFactory struct {
	Partials      []SpectralPartial
	VelocityCurve float64
}

func (f *SpectralFactory) NewVoice(freq float64, velocity int) Voice {
	partials := make([]Partial, len(f.Partials))
	envs := make([]Envelope, len(f.Partials))
	for i, p := range f.Partials {
		partials[i] = p.Partial
		envs[i] = p.Envelope.New()
	}
	return NewSpectralVoice(freq, velocity, NewSpectralStack(partials), envs, f.VelocityCurve)
}

// Validate checks the factory can build voices.
func (f *SpectralFactory) Validate() error {
	if f.VelocityCurve <= 0 {
		return fmt.Errorf("velocity curve must be > 0")
	}
	for i, p := range f.Partials {
		if p.Ratio <= 0 {
			return fmt.Errorf("partial %d: ratio must be > 0", i)
		}
		if err := p.Envelope.Validate(); err != nil {
			return fmt.Errorf("partial %d: %w", i, err)
		}
	}
	return nil
}

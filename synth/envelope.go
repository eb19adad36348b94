package synth

import "fmt"

// Envelope produces a per-sample amplitude curve in [0,1] driven by gate events.
type Envelope interface {
	GateOn()
	GateOff()
	// Render fills dst with the next len(dst) samples and advances state.
	Render(dst []float32, sampleRate int)
	Finished() bool
}

// EnvelopeKind selects the envelope variant built by an EnvelopeSpec.
type EnvelopeKind int

const (
	EnvelopeADSR EnvelopeKind = iota
	EnvelopePeak
)

func (k EnvelopeKind) String() string {
	switch k {
	case EnvelopeADSR:
		return "adsr"
	case EnvelopePeak:
		return "peak"
	default:
		return fmt.Sprintf("EnvelopeKind(%d)", int(k))
	}
}

// EnvelopeSpec holds envelope parameters. Every call to New builds fresh state,
// so one spec can serve any number of voices and partials.
type EnvelopeSpec struct {
	Kind    EnvelopeKind
	Attack  float64
	Decay   float64
	Sustain float64
	Release float64
}

// ADSRSpec describes a gated attack/decay/sustain/release envelope.
func ADSRSpec(attack, decay, sustain, release float64) EnvelopeSpec {
	return EnvelopeSpec{Kind: EnvelopeADSR, Attack: attack, Decay: decay, Sustain: sustain, Release: release}
}

// PeakSpec describes a one-shot attack/release envelope.
func PeakSpec(attack, release float64) EnvelopeSpec {
	return EnvelopeSpec{Kind: EnvelopePeak, Attack: attack, Release: release}
}

// New builds an idle envelope from the spec.
func (s EnvelopeSpec) New() Envelope {
	if s.Kind == EnvelopePeak {
		return NewPeak(s.Attack, s.Release)
	}
	return NewADSR(s.Attack, s.Decay, s.Sustain, s.Release)
}

// Validate reports parameters that cannot describe an envelope.
func (s EnvelopeSpec) Validate() error {
	if s.Kind != EnvelopeADSR && s.Kind != EnvelopePeak {
		return fmt.Errorf("unknown envelope kind %d", int(s.Kind))
	}
	if s.Attack < 0 || s.Decay < 0 || s.Release < 0 {
		return fmt.Errorf("envelope times must be >= 0")
	}
	if s.Kind == EnvelopeADSR && (s.Sustain < 0 || s.Sustain > 1) {
		return fmt.Errorf("sustain level must be in [0,1]")
	}
	return nil
}

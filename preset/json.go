package preset

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/cwbudde/algo-synth/synth"
)

// File is the JSON schema for synth presets. Every field is optional and
// overrides the base preset it is applied to.
type File struct {
	Name          string        `json:"name"`
	Base          string        `json:"base"`
	Kind          string        `json:"kind"`
	Master        *float32      `json:"master"`
	VelocityCurve *float64      `json:"velocity_curve"`
	Declick       *float64      `json:"declick"`
	Envelope      *EnvelopeFile `json:"envelope"`
	Harmonics     *HarmonicFile `json:"harmonics"`
	Amplitudes    []float64     `json:"amplitudes"`
	Partials      []PartialFile `json:"partials"`
	Tuning        *TuningFile   `json:"tuning"`
	RoomIR        string        `json:"room_ir"`
}

// EnvelopeFile is a partial envelope override. Kind is "adsr" or "peak".
type EnvelopeFile struct {
	Kind    string   `json:"kind"`
	Attack  *float64 `json:"attack"`
	Decay   *float64 `json:"decay"`
	Sustain *float64 `json:"sustain"`
	Release *float64 `json:"release"`
}

// HarmonicFile generates Count amplitudes following 1/k^Power.
type HarmonicFile struct {
	Count int     `json:"count"`
	Power float64 `json:"power"`
}

// PartialFile is one spectral partial entry.
type PartialFile struct {
	Ratio    float64       `json:"ratio"`
	Amp      float64       `json:"amp"`
	Phase    float64       `json:"phase"`
	Envelope *EnvelopeFile `json:"envelope"`
}

// TuningFile overrides the equal-temperament anchor.
type TuningFile struct {
	BaseNote       *int     `json:"base_note"`
	BaseFreq       *float64 `json:"base_freq"`
	TonesPerOctave *int     `json:"tones_per_octave"`
}

// LoadJSON loads a preset file and applies it on top of its base preset
// (DefaultSpec when no base is named).
func LoadJSON(path string) (*Spec, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseJSON(b, filepath.Dir(path))
}

// ParseJSON decodes preset bytes. A relative room_ir is resolved against dir.
func ParseJSON(b []byte, dir string) (*Spec, error) {
	var f File
	if err := json.Unmarshal(b, &f); err != nil {
		return nil, err
	}

	s := DefaultSpec()
	if base := strings.TrimSpace(f.Base); base != "" {
		var err error
		if s, err = Builtin(base); err != nil {
			return nil, err
		}
	}
	if err := ApplyFile(s, &f); err != nil {
		return nil, err
	}
	if s.RoomIR != "" && !filepath.IsAbs(s.RoomIR) && dir != "" {
		s.RoomIR = filepath.Clean(filepath.Join(dir, s.RoomIR))
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// ApplyFile applies a parsed preset file onto an existing spec.
func ApplyFile(dst *Spec, f *File) error {
	if dst == nil {
		return fmt.Errorf("nil destination spec")
	}
	if f == nil {
		return nil
	}

	if name := strings.TrimSpace(f.Name); name != "" {
		dst.Name = name
	}
	if f.Kind != "" {
		switch k := Kind(strings.ToLower(strings.TrimSpace(f.Kind))); k {
		case Additive, Spectral:
			dst.Kind = k
		default:
			return fmt.Errorf("kind must be %q or %q, got %q", Additive, Spectral, f.Kind)
		}
	}
	if f.Master != nil {
		if *f.Master <= 0 {
			return fmt.Errorf("master must be > 0")
		}
		dst.Master = *f.Master
	}
	if f.VelocityCurve != nil {
		if *f.VelocityCurve <= 0 {
			return fmt.Errorf("velocity_curve must be > 0")
		}
		dst.VelocityCurve = *f.VelocityCurve
	}
	if f.Declick != nil {
		if *f.Declick < 0 {
			return fmt.Errorf("declick must be >= 0")
		}
		dst.Declick = *f.Declick
	}
	if f.Envelope != nil {
		env, err := applyEnvelope(dst.Envelope, f.Envelope)
		if err != nil {
			return fmt.Errorf("envelope: %w", err)
		}
		dst.Envelope = env
	}
	if f.Harmonics != nil && len(f.Amplitudes) > 0 {
		return fmt.Errorf("harmonics and amplitudes are mutually exclusive")
	}
	if f.Harmonics != nil {
		if f.Harmonics.Count <= 0 {
			return fmt.Errorf("harmonics.count must be > 0")
		}
		if f.Harmonics.Power < 0 {
			return fmt.Errorf("harmonics.power must be >= 0")
		}
		dst.Amplitudes = synth.PowerLawAmplitudes(f.Harmonics.Count, f.Harmonics.Power)
	}
	if len(f.Amplitudes) > 0 {
		for i, a := range f.Amplitudes {
			if a < 0 {
				return fmt.Errorf("amplitudes[%d] must be >= 0", i)
			}
		}
		dst.Amplitudes = append([]float64(nil), f.Amplitudes...)
	}
	if len(f.Partials) > 0 {
		ps := make([]synth.SpectralPartial, len(f.Partials))
		for i, p := range f.Partials {
			if p.Ratio <= 0 {
				return fmt.Errorf("partials[%d].ratio must be > 0", i)
			}
			if p.Amp < 0 {
				return fmt.Errorf("partials[%d].amp must be >= 0", i)
			}
			env := dst.Envelope
			if p.Envelope != nil {
				var err error
				if env, err = applyEnvelope(env, p.Envelope); err != nil {
					return fmt.Errorf("partials[%d].envelope: %w", i, err)
				}
			}
			ps[i] = synth.SpectralPartial{
				Partial:  synth.Partial{Ratio: p.Ratio, Amp: p.Amp, Phase: p.Phase},
				Envelope: env,
			}
		}
		dst.Partials = ps
	}
	if f.Tuning != nil {
		if f.Tuning.BaseNote != nil {
			dst.Tuning.BaseNote = *f.Tuning.BaseNote
		}
		if f.Tuning.BaseFreq != nil {
			if *f.Tuning.BaseFreq <= 0 {
				return fmt.Errorf("tuning.base_freq must be > 0")
			}
			dst.Tuning.BaseFreq = *f.Tuning.BaseFreq
		}
		if f.Tuning.TonesPerOctave != nil {
			if *f.Tuning.TonesPerOctave <= 0 {
				return fmt.Errorf("tuning.tones_per_octave must be > 0")
			}
			dst.Tuning.TonesPerOctave = *f.Tuning.TonesPerOctave
		}
	}
	if f.RoomIR != "" {
		dst.RoomIR = strings.TrimSpace(f.RoomIR)
	}
	return nil
}

func applyEnvelope(env synth.EnvelopeSpec, f *EnvelopeFile) (synth.EnvelopeSpec, error) {
	switch strings.ToLower(strings.TrimSpace(f.Kind)) {
	case "":
	case "adsr":
		env.Kind = synth.EnvelopeADSR
	case "peak":
		env.Kind = synth.EnvelopePeak
	default:
		return env, fmt.Errorf("kind must be \"adsr\" or \"peak\", got %q", f.Kind)
	}
	if f.Attack != nil {
		env.Attack = *f.Attack
	}
	if f.Decay != nil {
		env.Decay = *f.Decay
	}
	if f.Sustain != nil {
		env.Sustain = *f.Sustain
	}
	if f.Release != nil {
		env.Release = *f.Release
	}
	return env, env.Validate()
}

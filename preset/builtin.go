package preset

import (
	"fmt"
	"slices"

	"github.com/cwbudde/algo-synth/synth"
)

// partial is a row of a built-in spectral table.
type partial struct {
	ratio, amp float64
	a, d, s, r float64
}

func spectral(name string, master float32, curve float64, rows []partial) *Spec {
	ps := make([]synth.SpectralPartial, len(rows))
	for i, p := range rows {
		ps[i] = synth.SpectralPartial{
			Partial:  synth.Partial{Ratio: p.ratio, Amp: p.amp},
			Envelope: synth.ADSRSpec(p.a, p.d, p.s, p.r),
		}
	}
	return &Spec{
		Name:          name,
		Kind:          Spectral,
		Master:        master,
		VelocityCurve: curve,
		Partials:      ps,
		Tuning:        synth.DefaultTuning(),
	}
}

// Spectral presets default to master 0.8 and velocity curve 1.6.
const (
	defaultMaster = 0.8
	defaultCurve  = 1.6
)

var builtins = map[string]func() *Spec{
	"piano": func() *Spec {
		return spectral("piano", defaultMaster, defaultCurve, []partial{
			{1.00, 1.0, 0.002, 0.05, 0.6, 0.6},
			{2.01, 0.6, 0.002, 0.04, 0.4, 0.5},
			{3.03, 0.4, 0.002, 0.03, 0.3, 0.4},
			{4.06, 0.3, 0.002, 0.03, 0.2, 0.4},
			{5.10, 0.2, 0.002, 0.03, 0.2, 0.4},
			{6.15, 0.15, 0.002, 0.03, 0.1, 0.4},
			{7.20, 0.10, 0.002, 0.03, 0.1, 0.4},
			{8.27, 0.08, 0.002, 0.03, 0.1, 0.4},
			{9.35, 0.06, 0.002, 0.03, 0.1, 0.4},
			{10.45, 0.05, 0.002, 0.03, 0.1, 0.4},
		})
	},
	"steel-drum": func() *Spec {
		return spectral("steel-drum", defaultMaster, defaultCurve, []partial{
			{1.0, 1.0, 0.05, 0.02, 0.01, 0.01},
			{2.0, 0.2, 0.01, 0.02, 0.01, 0.01},
			{2.6, 0.1, 0.01, 0.02, 0.01, 0.01},
			{3.2, 0.1, 0.01, 0.02, 0.01, 0.01},
			{5.6, 0.1, 0.01, 0.02, 0.01, 0.01},
			{8.2, 0.1, 0.01, 0.02, 0.01, 0.01},
			{2.9, 0.1, 0.01, 0.02, 0.01, 0.01},
			{3.0, 0.1, 0.01, 0.02, 0.01, 0.01},
			{4.2, 0.1, 0.01, 0.02, 0.01, 0.01},
			{6.6, 0.1, 0.01, 0.02, 0.01, 0.01},
		})
	},
	"clock-bell": func() *Spec {
		return spectral("clock-bell", defaultMaster, defaultCurve, []partial{
			{1.0, 0.5, 0.005, 0.05, 0.5, 0.4},
			{1.3, 0.1, 0.005, 0.04, 0.3, 0.3},
			{1.6, 0.1, 0.005, 0.04, 0.3, 0.3},
			{1.9, 0.1, 0.005, 0.03, 0.2, 0.25},
			{2.2, 0.1, 0.005, 0.03, 0.2, 0.25},
		})
	},
	"metallic-chime": func() *Spec {
		return spectral("metallic-chime", defaultMaster, defaultCurve, []partial{
			{1, 0.30, 0.005, 0.05, 0.6, 0.3},
			{3, 0.20, 0.005, 0.04, 0.4, 0.3},
			{5, 0.10, 0.005, 0.03, 0.3, 0.25},
			{7, 0.10, 0.005, 0.03, 0.2, 0.20},
			{9, 0.10, 0.005, 0.03, 0.2, 0.20},
		})
	},
	"small-gong": func() *Spec {
		rows := []partial{{0.04, 0.079, 0.001, 0.035, 0, 0.030}}
		add := func(d, r float64, pairs ...float64) {
			for i := 0; i+1 < len(pairs); i += 2 {
				rows = append(rows, partial{pairs[i], pairs[i+1], 0.001, d, 0, r})
			}
		}
		add(0.030, 0.025,
			3.00, 0.792, 4.08, 0.127, 6.02, 0.253, 7.08, 0.177,
			7.88, 0.773, 8.57, 0.053, 10.90, 0.119)
		add(0.022, 0.018,
			11.89, 0.176, 12.64, 0.078, 13.22, 0.067, 13.81, 0.075, 14.91, 1.0)
		add(0.018, 0.014,
			20.97, 0.092, 22.13, 0.065, 22.96, 0.096, 23.81, 0.048, 28.04, 0.053,
			28.99, 0.011, 31.60, 0.075, 32.06, 0.049, 35.00, 0.073, 38.82, 0.053,
			39.49, 0.066, 42.12, 0.050, 47.03, 0.050, 50.88, 0.045, 51.62, 0.051)
		return spectral("small-gong", defaultMaster, defaultCurve, rows)
	},
	"lead": func() *Spec {
		return spectral("lead", defaultMaster, defaultCurve, []partial{
			{1.0, 1.0, 0.01, 0.2, 0.7, 0.4},
			{2.0, 0.6, 0.02, 0.12, 0.02, 0.25},
			{3.0, 0.2, 0.05, 0.10, 0.1, 0.8},
			{3.01, 0.2, 0.05, 0.05, 0.05, 0.7},
		})
	},
	"bass": func() *Spec {
		return spectral("bass", defaultMaster, defaultCurve, []partial{
			{1.0, 1.0, 0.01, 0.08, 0.05, 0.4},
			{2.0, 0.1, 0.02, 0.05, 0.02, 0.25},
			{3.0, 0.2, 0.05, 0.10, 0.1, 0.8},
			{4.01, 0.2, 0.05, 0.05, 0.05, 0.7},
			{4.1, 0.2, 0.05, 0.05, 0.05, 0.7},
			{4.15, 0.2, 0.05, 0.05, 0.05, 0.7},
		})
	},
	"organ": func() *Spec {
		s := DefaultSpec()
		s.Name = "organ"
		s.Master = 0.55
		s.Amplitudes = synth.PowerLawAmplitudes(6, 6)
		return s
	},
}

// Builtin returns a fresh copy of the named built-in preset.
func Builtin(name string) (*Spec, error) {
	mk, ok := builtins[name]
	if !ok {
		return nil, fmt.Errorf("unknown preset %q (have %v)", name, Names())
	}
	return mk(), nil
}

// Names lists the built-in presets in sorted order.
func Names() []string {
	names := make([]string, 0, len(builtins))
	for n := range builtins {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}

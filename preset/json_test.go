package preset

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/cwbudde/algo-synth/synth"
)

func writePreset(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "preset.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write preset: %v", err)
	}
	return path
}

func TestLoadJSONAppliesAdditiveOverrides(t *testing.T) {
	dir := t.TempDir()
	path := writePreset(t, dir, `{
  "name": "soft-organ",
  "master": 0.4,
  "velocity_curve": 2.0,
  "declick": 0.004,
  "envelope": {"attack": 0.01, "release": 0.5},
  "harmonics": {"count": 4, "power": 1},
  "tuning": {"base_freq": 432},
  "room_ir": "hall.wav"
}`)

	s, err := LoadJSON(path)
	if err != nil {
		t.Fatalf("LoadJSON: %v", err)
	}
	if s.Name != "soft-organ" || s.Kind != Additive {
		t.Fatalf("unexpected identity: name=%q kind=%q", s.Name, s.Kind)
	}
	if s.Master != 0.4 || s.VelocityCurve != 2.0 || s.Declick != 0.004 {
		t.Fatalf("scalar fields mismatch: %+v", s)
	}
	if s.Envelope.Attack != 0.01 || s.Envelope.Release != 0.5 {
		t.Fatalf("envelope override mismatch: %+v", s.Envelope)
	}
	// untouched fields keep the default envelope
	if s.Envelope.Decay != 0.08 || s.Envelope.Sustain != 0.6 {
		t.Fatalf("expected default decay/sustain, got %+v", s.Envelope)
	}
	want := []float64{1, 0.5, 1.0 / 3, 0.25}
	if len(s.Amplitudes) != len(want) {
		t.Fatalf("expected %d amplitudes, got %d", len(want), len(s.Amplitudes))
	}
	for i := range want {
		if d := s.Amplitudes[i] - want[i]; d > 1e-12 || d < -1e-12 {
			t.Fatalf("amplitude %d: expected %f, got %f", i, want[i], s.Amplitudes[i])
		}
	}
	if s.Tuning.BaseFreq != 432 || s.Tuning.BaseNote != 69 || s.Tuning.TonesPerOctave != 12 {
		t.Fatalf("tuning mismatch: %+v", s.Tuning)
	}
	if wantIR := filepath.Join(dir, "hall.wav"); s.RoomIR != wantIR {
		t.Fatalf("room_ir mismatch: got=%q want=%q", s.RoomIR, wantIR)
	}
}

func TestLoadJSONSpectralPartials(t *testing.T) {
	path := writePreset(t, t.TempDir(), `{
  "kind": "spectral",
  "partials": [
    {"ratio": 1, "amp": 1, "envelope": {"kind": "adsr", "attack": 0.002, "decay": 0.05, "sustain": 0.5, "release": 0.3}},
    {"ratio": 2.76, "amp": 0.4, "phase": 1.5, "envelope": {"kind": "peak", "attack": 0.001, "release": 0.2}}
  ]
}`)
	s, err := LoadJSON(path)
	if err != nil {
		t.Fatalf("LoadJSON: %v", err)
	}
	if s.Kind != Spectral || len(s.Partials) != 2 {
		t.Fatalf("expected 2 spectral partials, got kind=%q n=%d", s.Kind, len(s.Partials))
	}
	p := s.Partials[1]
	if p.Ratio != 2.76 || p.Amp != 0.4 || p.Phase != 1.5 {
		t.Fatalf("partial mismatch: %+v", p.Partial)
	}
	if p.Envelope.Kind != synth.EnvelopePeak || p.Envelope.Release != 0.2 {
		t.Fatalf("partial envelope mismatch: %+v", p.Envelope)
	}
	if _, err := s.Build(); err != nil {
		t.Fatalf("Build: %v", err)
	}
}

func TestLoadJSONBaseBuiltin(t *testing.T) {
	path := writePreset(t, t.TempDir(), `{"base": "clock-bell", "master": 0.5}`)
	s, err := LoadJSON(path)
	if err != nil {
		t.Fatalf("LoadJSON: %v", err)
	}
	if s.Kind != Spectral || len(s.Partials) != 5 {
		t.Fatalf("expected clock-bell partials, got kind=%q n=%d", s.Kind, len(s.Partials))
	}
	if s.Master != 0.5 {
		t.Fatalf("expected master override 0.5, got %f", s.Master)
	}
}

func TestLoadJSONRejectsInvalid(t *testing.T) {
	cases := []struct {
		name    string
		content string
	}{
		{"bad json", `{`},
		{"unknown base", `{"base": "theremin"}`},
		{"unknown kind", `{"kind": "wavetable"}`},
		{"zero master", `{"master": 0}`},
		{"negative curve", `{"velocity_curve": -1}`},
		{"sustain range", `{"envelope": {"sustain": 1.5}}`},
		{"envelope kind", `{"envelope": {"kind": "ahdsr"}}`},
		{"harmonics count", `{"harmonics": {"count": 0, "power": 1}}`},
		{"both stacks", `{"harmonics": {"count": 2, "power": 1}, "amplitudes": [1, 0.5]}`},
		{"negative amp", `{"amplitudes": [1, -0.5]}`},
		{"partial ratio", `{"kind": "spectral", "partials": [{"ratio": 0, "amp": 1}]}`},
		{"spectral empty", `{"kind": "spectral"}`},
		{"tuning freq", `{"tuning": {"base_freq": 0}}`},
		{"tuning tones", `{"tuning": {"tones_per_octave": 0}}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := writePreset(t, t.TempDir(), tc.content)
			if _, err := LoadJSON(path); err == nil {
				t.Fatalf("expected error for %s", tc.content)
			}
		})
	}
}

func TestApplyFileNilInputs(t *testing.T) {
	if err := ApplyFile(nil, &File{}); err == nil {
		t.Fatalf("expected error for nil destination")
	}
	s := DefaultSpec()
	if err := ApplyFile(s, nil); err != nil {
		t.Fatalf("nil file should be a no-op, got %v", err)
	}
}

func TestParseJSONKeepsAbsoluteRoomIR(t *testing.T) {
	abs := filepath.Join(t.TempDir(), "ir.wav")
	s, err := ParseJSON([]byte(`{"room_ir": "`+filepath.ToSlash(abs)+`"}`), "/elsewhere")
	if err != nil {
		t.Fatalf("ParseJSON: %v", err)
	}
	if s.RoomIR != filepath.Clean(filepath.ToSlash(abs)) {
		t.Fatalf("expected absolute path kept, got %q", s.RoomIR)
	}
}

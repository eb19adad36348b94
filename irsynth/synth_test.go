package irsynth

import (
	"math"
	"testing"
)

func TestGenerateRoomBasic(t *testing.T) {
	cfg := DefaultRoomConfig()
	cfg.SampleRate = 48000
	cfg.Duration = 0.5
	cfg.Seed = 42
	cfg.NormalizePeak = 0.8

	l, r, err := GenerateRoom(cfg)
	if err != nil {
		t.Fatalf("GenerateRoom: %v", err)
	}
	if len(l) != 24000 || len(r) != len(l) {
		t.Fatalf("unexpected output lengths: L=%d R=%d", len(l), len(r))
	}
	maxAbs, energy := 0.0, 0.0
	for i := range l {
		for _, v := range []float32{l[i], r[i]} {
			f := float64(v)
			if math.IsNaN(f) || math.IsInf(f, 0) {
				t.Fatalf("non-finite sample at %d", i)
			}
			maxAbs = math.Max(maxAbs, math.Abs(f))
			energy += f * f
		}
	}
	if energy <= 1e-8 {
		t.Fatalf("expected non-zero energy")
	}
	if math.Abs(maxAbs-0.8) > 1e-3 {
		t.Fatalf("expected peak normalized to 0.8, got %.6f", maxAbs)
	}
}

func TestGenerateRoomDeterministicForSeed(t *testing.T) {
	cfg := DefaultRoomConfig()
	cfg.SampleRate = 16000
	cfg.Duration = 0.2
	cfg.Seed = 99

	l1, r1, err := GenerateRoom(cfg)
	if err != nil {
		t.Fatal(err)
	}
	l2, r2, _ := GenerateRoom(cfg)
	for i := range l1 {
		if l1[i] != l2[i] || r1[i] != r2[i] {
			t.Fatalf("non-deterministic output at index %d", i)
		}
	}
	cfg.Seed = 100
	l3, _, _ := GenerateRoom(cfg)
	same := true
	for i := range l1 {
		if l1[i] != l3[i] {
			same = false
			break
		}
	}
	if same {
		t.Fatalf("expected a different seed to change the IR")
	}
}

func TestGenerateRoomTailDecays(t *testing.T) {
	cfg := DefaultRoomConfig()
	cfg.SampleRate = 16000
	cfg.Duration = 1.0
	cfg.LowDecay = 0.4
	cfg.FadeOut = 0
	l, _, err := GenerateRoom(cfg)
	if err != nil {
		t.Fatal(err)
	}
	early := rms(l[1600:4800])
	late := rms(l[12800:16000])
	if late >= early*0.5 {
		t.Fatalf("expected tail to decay, early rms=%g late rms=%g", early, late)
	}
}

func TestGenerateRoomFadeOutEndsAtZero(t *testing.T) {
	cfg := DefaultRoomConfig()
	cfg.SampleRate = 16000
	cfg.Duration = 0.3
	cfg.FadeOut = 0.02
	l, r, err := GenerateRoom(cfg)
	if err != nil {
		t.Fatal(err)
	}
	last := len(l) - 1
	if math.Abs(float64(l[last])) > 1e-3 || math.Abs(float64(r[last])) > 1e-3 {
		t.Fatalf("expected faded tail, got %g/%g", l[last], r[last])
	}
}

func TestRoomConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*RoomConfig)
	}{
		{"low sample rate", func(c *RoomConfig) { c.SampleRate = 4000 }},
		{"zero duration", func(c *RoomConfig) { c.Duration = 0 }},
		{"negative early count", func(c *RoomConfig) { c.EarlyCount = -1 }},
		{"wide stereo", func(c *RoomConfig) { c.StereoWidth = 1.5 }},
		{"zero brightness", func(c *RoomConfig) { c.Brightness = 0 }},
		{"zero decay", func(c *RoomConfig) { c.HighDecay = 0 }},
		{"zero normalize", func(c *RoomConfig) { c.NormalizePeak = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultRoomConfig()
			tt.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}
	cfg := DefaultRoomConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected defaults to validate, got %v", err)
	}
}

func rms(x []float32) float64 {
	var sum float64
	for _, v := range x {
		sum += float64(v) * float64(v)
	}
	return math.Sqrt(sum / float64(len(x)))
}

package dsp

import (
	"math"
	"math/rand"
	"testing"
)

func TestSoftClipIsBoundedByUnity(t *testing.T) {
	for _, drive := range []float32{1.1, 1.3, 1.5, 2.0} {
		for _, x := range []float32{-10, -1, -0.5, 0, 0.5, 1, 10} {
			y := SoftClip(x, drive)
			bound := float32(1.0 / math.Tanh(float64(drive)))
			if math.Abs(float64(y)) > float64(bound) {
				t.Fatalf("drive=%.2f x=%.2f: expected |y| <= %f, got %f", drive, x, bound, y)
			}
		}
		if got := SoftClip(1, drive); math.Abs(float64(got)-1) > 1e-6 {
			t.Fatalf("drive=%.2f: expected SoftClip(1)=1, got %f", drive, got)
		}
	}
}

func TestLimiterHardCapsPeak(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	lim := NewLimiter(1.3, 512)
	x := make([]float32, 512)
	for trial := 0; trial < 50; trial++ {
		for i := range x {
			x[i] = float32(rng.NormFloat64() * 4)
		}
		res := lim.Process(x)
		if res.PostPeak > 1+1e-6 {
			t.Fatalf("trial %d: expected post peak <= 1, got %f", trial, res.PostPeak)
		}
		if got := PeakAbs(x); got > 1+1e-6 {
			t.Fatalf("trial %d: expected buffer peak <= 1, got %f", trial, got)
		}
		if !res.Limited {
			t.Fatalf("trial %d: expected limiting on hot input", trial)
		}
	}
}

func TestLimiterSilenceIsNotLimited(t *testing.T) {
	lim := NewLimiter(1.3, 64)
	x := make([]float32, 64)
	res := lim.Process(x)
	if res.Limited || res.PrePeak != 0 || res.PostPeak != 0 {
		t.Fatalf("expected untouched silence, got %+v", res)
	}
}

func TestLimiterReplacesNonFiniteBlockWithSilence(t *testing.T) {
	lim := NewLimiter(1.3, 4)
	x := []float32{0.1, float32(math.NaN()), 0.2, 0.3}
	res := lim.Process(x)
	if res.PostPeak != 0 {
		t.Fatalf("expected silenced block, got post peak %f", res.PostPeak)
	}
}

func TestDBConversions(t *testing.T) {
	if got := LinearToDB(0); math.Abs(got+240) > 1e-9 {
		t.Fatalf("expected floor -240 dB, got %f", got)
	}
	if got := LinearToDB(1); got != 0 {
		t.Fatalf("expected 0 dB, got %f", got)
	}
	for _, db := range []float64{-60, -20, -6, 0, 6} {
		want := math.Pow(10, db/20)
		got := DBToLinear(db)
		if math.Abs(got-want)/want > 1e-2 {
			t.Fatalf("DBToLinear(%f): expected %f, got %f", db, want, got)
		}
	}
}

func TestPanGainsEqualPower(t *testing.T) {
	tests := []struct {
		pan  float32
		l, r float64
	}{
		{-1, 1, 0},
		{0, math.Sqrt2 / 2, math.Sqrt2 / 2},
		{1, 0, 1},
		{-3, 1, 0},
	}
	for _, tt := range tests {
		l, r := PanGains(tt.pan)
		if math.Abs(float64(l)-tt.l) > 1e-6 || math.Abs(float64(r)-tt.r) > 1e-6 {
			t.Fatalf("pan=%.1f: expected (%f,%f), got (%f,%f)", tt.pan, tt.l, tt.r, l, r)
		}
		if p := float64(l*l + r*r); math.Abs(p-1) > 1e-6 {
			t.Fatalf("pan=%.1f: expected constant power, got %f", tt.pan, p)
		}
	}
}

func TestVoiceCountGain(t *testing.T) {
	if got := VoiceCountGain(0.8, 0); got != 0.8 {
		t.Fatalf("expected 0.8 for zero voices, got %f", got)
	}
	if got := VoiceCountGain(0.8, 4); math.Abs(float64(got)-0.4) > 1e-6 {
		t.Fatalf("expected 0.4 for four voices, got %f", got)
	}
}

func TestGainSmootherConverges(t *testing.T) {
	s := NewGainSmoother(0.2)
	if got := s.Next(1); got != 1 {
		t.Fatalf("expected first call to snap, got %f", got)
	}
	prev := float32(1)
	for i := 0; i < 60; i++ {
		g := s.Next(0.5)
		if g > prev {
			t.Fatalf("expected monotone approach, got %f after %f", g, prev)
		}
		prev = g
	}
	if math.Abs(float64(prev)-0.5) > 1e-4 {
		t.Fatalf("expected convergence to 0.5, got %f", prev)
	}
}

func BenchmarkLimiter256(b *testing.B) {
	lim := NewLimiter(1.3, 256)
	x := make([]float32, 256)
	for i := range x {
		x[i] = float32(math.Sin(float64(i) * 0.1))
	}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		lim.Process(x)
	}
}

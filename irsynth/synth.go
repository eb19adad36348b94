// Package irsynth builds synthetic stereo room impulse responses for the
// engine's master room stage.
package irsynth

import (
	"fmt"
	"math"
	"math/rand/v2"
)

// RoomConfig controls room IR generation. Times are in seconds.
type RoomConfig struct {
	SampleRate int
	Duration   float64
	Seed       uint64

	PreDelay    float64 // gap before the first reflection
	EarlyCount  int
	EarlyWindow float64 // reflections land within PreDelay..PreDelay+EarlyWindow
	LateLevel   float64
	StereoWidth float64
	Brightness  float64 // >1 keeps more high-frequency noise in the tail

	LowDecay  float64 // RT-style time constant of the dark tail band
	HighDecay float64 // time constant of the bright tail band
	FadeOut   float64

	NormalizePeak float64
}

// DefaultRoomConfig returns a medium room at 44.1 kHz.
func DefaultRoomConfig() RoomConfig {
	return RoomConfig{
		SampleRate:    44100,
		Duration:      1.2,
		Seed:          1,
		PreDelay:      0.004,
		EarlyCount:    24,
		EarlyWindow:   0.045,
		LateLevel:     0.06,
		StereoWidth:   0.6,
		Brightness:    0.8,
		LowDecay:      1.2,
		HighDecay:     0.2,
		FadeOut:       0.01,
		NormalizePeak: 0.9,
	}
}

func (c *RoomConfig) Validate() error {
	if c.SampleRate < 8000 {
		return fmt.Errorf("sample rate too low: %d", c.SampleRate)
	}
	if c.Duration <= 0 {
		return fmt.Errorf("duration must be > 0")
	}
	if c.PreDelay < 0 || c.EarlyWindow < 0 {
		return fmt.Errorf("pre-delay and early window must be >= 0")
	}
	if c.EarlyCount < 0 {
		return fmt.Errorf("early count must be >= 0")
	}
	if c.LateLevel < 0 {
		return fmt.Errorf("late level must be >= 0")
	}
	if c.StereoWidth < 0 || c.StereoWidth > 1 {
		return fmt.Errorf("stereo width must be in [0,1]")
	}
	if c.Brightness <= 0 {
		return fmt.Errorf("brightness must be > 0")
	}
	if c.LowDecay <= 0 || c.HighDecay <= 0 {
		return fmt.Errorf("decay times must be > 0")
	}
	if c.FadeOut < 0 {
		return fmt.Errorf("fade-out must be >= 0")
	}
	if c.NormalizePeak <= 0 {
		return fmt.Errorf("normalize peak must be > 0")
	}
	return nil
}

// Length returns the IR length in samples.
func (c *RoomConfig) Length() int {
	return max(1, int(math.Round(c.Duration*float64(c.SampleRate))))
}

// GenerateRoom renders a deterministic stereo IR: a direct impulse, sparse
// early reflections and a two-band decaying noise tail.
func GenerateRoom(cfg RoomConfig) (left, right []float32, err error) {
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	n := cfg.Length()
	l := make([]float64, n)
	r := make([]float64, n)
	rng := rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15))

	l[0], r[0] = 1, 1
	addEarly(l, r, &cfg, rng)
	addTail(l, r, &cfg, rng)

	for _, ch := range [][]float64{l, r} {
		removeDC(ch, 0.995)
		fadeOut(ch, int(math.Round(cfg.FadeOut*float64(cfg.SampleRate))))
	}
	scale := cfg.NormalizePeak / math.Max(1e-12, math.Max(peak(l), peak(r)))
	return toFloat32(l, scale), toFloat32(r, scale), nil
}

func addEarly(l, r []float64, cfg *RoomConfig, rng *rand.Rand) {
	sr := float64(cfg.SampleRate)
	for range cfg.EarlyCount {
		t := cfg.PreDelay + cfg.EarlyWindow*rng.Float64()
		idx := int(t * sr)
		// Draw everything before the bounds check so the sequence does not
		// depend on the IR length.
		amp := (0.1 + 0.35*rng.Float64()) * math.Exp(-20*t)
		amp *= math.Pow(0.5+0.5*rng.Float64(), 1/cfg.Brightness)
		pan := (2*rng.Float64() - 1) * cfg.StereoWidth
		if idx <= 0 || idx >= len(l) {
			continue
		}
		l[idx] += amp * (1 - 0.5*pan)
		r[idx] += amp * (1 + 0.5*pan)
	}
}

func addTail(l, r []float64, cfg *RoomConfig, rng *rand.Rand) {
	if cfg.LateLevel == 0 {
		return
	}
	sr := float64(cfg.SampleRate)
	start := int((cfg.PreDelay + cfg.EarlyWindow/2) * sr)
	bright := max(0, 0.3*(cfg.Brightness-0.3))
	var lowL, lowR, highL, highR float64
	for i := start; i < len(l); i++ {
		t := float64(i-start) / sr
		lowEnv := math.Exp(-t / (0.75 * cfg.LowDecay))
		highEnv := math.Exp(-t / (0.75 * cfg.HighDecay))
		nl, nr := rng.NormFloat64(), rng.NormFloat64()
		lowL += 0.015 * (nl - lowL)
		lowR += 0.015 * (nr - lowR)
		highL = 0.15*nl - 0.15*highL
		highR = 0.15*nr - 0.15*highR
		l[i] += cfg.LateLevel * (lowEnv*lowL + bright*highEnv*highL)
		r[i] += cfg.LateLevel * (lowEnv*lowR + bright*highEnv*highR)
	}
}

func removeDC(x []float64, pole float64) {
	var prevIn, prevOut float64
	for i, v := range x {
		y := v - prevIn + pole*prevOut
		prevIn, prevOut = v, y
		x[i] = y
	}
}

// fadeOut applies a raised-cosine fade to the last n samples.
func fadeOut(x []float64, n int) {
	n = min(n, len(x))
	start := len(x) - n
	for i := range n {
		x[start+i] *= 0.5 * (1 + math.Cos(math.Pi*float64(i)/float64(n)))
	}
}

func peak(x []float64) float64 {
	m := 0.0
	for _, v := range x {
		m = math.Max(m, math.Abs(v))
	}
	return m
}

func toFloat32(x []float64, scale float64) []float32 {
	out := make([]float32, len(x))
	for i, v := range x {
		out[i] = float32(v * scale)
	}
	return out
}

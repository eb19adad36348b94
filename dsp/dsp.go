package dsp

import (
	"math"

	"github.com/cwbudde/algo-approx"
)

// DBFloor is the smallest linear value considered by LinearToDB.
const DBFloor = 1e-12

// SoftClip applies the saturating limiter curve tanh(drive*x)/tanh(drive).
func SoftClip(x float32, drive float32) float32 {
	d := float64(drive)
	return float32(math.Tanh(d*float64(x)) / math.Tanh(d))
}

// SoftClipBlock limits src into dst. dst and src may alias.
func SoftClipBlock(dst []float32, src []float32, drive float32) {
	d := float64(drive)
	norm := 1.0 / math.Tanh(d)
	for i, x := range src {
		dst[i] = float32(math.Tanh(d*float64(x)) * norm)
	}
}

// LinearToDB converts a linear magnitude to decibels relative to full scale.
func LinearToDB(x float64) float64 {
	if x < DBFloor {
		x = DBFloor
	}
	return 20.0 * math.Log10(x)
}

// DBToLinear converts decibels to a linear gain factor.
func DBToLinear(db float64) float64 {
	const ln10Over20 = 0.11512925464970228
	return float64(approx.FastExp(float32(db * ln10Over20)))
}

// PanGains returns equal-power left/right gains for pan in [-1,1].
func PanGains(pan float32) (float32, float32) {
	if pan < -1 {
		pan = -1
	}
	if pan > 1 {
		pan = 1
	}
	angle := (float64(pan) + 1.0) * math.Pi / 4.0
	return float32(math.Cos(angle)), float32(math.Sin(angle))
}

// VoiceCountGain scales master by 1/sqrt(n), treating n < 1 as a single voice.
func VoiceCountGain(master float32, n int) float32 {
	if n < 1 {
		n = 1
	}
	return master / float32(math.Sqrt(float64(n)))
}

// PeakAbs returns the largest absolute sample value.
func PeakAbs(x []float32) float32 {
	var peak float32
	for _, v := range x {
		if v < 0 {
			v = -v
		}
		if v > peak {
			peak = v
		}
	}
	return peak
}

// RMS returns the root mean square of x, or 0 for an empty block.
func RMS(x []float32) float64 {
	if len(x) == 0 {
		return 0
	}
	var sum float64
	for _, v := range x {
		f := float64(v)
		sum += f * f
	}
	return math.Sqrt(sum / float64(len(x)))
}

// Scale multiplies x in place by g.
func Scale(x []float32, g float32) {
	for i := range x {
		x[i] *= g
	}
}

// Clear zeroes x.
func Clear(x []float32) {
	for i := range x {
		x[i] = 0
	}
}

func allFinite(x []float32) bool {
	for _, v := range x {
		f := float64(v)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return false
		}
	}
	return true
}

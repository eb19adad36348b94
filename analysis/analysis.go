// Package analysis measures rendered audio: level statistics, spectra,
// pitch and decay rate.
package analysis

import (
	"fmt"
	"math"
	"math/bits"
	"math/cmplx"

	algofft "github.com/cwbudde/algo-fft"
)

// Stats summarizes the level of a buffer.
type Stats struct {
	Frames int     `json:"frames"`
	Peak   float64 `json:"peak"`
	RMS    float64 `json:"rms"`
	DC     float64 `json:"dc"`
	PeakDB float64 `json:"peak_dbfs"`
	RMSDB  float64 `json:"rms_dbfs"`
}

// Measure returns level statistics for x.
func Measure(x []float32) Stats {
	s := Stats{Frames: len(x)}
	if len(x) == 0 {
		s.PeakDB, s.RMSDB = linToDB(0), linToDB(0)
		return s
	}
	var sum, sq float64
	for _, v := range x {
		f := float64(v)
		sum += f
		sq += f * f
		s.Peak = max(s.Peak, math.Abs(f))
	}
	s.DC = sum / float64(len(x))
	s.RMS = math.Sqrt(sq / float64(len(x)))
	s.PeakDB = linToDB(s.Peak)
	s.RMSDB = linToDB(s.RMS)
	return s
}

// Spectrum returns Hann-windowed magnitudes for bins 0..n/2 and the bin
// width in Hz. x is zero-padded to the next power of two.
func Spectrum(x []float64, sampleRate int) ([]float64, float64, error) {
	if sampleRate <= 0 {
		return nil, 0, fmt.Errorf("sample rate must be > 0")
	}
	if len(x) < 2 {
		return nil, 0, fmt.Errorf("need at least 2 samples, got %d", len(x))
	}
	n := 1 << bits.Len(uint(len(x)-1))
	plan, err := algofft.NewPlanReal64(n)
	if err != nil {
		return nil, 0, fmt.Errorf("fft plan: %w", err)
	}
	buf := make([]float64, n)
	den := float64(len(x) - 1)
	for i, v := range x {
		buf[i] = v * (0.5 - 0.5*math.Cos(2*math.Pi*float64(i)/den))
	}
	spec := make([]complex128, n/2+1)
	plan.Forward(spec, buf)

	mags := make([]float64, len(spec))
	for k, c := range spec {
		mags[k] = cmplx.Abs(c)
	}
	return mags, float64(sampleRate) / float64(n), nil
}

// FundamentalHz returns the strongest spectral peak between minHz and
// maxHz, refined by parabolic interpolation of the log magnitudes.
// It returns 0 when the range holds no energy.
func FundamentalHz(x []float64, sampleRate int, minHz, maxHz float64) (float64, error) {
	mags, binHz, err := Spectrum(x, sampleRate)
	if err != nil {
		return 0, err
	}
	lo := max(1, int(math.Ceil(minHz/binHz)))
	hi := min(len(mags)-2, int(math.Floor(maxHz/binHz)))
	best, bestMag := -1, 0.0
	for k := lo; k <= hi; k++ {
		if mags[k] > bestMag {
			best, bestMag = k, mags[k]
		}
	}
	if best < 0 {
		return 0, nil
	}
	a := math.Log(mags[best-1] + 1e-30)
	b := math.Log(mags[best] + 1e-30)
	c := math.Log(mags[best+1] + 1e-30)
	offset := 0.0
	if d := a - 2*b + c; d < 0 {
		offset = 0.5 * (a - c) / d
	}
	return (float64(best) + offset) * binHz, nil
}

// PeriodSamples estimates the period of x as the lag of the highest
// autocorrelation peak in [minLag, maxLag], with sub-sample refinement.
// The autocorrelation is computed as an FFT convolution of x with its reverse.
func PeriodSamples(x []float32, minLag, maxLag int) (float64, error) {
	n := len(x)
	if minLag < 1 || maxLag < minLag || maxLag >= n-1 {
		return 0, fmt.Errorf("lag range [%d,%d] invalid for %d samples", minLag, maxLag, n)
	}
	rev := make([]float32, n)
	for i, v := range x {
		rev[n-1-i] = v
	}
	conv := make([]float32, 2*n-1)
	if err := algofft.ConvolveReal(conv, x, rev); err != nil {
		return 0, fmt.Errorf("autocorrelation: %w", err)
	}
	// lag k sits at index n-1+k; the shrinking overlap favors the shortest period
	corr := func(k int) float64 { return float64(conv[n-1+k]) }

	// skip the main lobe around lag 0
	start := minLag
	for start < maxLag && corr(start+1) < corr(start) {
		start++
	}
	best, bestVal := -1, math.Inf(-1)
	for k := start; k <= maxLag; k++ {
		if v := corr(k); v > bestVal {
			best, bestVal = k, v
		}
	}
	if best <= 0 {
		return 0, nil
	}
	if best > minLag && best < maxLag {
		a, b, c := corr(best-1), corr(best), corr(best+1)
		if d := a - 2*b + c; d < 0 {
			return float64(best) + 0.5*(a-c)/d, nil
		}
	}
	return float64(best), nil
}

// DecayDBPerSecond fits a line to the RMS envelope after its peak, down to
// 60 dB below it. Negative values mean the signal is dying away. NaN means
// the signal is too short or flat to fit.
func DecayDBPerSecond(x []float32, sampleRate int) float64 {
	const frame, hop = 256, 128
	if sampleRate <= 0 {
		return math.NaN()
	}
	env := rmsEnvelope(x, frame, hop)
	return decaySlopeDBPerS(env, float64(hop)/float64(sampleRate))
}

func rmsEnvelope(x []float32, frame int, hop int) []float64 {
	if frame <= 0 || hop <= 0 || len(x) < frame {
		return nil
	}
	n := 1 + (len(x)-frame)/hop
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		var sum float64
		for _, v := range x[i*hop : i*hop+frame] {
			sum += float64(v) * float64(v)
		}
		out[i] = math.Sqrt(sum / float64(frame))
	}
	return out
}

func decaySlopeDBPerS(env []float64, hopSec float64) float64 {
	if len(env) < 8 || hopSec <= 0 {
		return math.NaN()
	}
	peak := math.Inf(-1)
	peakIdx := 0
	for i, v := range env {
		if db := linToDB(v); db > peak {
			peak, peakIdx = db, i
		}
	}
	start := peakIdx + 1
	if start >= len(env)-4 {
		return math.NaN()
	}

	threshold := peak - 60.0
	end := len(env)
	for i := start; i < len(env); i++ {
		if linToDB(env[i]) < threshold {
			end = i
			break
		}
	}
	if end-start < 6 {
		return math.NaN()
	}

	var sx, sy, sxx, sxy float64
	n := float64(end - start)
	for i := start; i < end; i++ {
		x := float64(i-start) * hopSec
		y := linToDB(env[i])
		sx += x
		sy += y
		sxx += x * x
		sxy += x * y
	}
	den := n*sxx - sx*sx
	if math.Abs(den) < 1e-12 {
		return math.NaN()
	}
	return (n*sxy - sx*sy) / den
}

func linToDB(x float64) float64 {
	if x < 1e-12 {
		x = 1e-12
	}
	return 20.0 * math.Log10(x)
}

// Report bundles the measurements printed after an offline render.
type Report struct {
	Stats
	FundamentalHz float64 `json:"fundamental_hz"`
	DecayDBPerS   float64 `json:"decay_db_per_s"`
}

// Analyze measures a mono buffer. The pitch search covers 20 Hz to 5 kHz.
func Analyze(x []float32, sampleRate int) (Report, error) {
	r := Report{Stats: Measure(x), DecayDBPerS: DecayDBPerSecond(x, sampleRate)}
	if len(x) < 2 {
		return r, nil
	}
	f := make([]float64, len(x))
	for i, v := range x {
		f[i] = float64(v)
	}
	hz, err := FundamentalHz(f, sampleRate, 20, 5000)
	if err != nil {
		return r, err
	}
	r.FundamentalHz = hz
	return r, nil
}

// Downmix averages interleaved frames to mono.
func Downmix(x []float32, channels int) []float32 {
	if channels <= 1 {
		return x
	}
	out := make([]float32, len(x)/channels)
	for i := range out {
		var sum float32
		for c := 0; c < channels; c++ {
			sum += x[i*channels+c]
		}
		out[i] = sum / float32(channels)
	}
	return out
}

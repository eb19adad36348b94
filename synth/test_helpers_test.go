package synth

import "math"

func renderChunks(render func(dst []float32), sizes ...int) []float32 {
	total := 0
	for _, n := range sizes {
		total += n
	}
	out := make([]float32, total)
	off := 0
	for _, n := range sizes {
		render(out[off : off+n])
		off += n
	}
	return out
}

func peakAbs(x []float32) float64 {
	m := 0.0
	for _, v := range x {
		if a := math.Abs(float64(v)); a > m {
			m = a
		}
	}
	return m
}

func mean(x []float32) float64 {
	if len(x) == 0 {
		return 0
	}
	var sum float64
	for _, v := range x {
		sum += float64(v)
	}
	return sum / float64(len(x))
}

func windowRMS(samples []float32) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, s := range samples {
		v := float64(s)
		sum += v * v
	}
	return math.Sqrt(sum / float64(len(samples)))
}

// autocorrPeriod finds the lag in [minLag,maxLag] maximizing the normalized
// autocorrelation, refined by parabolic interpolation.
func autocorrPeriod(x []float32, minLag, maxLag int) float64 {
	corr := func(lag int) float64 {
		n := len(x) - lag
		if n <= 0 {
			return 0
		}
		var sum float64
		for i := 0; i < n; i++ {
			sum += float64(x[i]) * float64(x[i+lag])
		}
		return sum / float64(n)
	}
	best := minLag
	bestV := math.Inf(-1)
	for lag := minLag; lag <= maxLag; lag++ {
		if v := corr(lag); v > bestV {
			bestV = v
			best = lag
		}
	}
	a, b, c := corr(best-1), bestV, corr(best+1)
	den := a - 2*b + c
	if den == 0 {
		return float64(best)
	}
	return float64(best) + 0.5*(a-c)/den
}

// sustainFactory yields sine voices that hold full level until released.
func sustainFactory(release float64) VoiceFactory {
	return VoiceFactoryFunc(func(freq float64, velocity int) Voice {
		return NewAdditiveVoice(freq, velocity, NewSine(0, 1), NewADSR(0, 0, 1, release), 1, 0)
	})
}

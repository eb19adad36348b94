package dsp

// LimitResult describes what a Limiter did to one block.
type LimitResult struct {
	PrePeak  float32
	PostPeak float32
	Limited  bool
}

// LimitEpsilon is the per-sample difference above which a block counts as limited.
const LimitEpsilon = 1e-7

// Limiter is the master safety stage: soft clip followed by a hard
// normalization whenever the clipped peak still exceeds full scale.
type Limiter struct {
	Drive float32
	dry   []float32
}

// NewLimiter creates a limiter with room for blocks of up to maxSamples.
func NewLimiter(drive float32, maxSamples int) *Limiter {
	return &Limiter{
		Drive: drive,
		dry:   make([]float32, maxSamples),
	}
}

// Process limits x in place. Blocks longer than the preallocated size are
// processed without limiting detection past that size.
func (l *Limiter) Process(x []float32) LimitResult {
	var res LimitResult
	if len(x) == 0 {
		return res
	}
	n := copy(l.dry, x)
	res.PrePeak = PeakAbs(x)

	SoftClipBlock(x, x, l.Drive)
	if !allFinite(x) {
		Clear(x)
	}
	res.PostPeak = PeakAbs(x)
	if res.PostPeak > 1 {
		Scale(x, 1/res.PostPeak)
		res.PostPeak = PeakAbs(x)
	}

	for i := 0; i < n; i++ {
		d := x[i] - l.dry[i]
		if d > LimitEpsilon || d < -LimitEpsilon {
			res.Limited = true
			break
		}
	}
	return res
}

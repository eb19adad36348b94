package synth

import "math"

// HarmonicStack sums sinusoids at integer multiples k*f0 (k = 1..N) with
// fixed, L1-normalized amplitudes. Each partial keeps its own phase.
type HarmonicStack struct {
	amps   []float64
	phases []float64
	incs   []float64
}

// NewHarmonicStack normalizes amps so their absolute values sum to 1.
// amps[0] is the fundamental.
func NewHarmonicStack(amps []float64) *HarmonicStack {
	norm := 0.0
	for _, a := range amps {
		norm += math.Abs(a)
	}
	if norm == 0 {
		norm = 1
	}
	h := &HarmonicStack{
		amps:   make([]float64, len(amps)),
		phases: make([]float64, len(amps)),
		incs:   make([]float64, len(amps)),
	}
	for i, a := range amps {
		h.amps[i] = a / norm
	}
	return h
}

// PowerLawAmplitudes returns n amplitudes following 1/k^power for k = 1..n.
func PowerLawAmplitudes(n int, power float64) []float64 {
	amps := make([]float64, n)
	for k := range amps {
		amps[k] = 1 / math.Pow(float64(k+1), power)
	}
	return amps
}

// Amplitudes returns a copy of the normalized partial amplitudes.
func (h *HarmonicStack) Amplitudes() []float64 {
	return append([]float64(nil), h.amps...)
}

func (h *HarmonicStack) Render(dst []float32, freq float64, sampleRate int) {
	base := twoPi * freq / float64(sampleRate)
	for k := range h.incs {
		h.incs[k] = base * float64(k+1)
	}
	for i := range dst {
		var acc float64
		for k, amp := range h.amps {
			ph := h.phases[k] + h.incs[k]
			ph -= twoPi * math.Floor(ph/twoPi)
			h.phases[k] = ph
			acc += amp * math.Sin(ph)
		}
		dst[i] = float32(acc)
	}
}

func (h *HarmonicStack) Reset() {
	clear(h.phases)
}

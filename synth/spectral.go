package synth

import "math"

// Partial is one sinusoid of a SpectralStack, at Ratio times the fundamental.
type Partial struct {
	Ratio float64
	Amp   float64
	Phase float64 // initial phase in radians
}

// SpectralStack sums arbitrary-ratio partials. Partials at or above Nyquist
// for the requested fundamental are skipped for that block and their phase
// is left untouched.
type SpectralStack struct {
	partials []Partial
	phases   []float64

	rows   [][]float32
	active []int
}

// NewSpectralStack copies partials; amplitudes are used as given.
func NewSpectralStack(partials []Partial) *SpectralStack {
	s := &SpectralStack{
		partials: append([]Partial(nil), partials...),
		phases:   make([]float64, len(partials)),
		rows:     make([][]float32, len(partials)),
		active:   make([]int, 0, len(partials)),
	}
	s.Reset()
	return s
}

// Len returns the number of partials, audible or not.
func (s *SpectralStack) Len() int {
	return len(s.partials)
}

// Partial returns the i-th partial definition.
func (s *SpectralStack) Partial(i int) Partial {
	return s.partials[i]
}

func (s *SpectralStack) audible(i int, freq float64, sampleRate int) bool {
	return s.partials[i].Ratio*freq < 0.5*float64(sampleRate)
}

func (s *SpectralStack) renderPartial(dst []float32, i int, freq float64, sampleRate int) {
	p := s.partials[i]
	inc := twoPi * p.Ratio * freq / float64(sampleRate)
	ph := s.phases[i]
	for n := range dst {
		ph += inc
		ph -= twoPi * math.Floor(ph/twoPi)
		dst[n] = float32(p.Amp * math.Sin(ph))
	}
	s.phases[i] = ph
}

// Render writes the sum of all audible partials into dst.
func (s *SpectralStack) Render(dst []float32, freq float64, sampleRate int) {
	rows, _ := s.RenderPartials(len(dst), freq, sampleRate)
	clear(dst)
	for _, row := range rows {
		for n, v := range row {
			dst[n] += v
		}
	}
}

// RenderPartials renders each audible partial into its own row and returns the
// rows with the partial indices they belong to, in declaration order. The
// returned slices are reused by the next call.
func (s *SpectralStack) RenderPartials(frames int, freq float64, sampleRate int) ([][]float32, []int) {
	s.active = s.active[:0]
	out := s.rows[:0]
	for i := range s.partials {
		if !s.audible(i, freq, sampleRate) {
			continue
		}
		row := grow(s.rows[len(out)], frames)
		s.renderPartial(row, i, freq, sampleRate)
		out = append(out, row)
		s.active = append(s.active, i)
	}
	return out, s.active
}

// ActiveRatios returns the ratios of partials audible at freq.
func (s *SpectralStack) ActiveRatios(freq float64, sampleRate int) []float64 {
	var ratios []float64
	for i, p := range s.partials {
		if s.audible(i, freq, sampleRate) {
			ratios = append(ratios, p.Ratio)
		}
	}
	return ratios
}

func (s *SpectralStack) Reset() {
	for i, p := range s.partials {
		s.phases[i] = p.Phase
	}
}

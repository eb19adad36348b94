package synth

// Peak is a one-shot envelope: linear rise over attack seconds, then linear
// fall over release seconds. GateOff has no effect.
type Peak struct {
	attack  float64
	release float64

	pos      int
	finished bool
}

// NewPeak creates a finished envelope; GateOn arms it.
func NewPeak(attack, release float64) *Peak {
	if attack < 0 {
		attack = 0
	}
	if release < 0 {
		release = 0
	}
	return &Peak{attack: attack, release: release, finished: true}
}

func (p *Peak) GateOn() {
	p.pos = 0
	p.finished = false
}

func (p *Peak) GateOff() {}

func (p *Peak) Finished() bool {
	return p.finished
}

func (p *Peak) valueAt(t float64) float32 {
	if p.attack > 0 && t < p.attack {
		return float32(t / p.attack)
	}
	if p.release > 0 && t < p.attack+p.release {
		return float32(1 - (t-p.attack)/p.release)
	}
	return 0
}

// Render fills dst; time is derived from an integer sample counter so split
// renders reproduce a single render exactly.
func (p *Peak) Render(dst []float32, sampleRate int) {
	if p.finished {
		clear(dst)
		return
	}
	sr := float64(sampleRate)
	for i := range dst {
		dst[i] = p.valueAt(float64(p.pos) / sr)
		p.pos++
	}
	total := p.attack + p.release
	if total == 0 || float64(p.pos)/sr >= total {
		p.finished = true
	}
}

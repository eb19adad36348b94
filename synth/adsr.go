package synth

// Stage is the current segment of an ADSR envelope.
type Stage int

const (
	StageIdle Stage = iota
	StageAttack
	StageDecay
	StageSustain
	StageRelease
)

func (s Stage) String() string {
	switch s {
	case StageIdle:
		return "idle"
	case StageAttack:
		return "attack"
	case StageDecay:
		return "decay"
	case StageSustain:
		return "sustain"
	case StageRelease:
		return "release"
	}
	return "unknown"
}

// ADSR is a gated linear attack/decay/sustain/release envelope.
//
// Stage lengths are max(1, int(seconds*sampleRate)) samples. A stage of N
// samples emits its ramp at positions 0..N-1, so its last sample lands exactly
// on the target level and the next sample belongs to the following stage.
// Stages with zero duration are skipped without emitting anything.
type ADSR struct {
	attack  float64
	decay   float64
	sustain float32
	release float64

	stage        Stage
	elapsed      int
	level        float32
	releaseStart float32

	sampleRate int
	a, d, r    int
}

// NewADSR creates an idle envelope. Times are in seconds; sustain is a level in [0,1].
func NewADSR(attack, decay, sustain, release float64) *ADSR {
	if attack < 0 {
		attack = 0
	}
	if decay < 0 {
		decay = 0
	}
	if release < 0 {
		release = 0
	}
	if sustain < 0 {
		sustain = 0
	}
	if sustain > 1 {
		sustain = 1
	}
	return &ADSR{
		attack:  attack,
		decay:   decay,
		sustain: float32(sustain),
		release: release,
	}
}

// GateOn restarts the envelope from level 0.
func (e *ADSR) GateOn() {
	e.elapsed = 0
	e.level = 0
	switch {
	case e.attack > 0:
		e.stage = StageAttack
	case e.decay > 0:
		e.stage = StageDecay
	default:
		e.stage = StageSustain
	}
}

// GateOff starts the release from the level last emitted.
func (e *ADSR) GateOff() {
	if e.stage == StageIdle {
		return
	}
	e.releaseStart = e.level
	e.elapsed = 0
	if e.release > 0 {
		e.stage = StageRelease
		return
	}
	e.stage = StageIdle
	e.level = 0
}

// Finished reports whether the envelope is idle.
func (e *ADSR) Finished() bool {
	return e.stage == StageIdle
}

// Stage returns the current stage.
func (e *ADSR) Stage() Stage {
	return e.stage
}

// Level returns the last emitted sample.
func (e *ADSR) Level() float32 {
	return e.level
}

func stageLen(seconds float64, sampleRate int) int {
	n := int(seconds * float64(sampleRate))
	if n < 1 {
		n = 1
	}
	return n
}

func (e *ADSR) prepare(sampleRate int) {
	if sampleRate == e.sampleRate {
		return
	}
	e.sampleRate = sampleRate
	e.a = stageLen(e.attack, sampleRate)
	e.d = stageLen(e.decay, sampleRate)
	e.r = stageLen(e.release, sampleRate)
}

// Render fills dst with the envelope, crossing as many stage boundaries as needed.
func (e *ADSR) Render(dst []float32, sampleRate int) {
	e.prepare(sampleRate)
	i := 0
	for i < len(dst) {
		switch e.stage {
		case StageIdle:
			clear(dst[i:])
			return

		case StageAttack:
			n := span(len(dst)-i, e.a-e.elapsed)
			for k := 0; k < n; k++ {
				dst[i+k] = ramp(e.elapsed+k, e.a, 0, 1)
			}
			i += n
			e.advance(n, dst[:i])
			if e.elapsed >= e.a {
				e.level = 1
				e.elapsed = 0
				if e.decay > 0 {
					e.stage = StageDecay
				} else {
					e.stage = StageSustain
				}
			}

		case StageDecay:
			n := span(len(dst)-i, e.d-e.elapsed)
			for k := 0; k < n; k++ {
				dst[i+k] = ramp(e.elapsed+k, e.d, 1, e.sustain)
			}
			i += n
			e.advance(n, dst[:i])
			if e.elapsed >= e.d {
				e.level = e.sustain
				e.elapsed = 0
				e.stage = StageSustain
			}

		case StageSustain:
			for k := i; k < len(dst); k++ {
				dst[k] = e.sustain
			}
			e.level = e.sustain
			return

		case StageRelease:
			n := span(len(dst)-i, e.r-e.elapsed)
			for k := 0; k < n; k++ {
				dst[i+k] = ramp(e.elapsed+k, e.r, e.releaseStart, 0)
			}
			i += n
			e.advance(n, dst[:i])
			if e.elapsed >= e.r {
				e.level = 0
				e.elapsed = 0
				e.stage = StageIdle
			}
		}
	}
}

func (e *ADSR) advance(n int, written []float32) {
	if n > 0 {
		e.elapsed += n
		e.level = written[len(written)-1]
	}
}

// span returns how many samples of a stage fit into the remaining block.
func span(remain, left int) int {
	if left < 0 {
		left = 0
	}
	if remain < left {
		return remain
	}
	return left
}

// ramp is the value at position pos of a length-n linear segment from->to.
func ramp(pos, n int, from, to float32) float32 {
	if n <= 1 {
		return to
	}
	f := float32(float64(pos) / float64(n-1))
	return from + (to-from)*f
}

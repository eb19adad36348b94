package synth

import "math"

// VoiceState is derived from a voice's envelopes.
type VoiceState int

const (
	VoiceSounding VoiceState = iota
	VoiceReleasing
	VoiceFinished
)

func (s VoiceState) String() string {
	switch s {
	case VoiceSounding:
		return "sounding"
	case VoiceReleasing:
		return "releasing"
	default:
		return "finished"
	}
}

// Voice is one sounding note.
type Voice interface {
	// Render overwrites dst with the next len(dst) samples.
	Render(dst []float32, sampleRate int)
	Release()
	Finished() bool
	State() VoiceState
}

// VoiceFactory builds a fresh voice, already gated on, for each note-on.
type VoiceFactory interface {
	NewVoice(freq float64, velocity int) Voice
}

// VoiceFactoryFunc adapts a function to VoiceFactory.
type VoiceFactoryFunc func(freq float64, velocity int) Voice

func (f VoiceFactoryFunc) NewVoice(freq float64, velocity int) Voice {
	return f(freq, velocity)
}

// DefaultVelocityCurve is the exponent applied to normalized velocity.
const DefaultVelocityCurve = 1.8

// DefaultDeclick is the de-click ramp length of additive voices in seconds.
const DefaultDeclick = 0.002

// VelocityGain maps MIDI velocity 0..127 to (v/127)^curve.
func VelocityGain(velocity int, curve float64) float32 {
	if velocity < 0 {
		velocity = 0
	}
	if velocity > 127 {
		velocity = 127
	}
	return float32(math.Pow(float64(velocity)/127.0, curve))
}

// AdditiveVoice multiplies one Signal by one Envelope and a velocity gain.
//
// The envelope gain is slew-limited to a full-scale swing per declick period,
// so a voice fades in from silence when it starts and cannot jump in
// amplitude between blocks (zero attack or release times included). The voice
// is finished once its envelope is idle and the slewed gain is back at 0.
type AdditiveVoice struct {
	freq    float64
	signal  Signal
	env     Envelope
	velAmp  float32
	declick float64

	released bool
	gain     float32
	stepSR   int
	step     float32

	envBuf []float32
}

// NewAdditiveVoice gates env on and returns the voice.
func NewAdditiveVoice(freq float64, velocity int, signal Signal, env Envelope, velocityCurve float64, declickSeconds float64) *AdditiveVoice {
	env.GateOn()
	return &AdditiveVoice{
		freq:    freq,
		signal:  signal,
		env:     env,
		velAmp:  VelocityGain(velocity, velocityCurve),
		declick: declickSeconds,
	}
}

// Freq returns the voice's fundamental in Hz.
func (v *AdditiveVoice) Freq() float64 { return v.freq }

func (v *AdditiveVoice) slewStep(sampleRate int) float32 {
	if sampleRate != v.stepSR {
		v.stepSR = sampleRate
		n := v.declick * float64(sampleRate)
		if n < 1 {
			v.step = 1
		} else {
			v.step = float32(1 / n)
		}
	}
	return v.step
}

func (v *AdditiveVoice) Render(dst []float32, sampleRate int) {
	v.envBuf = grow(v.envBuf, len(dst))
	v.signal.Render(dst, v.freq, sampleRate)
	v.env.Render(v.envBuf, sampleRate)

	step := v.slewStep(sampleRate)
	g := v.gain
	for i, target := range v.envBuf {
		d := target - g
		if d > step {
			d = step
		} else if d < -step {
			d = -step
		}
		g += d
		dst[i] *= g * v.velAmp
	}
	v.gain = g
}

func (v *AdditiveVoice) Release() {
	if v.released {
		return
	}
	v.released = true
	v.env.GateOff()
}

func (v *AdditiveVoice) Finished() bool {
	return v.env.Finished() && v.gain == 0
}

func (v *AdditiveVoice) State() VoiceState {
	switch {
	case v.Finished():
		return VoiceFinished
	case v.released || v.env.Finished():
		return VoiceReleasing
	}
	return VoiceSounding
}

// SpectralVoice shapes every partial of a SpectralStack with its own envelope.
// Envelopes of partials above Nyquist keep advancing so their timing holds.
type SpectralVoice struct {
	freq     float64
	stack    *SpectralStack
	envs     []Envelope
	velAmp   float32
	released bool

	envBuf []float32
}

// NewSpectralVoice gates every envelope on. envs must have one entry per partial.
func NewSpectralVoice(freq float64, velocity int, stack *SpectralStack, envs []Envelope, velocityCurve float64) *SpectralVoice {
	for _, e := range envs {
		e.GateOn()
	}
	return &SpectralVoice{
		freq:   freq,
		stack:  stack,
		envs:   envs,
		velAmp: VelocityGain(velocity, velocityCurve),
	}
}

// Freq returns the voice's fundamental in Hz.
func (v *SpectralVoice) Freq() float64 { return v.freq }

func (v *SpectralVoice) Render(dst []float32, sampleRate int) {
	clear(dst)
	v.envBuf = grow(v.envBuf, len(dst))
	rows, active := v.stack.RenderPartials(len(dst), v.freq, sampleRate)

	k := 0
	for i, env := range v.envs {
		env.Render(v.envBuf, sampleRate)
		if k >= len(active) || active[k] != i {
			continue
		}
		row := rows[k]
		k++
		for n, e := range v.envBuf {
			dst[n] += row[n] * e
		}
	}
	for n := range dst {
		dst[n] *= v.velAmp
	}
}

func (v *SpectralVoice) Release() {
	if v.released {
		return
	}
	v.released = true
	for _, e := range v.envs {
		e.GateOff()
	}
}

// Finished is true once every partial envelope is idle, or when there are no partials.
func (v *SpectralVoice) Finished() bool {
	for _, e := range v.envs {
		if !e.Finished() {
			return false
		}
	}
	return true
}

func (v *SpectralVoice) State() VoiceState {
	switch {
	case v.Finished():
		return VoiceFinished
	case v.released:
		return VoiceReleasing
	}
	return VoiceSounding
}

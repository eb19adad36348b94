package synth

import "math"

// Instrument is the note-domain capability the mixer drives.
type Instrument interface {
	NoteOn(note int, velocity int)
	NoteOff(note int)
	CC(control, value int)
	// Render overwrites dst with mono samples in roughly [-1,1].
	Render(dst []float32, sampleRate int)
	NumActiveVoices() int
}

// FrequencyInstrument is the same capability keyed by frequency in Hz.
type FrequencyInstrument interface {
	NoteOn(freq float64, velocity int)
	NoteOff(freq float64)
	CC(control, value int)
	Render(dst []float32, sampleRate int)
	NumActiveVoices() int
}

// Tuning maps a note number to a frequency in Hz.
type Tuning interface {
	Freq(note int) float64
}

// TuningFunc adapts a function to Tuning.
type TuningFunc func(note int) float64

func (f TuningFunc) Freq(note int) float64 { return f(note) }

// EqualTemperament divides the octave into TonesPerOctave equal steps,
// anchored at BaseNote = BaseFreq.
type EqualTemperament struct {
	BaseNote       int
	BaseFreq       float64
	TonesPerOctave int
}

// DefaultTuning is 12-tone equal temperament with A4 (note 69) at 440 Hz.
func DefaultTuning() EqualTemperament {
	return EqualTemperament{BaseNote: 69, BaseFreq: 440, TonesPerOctave: 12}
}

func (t EqualTemperament) Freq(note int) float64 {
	tones := t.TonesPerOctave
	if tones <= 0 {
		tones = 12
	}
	return t.BaseFreq * math.Exp2(float64(note-t.BaseNote)/float64(tones))
}

// NoteAdapter exposes a FrequencyInstrument through note numbers.
type NoteAdapter struct {
	Inner  FrequencyInstrument
	Tuning Tuning
}

// NewNoteAdapter wraps inner; a nil tuning selects DefaultTuning.
func NewNoteAdapter(inner FrequencyInstrument, tuning Tuning) *NoteAdapter {
	if tuning == nil {
		tuning = DefaultTuning()
	}
	return &NoteAdapter{Inner: inner, Tuning: tuning}
}

func (a *NoteAdapter) NoteOn(note int, velocity int) {
	a.Inner.NoteOn(a.Tuning.Freq(note), velocity)
}

func (a *NoteAdapter) NoteOff(note int) {
	a.Inner.NoteOff(a.Tuning.Freq(note))
}

func (a *NoteAdapter) CC(control, value int) {
	a.Inner.CC(control, value)
}

func (a *NoteAdapter) Render(dst []float32, sampleRate int) {
	a.Inner.Render(dst, sampleRate)
}

func (a *NoteAdapter) NumActiveVoices() int {
	return a.Inner.NumActiveVoices()
}

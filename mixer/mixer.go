// Package mixer sums per-channel instruments into a mono or stereo block.
package mixer

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/cwbudde/algo-synth/dsp"
	"github.com/cwbudde/algo-synth/event"
	"github.com/cwbudde/algo-synth/synth"
)

// ErrUnsupportedChannels is returned for channel counts other than 1 or 2.
var ErrUnsupportedChannels = errors.New("mixer: only mono or stereo output is supported")

// Track is an instrument with its channel-strip settings.
type Track struct {
	Channel    int
	Instrument synth.Instrument
	Gain       float32
	Pan        float32
	Mute       bool
	Solo       bool
}

// TrackOption configures a track when it is added.
type TrackOption func(*Track)

// WithGain sets the linear track gain.
func WithGain(g float32) TrackOption {
	return func(t *Track) { t.Gain = g }
}

// WithPan sets the stereo position in [-1,1].
func WithPan(p float32) TrackOption {
	return func(t *Track) { t.Pan = clampPan(p) }
}

func clampPan(p float32) float32 {
	return min(max(p, -1), 1)
}

// Mixer owns the track table. Control methods may be called from any
// goroutine; Render runs on the audio thread.
type Mixer struct {
	mu     sync.Mutex
	tracks map[int]*Track

	snap []Track
	buf  []float32
}

// New creates an empty mixer.
func New() *Mixer {
	return &Mixer{tracks: make(map[int]*Track)}
}

// AddTrack installs inst on channel, replacing any existing track there.
func (m *Mixer) AddTrack(channel int, inst synth.Instrument, opts ...TrackOption) {
	t := &Track{Channel: channel, Instrument: inst, Gain: 1}
	for _, opt := range opts {
		opt(t)
	}
	m.mu.Lock()
	m.tracks[channel] = t
	m.mu.Unlock()
}

// RemoveTrack drops the track on channel, if any.
func (m *Mixer) RemoveTrack(channel int) {
	m.mu.Lock()
	delete(m.tracks, channel)
	m.mu.Unlock()
}

func (m *Mixer) update(channel int, fn func(*Track)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t, ok := m.tracks[channel]; ok {
		fn(t)
	}
}

func (m *Mixer) SetGain(channel int, g float32) {
	m.update(channel, func(t *Track) { t.Gain = g })
}

func (m *Mixer) SetPan(channel int, p float32) {
	m.update(channel, func(t *Track) { t.Pan = clampPan(p) })
}

func (m *Mixer) SetMute(channel int, mute bool) {
	m.update(channel, func(t *Track) { t.Mute = mute })
}

func (m *Mixer) SetSolo(channel int, solo bool) {
	m.update(channel, func(t *Track) { t.Solo = solo })
}

// Track returns a copy of the track on channel.
func (m *Mixer) Track(channel int) (Track, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tracks[channel]
	if !ok {
		return Track{}, false
	}
	return *t, true
}

// Channels lists the occupied channels in ascending order.
func (m *Mixer) Channels() []int {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]int, 0, len(m.tracks))
	for ch := range m.tracks {
		out = append(out, ch)
	}
	slices.Sort(out)
	return out
}

func (m *Mixer) instrument(channel int) synth.Instrument {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t, ok := m.tracks[channel]; ok {
		return t.Instrument
	}
	return nil
}

// RouteEvent delivers e to the instrument on its channel. Events for unknown
// channels are dropped.
func (m *Mixer) RouteEvent(e event.Event) {
	inst := m.instrument(e.Channel)
	if inst == nil {
		return
	}
	switch e.Kind {
	case event.NoteOn:
		inst.NoteOn(e.Note, e.Velocity)
	case event.NoteOff:
		inst.NoteOff(e.Note)
	case event.CC:
		inst.CC(e.Control, e.Value)
	}
}

// RouteEvents delivers events in order.
func (m *Mixer) RouteEvents(events []event.Event) {
	for _, e := range events {
		m.RouteEvent(e)
	}
}

// NumActiveVoices sums the active voices over all tracks.
func (m *Mixer) NumActiveVoices() int {
	m.mu.Lock()
	insts := make([]synth.Instrument, 0, len(m.tracks))
	for _, t := range m.tracks {
		insts = append(insts, t.Instrument)
	}
	m.mu.Unlock()
	n := 0
	for _, inst := range insts {
		n += inst.NumActiveVoices()
	}
	return n
}

// snapshot copies the track table sorted by channel and reports whether any
// track is soloed.
func (m *Mixer) snapshot() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snap = m.snap[:0]
	anySolo := false
	for _, t := range m.tracks {
		m.snap = append(m.snap, *t)
		anySolo = anySolo || t.Solo
	}
	slices.SortFunc(m.snap, func(a, b Track) int { return a.Channel - b.Channel })
	return anySolo
}

// Render writes frames*channels samples into dst. Stereo output is
// interleaved L,R with equal-power panning.
func (m *Mixer) Render(dst []float32, frames, sampleRate, channels int) error {
	if channels != 1 && channels != 2 {
		return fmt.Errorf("%w: %d", ErrUnsupportedChannels, channels)
	}
	if len(dst) < frames*channels {
		return fmt.Errorf("mixer: dst holds %d samples, need %d", len(dst), frames*channels)
	}
	out := dst[:frames*channels]
	clear(out)

	anySolo := m.snapshot()
	if cap(m.buf) < frames {
		m.buf = make([]float32, frames)
	}
	buf := m.buf[:frames]

	for i := range m.snap {
		t := &m.snap[i]
		if t.Mute || (anySolo && !t.Solo) {
			continue
		}
		t.Instrument.Render(buf, sampleRate)
		if channels == 1 {
			for n, v := range buf {
				out[n] += t.Gain * v
			}
			continue
		}
		gl, gr := dsp.PanGains(t.Pan)
		gl *= t.Gain
		gr *= t.Gain
		for n, v := range buf {
			out[2*n] += gl * v
			out[2*n+1] += gr * v
		}
	}
	clear(m.snap)
	m.snap = m.snap[:0]
	return nil
}

package engine

import (
	"sync"

	"github.com/cwbudde/algo-synth/event"
	"github.com/cwbudde/algo-synth/mixer"
	"github.com/cwbudde/algo-synth/output"
)

// levelInstrument renders a constant level while any note is held.
type levelInstrument struct {
	mu      sync.Mutex
	level   float32
	held    int
	always  bool
	panicOn int // panic on the n-th render (1-based); 0 never
	renders int
}

func (l *levelInstrument) NoteOn(note, velocity int) {
	l.mu.Lock()
	l.held++
	l.mu.Unlock()
}

func (l *levelInstrument) NoteOff(note int) {
	l.mu.Lock()
	l.held--
	l.mu.Unlock()
}

func (l *levelInstrument) CC(control, value int) {}

func (l *levelInstrument) NumActiveVoices() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.held
}

func (l *levelInstrument) Render(dst []float32, sampleRate int) {
	l.mu.Lock()
	l.renders++
	n, held := l.renders, l.held
	l.mu.Unlock()
	if l.panicOn > 0 && n == l.panicOn {
		panic("instrument fault")
	}
	v := float32(0)
	if l.always || held > 0 {
		v = l.level
	}
	for i := range dst {
		dst[i] = v
	}
}

func newTestEngine(inst *levelInstrument, dev output.Device, mutate func(*Config)) (*Engine, *event.Bus) {
	m := mixer.New()
	m.AddTrack(0, inst)
	bus := event.NewBus(0)
	cfg := DefaultConfig()
	cfg.SampleRate = dev.SampleRate()
	cfg.Channels = dev.Channels()
	cfg.BlockSize = dev.BlockSize()
	if mutate != nil {
		mutate(&cfg)
	}
	e, err := New(m, bus, dev, cfg)
	if err != nil {
		panic(err)
	}
	return e, bus
}

// recordingDevice logs lifecycle calls and lets the test drive the callback.
type recordingDevice struct {
	mu     sync.Mutex
	calls  []string
	cb     output.Callback
	status uint64

	// closeErr is returned from Close. A non-nil closeGate holds Close
	// until it is closed.
	closeErr  error
	closeGate chan struct{}
}

func (d *recordingDevice) Start(cb output.Callback) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls = append(d.calls, "start")
	d.cb = cb
	return nil
}

func (d *recordingDevice) Abort() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls = append(d.calls, "abort")
	return nil
}

func (d *recordingDevice) Close() error {
	if d.closeGate != nil {
		<-d.closeGate
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls = append(d.calls, "close")
	return d.closeErr
}

func (d *recordingDevice) StatusEvents() uint64 { return d.status }
func (d *recordingDevice) SampleRate() int      { return 44100 }
func (d *recordingDevice) Channels() int        { return 1 }
func (d *recordingDevice) BlockSize() int       { return 256 }

func (d *recordingDevice) Calls() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.calls...)
}

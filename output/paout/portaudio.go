// Package paout plays engine output through a PortAudio callback stream.
package paout

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/gordonklaus/portaudio"

	"github.com/cwbudde/algo-synth/output"
)

// Device wraps the default PortAudio output stream.
type Device struct {
	sampleRate int
	channels   int
	blockSize  int

	mu     sync.Mutex
	stream *portaudio.Stream
	closed bool

	underflows atomic.Uint64
	overflows  atomic.Uint64
}

// New initializes PortAudio. Close terminates it.
func New(sampleRate, channels, blockSize int) (*Device, error) {
	if sampleRate <= 0 || blockSize <= 0 {
		return nil, errors.New("paout: sample rate and block size must be > 0")
	}
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("paout: initialize: %w", err)
	}
	return &Device{sampleRate: sampleRate, channels: channels, blockSize: blockSize}, nil
}

func (d *Device) Start(cb output.Callback) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stream != nil {
		return output.ErrStarted
	}
	frames := d.blockSize
	stream, err := portaudio.OpenDefaultStream(0, d.channels, float64(d.sampleRate), frames,
		func(out []float32, _ portaudio.StreamCallbackTimeInfo, flags portaudio.StreamCallbackFlags) {
			if flags&portaudio.OutputUnderflow != 0 {
				d.underflows.Add(1)
			}
			if flags&portaudio.OutputOverflow != 0 {
				d.overflows.Add(1)
			}
			cb(out, len(out)/d.channels)
		})
	if err != nil {
		return fmt.Errorf("paout: open default stream: %w", err)
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		return fmt.Errorf("paout: start stream: %w", err)
	}
	d.stream = stream
	return nil
}

// Abort stops the stream without draining pending buffers.
func (d *Device) Abort() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stream == nil || d.closed {
		return nil
	}
	return d.stream.Abort()
}

func (d *Device) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil
	}
	d.closed = true
	var errs []error
	if d.stream != nil {
		errs = append(errs, d.stream.Close())
	}
	errs = append(errs, portaudio.Terminate())
	return errors.Join(errs...)
}

// StatusEvents counts underflow and overflow flags seen by the callback.
func (d *Device) StatusEvents() uint64 {
	return d.underflows.Load() + d.overflows.Load()
}

// Underflows returns the number of output underflows.
func (d *Device) Underflows() uint64 { return d.underflows.Load() }

func (d *Device) SampleRate() int { return d.sampleRate }
func (d *Device) Channels() int   { return d.channels }
func (d *Device) BlockSize() int  { return d.blockSize }

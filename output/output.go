// Package output defines the audio device contract used by the engine and a
// headless device that drives the callback without sound hardware.
package output

// Callback fills out with frames*channels interleaved samples. It is called
// from the device's real-time context and must not block.
type Callback func(out []float32, frames int)

// Device is a periodic audio sink.
type Device interface {
	// Start begins invoking cb once per block.
	Start(cb Callback) error
	// Abort stops the stream promptly without draining queued audio.
	Abort() error
	// Close releases the device.
	Close() error
	SampleRate() int
	Channels() int
	BlockSize() int
}

// StatusReporter is implemented by devices that count underflow or overflow
// conditions reported by the driver.
type StatusReporter interface {
	StatusEvents() uint64
}

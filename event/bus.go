package event

import "errors"

const (
	// DefaultCapacity is the bus queue length.
	DefaultCapacity = 1024
	// DefaultDrain bounds how many events one block consumes.
	DefaultDrain = 128
)

// ErrBusFull is returned by Post when the queue has no room.
var ErrBusFull = errors.New("event bus full")

// Source hands pending events to the audio thread without blocking.
type Source interface {
	// Drain appends at most max pending events to dst and returns it.
	Drain(dst []Event, max int) []Event
}

// Poster accepts events from producers such as sequencers or MIDI input.
type Poster interface {
	Post(e Event) error
}

// Bus is a bounded multi-producer queue of events.
type Bus struct {
	ch chan Event
}

// NewBus creates a bus holding up to capacity events; capacity <= 0 uses
// DefaultCapacity.
func NewBus(capacity int) *Bus {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Bus{ch: make(chan Event, capacity)}
}

// Post enqueues e, or returns ErrBusFull without waiting.
func (b *Bus) Post(e Event) error {
	select {
	case b.ch <- e:
		return nil
	default:
		return ErrBusFull
	}
}

// Drain appends up to max queued events to dst. max <= 0 uses DefaultDrain.
func (b *Bus) Drain(dst []Event, max int) []Event {
	if max <= 0 {
		max = DefaultDrain
	}
	for i := 0; i < max; i++ {
		select {
		case e := <-b.ch:
			dst = append(dst, e)
		default:
			return dst
		}
	}
	return dst
}

// Len returns the number of queued events.
func (b *Bus) Len() int {
	return len(b.ch)
}

// Cap returns the queue capacity.
func (b *Bus) Cap() int {
	return cap(b.ch)
}

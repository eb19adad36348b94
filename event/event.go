// Package event defines the control events that drive the synthesizer and a
// bounded bus for handing them to the audio thread.
package event

import "fmt"

// Kind tags an Event.
type Kind uint8

const (
	NoteOn Kind = iota
	NoteOff
	CC
)

func (k Kind) String() string {
	switch k {
	case NoteOn:
		return "note_on"
	case NoteOff:
		return "note_off"
	case CC:
		return "cc"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Event is a single musical control message. Only the fields relevant to
// Kind are meaningful.
type Event struct {
	Kind     Kind
	Channel  int
	Note     int
	Velocity int
	Control  int
	Value    int
}

// NoteOnEvent builds a note-on.
func NoteOnEvent(note, velocity, channel int) Event {
	return Event{Kind: NoteOn, Note: note, Velocity: velocity, Channel: channel}
}

// NoteOffEvent builds a note-off.
func NoteOffEvent(note, channel int) Event {
	return Event{Kind: NoteOff, Note: note, Channel: channel}
}

// CCEvent builds a controller change.
func CCEvent(control, value, channel int) Event {
	return Event{Kind: CC, Control: control, Value: value, Channel: channel}
}

func (e Event) String() string {
	switch e.Kind {
	case NoteOn:
		return fmt.Sprintf("note_on ch=%d note=%d vel=%d", e.Channel, e.Note, e.Velocity)
	case NoteOff:
		return fmt.Sprintf("note_off ch=%d note=%d", e.Channel, e.Note)
	case CC:
		return fmt.Sprintf("cc ch=%d control=%d value=%d", e.Channel, e.Control, e.Value)
	default:
		return e.Kind.String()
	}
}

// FromMIDI decodes a three-byte channel voice message. Note-on with velocity
// zero becomes a note-off. Messages other than note on/off and control change
// report false.
func FromMIDI(status, data1, data2 byte) (Event, bool) {
	ch := int(status & 0x0f)
	d1, d2 := int(data1&0x7f), int(data2&0x7f)
	switch status & 0xf0 {
	case 0x90:
		if d2 == 0 {
			return NoteOffEvent(d1, ch), true
		}
		return NoteOnEvent(d1, d2, ch), true
	case 0x80:
		return NoteOffEvent(d1, ch), true
	case 0xb0:
		return CCEvent(d1, d2, ch), true
	}
	return Event{}, false
}

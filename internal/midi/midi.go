// Package midi turns raw channel-voice messages into note events.
package midi

import (
	gomidi "gitlab.com/gomidi/midi/v2"
)

// Kind classifies a decoded message.
type Kind int

const (
	Ignored Kind = iota
	NoteOn
	NoteOff
)

func (k Kind) String() string {
	switch k {
	case NoteOn:
		return "note-on"
	case NoteOff:
		return "note-off"
	}
	return "ignored"
}

// Event is a note event on any channel.
type Event struct {
	Kind     Kind
	Channel  uint8
	Note     uint8
	Velocity uint8
}

// Decode classifies a raw message. A note-on with velocity 0 is a note-off.
// Anything other than a note message, including truncated input, is Ignored.
func Decode(raw []byte) Event {
	if len(raw) < 3 {
		return Event{}
	}
	msg := gomidi.Message(raw[:3])
	var ch, key, vel uint8
	switch {
	case msg.GetNoteStart(&ch, &key, &vel):
		return Event{Kind: NoteOn, Channel: ch, Note: key, Velocity: vel}
	case msg.GetNoteEnd(&ch, &key):
		return Event{Kind: NoteOff, Channel: ch, Note: key}
	}
	return Event{}
}

// Encode builds the raw message for a note event. Ignored events encode to nil.
func Encode(e Event) []byte {
	switch e.Kind {
	case NoteOn:
		return gomidi.NoteOn(e.Channel, e.Note, e.Velocity)
	case NoteOff:
		return gomidi.NoteOff(e.Channel, e.Note)
	}
	return nil
}

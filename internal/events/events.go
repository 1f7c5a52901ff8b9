// Package events carries timestamped MIDI messages to the audio thread and
// splits a render block at event boundaries.
package events

import (
	"fmt"

	"gitlab.com/gomidi/midi/v2"
)

// MaxLen is the longest message the engine understands. Longer messages
// (SysEx) are kept in the stream but never applied.
const MaxLen = 3

// Message is a short MIDI message stamped with a sample offset.
type Message struct {
	Offset int64 // samples, relative to the block or to the start of a stream
	Status byte
	Data1  byte
	Data2  byte
	Len    int
}

// FromBytes builds a Message from raw MIDI bytes. Only the first three bytes
// are stored; Len keeps the original length.
func FromBytes(offset int64, b []byte) Message {
	m := Message{Offset: offset, Len: len(b)}
	if len(b) > 0 {
		m.Status = b[0]
	}
	if len(b) > 1 {
		m.Data1 = b[1]
	}
	if len(b) > 2 {
		m.Data2 = b[2]
	}
	return m
}

// FromMIDI converts a gomidi message.
func FromMIDI(offset int64, msg midi.Message) Message {
	return FromBytes(offset, msg.Bytes())
}

// MIDI returns the message as a gomidi message. It allocates.
func (m Message) MIDI() midi.Message {
	b := []byte{m.Status, m.Data1, m.Data2}
	n := min(max(m.Len, 0), MaxLen)
	return midi.Message(b[:n])
}

// Applicable reports whether the engine should act on m.
func (m Message) Applicable() bool {
	return m.Len > 0 && m.Len <= MaxLen
}

func (m Message) String() string {
	if !m.Applicable() {
		return fmt.Sprintf("@%d %d-byte message", m.Offset, m.Len)
	}
	return fmt.Sprintf("@%d %s", m.Offset, m.MIDI().String())
}

func NoteOn(offset int64, channel, key, velocity uint8) Message {
	return FromMIDI(offset, midi.NoteOn(channel, key, velocity))
}

func NoteOff(offset int64, channel, key uint8) Message {
	return FromMIDI(offset, midi.NoteOff(channel, key))
}

func ControlChange(offset int64, channel, controller, value uint8) Message {
	return FromMIDI(offset, midi.ControlChange(channel, controller, value))
}

// PitchBend takes a signed bend in -8192..8191.
func PitchBend(offset int64, channel uint8, value int16) Message {
	return FromMIDI(offset, midi.Pitchbend(channel, value))
}

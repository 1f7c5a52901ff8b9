package jx11

import "github.com/cbegin/jx11-go/internal/events"

// DemoPhrase is a short chord progression with a held bass line, stamped in
// samples at sampleRate. It exercises polyphony, the sustain pedal and
// pitch bend.
func DemoPhrase(sampleRate int) []Message {
	beat := int64(sampleRate) / 2 // 120 bpm
	chords := [][]uint8{
		{60, 64, 67},
		{57, 60, 64},
		{53, 57, 60, 65},
		{55, 59, 62, 67},
	}
	var msgs []Message
	for i, chord := range chords {
		at := int64(i) * 2 * beat
		bass := chord[0] - 24
		msgs = append(msgs, events.NoteOn(at, 0, bass, 90))
		for _, key := range chord {
			msgs = append(msgs, events.NoteOn(at, 0, key, 100))
		}
		msgs = append(msgs, events.NoteOff(at+beat*3/2, 0, bass))
		for _, key := range chord {
			msgs = append(msgs, events.NoteOff(at+beat*3/2, 0, key))
		}
	}
	end := int64(len(chords)) * 2 * beat
	msgs = append(msgs,
		events.ControlChange(end, 0, 0x40, 127),
		events.NoteOn(end, 0, 72, 110),
		events.PitchBend(end+beat/2, 0, 4096),
		events.NoteOff(end+beat, 0, 72),
		events.PitchBend(end+beat*3/2, 0, 0),
		events.ControlChange(end+2*beat, 0, 0x40, 0),
	)
	return msgs
}

package events

// Engine is what Split drives: a block renderer that also accepts MIDI.
type Engine interface {
	Render(left, right []float32)
	MidiMessages(status, data1, data2 byte)
}

// Split renders one block of len(left) samples, applying each message at its
// offset. Offsets are relative to the block and must be non-decreasing;
// offsets outside the block are applied at the nearest edge. right may be
// nil for mono output. Messages longer than MaxLen are skipped.
func Split(e Engine, left, right []float32, msgs []Message) {
	n := len(left)
	if right != nil && len(right) < n {
		n = len(right)
	}
	done := 0
	for _, m := range msgs {
		at := int(min(max(m.Offset, 0), int64(n)))
		if at > done {
			render(e, left, right, done, at)
			done = at
		}
		if m.Applicable() {
			e.MidiMessages(m.Status, m.Data1, m.Data2)
		}
	}
	if done < n {
		render(e, left, right, done, n)
	}
}

func render(e Engine, left, right []float32, from, to int) {
	if right == nil {
		e.Render(left[from:to], nil)
		return
	}
	e.Render(left[from:to], right[from:to])
}

package jx11

import (
	"sync/atomic"

	"github.com/cbegin/jx11-go/internal/events"
	"github.com/cbegin/jx11-go/internal/synth"
)

// schedule is a sample-stamped message list played from position zero.
type schedule struct {
	msgs []events.Message
	next int
	end  int64 // position at which the schedule is finished
	done chan struct{}
}

func newSchedule(msgs []events.Message, tailSamples int64) *schedule {
	s := &schedule{msgs: msgs, done: make(chan struct{})}
	if n := len(msgs); n > 0 {
		s.end = msgs[n-1].Offset
	}
	s.end += max(tailSamples, 0)
	return s
}

// appendDue appends the messages falling in [pos, pos+n) rebased to the block.
func (s *schedule) appendDue(dst []events.Message, pos int64, n int) []events.Message {
	limit := pos + int64(n)
	for s.next < len(s.msgs) && s.msgs[s.next].Offset < limit {
		m := s.msgs[s.next]
		m.Offset -= pos
		dst = append(dst, m)
		s.next++
	}
	return dst
}

func (s *schedule) finish() {
	if s.done != nil {
		close(s.done)
		s.done = nil
	}
}

// renderer turns the engine's split stereo blocks into the interleaved
// stream the audio backends pull. Live messages from the queue are applied
// at the start of each block; scheduled ones at their own offsets.
type renderer struct {
	engine  *synth.Synth
	live    *events.Queue
	left    []float32
	right   []float32
	pending []events.Message
	tap     func([]float32)

	incoming atomic.Pointer[schedule]
	sched    *schedule
	pos      int64
}

func newRenderer(engine *synth.Synth, live *events.Queue, blockSize int) *renderer {
	extra := 0
	if live != nil {
		extra = live.Cap()
	}
	return &renderer{
		engine:  engine,
		live:    live,
		left:    make([]float32, blockSize),
		right:   make([]float32, blockSize),
		pending: make([]events.Message, 0, extra+blockSize),
	}
}

// Process implements audio.SampleSource.
func (r *renderer) Process(dst []float32) {
	if s := r.incoming.Swap(nil); s != nil {
		if r.sched != nil {
			r.sched.finish()
		}
		r.sched = s
		r.pos = 0
	}
	frames := len(dst) / 2
	for off := 0; off < frames; {
		n := min(frames-off, len(r.left))
		r.pending = r.pending[:0]
		if r.live != nil {
			r.pending = r.live.Drain(r.pending)
			for i := range r.pending {
				r.pending[i].Offset = 0
			}
		}
		if r.sched != nil {
			r.pending = r.sched.appendDue(r.pending, r.pos, n)
		}
		left, right := r.left[:n], r.right[:n]
		events.Split(r.engine, left, right, r.pending)
		out := dst[off*2 : (off+n)*2]
		for i := range n {
			out[2*i] = left[i]
			out[2*i+1] = right[i]
		}
		r.pos += int64(n)
		off += n
		if s := r.sched; s != nil && s.next == len(s.msgs) && r.pos >= s.end {
			s.finish()
			r.sched = nil
		}
	}
	if r.tap != nil {
		r.tap(dst[:frames*2])
	}
}

package events

import "sync/atomic"

// Queue is a bounded single-producer single-consumer ring of messages. One
// goroutine may Push while another Pops; neither blocks nor allocates.
type Queue struct {
	buf  []Message
	mask uint64
	head atomic.Uint64 // next slot to read
	tail atomic.Uint64 // next slot to write
}

// NewQueue returns a queue holding at least capacity messages.
func NewQueue(capacity int) *Queue {
	n := 1
	for n < capacity {
		n <<= 1
	}
	return &Queue{buf: make([]Message, n), mask: uint64(n - 1)}
}

func (q *Queue) Cap() int {
	return len(q.buf)
}

func (q *Queue) Len() int {
	return int(q.tail.Load() - q.head.Load())
}

// Push appends m. It returns false and drops m when the queue is full.
func (q *Queue) Push(m Message) bool {
	tail := q.tail.Load()
	if tail-q.head.Load() == uint64(len(q.buf)) {
		return false
	}
	q.buf[tail&q.mask] = m
	q.tail.Store(tail + 1)
	return true
}

func (q *Queue) Pop() (Message, bool) {
	head := q.head.Load()
	if head == q.tail.Load() {
		return Message{}, false
	}
	m := q.buf[head&q.mask]
	q.head.Store(head + 1)
	return m, true
}

// Drain pops every queued message into dst and returns the extended slice.
// With enough capacity in dst it does not allocate.
func (q *Queue) Drain(dst []Message) []Message {
	for {
		m, ok := q.Pop()
		if !ok {
			return dst
		}
		dst = append(dst, m)
	}
}

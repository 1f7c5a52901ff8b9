// Package audio streams interleaved stereo float32 frames to the sound card.
package audio

import (
	"encoding/binary"
	"io"
	"math"
	"sync"
)

// SampleSource fills dst with interleaved stereo frames (L, R, L, R, ...).
type SampleSource interface {
	Process(dst []float32)
}

// FinishingSource is a SampleSource that can signal when playback has ended.
// When Finished returns true, the stream returns io.EOF after the current read.
type FinishingSource interface {
	SampleSource
	Finished() bool
}

// StreamReader adapts a SampleSource to the little-endian float32 byte
// stream both backends consume.
type StreamReader struct {
	mu     sync.Mutex
	source SampleSource
	buf    []float32
}

func NewStreamReader(source SampleSource) *StreamReader {
	return &StreamReader{source: source}
}

// Read fills whole stereo frames only; a trailing partial frame in p is left
// untouched and not counted.
func (r *StreamReader) Read(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	frames := len(p) / 8
	if frames == 0 {
		return 0, nil
	}
	need := frames * 2
	if cap(r.buf) < need {
		r.buf = make([]float32, need)
	}
	r.buf = r.buf[:need]
	r.source.Process(r.buf)
	for i, x := range r.buf {
		binary.LittleEndian.PutUint32(p[i*4:], math.Float32bits(x))
	}
	n := frames * 8
	if fs, ok := r.source.(FinishingSource); ok && fs.Finished() {
		return n, io.EOF
	}
	return n, nil
}

func (r *StreamReader) Close() error { return nil }

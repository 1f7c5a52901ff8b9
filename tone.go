package jx11

import (
	"math"

	"github.com/cbegin/jx11-go/internal/osc"
	"github.com/cbegin/jx11-go/internal/safety"
)

// Tone is a sine calibration signal for checking an output chain without
// the synth. It implements the audio stream source interfaces and ends
// after a fixed number of frames.
type Tone struct {
	sine   *osc.Sine
	buf    []float64
	frames int64
	played int64
}

// NewTone returns a tone of freq Hz at level dBFS lasting seconds.
func NewTone(freq, level float64, sampleRate int, seconds float64) *Tone {
	amp := math.Pow(10, level/20)
	return &Tone{
		sine:   osc.NewSine(freq, float64(sampleRate), amp),
		frames: int64(seconds * float64(sampleRate)),
	}
}

// Process fills dst with interleaved stereo frames, silence once the tone
// has ended.
func (t *Tone) Process(dst []float32) {
	frames := len(dst) / 2
	if cap(t.buf) < frames {
		t.buf = make([]float64, frames)
	}
	buf := t.buf[:frames]
	live := int(min(max(t.frames-t.played, 0), int64(frames)))
	osc.Fill(t.sine, buf[:live])
	clear(buf[live:])
	for i, x := range buf {
		y := float32(safety.ProtectSample(x))
		dst[2*i] = y
		dst[2*i+1] = y
	}
	t.played += int64(frames)
}

func (t *Tone) Finished() bool {
	return t.played >= t.frames
}

// RenderTone renders a whole tone as interleaved stereo.
func RenderTone(freq, level float64, sampleRate int, seconds float64) []float32 {
	if sampleRate <= 0 || seconds <= 0 {
		return nil
	}
	t := NewTone(freq, level, sampleRate, seconds)
	out := make([]float32, 2*t.frames)
	t.Process(out)
	return out
}

package osc

import "math"

const twoPi = 2 * math.Pi

// Sine is a direct-form digital resonator. Inc is in cycles per sample and
// Phase in cycles; both take effect on Reset.
type Sine struct {
	Amplitude float64
	Inc       float64
	Phase     float64

	sin0 float64
	sin1 float64
	dsin float64
}

func NewSine(freq, sampleRate, amplitude float64) *Sine {
	s := &Sine{Amplitude: amplitude, Inc: freq / sampleRate}
	s.Reset()
	return s
}

func (s *Sine) Reset() {
	s.sin0 = s.Amplitude * math.Sin(s.Phase*twoPi)
	s.sin1 = s.Amplitude * math.Sin((s.Phase-s.Inc)*twoPi)
	s.dsin = 2 * math.Cos(s.Inc*twoPi)
}

func (s *Sine) NextSample() float64 {
	x := s.dsin*s.sin0 - s.sin1
	s.sin1 = s.sin0
	s.sin0 = x
	return x
}

// Fill writes successive samples of src into dst.
func Fill[S Source](src S, dst []float64) {
	for i := range dst {
		dst[i] = src.NextSample()
	}
}

var (
	_ Source = (*BLIT)(nil)
	_ Source = (*Sine)(nil)
	_ Source = (*Square)(nil)
)

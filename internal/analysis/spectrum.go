// Package analysis computes magnitude spectra of rendered audio. It is used
// by the command-line tools for diagnostics and by the DSP tests to check
// pitch and filtering.
package analysis

import (
	"errors"
	"fmt"
	"math"

	"github.com/ktye/fft"
)

// MinSize is the smallest number of samples Analyze accepts.
const MinSize = 64

type Spectrum struct {
	SampleRate float64
	Size       int
	Magnitudes []float64 // bins 0..Size/2
}

// Analyze windows the largest power-of-two prefix of samples with a Hann
// window and returns its magnitude spectrum.
func Analyze(samples []float64, sampleRate float64) (*Spectrum, error) {
	if sampleRate <= 0 {
		return nil, errors.New("analysis: sample rate must be positive")
	}
	n := 1
	for n*2 <= len(samples) {
		n *= 2
	}
	if n < MinSize {
		return nil, fmt.Errorf("analysis: need at least %d samples, got %d", MinSize, len(samples))
	}
	f, err := fft.New(n)
	if err != nil {
		return nil, fmt.Errorf("analysis: fft: %w", err)
	}
	buf := make([]complex128, n)
	for i := 0; i < n; i++ {
		w := 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(n)))
		buf[i] = complex(samples[i]*w, 0)
	}
	buf = f.Transform(buf)
	mags := make([]float64, n/2+1)
	for i := range mags {
		re, im := real(buf[i]), imag(buf[i])
		mags[i] = math.Sqrt(re*re+im*im) * 2 / float64(n)
	}
	return &Spectrum{SampleRate: sampleRate, Size: n, Magnitudes: mags}, nil
}

func (s *Spectrum) BinWidth() float64 {
	return s.SampleRate / float64(s.Size)
}

func (s *Spectrum) bin(freq float64) int {
	b := int(math.Round(freq / s.BinWidth()))
	if b < 0 {
		b = 0
	}
	if b >= len(s.Magnitudes) {
		b = len(s.Magnitudes) - 1
	}
	return b
}

// PeakFrequency returns the centre frequency of the strongest non-DC bin.
func (s *Spectrum) PeakFrequency() float64 {
	best := 1
	for i := 2; i < len(s.Magnitudes); i++ {
		if s.Magnitudes[i] > s.Magnitudes[best] {
			best = i
		}
	}
	return float64(best) * s.BinWidth()
}

// MagnitudeAt returns the largest magnitude within one bin of freq.
func (s *Spectrum) MagnitudeAt(freq float64) float64 {
	b := s.bin(freq)
	m := s.Magnitudes[b]
	if b > 0 && s.Magnitudes[b-1] > m {
		m = s.Magnitudes[b-1]
	}
	if b+1 < len(s.Magnitudes) && s.Magnitudes[b+1] > m {
		m = s.Magnitudes[b+1]
	}
	return m
}

// EnergyRatioAbove returns the share of spectral energy above freq.
func (s *Spectrum) EnergyRatioAbove(freq float64) float64 {
	cut := s.bin(freq)
	var above, total float64
	for i := 1; i < len(s.Magnitudes); i++ {
		e := s.Magnitudes[i] * s.Magnitudes[i]
		total += e
		if i > cut {
			above += e
		}
	}
	if total == 0 {
		return 0
	}
	return above / total
}

// Mono folds an interleaved stereo buffer into a mono float64 signal.
func Mono(interleaved []float32) []float64 {
	out := make([]float64, len(interleaved)/2)
	for i := range out {
		out[i] = 0.5 * (float64(interleaved[2*i]) + float64(interleaved[2*i+1]))
	}
	return out
}

// Peak returns the largest absolute sample value.
func Peak(samples []float64) float64 {
	var p float64
	for _, v := range samples {
		if a := math.Abs(v); a > p {
			p = a
		}
	}
	return p
}

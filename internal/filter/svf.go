// Package filter provides the two-pole state variable low-pass filter used by
// each voice (Cytomic trapezoidal topology).
package filter

import "math"

const DefaultSampleRate = 44100.0

// SVF is a resonant low-pass filter. A zero SVF is silent until
// UpdateCoefficients is called.
type SVF struct {
	sampleRate float64

	g  float64 // normalized frequency coefficient
	k  float64 // damping, 1/Q
	a1 float64
	a2 float64
	a3 float64

	ic1eq float64 // integrator states
	ic2eq float64
}

func New(sampleRate float64) *SVF {
	return &SVF{sampleRate: sampleRate}
}

func (f *SVF) SetSampleRate(sampleRate float64) {
	f.sampleRate = sampleRate
}

func (f *SVF) SampleRate() float64 {
	if f.sampleRate <= 0 {
		return DefaultSampleRate
	}
	return f.sampleRate
}

// UpdateCoefficients recomputes the coefficients for cutoff (Hz) and q.
// It is cheap enough to run once per LFO tick.
func (f *SVF) UpdateCoefficients(cutoff, q float64) {
	f.g = math.Tan(math.Pi * cutoff / f.SampleRate())
	f.k = 1 / q
	f.a1 = 1 / (1 + f.g*(f.g+f.k))
	f.a2 = f.g * f.a1
	f.a3 = f.g * f.a2
}

// Reset zeroes the coefficients and the integrator state.
func (f *SVF) Reset() {
	f.g = 0
	f.k = 0
	f.a1 = 0
	f.a2 = 0
	f.a3 = 0
	f.ic1eq = 0
	f.ic2eq = 0
}

// Render filters one sample and returns the low-pass output.
func (f *SVF) Render(x float64) float64 {
	v3 := x - f.ic2eq
	v1 := f.a1*f.ic1eq + f.a2*v3
	v2 := f.ic2eq + f.a2*f.ic1eq + f.a3*v3
	f.ic1eq = 2*v1 - f.ic1eq
	f.ic2eq = 2*v2 - f.ic2eq
	return v2
}

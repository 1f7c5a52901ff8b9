// Package osc implements the band-limited oscillators used by the voices.
//
// The sawtooth is built from a band-limited impulse train (BLIT): a train of
// sinc pulses whose phase runs from 0 to phaseMax and back, one pulse per
// period. Integrating the impulse train with a leaky integrator gives a
// band-limited sawtooth.
package osc

import "math"

const (
	// MinPeriod is the shortest period in samples for which the impulse
	// recurrence stays stable.
	MinPeriod = 6.0

	quarterPi = math.Pi / 4
	leak      = 0.997
)

// Source is the capability shared by all waveform generators.
type Source interface {
	Reset()
	NextSample() float64
}

// BLIT is a band-limited impulse train oscillator.
//
// Period is in samples per cycle and must stay >= MinPeriod (see ClampPeriod).
// Modulation scales the period and is used for vibrato and PWM.
type BLIT struct {
	Amplitude  float64
	Period     float64
	Modulation float64

	phase    float64
	phaseMax float64
	inc      float64
	dc       float64
	saw      float64
}

func NewBLIT() *BLIT {
	return &BLIT{Amplitude: 1, Modulation: 1}
}

func (o *BLIT) Reset() {
	o.phase = 0
	o.phaseMax = 0
	o.inc = 0
	o.dc = 0
	o.saw = 0
}

// NextSample advances the phase and returns the next raw impulse train
// sample with the DC offset removed.
func (o *BLIT) NextSample() float64 {
	var out float64
	o.phase += o.inc
	if o.phase <= quarterPi {
		// Start of a new impulse: derive the next half cycle.
		halfPeriod := (o.Period / 2) * o.Modulation
		o.phaseMax = math.Floor(0.5+halfPeriod) - 0.5
		o.dc = 0.5 * o.Amplitude / o.phaseMax
		o.phaseMax *= math.Pi

		o.inc = o.phaseMax / halfPeriod
		o.phase = -o.phase

		if o.phase*o.phase > 1e-9 {
			out = o.Amplitude * math.Sin(o.phase) / o.phase
		} else {
			out = o.Amplitude
		}
	} else {
		if o.phase > o.phaseMax {
			// Reflect and walk back through the sinc.
			o.phase = o.phaseMax + o.phaseMax - o.phase
			o.inc = -o.inc
		}
		out = o.Amplitude * math.Sin(o.phase) / o.phase
	}
	return out - o.dc
}

// Render returns the band-limited sawtooth obtained by leaky integration of
// the impulse train.
func (o *BLIT) Render() float64 {
	o.saw = o.saw*leak + o.NextSample()
	return o.saw
}

// NextSquare is the sign-corrected variant of NextSample: the sample that
// opens an impulse keeps its sign and every sample between impulses is
// inverted.
func (o *BLIT) NextSquare() float64 {
	var out float64
	correction := -1.0
	o.phase += o.inc
	if o.phase <= quarterPi {
		correction = 1
		halfPeriod := (o.Period / 2) * o.Modulation
		o.phaseMax = math.Floor(0.5+halfPeriod) - 0.5
		o.dc = 0.5 * o.Amplitude / o.phaseMax
		o.phaseMax *= math.Pi

		o.inc = o.phaseMax / halfPeriod
		o.phase = -o.phase

		if o.phase*o.phase > 1e-9 {
			out = o.Amplitude * math.Sin(o.phase) / o.phase
		} else {
			out = o.Amplitude
		}
	} else {
		if o.phase > o.phaseMax {
			o.phase = o.phaseMax + o.phaseMax - o.phase
			o.inc = -o.inc
		}
		out = o.Amplitude * math.Sin(o.phase) / o.phase
	}
	return correction*out - o.dc
}

// ClampPeriod doubles period until it is at least MinPeriod.
func ClampPeriod(period float64) float64 {
	if !(period > 0) {
		return MinPeriod
	}
	for period < MinPeriod {
		period += period
	}
	return period
}

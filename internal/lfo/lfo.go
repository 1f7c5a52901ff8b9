package lfo

import "math"

// MaxStep is the decimation factor: the LFO advances once every MaxStep
// samples.
const MaxStep = 32

// LFO is a decimated sine oscillator shared by all voices of an engine.
// Call Tick once per sample; when it returns true the phase has moved and
// modulation targets should be recomputed from Sine.
type LFO struct {
	phase float64 // radians in (-pi, pi]
	inc   float64 // radians per tick
	step  int     // samples left until the next tick
	sine  float64
}

// RateHz maps a normalized 0..1 rate control to a frequency in Hz.
func RateHz(rate float64) float64 {
	return math.Exp(7*rate - 4)
}

// Increment returns the per-tick phase increment for rate (0..1).
func Increment(rate, sampleRate float64) float64 {
	if sampleRate <= 0 {
		return 0
	}
	return 2 * math.Pi * RateHz(rate) * MaxStep / sampleRate
}

// SetRate configures the LFO from a normalized 0..1 rate control.
func (l *LFO) SetRate(rate, sampleRate float64) {
	l.inc = Increment(rate, sampleRate)
}

// SetIncrement sets the per-tick phase increment directly.
func (l *LFO) SetIncrement(inc float64) {
	l.inc = inc
}

// Tick advances the step counter by one sample. It reports whether this
// sample is a modulation tick.
func (l *LFO) Tick() bool {
	l.step--
	if l.step > 0 {
		return false
	}
	l.step = MaxStep
	l.phase += l.inc
	if l.phase > math.Pi {
		l.phase -= 2 * math.Pi
	}
	l.sine = math.Sin(l.phase)
	return true
}

// Sine returns the output computed at the last tick.
func (l *LFO) Sine() float64 {
	return l.sine
}

// Vibrato returns the multiplicative modulation factor 1 + sin*depth.
func (l *LFO) Vibrato(depth float64) float64 {
	return 1 + l.sine*depth
}

// Reset zeros the phase. The next Tick is a modulation tick.
func (l *LFO) Reset() {
	l.phase = 0
	l.step = 0
	l.sine = 0
}

// Package voice implements one sounding note: an oscillator pair, a filter,
// and the amplitude and filter envelopes.
package voice

import (
	"math"

	"github.com/cbegin/jx11-go/internal/envelope"
	"github.com/cbegin/jx11-go/internal/filter"
	"github.com/cbegin/jx11-go/internal/osc"
)

const (
	// Sustained marks a voice whose key was released while the sustain
	// pedal was down.
	Sustained = -1

	centerPan = 0.707

	minCutoff = 30.0
	maxCutoff = 20000.0
)

// Voice is one slot of the engine's voice arena. Note is 0 while idle.
type Voice struct {
	Note     int
	Velocity int

	// Period is the current period in samples before pitch bend; it glides
	// toward Target at LFO rate.
	Period float64
	Target float64

	// Cutoff is the key- and velocity-scaled base cutoff in Hz.
	Cutoff          float64
	ModulatedCutoff float64

	Osc       osc.Pair
	Env       envelope.Envelope
	FilterEnv envelope.Envelope
	Filter    filter.SVF

	PanLeft  float64
	PanRight float64
}

// Modulation is the engine state a voice reads at each LFO tick.
type Modulation struct {
	FilterMod      float64 // natural-log cutoff offset from key tracking and LFO
	FilterEnvDepth float64
	FilterQ        float64
	GlideRate      float64
	PitchBend      float64
}

func New(sampleRate float64) *Voice {
	v := &Voice{}
	v.Init(sampleRate)
	return v
}

// Init prepares a zero Voice for sampleRate and leaves it idle.
func (v *Voice) Init(sampleRate float64) {
	v.Osc = *osc.NewPair()
	v.Filter.SetSampleRate(sampleRate)
	v.Reset()
}

// Render produces one sample. input is mixed in before the filter.
func (v *Voice) Render(input float64) float64 {
	x := v.Osc.Render() + input
	x = v.Filter.Render(x)
	return x * v.Env.NextValue()
}

// Update recomputes the constant-power pan from the note number, centered
// on middle C and saturating two octaves either side.
func (v *Voice) Update() {
	panning := clamp((float64(v.Note)-60)/24, -1, 1)
	v.PanLeft = math.Sin(math.Pi / 4 * (1 - panning))
	v.PanRight = math.Sin(math.Pi / 4 * (1 + panning))
}

func (v *Voice) NoteOff() {
	v.Env.Release()
	v.FilterEnv.Release()
}

// Reset returns the voice to idle and clears all DSP state.
func (v *Voice) Reset() {
	v.Note = 0
	v.Velocity = 0
	v.Env.Reset()
	v.FilterEnv.Reset()
	v.Osc.Reset()
	v.Filter.Reset()
	v.PanLeft = centerPan
	v.PanRight = centerPan
}

// UpdateLFO advances glide and the filter envelope by one LFO tick and
// retunes the filter.
func (v *Voice) UpdateLFO(m Modulation) {
	v.Period += m.GlideRate * (v.Target - v.Period)

	fenv := v.FilterEnv.NextValue()
	bend := m.PitchBend
	if bend <= 0 {
		bend = 1
	}
	cutoff := v.Cutoff * math.Exp(m.FilterMod+m.FilterEnvDepth*fenv) / bend
	v.ModulatedCutoff = clamp(cutoff, minCutoff, v.maxCutoff())
	v.Filter.UpdateCoefficients(v.ModulatedCutoff, m.FilterQ)
}

// SetPitch applies pitch bend and detune to the oscillator periods.
func (v *Voice) SetPitch(pitchBend, detune float64) {
	v.Osc.Primary.Period = v.Period * pitchBend
	v.Osc.Secondary.Period = v.Osc.Primary.Period * detune
}

func (v *Voice) maxCutoff() float64 {
	return math.Min(maxCutoff, 0.45*v.Filter.SampleRate())
}

func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

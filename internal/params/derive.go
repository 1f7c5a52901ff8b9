package params

import (
	"math"

	"github.com/cbegin/jx11-go/internal/envelope"
	"github.com/cbegin/jx11-go/internal/lfo"
)

const (
	// MaxVoices is the polyphony in Poly mode.
	MaxVoices = 8

	// FastRelease is the release multiplier used below 1%.
	FastRelease = 0.75

	semitone = 1.059463094359

	// pitchScale converts semitones to the natural log of a frequency ratio.
	pitchScale = 0.05776226505
)

// Envelope holds the per-segment coefficients of one ADSR.
type Envelope struct {
	Attack  float64
	Decay   float64
	Sustain float64
	Release float64
}

// Configure copies the coefficients into e without touching its state.
func (c Envelope) Configure(e *envelope.Envelope) {
	e.AttackMultiplier = c.Attack
	e.DecayMultiplier = c.Decay
	e.SustainLevel = c.Sustain
	e.ReleaseMultiplier = c.Release
}

// Derived is the set of engine coefficients computed from Values for one
// sample rate. It is immutable once built.
type Derived struct {
	SampleRate float64
	NumVoices  int

	Env       Envelope
	FilterEnv Envelope

	OscMix float64 // 0..1 level of the secondary oscillator
	Detune float64 // secondary period ratio
	Tune   float64 // period scale applied to every note

	LFOInc float64

	NoiseMix          float64
	FilterQ           float64
	VolumeTrim        float64
	FilterKeyTracking float64
	FilterLFODepth    float64
	FilterEnvDepth    float64

	Vibrato  float64
	PWMDepth float64

	OutputLevel float64

	VelocitySensitivity float64
	IgnoreVelocity      bool

	GlideMode GlideMode
	GlideRate float64
	GlideBend float64
}

// Derive maps v to engine coefficients for sampleRate. Out-of-range values
// are clamped first.
func Derive(v Values, sampleRate float64) Derived {
	v = v.Clamped()
	d := Derived{SampleRate: sampleRate}

	d.NumVoices = 1
	if v.PolyMode == Poly {
		d.NumVoices = MaxVoices
	}

	d.Env = Envelope{
		Attack:  AttackMultiplier(v.EnvAttack, sampleRate),
		Decay:   DecayMultiplier(v.EnvDecay, sampleRate),
		Sustain: SustainLevel(v.EnvSustain),
		Release: ReleaseMultiplier(v.EnvRelease, sampleRate),
	}
	// The filter envelope only advances on LFO ticks.
	updateRate := sampleRate / lfo.MaxStep
	d.FilterEnv = Envelope{
		Attack:  AttackMultiplier(v.FilterAttack, updateRate),
		Decay:   DecayMultiplier(v.FilterDecay, updateRate),
		Sustain: SustainLevel(v.FilterSustain),
		Release: ReleaseMultiplier(v.FilterRelease, updateRate),
	}

	d.OscMix = v.OscMix / 100
	d.Detune = Detune(v.OscTune, v.OscFine)
	d.Tune = Tune(sampleRate, v.Octave, v.Tuning)
	d.LFOInc = lfo.Increment(v.LFORate, sampleRate)

	noise := v.Noise / 100
	d.NoiseMix = 0.06 * noise * noise

	reso := v.FilterReso / 100
	d.FilterQ = math.Exp(3 * reso)
	d.VolumeTrim = 0.0008 * (3.2 - d.OscMix - 25*d.NoiseMix) * (1.5 - 0.5*reso)

	d.FilterKeyTracking = 0.08*v.FilterFreq - 1.5
	filterLFO := v.FilterLFO / 100
	d.FilterLFODepth = 2.5 * filterLFO * filterLFO
	d.FilterEnvDepth = 0.06 * v.FilterEnv

	vib := v.Vibrato / 200
	d.PWMDepth = 0.2 * vib * vib
	d.Vibrato = d.PWMDepth
	if vib < 0 {
		d.Vibrato = 0
	}

	d.OutputLevel = DecibelsToGain(v.OutputLevel)

	if v.FilterVelocity < -90 {
		d.IgnoreVelocity = true
	} else {
		d.VelocitySensitivity = 0.0005 * v.FilterVelocity
	}

	d.GlideMode = v.GlideMode
	d.GlideRate = GlideRate(v.GlideRate, sampleRate)
	d.GlideBend = v.GlideBend
	return d
}

func timeConstant(percent, sampleRate float64) float64 {
	return math.Exp(-1 / sampleRate * math.Exp(5.5-0.075*percent))
}

// AttackMultiplier maps a 0..100 attack control to a one-pole multiplier.
func AttackMultiplier(percent, sampleRate float64) float64 {
	return timeConstant(percent, sampleRate)
}

func DecayMultiplier(percent, sampleRate float64) float64 {
	return timeConstant(percent, sampleRate)
}

func SustainLevel(percent float64) float64 {
	return percent / 100
}

// ReleaseMultiplier is like AttackMultiplier except that settings below 1%
// release almost immediately.
func ReleaseMultiplier(percent, sampleRate float64) float64 {
	if percent < 1 {
		return FastRelease
	}
	return timeConstant(percent, sampleRate)
}

// Detune returns the period ratio of the secondary oscillator.
func Detune(semitones, cents float64) float64 {
	return math.Pow(semitone, -semitones-0.01*cents)
}

// Tune returns the period, in samples, of MIDI note 0 before the per-note
// exponential is applied.
func Tune(sampleRate, octave, cents float64) float64 {
	semis := -36.3763 - 12*octave - cents/100
	return sampleRate * math.Exp(pitchScale*semis)
}

// NotePeriod returns the period in samples of note for tune. drift adds a
// fraction of a semitone of analog-style detune.
func NotePeriod(tune, note, drift float64) float64 {
	return tune * math.Exp(-pitchScale*(note+drift))
}

// GlideRate returns the per-tick fraction of the remaining distance a gliding
// voice covers. Settings below 2% disable glide.
func GlideRate(percent, sampleRate float64) float64 {
	if percent < 2 {
		return 1
	}
	return 1 - math.Exp(-float64(lfo.MaxStep)/sampleRate*math.Exp(6-0.07*percent))
}

func LFORateHz(rate float64) float64 {
	return lfo.RateHz(rate)
}

func DecibelsToGain(db float64) float64 {
	return math.Pow(10, db/20)
}

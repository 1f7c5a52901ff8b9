// Package params holds the user-facing synth parameters and derives the
// engine coefficients from them.
package params

import (
	"fmt"
	"math"
	"sort"
)

type PolyMode int

const (
	Mono PolyMode = iota
	Poly
)

type GlideMode int

const (
	GlideOff GlideMode = iota
	GlideLegato
	GlideAlways
)

// Values is one complete set of parameter values in UI units.
type Values struct {
	PolyMode  PolyMode
	OscTune   float64 // semitones
	OscFine   float64 // cents
	OscMix    float64 // percent
	GlideMode GlideMode
	GlideRate float64 // percent
	GlideBend float64 // semitones

	FilterFreq     float64
	FilterReso     float64
	FilterEnv      float64
	FilterLFO      float64
	FilterVelocity float64
	FilterAttack   float64
	FilterDecay    float64
	FilterSustain  float64
	FilterRelease  float64

	EnvAttack  float64
	EnvDecay   float64
	EnvSustain float64
	EnvRelease float64

	LFORate     float64 // 0..1
	Vibrato     float64 // negative values select PWM
	Noise       float64
	Octave      float64
	Tuning      float64 // cents
	OutputLevel float64 // dB
}

func Default() Values {
	v := Values{}
	for _, p := range layout {
		p.set(&v, p.Default)
	}
	return v
}

// Param describes one entry of the parameter layout.
type Param struct {
	ID      string
	Name    string
	Unit    string
	Min     float64
	Max     float64
	Default float64
	Choices []string

	format func(float64) string
	get    func(*Values) float64
	set    func(*Values, float64)
}

// Format renders a value the way a front panel would show it.
func (p Param) Format(x float64) string {
	if len(p.Choices) > 0 {
		i := int(math.Round(x))
		if i >= 0 && i < len(p.Choices) {
			return p.Choices[i]
		}
	}
	if p.format != nil {
		return p.format(x)
	}
	if p.Unit == "" {
		return fmt.Sprintf("%.1f", x)
	}
	return fmt.Sprintf("%.1f %s", x, p.Unit)
}

func percent(id, name string, def float64) Param {
	return Param{ID: id, Name: name, Unit: "%", Min: 0, Max: 100, Default: def}
}

func field(p Param, f func(*Values) *float64) Param {
	p.get = func(v *Values) float64 { return *f(v) }
	p.set = func(v *Values, x float64) { *f(v) = x }
	return p
}

var layout = []Param{
	{
		ID: "polyMode", Name: "Polyphony", Max: 1, Default: 1, Choices: []string{"Mono", "Poly"},
		get: func(v *Values) float64 { return float64(v.PolyMode) },
		set: func(v *Values, x float64) { v.PolyMode = PolyMode(math.Round(x)) },
	},
	field(Param{ID: "oscTune", Name: "Osc Tune", Unit: "semi", Min: -24, Max: 24, Default: -12},
		func(v *Values) *float64 { return &v.OscTune }),
	field(Param{ID: "oscFine", Name: "Osc Fine", Unit: "cent", Min: -50, Max: 50},
		func(v *Values) *float64 { return &v.OscFine }),
	field(Param{ID: "oscMix", Name: "Osc Mix", Unit: "%", Max: 100, format: formatOscMix},
		func(v *Values) *float64 { return &v.OscMix }),
	{
		ID: "glideMode", Name: "Glide Mode", Max: 2, Choices: []string{"Off", "Legato", "Always"},
		get: func(v *Values) float64 { return float64(v.GlideMode) },
		set: func(v *Values, x float64) { v.GlideMode = GlideMode(math.Round(x)) },
	},
	field(percent("glideRate", "Glide Rate", 35), func(v *Values) *float64 { return &v.GlideRate }),
	field(Param{ID: "glideBend", Name: "Glide Bend", Unit: "semi", Min: -36, Max: 36},
		func(v *Values) *float64 { return &v.GlideBend }),
	field(percent("filterFreq", "Filter Freq.", 100), func(v *Values) *float64 { return &v.FilterFreq }),
	field(percent("filterReso", "Filter Reso.", 15), func(v *Values) *float64 { return &v.FilterReso }),
	field(Param{ID: "filterEnv", Name: "Filter Env.", Unit: "%", Min: -100, Max: 100, Default: 50},
		func(v *Values) *float64 { return &v.FilterEnv }),
	field(percent("filterLFO", "Filter LFO", 0), func(v *Values) *float64 { return &v.FilterLFO }),
	field(Param{ID: "filterVelocity", Name: "Filter Vel.", Unit: "%", Min: -100, Max: 100, format: formatFilterVelocity},
		func(v *Values) *float64 { return &v.FilterVelocity }),
	field(percent("filterAttack", "Filter Atk.", 0), func(v *Values) *float64 { return &v.FilterAttack }),
	field(percent("filterDecay", "Filter Dec.", 30), func(v *Values) *float64 { return &v.FilterDecay }),
	field(percent("filterSustain", "Filter Sus.", 0), func(v *Values) *float64 { return &v.FilterSustain }),
	field(percent("filterRelease", "Filter Rel.", 25), func(v *Values) *float64 { return &v.FilterRelease }),
	field(percent("envAttack", "Env. Attack", 0), func(v *Values) *float64 { return &v.EnvAttack }),
	field(percent("envDecay", "Env. Decay", 50), func(v *Values) *float64 { return &v.EnvDecay }),
	field(percent("envSustain", "Env. Sustain", 100), func(v *Values) *float64 { return &v.EnvSustain }),
	field(percent("envRelease", "Env. Release", 30), func(v *Values) *float64 { return &v.EnvRelease }),
	field(Param{ID: "lfoRate", Name: "LFO Rate", Unit: "Hz", Max: 1, Default: 0.81, format: formatLFORate},
		func(v *Values) *float64 { return &v.LFORate }),
	field(Param{ID: "vibrato", Name: "Vibrato", Unit: "%", Min: -100, Max: 100, format: formatVibrato},
		func(v *Values) *float64 { return &v.Vibrato }),
	field(percent("noise", "Noise", 0), func(v *Values) *float64 { return &v.Noise }),
	field(Param{ID: "octave", Name: "Octave", Min: -2, Max: 2, format: func(x float64) string { return fmt.Sprintf("%+.0f", x) }},
		func(v *Values) *float64 { return &v.Octave }),
	field(Param{ID: "tuning", Name: "Tuning", Unit: "cent", Min: -100, Max: 100},
		func(v *Values) *float64 { return &v.Tuning }),
	field(Param{ID: "outputLevel", Name: "Output Level", Unit: "dB", Min: -24, Max: 6},
		func(v *Values) *float64 { return &v.OutputLevel }),
}

var byID = func() map[string]int {
	m := make(map[string]int, len(layout))
	for i, p := range layout {
		m[p.ID] = i
	}
	return m
}()

// Layout returns the parameter descriptors in panel order.
func Layout() []Param {
	out := make([]Param, len(layout))
	copy(out, layout)
	return out
}

// IDs returns the sorted parameter identifiers.
func IDs() []string {
	ids := make([]string, 0, len(layout))
	for _, p := range layout {
		ids = append(ids, p.ID)
	}
	sort.Strings(ids)
	return ids
}

func Lookup(id string) (Param, bool) {
	i, ok := byID[id]
	if !ok {
		return Param{}, false
	}
	return layout[i], true
}

// Get returns the value of the parameter id.
func (v *Values) Get(id string) (float64, error) {
	p, ok := Lookup(id)
	if !ok {
		return 0, fmt.Errorf("params: unknown parameter %q", id)
	}
	return p.get(v), nil
}

// Set stores x, clamped to the parameter range, under id.
func (v *Values) Set(id string, x float64) error {
	p, ok := Lookup(id)
	if !ok {
		return fmt.Errorf("params: unknown parameter %q", id)
	}
	if math.IsNaN(x) {
		return fmt.Errorf("params: %s: value is NaN", id)
	}
	p.set(v, clamp(x, p.Min, p.Max))
	return nil
}

// Clamped returns a copy of v with every value inside its range. NaN values
// are replaced by the parameter default.
func (v Values) Clamped() Values {
	for _, p := range layout {
		x := p.get(&v)
		if math.IsNaN(x) {
			x = p.Default
		}
		p.set(&v, clamp(x, p.Min, p.Max))
	}
	return v
}

func formatOscMix(x float64) string {
	return fmt.Sprintf("%4.0f:%2.0f", 100-0.5*x, 0.5*x)
}

func formatFilterVelocity(x float64) string {
	if x < -90 {
		return "OFF"
	}
	return fmt.Sprintf("%.0f %%", x)
}

func formatLFORate(x float64) string {
	return fmt.Sprintf("%.3f Hz", LFORateHz(x))
}

func formatVibrato(x float64) string {
	if x < 0 {
		return fmt.Sprintf("PWM %.1f", -x)
	}
	return fmt.Sprintf("%.1f", x)
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

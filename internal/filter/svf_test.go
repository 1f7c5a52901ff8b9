package filter

import (
	"math"
	"testing"

	"github.com/cbegin/jx11-go/internal/analysis"
	"github.com/cbegin/jx11-go/internal/osc"
)

const sampleRate = 44100.0

func a4() *osc.BLIT {
	o := osc.NewBLIT()
	o.Amplitude = 0.5
	o.Period = sampleRate / 440
	return o
}

func TestZeroFilterIsSilent(t *testing.T) {
	var f SVF
	if got := f.Render(1); got != 0 {
		t.Fatalf("unconfigured filter output = %f, want 0", got)
	}
}

func TestFilterKeepsOscillatorInRange(t *testing.T) {
	f := New(sampleRate)
	f.Reset()
	f.UpdateCoefficients(1000, 0.707)
	o := a4()
	for i := 0; i < int(sampleRate); i++ {
		in := o.Render()
		if in <= -1 || in >= 1 {
			t.Fatalf("oscillator sample %d out of range: %f", i, in)
		}
		out := f.Render(in)
		if out <= -1 || out >= 1 {
			t.Fatalf("filter sample %d out of range: %f", i, out)
		}
		if out == in {
			t.Fatalf("filter sample %d equals its input %f", i, in)
		}
	}
}

func TestLowpassPassesDC(t *testing.T) {
	f := New(sampleRate)
	f.UpdateCoefficients(500, 0.707)
	var out float64
	for i := 0; i < 10000; i++ {
		out = f.Render(0.25)
	}
	if math.Abs(out-0.25) > 1e-6 {
		t.Fatalf("dc output = %f, want 0.25", out)
	}
}

func TestLowpassAttenuatesHighs(t *testing.T) {
	render := func(cutoff float64) *analysis.Spectrum {
		f := New(sampleRate)
		f.UpdateCoefficients(cutoff, 0.707)
		o := a4()
		buf := make([]float64, 16384)
		for i := range buf {
			buf[i] = f.Render(o.Render())
		}
		s, err := analysis.Analyze(buf, sampleRate)
		if err != nil {
			t.Fatalf("analyze: %v", err)
		}
		return s
	}
	open := render(18000)
	closed := render(600)
	if a, b := open.EnergyRatioAbove(2000), closed.EnergyRatioAbove(2000); b >= a/4 {
		t.Fatalf("energy above 2 kHz: open %f, closed %f", a, b)
	}
}

func TestResonancePeaks(t *testing.T) {
	gainAt := func(q float64) float64 {
		f := New(sampleRate)
		f.UpdateCoefficients(1000, q)
		s := osc.NewSine(1000, sampleRate, 0.1)
		var peak float64
		for i := 0; i < 20000; i++ {
			y := math.Abs(f.Render(s.NextSample()))
			if i > 10000 && y > peak {
				peak = y
			}
		}
		return peak / 0.1
	}
	flat := gainAt(0.707)
	resonant := gainAt(5)
	if math.Abs(flat-0.707) > 0.02 {
		t.Errorf("gain at cutoff with q=0.707 = %f, want about 0.707", flat)
	}
	if math.Abs(resonant-5) > 0.2 {
		t.Errorf("gain at cutoff with q=5 = %f, want about 5", resonant)
	}
}

func TestResetClearsState(t *testing.T) {
	f := New(48000)
	f.UpdateCoefficients(2000, 1)
	for i := 0; i < 100; i++ {
		f.Render(0.5)
	}
	f.Reset()
	if f.ic1eq != 0 || f.ic2eq != 0 || f.a1 != 0 || f.g != 0 || f.k != 0 {
		t.Fatalf("reset left state: %+v", f)
	}
	if f.SampleRate() != 48000 {
		t.Fatalf("reset changed sample rate to %f", f.SampleRate())
	}
}

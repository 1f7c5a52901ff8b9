package osc

import (
	"math"
	"testing"

	"github.com/cbegin/jx11-go/internal/analysis"
)

const sampleRate = 44100.0

func periodFor(freq float64) float64 {
	return sampleRate / freq
}

func TestNewBLITDefaults(t *testing.T) {
	o := NewBLIT()
	if o.Amplitude != 1 || o.Modulation != 1 || o.Period != 0 {
		t.Fatalf("unexpected defaults: %+v", o)
	}
	o.phase, o.inc, o.dc, o.saw = 1, 2, 3, 4
	o.Reset()
	if o.phase != 0 || o.inc != 0 || o.dc != 0 || o.saw != 0 {
		t.Fatalf("reset left state behind: %+v", o)
	}
}

func TestFirstSampleIsSincLimit(t *testing.T) {
	o := NewBLIT()
	o.Amplitude = 0.5
	o.Period = periodFor(440)
	got := o.NextSample()
	if math.Abs(got-0.5) > 0.01 {
		t.Fatalf("first sample = %f, want within 0.01 of 0.5", got)
	}

	halfPeriod := o.Period / 2
	phaseMax := math.Floor(0.5+halfPeriod) - 0.5
	want := 0.5 - 0.5*0.5/phaseMax
	if got != want {
		t.Fatalf("first sample = %v, want %v", got, want)
	}
}

func TestRenderStaysBounded(t *testing.T) {
	o := NewBLIT()
	o.Amplitude = 0.5
	o.Period = periodFor(440)
	for i := 0; i < int(sampleRate); i++ {
		s := o.Render()
		if math.IsNaN(s) || s <= -1 || s >= 1 {
			t.Fatalf("sample %d out of range: %f", i, s)
		}
	}
}

func TestRenderPitch(t *testing.T) {
	for _, freq := range []float64{110, 440, 1760} {
		o := NewBLIT()
		o.Amplitude = 0.5
		o.Period = periodFor(freq)
		buf := make([]float64, 16384)
		for i := range buf {
			buf[i] = o.Render()
		}
		s, err := analysis.Analyze(buf, sampleRate)
		if err != nil {
			t.Fatalf("analyze: %v", err)
		}
		if got := s.PeakFrequency(); math.Abs(got-freq) > 2*s.BinWidth() {
			t.Errorf("peak for %.0f Hz = %.1f Hz", freq, got)
		}
	}
}

func TestImpulseTrainIsBandLimited(t *testing.T) {
	o := NewBLIT()
	o.Amplitude = 0.5
	o.Period = periodFor(2000)
	buf := make([]float64, 16384)
	for i := range buf {
		buf[i] = o.Render()
	}
	s, err := analysis.Analyze(buf, sampleRate)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if r := s.EnergyRatioAbove(21500); r > 0.02 {
		t.Fatalf("energy near nyquist = %f, expected band-limited output", r)
	}
}

func TestModulationScalesPeriod(t *testing.T) {
	o := NewBLIT()
	o.Amplitude = 0.5
	o.Period = periodFor(440)
	o.Modulation = 0.5
	buf := make([]float64, 16384)
	for i := range buf {
		buf[i] = o.Render()
	}
	s, err := analysis.Analyze(buf, sampleRate)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if got := s.PeakFrequency(); math.Abs(got-880) > 2*s.BinWidth() {
		t.Fatalf("peak with modulation 0.5 = %.1f Hz, want 880", got)
	}
}

func TestNextSquareSigns(t *testing.T) {
	o := NewBLIT()
	o.Amplitude = 0.5
	o.Period = 100
	if first := o.NextSquare(); first <= 0 {
		t.Fatalf("first square sample = %f, want positive", first)
	}
	for i := 0; i < 10000; i++ {
		s := o.NextSquare()
		if math.IsNaN(s) || math.Abs(s) > 0.6 {
			t.Fatalf("sample %d out of range: %f", i, s)
		}
	}
}

func TestClampPeriod(t *testing.T) {
	for _, tc := range []struct {
		in, want float64
	}{
		{100, 100},
		{6, 6},
		{5, 10},
		{1, 8},
		{0.7, 11.2},
		{0, MinPeriod},
		{-3, MinPeriod},
		{math.NaN(), MinPeriod},
	} {
		if got := ClampPeriod(tc.in); math.Abs(got-tc.want) > 1e-9 {
			t.Errorf("ClampPeriod(%v) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func argmax(buf []float64) int {
	best := 0
	for i := range buf {
		if buf[i] > buf[best] {
			best = i
		}
	}
	return best
}

func TestAlignSquareOffsetsHalfPeriod(t *testing.T) {
	p := NewPair()
	p.Primary.Period = 100
	p.Secondary.Period = 100
	p.Secondary.Amplitude = 1
	p.AlignSquare(100)

	var a, b [100]float64
	for i := range a {
		a[i] = p.Primary.NextSample()
		b[i] = p.Secondary.NextSample()
	}
	if i := argmax(a[:]); i != 0 {
		t.Fatalf("primary impulse at %d, want 0", i)
	}
	if i := argmax(b[:]); i < 48 || i > 52 {
		t.Fatalf("secondary impulse at %d, want about 50", i)
	}
}

func TestAlignSquareFollowsRunningPrimary(t *testing.T) {
	p := NewPair()
	p.Primary.Period = 80
	p.Secondary.Period = 80
	p.Secondary.Amplitude = 1
	for i := 0; i < 23; i++ {
		p.Primary.NextSample()
	}
	p.AlignSquare(80)

	var a, b [120]float64
	for i := range a {
		a[i] = p.Primary.NextSample()
		b[i] = p.Secondary.NextSample()
	}
	d := argmax(b[:]) - argmax(a[:])
	if d < 0 {
		d = -d
	}
	if d < 38 || d > 42 {
		t.Fatalf("impulse distance = %d, want about 40", d)
	}
}

func TestSquareHasOddHarmonics(t *testing.T) {
	freq := 441.0
	sq := NewSquare(periodFor(freq), 0.5)
	buf := make([]float64, 16384)
	Fill(sq, buf)
	s, err := analysis.Analyze(buf, sampleRate)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	f1 := s.MagnitudeAt(freq)
	f2 := s.MagnitudeAt(2 * freq)
	f3 := s.MagnitudeAt(3 * freq)
	if f2 > 0.2*f1 {
		t.Errorf("second harmonic %f too strong against fundamental %f", f2, f1)
	}
	if f3 < 0.15*f1 {
		t.Errorf("third harmonic %f too weak against fundamental %f", f3, f1)
	}
}

func TestSineResonator(t *testing.T) {
	s := NewSine(1000, sampleRate, 0.8)
	buf := make([]float64, 2000)
	Fill(s, buf)
	for i, got := range buf {
		want := 0.8 * math.Sin(2*math.Pi*1000*float64(i+1)/sampleRate)
		if math.Abs(got-want) > 1e-6 {
			t.Fatalf("sample %d = %f, want %f", i, got, want)
		}
	}
	s.Reset()
	if got, want := s.NextSample(), buf[0]; math.Abs(got-want) > 1e-12 {
		t.Fatalf("after reset = %f, want %f", got, want)
	}
}

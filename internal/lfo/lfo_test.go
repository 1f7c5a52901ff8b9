package lfo

import (
	"math"
	"testing"
)

func TestTickIsDecimated(t *testing.T) {
	var l LFO
	l.SetRate(0.5, 44100)
	if !l.Tick() {
		t.Fatal("first tick after reset should update")
	}
	ticks := 0
	for i := 0; i < MaxStep*10; i++ {
		if l.Tick() {
			ticks++
			if (i+1)%MaxStep != 0 {
				t.Fatalf("tick at sample %d, want multiples of %d", i+1, MaxStep)
			}
		}
	}
	if ticks != 10 {
		t.Fatalf("got %d ticks, want 10", ticks)
	}
}

func TestRateHz(t *testing.T) {
	for _, tc := range []struct {
		rate, want float64
	}{
		{0, math.Exp(-4)},
		{4.0 / 7.0, 1},
		{0.81, math.Exp(7*0.81 - 4)},
		{1, math.Exp(3)},
	} {
		if got := RateHz(tc.rate); math.Abs(got-tc.want) > 1e-9 {
			t.Errorf("RateHz(%v) = %v, want %v", tc.rate, got, tc.want)
		}
	}
	if got := Increment(0.5, 0); got != 0 {
		t.Fatalf("increment at zero sample rate = %v", got)
	}
}

func TestSineFrequency(t *testing.T) {
	const sr = 32000.0
	var l LFO
	l.SetRate(4.0/7.0, sr) // 1 Hz
	prev := l.Sine()
	crossings := 0
	for i := 0; i < int(sr)*4; i++ {
		if l.Tick() {
			s := l.Sine()
			if prev < 0 && s >= 0 {
				crossings++
			}
			if s < -1 || s > 1 {
				t.Fatalf("sine out of range: %f", s)
			}
			prev = s
		}
	}
	if crossings < 3 || crossings > 5 {
		t.Fatalf("got %d upward crossings in 4 s, want about 4", crossings)
	}
}

func TestVibratoCentersOnOne(t *testing.T) {
	var l LFO
	l.SetIncrement(0.3)
	for i := 0; i < 1000; i++ {
		l.Tick()
		v := l.Vibrato(0.05)
		if v < 0.95 || v > 1.05 {
			t.Fatalf("vibrato %f outside [0.95, 1.05]", v)
		}
	}
	l.Reset()
	if l.Vibrato(1) != 1 || l.Sine() != 0 {
		t.Fatal("reset LFO should be centered")
	}
}

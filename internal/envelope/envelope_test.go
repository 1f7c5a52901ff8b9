package envelope

import (
	"math"
	"testing"
)

func multiplier(sampleRate, percent float64) float64 {
	return math.Exp(-1 / sampleRate * math.Exp(5.5-0.075*percent))
}

func configured(sustain float64) *Envelope {
	return &Envelope{
		AttackMultiplier:  multiplier(44100, 20),
		DecayMultiplier:   multiplier(44100, 50),
		SustainLevel:      sustain,
		ReleaseMultiplier: multiplier(44100, 30),
	}
}

func TestAttackKickStart(t *testing.T) {
	e := configured(0.5)
	e.Attack()
	if e.Level != 2*Silence {
		t.Fatalf("level after attack = %v, want %v", e.Level, 2*Silence)
	}
	if !e.IsActive() {
		t.Fatal("envelope should be active after attack")
	}
	if !e.IsInAttack() {
		t.Fatal("envelope should be in attack after attack")
	}
}

func TestResetIsIdle(t *testing.T) {
	e := configured(1)
	e.Attack()
	for i := 0; i < 100; i++ {
		e.NextValue()
	}
	e.Reset()
	if e.Level != 0 || e.Target != 0 || e.Multiplier != 0 {
		t.Fatalf("reset left state: %+v", e)
	}
	if e.IsActive() || e.IsInAttack() {
		t.Fatal("reset envelope reports active or attack")
	}
	if e.SustainLevel != 1 {
		t.Fatal("reset cleared the sustain level")
	}
}

func TestShapeIsMonotonicPerSegment(t *testing.T) {
	for _, sustain := range []float64{0, 0.3, 0.5, 1} {
		e := configured(sustain)
		e.Attack()
		prev := e.Level
		inAttack := true
		for i := 0; i < 200000; i++ {
			v := e.NextValue()
			if inAttack && !e.IsInAttack() {
				inAttack = false
				prev = v
				continue
			}
			if inAttack {
				if v < prev {
					t.Fatalf("sustain %v: attack fell at sample %d: %f < %f", sustain, i, v, prev)
				}
			} else if math.Abs(v-sustain) > math.Abs(prev-sustain) {
				t.Fatalf("sustain %v: decay moved away at sample %d: %f", sustain, i, v)
			}
			prev = v
		}
		if inAttack {
			t.Fatalf("sustain %v: attack never finished", sustain)
		}
		if math.Abs(prev-sustain) > 1e-3 {
			t.Fatalf("sustain %v: settled at %f", sustain, prev)
		}
	}
}

func TestAttackHandsOverAboveOne(t *testing.T) {
	e := configured(0.5)
	e.Attack()
	for e.IsInAttack() {
		e.NextValue()
	}
	if e.Level <= 1 {
		t.Fatalf("decay started at level %f, want above 1", e.Level)
	}
	if e.Target != 0.5 || e.Multiplier != e.DecayMultiplier {
		t.Fatalf("decay segment not configured: %+v", e)
	}
}

func TestReleaseReachesSilence(t *testing.T) {
	e := configured(1)
	e.Attack()
	for i := 0; i < 44100; i++ {
		e.NextValue()
	}
	e.Release()
	start := e.Level
	bound := int(math.Ceil(math.Log(Silence/start)/math.Log(e.ReleaseMultiplier))) + 1
	n := 0
	for e.IsActive() {
		prev := e.Level
		if e.NextValue() > prev {
			t.Fatalf("release rose at sample %d", n)
		}
		n++
		if n > bound {
			t.Fatalf("release still active after %d samples", n)
		}
	}
}

func TestRetriggerKeepsLevel(t *testing.T) {
	e := configured(0.8)
	e.Attack()
	for i := 0; i < 5000; i++ {
		e.NextValue()
	}
	e.Release()
	for i := 0; i < 100; i++ {
		e.NextValue()
	}
	level := e.Level
	e.Attack()
	if e.Level != level+2*Silence {
		t.Fatalf("retrigger level = %f, want %f", e.Level, level+2*Silence)
	}
}

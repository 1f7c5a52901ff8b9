// Package envelope implements the one-pole ADSR used for voice amplitude and
// filter modulation.
//
// The stage is encoded by the pair (Target, Multiplier). Each NextValue moves
// Level a fixed fraction of the way toward Target, so every segment is an
// exponential curve. Attack aims above the audible range at AttackTarget and
// hands over to decay once the level has nearly reached it.
package envelope

const (
	// Silence is the level below which an envelope counts as finished.
	Silence = 0.0001

	// AttackTarget is the attack sentinel; levels never get there.
	AttackTarget = 2.0

	attackDone = 3.0
)

type Envelope struct {
	Level      float64
	Target     float64
	Multiplier float64

	AttackMultiplier  float64
	DecayMultiplier   float64
	SustainLevel      float64
	ReleaseMultiplier float64
}

// NextValue advances the envelope by one sample and returns the new level.
func (e *Envelope) NextValue() float64 {
	e.Level = e.Multiplier*(e.Level-e.Target) + e.Target
	if e.Level+e.Target > attackDone {
		e.Multiplier = e.DecayMultiplier
		e.Target = e.SustainLevel
	}
	return e.Level
}

// Attack starts the attack segment from the current level. The small kick
// moves a silent envelope off zero.
func (e *Envelope) Attack() {
	e.Level += 2 * Silence
	e.Target = AttackTarget
	e.Multiplier = e.AttackMultiplier
}

func (e *Envelope) Release() {
	e.Target = 0
	e.Multiplier = e.ReleaseMultiplier
}

// Reset silences the envelope. The configured segment coefficients are kept.
func (e *Envelope) Reset() {
	e.Level = 0
	e.Target = 0
	e.Multiplier = 0
}

func (e *Envelope) IsActive() bool {
	return e.Level > Silence
}

func (e *Envelope) IsInAttack() bool {
	return e.Target >= AttackTarget
}

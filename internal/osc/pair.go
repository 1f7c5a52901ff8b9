package osc

import "math"

// Pair couples a primary oscillator with a secondary one. The secondary is
// subtracted from the primary, which thickens the tone when it is detuned and
// gives a pulse wave when it is aligned half a period away (AlignSquare).
//
// The primary is always advanced before the secondary so that a secondary
// derived from the primary's phase stays locked to it.
type Pair struct {
	Primary   BLIT
	Secondary BLIT
}

func NewPair() *Pair {
	p := &Pair{}
	p.Primary.Amplitude = 1
	p.Primary.Modulation = 1
	p.Secondary.Modulation = 1
	return p
}

func (p *Pair) Reset() {
	p.Primary.Reset()
	p.Secondary.Reset()
}

// Render returns the integrated difference of the two oscillators.
func (p *Pair) Render() float64 {
	s1 := p.Primary.Render()
	s2 := p.Secondary.Render()
	return s1 - s2
}

// AlignSquare restarts the secondary so that its impulses fall half of
// period samples after the primary's. Its phase is taken from the primary's
// recurrence instead of being tracked separately.
func (p *Pair) AlignSquare(period float64) {
	ref := &p.Primary
	s := &p.Secondary
	s.Reset()

	switch {
	case ref.inc > 0:
		s.phase = ref.phaseMax + ref.phaseMax - ref.phase
		s.inc = -ref.inc
	case ref.inc < 0:
		s.phase = ref.phase
		s.inc = ref.inc
	default:
		s.phase = -math.Pi
		s.inc = math.Pi
	}

	s.phase += math.Pi * period / 2
	s.phaseMax = s.phase
}

// Square is a square wave made from a Pair whose secondary is aligned half a
// period behind the primary.
type Square struct {
	pair Pair
}

func NewSquare(period, amplitude float64) *Square {
	s := &Square{}
	s.pair.Primary.Modulation = 1
	s.pair.Secondary.Modulation = 1
	s.SetPeriod(period)
	s.pair.Primary.Amplitude = amplitude
	s.pair.Secondary.Amplitude = amplitude
	s.Reset()
	return s
}

func (s *Square) SetPeriod(period float64) {
	period = ClampPeriod(period)
	s.pair.Primary.Period = period
	s.pair.Secondary.Period = period
}

func (s *Square) Reset() {
	s.pair.Reset()
	s.pair.AlignSquare(s.pair.Primary.Period)
}

func (s *Square) NextSample() float64 {
	return s.pair.Render()
}

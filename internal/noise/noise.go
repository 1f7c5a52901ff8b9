package noise

// DefaultSeed is the seed restored by Reset.
const DefaultSeed uint32 = 22222

// Generator is a linear-congruential white noise source. It is deterministic
// for a given seed and never allocates.
type Generator struct {
	seed uint32
}

func New() *Generator {
	g := &Generator{}
	g.Reset()
	return g
}

func (g *Generator) Reset() {
	g.seed = DefaultSeed
}

// NextValue returns the next sample in [-1, 1).
func (g *Generator) NextValue() float64 {
	g.seed = g.seed*196314165 + 908633515
	temp := int32(g.seed>>7) - 16777216
	return float64(temp) / 16777216.0
}

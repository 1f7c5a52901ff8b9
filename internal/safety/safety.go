// Package safety is the last stage before audio leaves the engine. It keeps
// numeric faults and runaway feedback from reaching the speakers.
package safety

import "math"

// Action reports what ProtectYourEars did to a buffer.
type Action int

const (
	Clean Action = iota
	Clamped
	Silenced
)

func (a Action) String() string {
	switch a {
	case Clamped:
		return "clamped"
	case Silenced:
		return "silenced"
	default:
		return "clean"
	}
}

// Limit is the magnitude beyond which a sample is treated as feedback.
const Limit = 2.0

func fault(x float64) bool {
	return math.IsNaN(x) || math.IsInf(x, 0) || x < -Limit || x > Limit
}

// ProtectYourEars scans buf in place. A NaN, an infinity or any sample outside
// [-2, 2] zeroes the whole buffer. Samples in the remaining overshoot range
// are clamped to [-1, 1]. It never allocates.
func ProtectYourEars(buf []float32) Action {
	action := Clean
	for i, s := range buf {
		x := float64(s)
		switch {
		case fault(x):
			clear(buf)
			return Silenced
		case x < -1:
			buf[i] = -1
			action = Clamped
		case x > 1:
			buf[i] = 1
			action = Clamped
		}
	}
	return action
}

// ProtectSample applies the same rules to a single sample.
func ProtectSample(x float64) float64 {
	switch {
	case fault(x):
		return 0
	case x < -1:
		return -1
	case x > 1:
		return 1
	}
	return x
}

package autopilot

import (
	"math/rand/v2"
	"time"
)

// Rand is the source of randomness used for placement and channel settings.
type Rand interface {
	// Float64 returns a value in [0,1).
	Float64() float64
}

// NewRand returns a PCG source. A zero seed selects a time-based seed;
// any other seed gives a reproducible sequence.
func NewRand(seed uint64) Rand {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano()) //nolint:gosec // not security sensitive
	}
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// uniform returns a value in [lo, hi).
func uniform(r Rand, lo, hi float64) float64 {
	return lo + r.Float64()*(hi-lo)
}

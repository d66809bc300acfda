package engine

import (
	"math/rand/v2"
	"time"
)

// Rand is the random source used for tile spawns and deck shuffles.
// *rand.Rand from math/rand/v2 satisfies it.
type Rand interface {
	IntN(n int) int
	Float64() float64
}

// NewRand returns a deterministic source for the given seed
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// NewDefaultRand returns a source seeded from the clock
func NewDefaultRand() *rand.Rand {
	return NewRand(uint64(time.Now().UnixNano()))
}

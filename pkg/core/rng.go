package core

import "math/rand/v2"

// RNG is a thin convenience wrapper around math/rand/v2 for deterministic seeding.
type RNG struct {
	r *rand.Rand
}

// NewRNG creates a deterministic RNG using the provided seed.
func NewRNG(seed int64) *RNG {
	return &RNG{r: rand.New(rand.NewPCG(uint64(seed), 0))}
}

// Float64 returns a value in [0, 1).
func (r *RNG) Float64() float64 {
	return r.r.Float64()
}

// Chance reports true with probability p.
func (r *RNG) Chance(p float64) bool {
	if p <= 0 {
		return false
	}
	return r.r.Float64() < p
}

// Jitter scales base by a uniform factor in [1-amount, 1+amount]. The result
// never drops below zero for non-negative base and amount <= 1.
func (r *RNG) Jitter(base, amount float64) float64 {
	if amount <= 0 {
		return base
	}
	return base * (1 + amount*(2*r.r.Float64()-1))
}

// FillJitter fills buf with base values perturbed by Jitter.
func FillJitter(r *RNG, buf []float64, base, amount float64) {
	for i := range buf {
		buf[i] = r.Jitter(base, amount)
	}
}

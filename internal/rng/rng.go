// Package rng provides the seedable uniform deviate generator threaded through every
// stochastic operator. A Source is not safe for concurrent use; hand each worker its own
// Source obtained with Fork.
package rng

import "math/rand"

// Source draws uniform deviates from a seeded math/rand generator.
type Source struct {
	r *rand.Rand
}

// New creates a Source seeded with seed.
func New(seed int64) *Source {
	return &Source{r: rand.New(rand.NewSource(seed))}
}

// Range returns a uniform value in [-width, width).
func (s *Source) Range(width float32) float32 {
	return width * (2*s.r.Float32() - 1)
}

// Under returns a uniform value in [0, max).
func (s *Source) Under(max float32) float32 {
	return max * s.r.Float32()
}

// Float64 returns a uniform value in [0, 1).
func (s *Source) Float64() float64 {
	return s.r.Float64()
}

// Intn returns a uniform integer in [0, n). It panics if n <= 0.
func (s *Source) Intn(n int) int {
	return s.r.Intn(n)
}

// Pass reports true with the given probability.
func (s *Source) Pass(probability float32) bool {
	return s.r.Float32() < probability
}

// Fork derives a new independent Source from the next value of s.
func (s *Source) Fork() *Source {
	return New(s.r.Int63())
}

// Rand exposes the underlying generator for helpers that take a *rand.Rand.
func (s *Source) Rand() *rand.Rand {
	return s.r
}

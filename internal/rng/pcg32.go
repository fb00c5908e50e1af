// Package rng provides the explicit, seeded random source used by every
// stochastic component in this module (curves, scenario trees). No component
// is allowed to reach for package-level math/rand state: RNGs are always
// constructed with an explicit seed and threaded through as a value.
package rng

// PCG32 is a from-scratch PCG-XSH-RR generator: fast, small, and fixed forever
// because we own the algorithm, unlike math/rand, whose output is only
// guaranteed stable within one Go release. A fixed, documented algorithm
// means the same seed reproduces the same sequence indefinitely, which the
// determinism tests in this module depend on.
//
// Algorithm: https://www.pcg-random.org/
type PCG32 struct {
	state uint64
	inc   uint64
}

// New creates a PCG32 seeded deterministically from seed.
func New(seed int64) *PCG32 {
	p := &PCG32{}
	p.Seed(seed)
	return p
}

// Seed reinitializes the generator. Implements part of math/rand.Source.
func (p *PCG32) Seed(seed int64) {
	p.state = 0
	p.inc = (uint64(seed) << 1) | 1 // inc must be odd
	p.uint32()
	p.state += uint64(seed)
	p.uint32()
}

func (p *PCG32) uint32() uint32 {
	oldstate := p.state
	p.state = oldstate*6364136223846793005 + p.inc
	xorshifted := uint32(((oldstate >> 18) ^ oldstate) >> 27)
	rot := uint32(oldstate >> 59)
	return (xorshifted >> rot) | (xorshifted << ((-rot) & 31))
}

// Uint64 returns a uniformly distributed uint64. Implements math/rand.Source64.
func (p *PCG32) Uint64() uint64 {
	return (uint64(p.uint32()) << 32) | uint64(p.uint32())
}

// Int63 implements math/rand.Source.
func (p *PCG32) Int63() int64 {
	return int64(p.Uint64() >> 1)
}

// Float64 returns a uniformly distributed float64 in [0, 1), using 53 bits of
// precision like math/rand does.
func (p *PCG32) Float64() float64 {
	return float64(p.Uint64()>>11) / (1 << 53)
}

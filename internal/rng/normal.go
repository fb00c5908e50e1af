package rng

import "gonum.org/v1/gonum/stat/distuv"

// Normal draws one N(mean, stdev) sample from src. It wires PCG32 into
// gonum's distuv.Normal rather than hand-rolling Box-Muller, so the sampler's
// tail behavior and numerical edge cases are gonum's responsibility, not ours.
func Normal(src *PCG32, mean, stdev float64) float64 {
	n := distuv.Normal{Mu: mean, Sigma: stdev, Src: src}
	return n.Rand()
}

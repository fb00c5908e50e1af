package curve

import (
	"time"

	"github.com/areumfire/almhedge/internal/bankerr"
	"github.com/areumfire/almhedge/internal/rng"
)

// defaultSigma is the per-tenor shock stdev used when the caller doesn't
// supply one, grounded on the original engine's defaults (gcurve.py).
func defaultSigma() map[int]float64 {
	return map[int]float64{0: 8e-4, 3: 6e-4, 6: 6e-4, 12: 5e-4, 24: 5e-4}
}

// defaultPhi is the mean-reversion coefficient used when the caller doesn't
// supply one.
const defaultPhi = 0.97

// MR is the mean-reverting yield curve: each tenor is an independent AR(1)
// process around its own long-run mean, with rates clamped at zero.
//
//	r_m(t+1) = mu_m + phi*(r_m(t) - mu_m) + sigma_m * eps, eps ~ N(0,1)
type MR struct {
	mu      map[int]float64
	phi     float64
	sigma   map[int]float64
	current map[int]float64
	tCurr   time.Time
	src     *rng.PCG32
}

// NewMR constructs a mean-reverting curve. base must cover exactly the tenor
// grid {0,3,6,12,24}; sigma, if non-nil, must do the same. phi defaults to
// 0.97 when zero. seed defaults to 42 when zero (matching the original
// engine's default constructor).
func NewMR(t0 time.Time, base map[int]float64, phi float64, sigma map[int]float64, seed int64) (*MR, error) {
	if !matchesTenorGrid(base) {
		return nil, bankerr.InvalidTenorSet(tenorSet(base))
	}
	if sigma == nil {
		sigma = defaultSigma()
	} else if !matchesTenorGrid(sigma) {
		return nil, bankerr.InvalidTenorSet(tenorSet(sigma))
	}
	if phi == 0 {
		phi = defaultPhi
	}
	if seed == 0 {
		seed = 42
	}

	mu := make(map[int]float64, len(Tenors))
	current := make(map[int]float64, len(Tenors))
	sig := make(map[int]float64, len(Tenors))
	for _, m := range Tenors {
		mu[m] = base[m]
		current[m] = base[m]
		sig[m] = sigma[m]
	}

	return &MR{
		mu:      mu,
		phi:     phi,
		sigma:   sig,
		current: current,
		tCurr:   t0,
		src:     rng.New(seed),
	}, nil
}

// RateOvernight implements Curve.
func (c *MR) RateOvernight() float64 { return c.current[0] }

// Rate implements Curve.
func (c *MR) Rate(termMonths int) (float64, error) {
	r, ok := c.current[termMonths]
	if !ok {
		return 0, bankerr.UnsupportedTenor(termMonths)
	}
	return r, nil
}

// Step implements Curve.
func (c *MR) Step(days int) {
	for d := 0; d < days; d++ {
		for _, m := range Tenors {
			mu := c.mu[m]
			prev := c.current[m]
			eps := rng.Normal(c.src, 0, 1)
			next := mu + c.phi*(prev-mu) + c.sigma[m]*eps
			c.current[m] = clampNonNegative(next)
		}
		c.tCurr = c.tCurr.AddDate(0, 0, 1)
	}
}

// Snapshot implements Curve.
func (c *MR) Snapshot() Snapshot {
	rates := make(map[int]float64, len(Tenors))
	for _, m := range Tenors {
		rates[m] = c.current[m]
	}
	return Snapshot{Rates: rates, Date: c.tCurr}
}

// CurrentDate implements Curve.
func (c *MR) CurrentDate() time.Time { return c.tCurr }

// Fork returns an independent copy of the curve at its current state,
// seeded fresh, for branching a scenario tree: the branch inherits the
// model's parameters (mu, phi, sigma) but evolves with its own randomness
// from here on.
func (c *MR) Fork(seed int64) (Curve, error) {
	current := make(map[int]float64, len(c.current))
	for m, v := range c.current {
		current[m] = v
	}
	mu := make(map[int]float64, len(c.mu))
	for m, v := range c.mu {
		mu[m] = v
	}
	sigma := make(map[int]float64, len(c.sigma))
	for m, v := range c.sigma {
		sigma[m] = v
	}
	if seed == 0 {
		seed = 1
	}
	return &MR{
		mu:      mu,
		phi:     c.phi,
		sigma:   sigma,
		current: current,
		tCurr:   c.tCurr,
		src:     rng.New(seed),
	}, nil
}

var _ Curve = (*MR)(nil)
var _ Forker = (*MR)(nil)

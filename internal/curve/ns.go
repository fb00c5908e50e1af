package curve

import (
	"math"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/areumfire/almhedge/internal/bankerr"
	"github.com/areumfire/almhedge/internal/rng"
)

// nsFitMSETolerance gates the fit: residual MSE against the anchor points
// must be strictly below this, or the fit is rejected as degenerate.
const nsFitMSETolerance = 1e-4

// nsTauMax bounds the grid search for tau (months); values much beyond the
// longest anchor tenor stop improving the fit and just waste the scan.
const nsTauMax = 120.0

// nsTauSteps is the resolution of the tau grid search.
const nsTauSteps = 400

// nsFactorSigma is the default AR(1) shock stdev for each of the three
// Nelson-Siegel factors, chosen no larger than the smallest MR per-tenor
// sigma since factors move the whole curve at once.
var nsFactorSigma = [3]float64{5e-4, 5e-4, 4e-4}

const nsFactorPhi = 0.97

// nsFactors holds the three Nelson-Siegel loadings.
type nsFactors struct {
	beta0, beta1, beta2 float64
}

// NS is the Nelson-Siegel parametric curve: three AR(1) factors around means
// fitted to the anchor points at construction, plus a decay tau held fixed
// after fitting.
//
//	y(T) = b0 + b1*L(T) + b2*(L(T)-E(T))
//	L(T) = (1-e^(-T/tau)) / (T/tau),  E(T) = e^(-T/tau),  y(0) = b0+b1
type NS struct {
	tau      float64
	means    nsFactors // fitted long-run means, held fixed
	current  nsFactors
	tCurr    time.Time
	src      *rng.PCG32
}

// NewNS fits a Nelson-Siegel curve to base (must cover exactly the tenor
// grid) and returns an NS curve whose factors start at the fitted values.
// Fails with bankerr.ErrDegenerateFit if no tau in (0, nsTauMax] achieves
// MSE below nsFitMSETolerance against the anchors.
func NewNS(t0 time.Time, base map[int]float64, seed int64) (*NS, error) {
	if !matchesTenorGrid(base) {
		return nil, bankerr.InvalidTenorSet(tenorSet(base))
	}
	if seed == 0 {
		seed = 42
	}

	anchorsT := make([]float64, len(Tenors))
	anchorsY := make([]float64, len(Tenors))
	for i, m := range Tenors {
		anchorsT[i] = float64(m)
		anchorsY[i] = base[m]
	}

	fitted, mse, ok := fitNelsonSiegel(anchorsT, anchorsY)
	if !ok || mse >= nsFitMSETolerance {
		return nil, bankerr.DegenerateFit("no tau in range achieves MSE below tolerance")
	}
	if fitted.tau <= 0 {
		return nil, bankerr.DegenerateFit("fitted tau is not strictly positive")
	}

	return &NS{
		tau:     fitted.tau,
		means:   fitted.factors,
		current: fitted.factors,
		tCurr:   t0,
		src:     rng.New(seed),
	}, nil
}

type nsFit struct {
	tau     float64
	factors nsFactors
}

// fitNelsonSiegel grid-searches tau in (0, nsTauMax], and for each candidate
// solves the closed-form linear regression for (beta0, beta1, beta2) via
// gonum's mat.Dense.Solve, keeping the tau/beta combination with lowest
// residual MSE on the anchor points.
func fitNelsonSiegel(termsMonths, rates []float64) (nsFit, float64, bool) {
	n := len(termsMonths)
	bestMSE := math.Inf(1)
	var best nsFit
	found := false

	step := nsTauMax / float64(nsTauSteps)
	for i := 1; i <= nsTauSteps; i++ {
		tau := step * float64(i)

		xData := make([]float64, n*3)
		for r, T := range termsMonths {
			l, e := nsLoadings(T, tau)
			xData[r*3+0] = 1
			xData[r*3+1] = l
			xData[r*3+2] = l - e
		}
		X := mat.NewDense(n, 3, xData)
		y := mat.NewDense(n, 1, append([]float64(nil), rates...))

		var xtx mat.Dense
		xtx.Mul(X.T(), X)
		var xty mat.Dense
		xty.Mul(X.T(), y)

		var beta mat.Dense
		if err := beta.Solve(&xtx, &xty); err != nil {
			continue
		}

		factors := nsFactors{beta0: beta.At(0, 0), beta1: beta.At(1, 0), beta2: beta.At(2, 0)}

		mse := 0.0
		for r, T := range termsMonths {
			yHat := nsEval(factors, tau, T)
			d := yHat - rates[r]
			mse += d * d
		}
		mse /= float64(n)

		if mse < bestMSE {
			bestMSE = mse
			best = nsFit{tau: tau, factors: factors}
			found = true
		}
	}

	return best, bestMSE, found
}

// nsLoadings returns (L(T), E(T)) for the Nelson-Siegel basis at term T
// months given decay tau, handling the T=0 limit analytically.
func nsLoadings(T, tau float64) (l, e float64) {
	if T == 0 {
		return 1, 1
	}
	x := T / tau
	e = math.Exp(-x)
	l = (1 - e) / x
	return l, e
}

func nsEval(f nsFactors, tau, T float64) float64 {
	l, e := nsLoadings(T, tau)
	return f.beta0 + f.beta1*l + f.beta2*(l-e)
}

// RateOvernight implements Curve.
func (c *NS) RateOvernight() float64 {
	return clampNonNegative(nsEval(c.current, c.tau, 0))
}

// Rate implements Curve. NS accepts any non-negative term in months; unlike
// MR it evaluates the parametric curve analytically instead of looking up a
// fixed tenor grid.
func (c *NS) Rate(termMonths int) (float64, error) {
	if termMonths < 0 {
		return 0, bankerr.UnsupportedTenor(termMonths)
	}
	return clampNonNegative(nsEval(c.current, c.tau, float64(termMonths))), nil
}

// Step implements Curve: each factor evolves as an independent AR(1) around
// its fitted mean; tau stays fixed.
func (c *NS) Step(days int) {
	for d := 0; d < days; d++ {
		c.current.beta0 = arStep(c.current.beta0, c.means.beta0, nsFactorPhi, nsFactorSigma[0], c.src)
		c.current.beta1 = arStep(c.current.beta1, c.means.beta1, nsFactorPhi, nsFactorSigma[1], c.src)
		c.current.beta2 = arStep(c.current.beta2, c.means.beta2, nsFactorPhi, nsFactorSigma[2], c.src)
		c.tCurr = c.tCurr.AddDate(0, 0, 1)
	}
}

func arStep(prev, mean, phi, sigma float64, src *rng.PCG32) float64 {
	eps := rng.Normal(src, 0, 1)
	return mean + phi*(prev-mean) + sigma*eps
}

// Snapshot implements Curve, evaluating the grid tenors analytically.
func (c *NS) Snapshot() Snapshot {
	rates := make(map[int]float64, len(Tenors))
	for _, m := range Tenors {
		rates[m] = clampNonNegative(nsEval(c.current, c.tau, float64(m)))
	}
	return Snapshot{Rates: rates, Date: c.tCurr}
}

// CurrentDate implements Curve.
func (c *NS) CurrentDate() time.Time { return c.tCurr }

// Tau returns the curve's fixed decay parameter (exposed for property tests
// that assert tau remains strictly positive after fitting and stepping).
func (c *NS) Tau() float64 { return c.tau }

// Fork returns an independent copy of the curve at its current state,
// seeded fresh, for branching a scenario tree.
func (c *NS) Fork(seed int64) (Curve, error) {
	if seed == 0 {
		seed = 1
	}
	return &NS{
		tau:     c.tau,
		means:   c.means,
		current: c.current,
		tCurr:   c.tCurr,
		src:     rng.New(seed),
	}, nil
}

var _ Curve = (*NS)(nil)
var _ Forker = (*NS)(nil)

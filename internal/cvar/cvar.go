// Package cvar implements the quarterly rebalancing optimizer: a discrete
// grid search over swap notionals that minimizes conditional value-at-risk
// of terminal portfolio PnL, subject to a mean-PnL floor.
package cvar

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"

	"github.com/areumfire/almhedge/internal/curve"
	"github.com/areumfire/almhedge/internal/rng"
	"github.com/areumfire/almhedge/internal/scenario"
	"github.com/areumfire/almhedge/internal/swapbook"
)

// Decision is a triple of signed swap notionals (positive = receive_fixed,
// negative = pay_fixed) for the 6/12/24-month tenors.
type Decision struct {
	X6, X12, X24 float64
}

// IsZero reports whether every leg of the decision is flat.
func (d Decision) IsZero() bool {
	return d.X6 == 0 && d.X12 == 0 && d.X24 == 0
}

// RebalanceContext is the read-only view of engine state the optimizer needs:
// the current curve (to build the scenario tree from) and the portfolio's
// aggregate size (to scale the grid search's notional unit).
type RebalanceContext interface {
	Curve() curve.Curve
	PortfolioV() float64
	RNG() *rng.PCG32
}

// Options configures a rebalancing pass, defaulting to the values the
// original engine ships with.
type Options struct {
	Levels      int
	Branch      int
	Alpha       float64 // CVaR confidence level
	Mu          float64 // mean-PnL floor
	UnitFrac    float64 // fraction of V per grid unit
	MaxAbsUnits int     // grid half-width per tenor, in units
}

// DefaultOptions returns the optimizer's default configuration.
func DefaultOptions() Options {
	return Options{
		Levels:      5,
		Branch:      5,
		Alpha:       0.95,
		Mu:          0.0,
		UnitFrac:    0.10,
		MaxAbsUnits: 2,
	}
}

// RebalanceOnce builds a scenario tree from ctx's current curve, grid-
// searches swap notionals, and returns the chosen Decision. It does not
// mutate ctx; the caller (the hedge engine) is responsible for opening the
// resulting swaps.
func RebalanceOnce(ctx RebalanceContext, opts Options) (Decision, error) {
	nodes, err := scenario.BuildTree(ctx.Curve(), opts.Levels, opts.Branch, ctx.RNG())
	if err != nil {
		return Decision{}, err
	}

	v := ctx.PortfolioV()
	if v == 0 {
		v = 1_000_000.0
	}
	notionalUnit := v * opts.UnitFrac

	decision, _ := gridSearch(nodes, notionalUnit, opts)
	return decision, nil
}

// DefaultOptimizer adapts RebalanceOnce to the hedge engine's optimizer
// attach-point, carrying a fixed set of Options across every quarterly call.
type DefaultOptimizer struct {
	Opts Options
}

// NewDefaultOptimizer returns a DefaultOptimizer configured with
// DefaultOptions.
func NewDefaultOptimizer() DefaultOptimizer {
	return DefaultOptimizer{Opts: DefaultOptions()}
}

// RebalanceOnce implements the hedge engine's optimizer interface.
func (o DefaultOptimizer) RebalanceOnce(ctx RebalanceContext) (Decision, error) {
	return RebalanceOnce(ctx, o.Opts)
}

// swapCouponQuarter is the quarterly net coupon a swap of the given
// direction, notional and rates pays/receives.
func swapCouponQuarter(notional, fixedRate, floatRateQ float64, direction swapbook.Direction) float64 {
	fixedLeg := notional * fixedRate / 4.0
	floatLeg := notional * floatRateQ / 4.0
	if direction == swapbook.PayFixed {
		return floatLeg - fixedLeg
	}
	return fixedLeg - floatLeg
}

// simulateTerminalPNL walks every root-to-leaf path in nodes, accruing the
// decision's swap coupons quarter by quarter and compounding by each node's
// AccMultToChild, and returns one terminal PnL sample per leaf.
func simulateTerminalPNL(nodes []scenario.Node, decision Decision) []float64 {
	root := nodes[0]
	rFix := map[int]float64{}
	for _, m := range [3]int{6, 12, 24} {
		r, _ := root.Snapshot.Rate(m)
		rFix[m] = r
	}

	dir := func(x float64) swapbook.Direction {
		if x >= 0 {
			return swapbook.ReceiveFixed
		}
		return swapbook.PayFixed
	}
	dir6, dir12, dir24 := dir(decision.X6), dir(decision.X12), dir(decision.X24)

	leaves := scenario.Leaves(nodes)
	pnl := make([]float64, len(leaves))
	for i, leaf := range leaves {
		path := scenario.PathToRoot(nodes, leaf)

		acc := 0.0
		for s := 1; s < len(path); s++ {
			pNode := nodes[path[s-1]]
			cNode := nodes[path[s]]
			rFlt, _ := pNode.Snapshot.Rate(curve.SwapFloatTerm)

			c6 := swapCouponQuarter(math.Abs(decision.X6), rFix[6], rFlt, dir6)
			c12 := swapCouponQuarter(math.Abs(decision.X12), rFix[12], rFlt, dir12)
			c24 := swapCouponQuarter(math.Abs(decision.X24), rFix[24], rFlt, dir24)

			coupon := c6 + c12 + c24
			acc = (acc + coupon) * cNode.AccMultToChild
		}
		pnl[i] = acc
	}
	return pnl
}

// CVaRofLosses returns (CVaR, VaR) at confidence alpha over losses (losses
// are the negative of PnL): VaR is the alpha-quantile loss, CVaR is the mean
// loss in the tail at or beyond VaR.
func CVaRofLosses(losses []float64, alpha float64) (cvarOut, varOut float64) {
	n := len(losses)
	if n == 0 {
		return 0, 0
	}
	sorted := append([]float64(nil), losses...)
	sort.Float64s(sorted)

	k := int(math.Ceil(alpha*float64(n))) - 1
	if k < 0 {
		k = 0
	}
	if k > n-1 {
		k = n - 1
	}
	varOut = sorted[k]

	tail := sorted[k:]
	cvarOut = floats.Sum(tail) / float64(len(tail))
	return cvarOut, varOut
}

// numpy.isclose's default absolute and relative tolerances, used to break
// near-ties in the grid search toward the decision with the larger mean PnL.
const (
	tieAtol = 1e-8
	tieRtol = 1e-5
)

func scoresClose(a, b float64) bool {
	return math.Abs(a-b) <= tieAtol+tieRtol*math.Abs(b)
}

// gridSearch scans every combination of integer per-tenor unit counts in
// [-MaxAbsUnits, MaxAbsUnits], skipping the all-zero decision, and keeps the
// one with lowest CVaR among those clearing the mean-PnL floor. Near-tied
// scores prefer the larger mean PnL.
func gridSearch(nodes []scenario.Node, notionalUnit float64, opts Options) (Decision, float64) {
	var (
		bestScore float64
		bestMean  float64
		bestDec   Decision
		haveBest  bool
	)

	for n6 := -opts.MaxAbsUnits; n6 <= opts.MaxAbsUnits; n6++ {
		for n12 := -opts.MaxAbsUnits; n12 <= opts.MaxAbsUnits; n12++ {
			for n24 := -opts.MaxAbsUnits; n24 <= opts.MaxAbsUnits; n24++ {
				if n6 == 0 && n12 == 0 && n24 == 0 {
					continue
				}
				dec := Decision{
					X6:  float64(n6) * notionalUnit,
					X12: float64(n12) * notionalUnit,
					X24: float64(n24) * notionalUnit,
				}

				pnl := simulateTerminalPNL(nodes, dec)
				meanPNL := mean(pnl)
				if meanPNL < opts.Mu {
					continue
				}

				losses := make([]float64, len(pnl))
				for i, p := range pnl {
					losses[i] = -p
				}
				score, _ := CVaRofLosses(losses, opts.Alpha)

				switch {
				case !haveBest:
					bestScore, bestMean, bestDec, haveBest = score, meanPNL, dec, true
				case score < bestScore && !scoresClose(score, bestScore):
					bestScore, bestMean, bestDec = score, meanPNL, dec
				case scoresClose(score, bestScore) && meanPNL > bestMean:
					bestScore, bestMean, bestDec = score, meanPNL, dec
				}
			}
		}
	}

	return bestDec, bestScore
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	return floats.Sum(xs) / float64(len(xs))
}

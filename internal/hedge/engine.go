// Package hedge drives the day-by-day simulation: a fixed nine-step
// sequence per simulated day composing the yield curve, portfolio and swap
// book, with a quarterly settlement that invokes the CVaR optimizer.
package hedge

import (
	"math"
	"time"

	"github.com/areumfire/almhedge/internal/bankerr"
	"github.com/areumfire/almhedge/internal/curve"
	"github.com/areumfire/almhedge/internal/cvar"
	"github.com/areumfire/almhedge/internal/portfolio"
	"github.com/areumfire/almhedge/internal/rng"
	"github.com/areumfire/almhedge/internal/swapbook"
)

// QuarterLenDays is the number of simulated days between settlements.
const QuarterLenDays = 91

// DaysPerMonth matches the ageing clock used by the portfolio and swap book.
const DaysPerMonth = portfolio.DaysPerMonth

// Optimizer is the quarterly rebalancing attach-point. The engine passes
// itself as the RebalanceContext, since *Engine implements cvar.RebalanceContext.
type Optimizer interface {
	RebalanceOnce(ctx cvar.RebalanceContext) (cvar.Decision, error)
}

// Engine is the simulation driver: one clock, one curve, one portfolio, one
// swap book, strictly single-threaded and sequential.
type Engine struct {
	t0    time.Time
	tCurr time.Time

	portfolio *portfolio.Portfolio
	book      *swapbook.Book
	curve     curve.Curve

	bankAccount           float64
	swapAccount           float64
	accruedSwap           float64
	daysSinceQuarterStart int

	optimizer    Optimizer
	optimizerRNG *rng.PCG32
}

// New constructs an engine over p and c, starting at p.T0. The optimizer
// hook is unset by default; attach one with SetOptimizer.
func New(p *portfolio.Portfolio, c curve.Curve, seed int64) *Engine {
	if seed == 0 {
		seed = 7
	}
	return &Engine{
		t0:           p.T0,
		tCurr:        p.T0,
		portfolio:    p,
		book:         swapbook.New(),
		curve:        c,
		optimizerRNG: rng.New(seed),
	}
}

// SetOptimizer attaches the quarterly rebalancing hook.
func (e *Engine) SetOptimizer(o Optimizer) {
	e.optimizer = o
}

// Curve implements cvar.RebalanceContext.
func (e *Engine) Curve() curve.Curve { return e.curve }

// PortfolioV implements cvar.RebalanceContext.
func (e *Engine) PortfolioV() float64 { return e.portfolio.V }

// RNG implements cvar.RebalanceContext: the dedicated source used for
// scenario-tree branch seeding, distinct from the curve's own RNG.
func (e *Engine) RNG() *rng.PCG32 { return e.optimizerRNG }

// TCurr returns the engine's current simulated date.
func (e *Engine) TCurr() time.Time { return e.tCurr }

// AddSwap opens a new swap at the curve's current rates.
func (e *Engine) AddSwap(direction swapbook.Direction, termMonths int, notional float64) (*swapbook.Swap, error) {
	return e.book.Add(e.curve, direction, termMonths, notional)
}

// Step advances the simulation by n days, running the fixed nine-step
// sequence each day:
//
//  1. accrue swaps into accrued_swap, compound swap_account overnight
//  2. realize due contract coupons into bank_account
//  3. age contracts
//  4. roll over matured contracts at the curve's current rate
//  5. age swaps, roll over matured ones
//  6. quarterly settlement (every QuarterLenDays)
//  7. compound bank_account overnight
//  8. step the curve one day
//  9. advance t_curr
func (e *Engine) Step(n int) error {
	for d := 0; d < n; d++ {
		checkpoint := e.snapshotDay()
		if err := e.stepOneDay(); err != nil {
			e.restoreDay(checkpoint)
			return err
		}
	}
	return nil
}

// dayCheckpoint is enough state to undo a single day: curve state is never
// touched until the day's final, infallible curve.Step call, so it doesn't
// need capturing here.
type dayCheckpoint struct {
	bankAccount           float64
	swapAccount           float64
	accruedSwap           float64
	daysSinceQuarterStart int
	contracts             []portfolio.Contract
	swaps                 []swapbook.Swap
	nextSwapID            int
}

func (e *Engine) snapshotDay() dayCheckpoint {
	swaps, nextID := e.book.Clone()
	return dayCheckpoint{
		bankAccount:           e.bankAccount,
		swapAccount:           e.swapAccount,
		accruedSwap:           e.accruedSwap,
		daysSinceQuarterStart: e.daysSinceQuarterStart,
		contracts:             e.portfolio.CloneContracts(),
		swaps:                 swaps,
		nextSwapID:            nextID,
	}
}

func (e *Engine) restoreDay(c dayCheckpoint) {
	e.bankAccount = c.bankAccount
	e.swapAccount = c.swapAccount
	e.accruedSwap = c.accruedSwap
	e.daysSinceQuarterStart = c.daysSinceQuarterStart
	e.portfolio.RestoreContracts(c.contracts)
	e.book.Restore(c.swaps, c.nextSwapID)
}

func (e *Engine) stepOneDay() error {
	e.accrueSwapsOneDay()

	if err := e.realizeDuePayouts(); err != nil {
		return err
	}
	if err := e.ageAndRollContracts(); err != nil {
		return err
	}
	if err := e.book.AgeAndRollover(e.curve); err != nil {
		return err
	}
	if err := e.quarterlySettle(); err != nil {
		return err
	}

	overnight := e.curve.RateOvernight()
	e.bankAccount *= 1.0 + overnight/365.0

	e.curve.Step(1)
	e.tCurr = e.tCurr.AddDate(0, 0, 1)
	return nil
}

// StepToQuarterEnd advances the simulation to the next quarterly boundary.
func (e *Engine) StepToQuarterEnd() error {
	daysLeft := QuarterLenDays - e.daysSinceQuarterStart
	if daysLeft > 0 {
		return e.Step(daysLeft)
	}
	return nil
}

func (e *Engine) accrueSwapsOneDay() {
	overnight := e.curve.RateOvernight()
	if e.book.Len() == 0 {
		e.swapAccount *= 1.0 + overnight/365.0
		return
	}
	e.accruedSwap += e.book.AccrueOneDay()
	e.swapAccount *= 1.0 + overnight/365.0
}

func (e *Engine) realizeDuePayouts() error {
	for _, c := range e.portfolio.All() {
		if c.NextPayoutDate.After(e.tCurr) {
			continue
		}
		coupon := c.Volume * c.Rate / 12.0
		switch c.Type {
		case portfolio.Loan:
			e.bankAccount += coupon
		case portfolio.Deposit:
			e.bankAccount -= coupon
		default:
			return bankerr.InvariantViolation("contract with unknown type in payout pass")
		}
		c.NextPayoutDate = c.NextPayoutDate.AddDate(0, 1, 0)
	}
	return nil
}

func (e *Engine) ageAndRollContracts() error {
	for _, c := range e.portfolio.All() {
		if c.Volume < 0 {
			return bankerr.InvariantViolation("contract volume is negative")
		}
		if math.IsNaN(c.Rate) || math.IsInf(c.Rate, 0) {
			return bankerr.InvariantViolation("contract rate is non-finite")
		}
		if c.ContractMonths == 0 {
			return bankerr.InvariantViolation("contract has zero term")
		}

		c.RemainingMonths -= 1.0 / DaysPerMonth
		if c.RemainingMonths > 0 {
			continue
		}
		if c.RemainingMonths < -2.0/DaysPerMonth {
			return bankerr.InvariantViolation("contract remaining_months drifted below roll-over tolerance")
		}

		monthlyRate := c.Rate / 12.0
		switch c.Type {
		case portfolio.Loan:
			e.bankAccount += c.Volume * monthlyRate
		case portfolio.Deposit:
			e.bankAccount -= c.Volume * monthlyRate
		default:
			return bankerr.InvariantViolation("contract with unknown type in roll-over pass")
		}

		newRate, err := e.curve.Rate(c.ContractMonths)
		if err != nil {
			return err
		}
		c.StartDate = e.tCurr
		c.MaturityDate = e.tCurr.AddDate(0, c.ContractMonths, 0)
		c.RemainingMonths = float64(c.ContractMonths)
		c.Rate = newRate
	}
	return nil
}

func (e *Engine) quarterlySettle() error {
	e.daysSinceQuarterStart++
	if e.daysSinceQuarterStart < QuarterLenDays {
		return nil
	}

	if e.optimizer != nil {
		decision, err := e.optimizer.RebalanceOnce(e)
		if err != nil {
			return err
		}
		if err := e.openHedges(decision); err != nil {
			return err
		}
	}

	e.swapAccount += e.accruedSwap
	e.accruedSwap = 0.0

	if err := e.book.ResetFloatingRate(e.curve); err != nil {
		return err
	}

	debugPrintf("quarterly settle at %s: swap_account=%.2f\n", e.tCurr, e.swapAccount)
	e.daysSinceQuarterStart = 0
	return nil
}

func (e *Engine) openHedges(d cvar.Decision) error {
	for _, leg := range []struct {
		term   int
		amount float64
	}{{6, d.X6}, {12, d.X12}, {24, d.X24}} {
		if leg.amount == 0 {
			continue
		}
		direction := swapbook.PayFixed
		if leg.amount > 0 {
			direction = swapbook.ReceiveFixed
		}
		if _, err := e.AddSwap(direction, leg.term, absFloat(leg.amount)); err != nil {
			return err
		}
	}
	return nil
}

func absFloat(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}

// State is a read-only snapshot of engine state, returned at day boundaries.
type State struct {
	Date                time.Time
	BankAccount         float64
	SwapAccount         float64
	AccruedSwap         float64
	Curve               curve.Snapshot
	PortfolioTotalLoans float64
	PortfolioTotalDeps  float64
	SwapsCount          int
}

// SnapshotState returns the engine's externally observable state.
func (e *Engine) SnapshotState() State {
	return State{
		Date:                e.tCurr,
		BankAccount:         e.bankAccount,
		SwapAccount:         e.swapAccount,
		AccruedSwap:         e.accruedSwap,
		Curve:               e.curve.Snapshot(),
		PortfolioTotalLoans: e.portfolio.TotalVolume(portfolio.Loan),
		PortfolioTotalDeps:  e.portfolio.TotalVolume(portfolio.Deposit),
		SwapsCount:          e.book.Len(),
	}
}

var _ cvar.RebalanceContext = (*Engine)(nil)

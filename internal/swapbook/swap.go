// Package swapbook implements the book of plain-vanilla pay/receive-fixed
// interest-rate swaps: daily accrual, ageing and roll-over, and the
// quarterly floating-leg reset.
package swapbook

import (
	"time"

	"github.com/areumfire/almhedge/internal/bankerr"
	"github.com/areumfire/almhedge/internal/curve"
)

// Direction distinguishes which leg of the swap the book pays.
type Direction string

const (
	PayFixed     Direction = "pay_fixed"
	ReceiveFixed Direction = "receive_fixed"
)

// Swap is a single plain-vanilla pay/receive-fixed vs. floating position.
type Swap struct {
	ID              int
	Direction       Direction
	Notional        float64
	TermMonths      int     // one of {6,12,24}
	RemainingMonths float64 // continuous ageing clock
	FixedRate       float64 // locked at inception, refreshed at roll-over
	FloatRateQ      float64 // reset quarterly to the 3-month curve rate
	StartDate       time.Time
	MaturityDate    time.Time
}

// daysPerMonth matches the ageing clock used throughout the book.
const daysPerMonth = 365.25 / 12

// Book is the engine-owned set of swaps.
type Book struct {
	swaps  []*Swap
	nextID int
}

// New returns an empty swap book.
func New() *Book {
	return &Book{nextID: 1}
}

// All returns every swap in the book.
func (b *Book) All() []*Swap {
	return b.swaps
}

// Len returns the number of swaps currently in the book.
func (b *Book) Len() int {
	return len(b.swaps)
}

// Add opens a new swap at the curve's current rates. direction must be
// PayFixed or ReceiveFixed; termMonths is expected to be one of {6,12,24}
// but is not checked against that set: only the curve's own Rate validation
// applies (MR rejects non-grid tenors, NS accepts any non-negative term).
func (b *Book) Add(c curve.Curve, direction Direction, termMonths int, notional float64) (*Swap, error) {
	if direction != PayFixed && direction != ReceiveFixed {
		return nil, bankerr.BadDirection(string(direction))
	}

	fixed, err := c.Rate(termMonths)
	if err != nil {
		return nil, err
	}
	flt, err := c.Rate(curve.SwapFloatTerm)
	if err != nil {
		return nil, err
	}

	start := c.CurrentDate()
	s := &Swap{
		ID:              b.nextID,
		Direction:       direction,
		Notional:        notional,
		TermMonths:      termMonths,
		RemainingMonths: float64(termMonths),
		FixedRate:       fixed,
		FloatRateQ:      flt,
		StartDate:       start,
		MaturityDate:    addMonths(start, termMonths),
	}
	b.nextID++
	b.swaps = append(b.swaps, s)
	return s, nil
}

// AccrueOneDay sums each swap's signed daily net coupon and returns the
// total; the caller (the engine) adds this into its accrued_swap balance.
// sign is +1 for receive_fixed, -1 for pay_fixed, applied to
// notional*(fixed_rate-float_rate_q)/365.
func (b *Book) AccrueOneDay() float64 {
	total := 0.0
	for _, s := range b.swaps {
		fixedLeg := s.Notional * s.FixedRate / 365.0
		floatLeg := s.Notional * s.FloatRateQ / 365.0
		if s.Direction == PayFixed {
			total += floatLeg - fixedLeg
		} else {
			total += fixedLeg - floatLeg
		}
	}
	return total
}

// AgeAndRollover decrements every swap's remaining_months by one simulated
// day and rolls over any that have matured, re-striking fixed_rate and
// float_rate_q from the curve at termMonths and SwapFloatTerm respectively.
func (b *Book) AgeAndRollover(c curve.Curve) error {
	tCurr := c.CurrentDate()
	for _, s := range b.swaps {
		if s.TermMonths == 0 {
			return bankerr.InvariantViolation("swap has zero term")
		}
		s.RemainingMonths -= 1.0 / daysPerMonth
		if s.RemainingMonths > 0 {
			continue
		}

		fixed, err := c.Rate(s.TermMonths)
		if err != nil {
			return err
		}
		flt, err := c.Rate(curve.SwapFloatTerm)
		if err != nil {
			return err
		}

		s.StartDate = tCurr
		s.MaturityDate = addMonths(tCurr, s.TermMonths)
		s.RemainingMonths = float64(s.TermMonths)
		s.FixedRate = fixed
		s.FloatRateQ = flt
	}
	return nil
}

// ResetFloatingRate re-strikes float_rate_q on every active swap to the
// curve's current 3-month rate, independent of roll-over. Invoked at every
// quarterly settle.
func (b *Book) ResetFloatingRate(c curve.Curve) error {
	if len(b.swaps) == 0 {
		return nil
	}
	flt, err := c.Rate(curve.SwapFloatTerm)
	if err != nil {
		return err
	}
	for _, s := range b.swaps {
		s.FloatRateQ = flt
	}
	return nil
}

// Clone returns value copies of every swap's current state plus the next-ID
// counter, for the engine to snapshot a day's starting state.
func (b *Book) Clone() ([]Swap, int) {
	out := make([]Swap, len(b.swaps))
	for i, s := range b.swaps {
		out[i] = *s
	}
	return out, b.nextID
}

// Restore replaces the book's contents with snap and resets the next-ID
// counter, undoing any swaps opened (or rolled) since the matching Clone.
func (b *Book) Restore(snap []Swap, nextID int) {
	swaps := make([]*Swap, len(snap))
	for i := range snap {
		s := snap[i]
		swaps[i] = &s
	}
	b.swaps = swaps
	b.nextID = nextID
}

func addMonths(t time.Time, months int) time.Time {
	return t.AddDate(0, months, 0)
}

// Package portfolio holds the set of loan/deposit contracts the hedge
// engine ages, pays out and rolls over day by day.
package portfolio

import "time"

// ContractType distinguishes a loan (asset) from a deposit (liability).
type ContractType string

const (
	Loan    ContractType = "loan"
	Deposit ContractType = "deposit"
)

// DaysPerMonth is the calendar-months-to-days conversion used for ageing
// clocks throughout the book: 365.25/12.
const DaysPerMonth = 365.25 / 12

// Contract is a single fixed-rate loan or deposit.
type Contract struct {
	ID              int
	Type            ContractType
	Volume          float64 // notional, > 0
	ContractMonths  int     // one of {3,6,12,24}
	RemainingMonths float64 // continuous; floored at 1e-6 at creation
	StartDate       time.Time
	MaturityDate    time.Time
	Rate            float64 // annualized, > 0
	NextPayoutDate  time.Time
}

// MonthlyCoupon returns the signed monthly cash-flow this contract
// contributes to the bank account: positive for a loan (interest received),
// negative for a deposit (interest paid).
func (c *Contract) MonthlyCoupon() float64 {
	coupon := c.Volume * c.Rate / 12.0
	if c.Type == Deposit {
		return -coupon
	}
	return coupon
}

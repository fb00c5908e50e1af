package portfolio

import "time"

// Portfolio is the engine-owned set of loan/deposit contracts. Contracts are
// stored in a flat slice; each Contract's ID is its stable identity, not its
// slice index, since roll-over replaces fields in place rather than the
// contract itself; the set's size never changes over the life of a
// simulation.
type Portfolio struct {
	T0        time.Time
	V         float64 // aggregate size parameter used by the optimizer for unit sizing
	contracts []*Contract
}

// New constructs an empty portfolio pinned at t0 with aggregate size v.
// Contracts are added with Add; this package does not generate them itself.
func New(t0 time.Time, v float64) *Portfolio {
	return &Portfolio{T0: t0, V: v}
}

// Add appends a contract to the portfolio. If the contract's NextPayoutDate
// is unset, it defaults to one month after StartDate.
func (p *Portfolio) Add(c *Contract) {
	if c.NextPayoutDate.IsZero() {
		c.NextPayoutDate = c.StartDate.AddDate(0, 1, 0)
	}
	p.contracts = append(p.contracts, c)
}

// All returns every contract, loans and deposits alike. The returned slice
// aliases the portfolio's internal storage: callers may mutate contracts
// in place (that's how the engine ages and rolls them) but must not change
// the slice's length.
func (p *Portfolio) All() []*Contract {
	return p.contracts
}

// Loans returns the loan-only subset.
func (p *Portfolio) Loans() []*Contract {
	return p.filter(Loan)
}

// Deposits returns the deposit-only subset.
func (p *Portfolio) Deposits() []*Contract {
	return p.filter(Deposit)
}

func (p *Portfolio) filter(t ContractType) []*Contract {
	out := make([]*Contract, 0, len(p.contracts))
	for _, c := range p.contracts {
		if c.Type == t {
			out = append(out, c)
		}
	}
	return out
}

// TotalVolume sums Volume across every contract of the given type.
func (p *Portfolio) TotalVolume(t ContractType) float64 {
	total := 0.0
	for _, c := range p.contracts {
		if c.Type == t {
			total += c.Volume
		}
	}
	return total
}

// Len returns the number of contracts (constant for the life of a simulation).
func (p *Portfolio) Len() int {
	return len(p.contracts)
}

// CloneContracts returns value copies of every contract's current state, in
// slice order. Used by the engine to snapshot a day's starting state so it
// can be rolled back if the day aborts partway through.
func (p *Portfolio) CloneContracts() []Contract {
	out := make([]Contract, len(p.contracts))
	for i, c := range p.contracts {
		out[i] = *c
	}
	return out
}

// RestoreContracts overwrites every contract's state from snap, which must
// have been produced by CloneContracts on this same portfolio (same length,
// same order).
func (p *Portfolio) RestoreContracts(snap []Contract) {
	for i := range snap {
		*p.contracts[i] = snap[i]
	}
}

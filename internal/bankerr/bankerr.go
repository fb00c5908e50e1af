// Package bankerr defines the sentinel error taxonomy shared by the curve,
// portfolio, swap book, hedge engine and optimizer packages.
package bankerr

import (
	"errors"
	"fmt"
)

// Sentinel errors. Match with errors.Is; constructors below attach the
// offending values via %w wrapping so callers still get a useful message.
var (
	// ErrInvalidTenorSet: a curve constructor received an anchor/sigma map
	// that does not cover exactly the tenor grid.
	ErrInvalidTenorSet = errors.New("bankerr: anchor set does not match tenor grid")

	// ErrUnsupportedTenor: rate(T) called with T outside the grid-only curve's grid.
	ErrUnsupportedTenor = errors.New("bankerr: unsupported tenor")

	// ErrBadDirection: add_swap given a direction other than pay_fixed/receive_fixed.
	ErrBadDirection = errors.New("bankerr: swap direction must be pay_fixed or receive_fixed")

	// ErrDegenerateFit: the Nelson-Siegel fit could not find a positive tau, or
	// its residual MSE against the anchor points exceeds tolerance.
	ErrDegenerateFit = errors.New("bankerr: Nelson-Siegel fit is degenerate")

	// ErrInvariantViolation: an internal invariant broke (negative volume,
	// non-finite rate, remaining_months drifted too far below zero, zero-term
	// swap). These indicate an engine bug; callers should abort the simulation.
	ErrInvariantViolation = errors.New("bankerr: invariant violation")
)

// InvalidTenorSet wraps ErrInvalidTenorSet with the offending key set.
func InvalidTenorSet(got []int) error {
	return fmt.Errorf("%w: got tenors %v", ErrInvalidTenorSet, got)
}

// UnsupportedTenor wraps ErrUnsupportedTenor with the requested term.
func UnsupportedTenor(termMonths int) error {
	return fmt.Errorf("%w: %d", ErrUnsupportedTenor, termMonths)
}

// BadDirection wraps ErrBadDirection with the offending value.
func BadDirection(direction string) error {
	return fmt.Errorf("%w: got %q", ErrBadDirection, direction)
}

// DegenerateFit wraps ErrDegenerateFit with the failure reason.
func DegenerateFit(reason string) error {
	return fmt.Errorf("%w: %s", ErrDegenerateFit, reason)
}

// InvariantViolation wraps ErrInvariantViolation with a description of the
// broken invariant.
func InvariantViolation(reason string) error {
	return fmt.Errorf("%w: %s", ErrInvariantViolation, reason)
}

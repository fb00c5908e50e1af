package swapbook

import (
	"testing"
	"time"

	"github.com/areumfire/almhedge/internal/curve"
)

func testCurve(t *testing.T) *curve.MR {
	t.Helper()
	t0 := time.Date(2016, 12, 31, 0, 0, 0, 0, time.UTC)
	base := map[int]float64{0: 0.09, 3: 0.095, 6: 0.10, 12: 0.105, 24: 0.11}
	c, err := curve.NewMR(t0, base, 0, nil, 42)
	if err != nil {
		t.Fatalf("NewMR: %v", err)
	}
	return c
}

func TestAddRejectsBadDirection(t *testing.T) {
	b := New()
	c := testCurve(t)
	if _, err := b.Add(c, Direction("fixed_pay"), 12, 1000); err == nil {
		t.Fatal("expected BadDirection for an invalid direction string")
	}
}

func TestAddLocksRatesAtInception(t *testing.T) {
	b := New()
	c := testCurve(t)
	s, err := b.Add(c, ReceiveFixed, 12, 50_000)
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if s.FixedRate != 0.105 {
		t.Errorf("FixedRate = %v, want 0.105", s.FixedRate)
	}
	if s.FloatRateQ != 0.095 {
		t.Errorf("FloatRateQ = %v, want 0.095", s.FloatRateQ)
	}
	if s.RemainingMonths != 12 {
		t.Errorf("RemainingMonths = %v, want 12", s.RemainingMonths)
	}
}

// TestAccrueOneDayNetsToZeroWhenRatesMatch checks the accrual formula's sign
// convention directly: equal fixed and floating legs net to zero regardless
// of direction.
func TestAccrueOneDayNetsToZeroWhenRatesMatch(t *testing.T) {
	b := New()
	c := testCurve(t)
	if _, err := b.Add(c, PayFixed, 12, 50_000); err != nil {
		t.Fatalf("Add: %v", err)
	}
	b.All()[0].FloatRateQ = b.All()[0].FixedRate

	if got := b.AccrueOneDay(); got != 0 {
		t.Errorf("AccrueOneDay() = %v, want 0 when fixed == float", got)
	}
}

func TestAgeAndRolloverRestrikesAtMaturity(t *testing.T) {
	b := New()
	c := testCurve(t)
	if _, err := b.Add(c, ReceiveFixed, 6, 50_000); err != nil {
		t.Fatalf("Add: %v", err)
	}

	s := b.All()[0]
	start := s.StartDate
	var wantRate float64
	rolled := false
	for day := 0; day < 200; day++ {
		// the rate a roll-over on this call would strike
		r, err := c.Rate(s.TermMonths)
		if err != nil {
			t.Fatalf("Rate: %v", err)
		}
		if err := b.AgeAndRollover(c); err != nil {
			t.Fatalf("AgeAndRollover: %v", err)
		}
		if !s.StartDate.Equal(start) {
			wantRate, rolled = r, true
			break
		}
		c.Step(1)
	}
	if !rolled {
		t.Fatal("6-month swap did not roll over within 200 days")
	}

	if s.RemainingMonths != float64(s.TermMonths) {
		t.Errorf("RemainingMonths = %v, want %v after roll-over", s.RemainingMonths, s.TermMonths)
	}
	if s.FixedRate != wantRate {
		t.Errorf("FixedRate = %v, want curve rate %v at roll-over", s.FixedRate, wantRate)
	}
}

func TestResetFloatingRateMatchesCurve(t *testing.T) {
	b := New()
	c := testCurve(t)
	if _, err := b.Add(c, PayFixed, 24, 10_000); err != nil {
		t.Fatalf("Add: %v", err)
	}
	c.Step(45)

	if err := b.ResetFloatingRate(c); err != nil {
		t.Fatalf("ResetFloatingRate: %v", err)
	}

	want, _ := c.Rate(curve.SwapFloatTerm)
	if got := b.All()[0].FloatRateQ; got != want {
		t.Errorf("FloatRateQ = %v, want %v", got, want)
	}
}

func TestCloneAndRestoreRoundTrip(t *testing.T) {
	b := New()
	c := testCurve(t)
	if _, err := b.Add(c, PayFixed, 12, 10_000); err != nil {
		t.Fatalf("Add: %v", err)
	}
	snap, nextID := b.Clone()

	if _, err := b.Add(c, ReceiveFixed, 6, 5_000); err != nil {
		t.Fatalf("Add: %v", err)
	}
	b.Restore(snap, nextID)

	if b.Len() != 1 {
		t.Fatalf("Len() after restore = %d, want 1", b.Len())
	}
	if b.nextID != nextID {
		t.Errorf("nextID after restore = %d, want %d", b.nextID, nextID)
	}
}

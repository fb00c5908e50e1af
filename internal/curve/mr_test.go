package curve

import (
	"testing"
	"time"
)

func e1Base() map[int]float64 {
	return map[int]float64{0: 0.09, 3: 0.095, 6: 0.10, 12: 0.105, 24: 0.11}
}

// TestMRRateOvernightAtConstruction covers E1: before any stepping, the
// overnight rate equals the anchor exactly.
func TestMRRateOvernightAtConstruction(t *testing.T) {
	t0 := time.Date(2016, 12, 31, 0, 0, 0, 0, time.UTC)
	c, err := NewMR(t0, e1Base(), 0, nil, 42)
	if err != nil {
		t.Fatalf("NewMR: %v", err)
	}
	if got := c.RateOvernight(); got != 0.09 {
		t.Errorf("RateOvernight() = %v, want 0.09", got)
	}
}

func TestMRRejectsIncompleteTenorSet(t *testing.T) {
	t0 := time.Date(2016, 12, 31, 0, 0, 0, 0, time.UTC)
	bad := map[int]float64{0: 0.09, 3: 0.095}
	if _, err := NewMR(t0, bad, 0, nil, 42); err == nil {
		t.Fatal("expected an error for an incomplete tenor set")
	}
}

func TestMRRateUnsupportedTenor(t *testing.T) {
	t0 := time.Date(2016, 12, 31, 0, 0, 0, 0, time.UTC)
	c, err := NewMR(t0, e1Base(), 0, nil, 42)
	if err != nil {
		t.Fatalf("NewMR: %v", err)
	}
	if _, err := c.Rate(18); err == nil {
		t.Error("expected UnsupportedTenor for a non-grid tenor")
	}
}

// TestMRRatesStayNonNegative is property 5: across many simulated days and
// seeds, rates never go negative even under repeated downward shocks.
func TestMRRatesStayNonNegative(t *testing.T) {
	t0 := time.Date(2016, 12, 31, 0, 0, 0, 0, time.UTC)
	base := map[int]float64{0: 0.001, 3: 0.001, 6: 0.001, 12: 0.001, 24: 0.001}
	sigma := map[int]float64{0: 0.05, 3: 0.05, 6: 0.05, 12: 0.05, 24: 0.05}

	for seed := int64(1); seed <= 5; seed++ {
		c, err := NewMR(t0, base, 0.5, sigma, seed)
		if err != nil {
			t.Fatalf("NewMR: %v", err)
		}
		for day := 0; day < 500; day++ {
			c.Step(1)
			for _, m := range Tenors {
				r, err := c.Rate(m)
				if err != nil {
					t.Fatalf("Rate(%d): %v", m, err)
				}
				if r < 0 {
					t.Fatalf("seed %d day %d: tenor %d went negative: %v", seed, day, m, r)
				}
			}
		}
	}
}

func TestMRForkIsIndependent(t *testing.T) {
	t0 := time.Date(2016, 12, 31, 0, 0, 0, 0, time.UTC)
	c, err := NewMR(t0, e1Base(), 0, nil, 42)
	if err != nil {
		t.Fatalf("NewMR: %v", err)
	}
	c.Step(30)

	fork1, err := c.Fork(101)
	if err != nil {
		t.Fatalf("Fork: %v", err)
	}
	fork2, err := c.Fork(202)
	if err != nil {
		t.Fatalf("Fork: %v", err)
	}
	fork1.Step(91)
	fork2.Step(91)

	if fork1.RateOvernight() == fork2.RateOvernight() {
		t.Error("independently-seeded forks should not evolve identically")
	}
	// the original curve must be untouched by forking
	if got := c.CurrentDate(); !got.Equal(t0.AddDate(0, 0, 30)) {
		t.Errorf("forking mutated the parent curve's date: got %v", got)
	}
}

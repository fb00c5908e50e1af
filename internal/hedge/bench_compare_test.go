package hedge

import (
	"math"
	"testing"
	"time"

	"github.com/areumfire/almhedge/internal/curve"
)

// TestBenchCompareMRvsNSStayFinite runs the same portfolio through both curve
// models side by side for a year, the way the original engine's benchmark
// harness compared them, and checks neither model lets the simulation
// diverge: both accounts stay finite and NS's grid rates stay non-negative.
func TestBenchCompareMRvsNSStayFinite(t *testing.T) {
	t0 := time.Date(2016, 12, 31, 0, 0, 0, 0, time.UTC)
	base := e1Base()

	mr, err := curve.NewMR(t0, base, 0, nil, 7)
	if err != nil {
		t.Fatalf("NewMR: %v", err)
	}
	ns, err := curve.NewNS(t0, base, 7)
	if err != nil {
		t.Fatalf("NewNS: %v", err)
	}

	pMR := newTestPortfolio(t, 20, 20, 1_000_000, t0)
	pNS := newTestPortfolio(t, 20, 20, 1_000_000, t0)

	eMR := New(pMR, mr, 7)
	eNS := New(pNS, ns, 7)

	const days = 365
	if err := eMR.Step(days); err != nil {
		t.Fatalf("MR engine Step: %v", err)
	}
	if err := eNS.Step(days); err != nil {
		t.Fatalf("NS engine Step: %v", err)
	}

	for name, e := range map[string]*Engine{"MR": eMR, "NS": eNS} {
		s := e.SnapshotState()
		if math.IsNaN(s.BankAccount) || math.IsInf(s.BankAccount, 0) {
			t.Errorf("%s bank_account diverged: %v", name, s.BankAccount)
		}
		if math.IsNaN(s.SwapAccount) || math.IsInf(s.SwapAccount, 0) {
			t.Errorf("%s swap_account diverged: %v", name, s.SwapAccount)
		}
	}

	nsSnap := eNS.Curve().Snapshot()
	for _, m := range curve.Tenors {
		r, ok := nsSnap.Rate(m)
		if !ok {
			t.Fatalf("NS snapshot missing tenor %d", m)
		}
		if r < 0 {
			t.Errorf("NS rate at tenor %d went negative: %v", m, r)
		}
	}
}

package agent

import "testing"

func TestEffectiveLiquidity(t *testing.T) {
	a := New(Config{ID: "A", OpeningBalance: 100, UnsecuredCap: 50})
	a.PostedCollateral = 25
	if got := a.EffectiveLiquidity(); got != 175 {
		t.Fatalf("EffectiveLiquidity = %v, want 175", got)
	}
}

func TestMinBalanceAndCanSettle(t *testing.T) {
	a := New(Config{ID: "A", OpeningBalance: 0, UnsecuredCap: 100})
	a.PostedCollateral = 50
	if a.MinBalance() != -150 {
		t.Fatalf("MinBalance = %v, want -150", a.MinBalance())
	}
	a.Balance = -140
	if !a.CanSettle(10) {
		t.Fatalf("settling down to exactly -150 must be allowed")
	}
	if a.CanSettle(11) {
		t.Fatalf("settling past -150 must be rejected")
	}
}

func TestSetCollateralClampsToCapacity(t *testing.T) {
	a := New(Config{ID: "A", MaxCollateralCapacity: 1000, HasCollateralCapacity: true})
	a.SetCollateral(5000)
	if a.PostedCollateral != 1000 {
		t.Fatalf("collateral should clamp to capacity, got %v", a.PostedCollateral)
	}
	a.SetCollateral(-50)
	if a.PostedCollateral != 0 {
		t.Fatalf("collateral should clamp to zero, got %v", a.PostedCollateral)
	}
}

func TestEnqueueSortedOrder(t *testing.T) {
	a := New(Config{ID: "A"})
	arrival := map[string]uint64{"t1": 5, "t2": 5, "t3": 3}
	priority := map[string]int{"t1": 1, "t2": 9, "t3": 0}
	arrivalOf := func(id string) uint64 { return arrival[id] }
	priorityOf := func(id string) int { return priority[id] }

	a.EnqueueSorted("t1", arrivalOf, priorityOf)
	a.EnqueueSorted("t2", arrivalOf, priorityOf)
	a.EnqueueSorted("t3", arrivalOf, priorityOf)

	want := []string{"t3", "t2", "t1"}
	for i, id := range want {
		if a.Queue1[i] != id {
			t.Fatalf("Queue1 = %v, want order %v", a.Queue1, want)
		}
	}
}

func TestBankStateIntMissingKeyIsZero(t *testing.T) {
	a := New(Config{ID: "A"})
	if a.BankStateInt("nope") != 0 {
		t.Fatalf("missing bank_state key should yield 0")
	}
	a.BankState["x"] = IntValue(7)
	if a.BankStateInt("x") != 7 {
		t.Fatalf("expected 7")
	}
}

package metrics

import (
	"testing"

	"simcash/sim/money"
)

func ratesFixture() CostRates {
	return CostRates{
		DelayCostPerTickBps:      100,
		OverdraftCostPerTickBps:  200,
		CollateralCostPerTickBps: 500,
		DeadlinePenaltyBps:       1000,
		EODPenaltyBps:            2000,
		SplitFrictionCents:       5,
	}
}

func TestAccrueDelayAndOverdraft(t *testing.T) {
	agg := NewAggregator(ratesFixture())
	agg.AccrueDelay("A", 10000)
	if got := agg.Agents["A"].DelayCost; got != 100 {
		t.Fatalf("delay cost = %v, want 100", got)
	}

	cost := agg.AccrueOverdraft("A", -5000)
	if cost != 100 {
		t.Fatalf("overdraft cost = %v, want 100", cost)
	}
	if agg.Agents["A"].OverdraftCost != 100 {
		t.Fatalf("accumulated overdraft cost wrong: %v", agg.Agents["A"].OverdraftCost)
	}

	// a positive balance contributes zero overdraft cost
	cost2 := agg.AccrueOverdraft("A", 5000)
	if cost2 != 0 {
		t.Fatalf("positive balance must not accrue overdraft cost, got %v", cost2)
	}
}

func TestSettlementRateZeroWithNoArrivals(t *testing.T) {
	agg := NewAggregator(ratesFixture())
	if rate := agg.Counts.SettlementRate(); rate != 0 {
		t.Fatalf("expected 0 with no arrivals, got %v", rate)
	}
}

func TestSettlementRateComputation(t *testing.T) {
	agg := NewAggregator(ratesFixture())
	agg.RecordOriginalArrival()
	agg.RecordOriginalArrival()
	agg.RecordEffectivelySettled()
	if rate := agg.Counts.SettlementRate(); rate != 0.5 {
		t.Fatalf("expected 0.5, got %v", rate)
	}
}

func TestSystemTotalSumsAllAgents(t *testing.T) {
	agg := NewAggregator(ratesFixture())
	agg.AccrueDelay("A", 10000)
	agg.AccrueDelay("B", 20000)
	want := money.Bps(100, 10000) + money.Bps(100, 20000)
	if got := agg.SystemTotal(); got != want {
		t.Fatalf("SystemTotal = %v, want %v", got, want)
	}
}

func TestAccrueSplitFriction(t *testing.T) {
	agg := NewAggregator(ratesFixture())
	agg.AccrueSplitFriction("A")
	agg.AccrueSplitFriction("A")
	if agg.Agents["A"].SplitFriction != 10 {
		t.Fatalf("expected 10 after two splits, got %v", agg.Agents["A"].SplitFriction)
	}
}

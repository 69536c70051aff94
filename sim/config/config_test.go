package config

import (
	"testing"

	"simcash/sim/money"
)

func validScenario() Scenario {
	return Scenario{
		TicksPerDay: 10,
		NumDays:     1,
		Agents: []AgentConfig{
			{ID: "A", OpeningBalance: 1000, UnsecuredCap: 500},
			{ID: "B", OpeningBalance: 0, UnsecuredCap: 0},
		},
		ScenarioEvents: []ScenarioEvent{
			{FromAgent: "A", ToAgent: "B", Amount: 100, ArrivalTick: 0, DeadlineTick: 5},
		},
	}
}

func TestValidateAcceptsWellFormedScenario(t *testing.T) {
	s := validScenario()
	if err := s.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateRejectsDuplicateAgentID(t *testing.T) {
	s := validScenario()
	s.Agents = append(s.Agents, AgentConfig{ID: "A"})
	if err := s.Validate(); err == nil {
		t.Fatalf("expected duplicate agent id error")
	}
}

func TestValidateRejectsZeroTicksPerDay(t *testing.T) {
	s := validScenario()
	s.TicksPerDay = 0
	if err := s.Validate(); err == nil {
		t.Fatalf("expected error for zero ticks_per_day")
	}
}

func TestValidateRejectsEventReferencingUnknownAgent(t *testing.T) {
	s := validScenario()
	s.ScenarioEvents = append(s.ScenarioEvents, ScenarioEvent{FromAgent: "A", ToAgent: "ghost", Amount: 10, DeadlineTick: 1})
	if err := s.Validate(); err == nil {
		t.Fatalf("expected error for undefined agent reference")
	}
}

func TestValidateRejectsUnknownArrivalDistribution(t *testing.T) {
	s := validScenario()
	s.Arrivals = append(s.Arrivals, ArrivalSpec{
		Sender: "A", Receiver: "B", InterarrivalDist: "bogus", AmountDist: "uniform",
	})
	if err := s.Validate(); err == nil {
		t.Fatalf("expected error for unknown interarrival distribution")
	}
}

func TestValidateRejectsArrivalReferencingUnknownAgent(t *testing.T) {
	s := validScenario()
	s.Arrivals = append(s.Arrivals, ArrivalSpec{
		Sender: "A", Receiver: "ghost", InterarrivalDist: "poisson", AmountDist: "uniform",
	})
	if err := s.Validate(); err == nil {
		t.Fatalf("expected error for undefined agent reference")
	}
}

func TestValidateAcceptsWellFormedArrival(t *testing.T) {
	s := validScenario()
	s.Arrivals = append(s.Arrivals, ArrivalSpec{
		Sender: "A", Receiver: "B", InterarrivalDist: "poisson", InterarrivalParam: 2,
		AmountDist: "lognormal", AmountParam1: 1, AmountParam2: 1,
	})
	if err := s.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestExtractAgentRuntimeIsTheOnlyPath(t *testing.T) {
	a := AgentConfig{
		ID: "A", OpeningBalance: 100, UnsecuredCap: 50,
		MaxCollateralCapacity: 200, HasMaxCollateralCapacity: true,
	}
	cfg := ExtractAgentRuntime(a)
	if cfg.ID != "A" || cfg.UnsecuredCap != 50 || cfg.MaxCollateralCapacity != 200 || !cfg.HasCollateralCapacity {
		t.Fatalf("extracted config mismatch: %+v", cfg)
	}
}

func TestInitialBalanceUsesLiquidityFractionWhenConfigured(t *testing.T) {
	a := AgentConfig{
		ID: "A", OpeningBalance: 999, // should be ignored when liquidity pool + fraction configured
		LiquidityPool: 10000, HasLiquidityPool: true,
		InitialLiquidityFraction: 0.25, HasInitialLiquidityFraction: true,
	}
	if got := InitialBalance(a); got != 2500 {
		t.Fatalf("InitialBalance = %v, want 2500", got)
	}
}

func TestInitialBalanceFallsBackToOpeningBalance(t *testing.T) {
	a := AgentConfig{ID: "A", OpeningBalance: money.Cents(777)}
	if got := InitialBalance(a); got != 777 {
		t.Fatalf("InitialBalance = %v, want 777", got)
	}
}

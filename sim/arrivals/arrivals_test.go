package arrivals

import (
	"testing"

	"simcash/sim/config"
)

func TestScheduledArrivalsFireAtConfiguredTick(t *testing.T) {
	scenario := config.Scenario{
		RNGSeed: 1,
		ScenarioEvents: []config.ScenarioEvent{
			{FromAgent: "A", ToAgent: "B", Amount: 500, ArrivalTick: 3, DeadlineTick: 10},
			{FromAgent: "A", ToAgent: "C", Amount: 700, ArrivalTick: 3, DeadlineTick: 10},
		},
	}
	g := NewGenerator(scenario)
	if got := g.AtTick(3); len(got) != 2 {
		t.Fatalf("expected 2 arrivals at tick 3, got %d", len(got))
	}
	if got := g.AtTick(4); len(got) != 0 {
		t.Fatalf("expected 0 arrivals at tick 4, got %d", len(got))
	}
}

func TestStochasticStreamDeterministicAcrossGenerators(t *testing.T) {
	scenario := config.Scenario{
		RNGSeed: 42,
		Arrivals: []config.ArrivalSpec{
			{Sender: "A", Receiver: "B", InterarrivalDist: "poisson", InterarrivalParam: 2,
				AmountDist: "uniform", AmountParam1: 100, AmountParam2: 200, DeadlineOffset: 5},
		},
	}
	g1 := NewGenerator(scenario)
	g2 := NewGenerator(scenario)

	for tick := uint64(0); tick < 50; tick++ {
		a1 := g1.AtTick(tick)
		a2 := g2.AtTick(tick)
		if len(a1) != len(a2) {
			t.Fatalf("tick %d: arrival count diverged: %d vs %d", tick, len(a1), len(a2))
		}
		for i := range a1 {
			if a1[i] != a2[i] {
				t.Fatalf("tick %d: arrival %d diverged: %+v vs %+v", tick, i, a1[i], a2[i])
			}
		}
	}
}

func TestValidateSpecRejectsUnknownDistribution(t *testing.T) {
	spec := config.ArrivalSpec{InterarrivalDist: "bogus", AmountDist: "uniform"}
	if err := ValidateSpec(spec); err == nil {
		t.Fatalf("expected error for unknown interarrival distribution")
	}
}

func TestValidateSpecAcceptsKnownDistributions(t *testing.T) {
	spec := config.ArrivalSpec{InterarrivalDist: "poisson", AmountDist: "lognormal"}
	if err := ValidateSpec(spec); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

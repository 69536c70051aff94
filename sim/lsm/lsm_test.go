package lsm

import (
	"testing"

	"simcash/sim/money"
)

func TestBilateralOffsetNetsSmallerSideFully(t *testing.T) {
	// S2: A has pending 8000c->B, B has pending 6000c->A.
	candidates := []Candidate{
		{TxID: "a1", Sender: "A", Receiver: "B", Amount: 8000, Priority: 0, ArrivalTick: 5},
		{TxID: "b1", Sender: "B", Receiver: "A", Amount: 6000, Priority: 0, ArrivalTick: 5},
	}
	results := BilateralOffsets(candidates)
	if len(results) != 1 {
		t.Fatalf("expected 1 bilateral result, got %d", len(results))
	}
	r := results[0]
	if r.Netted != 6000 {
		t.Fatalf("expected netted=6000, got %v", r.Netted)
	}
	if len(r.LegsB) != 1 || r.LegsB[0].Amount != 6000 {
		t.Fatalf("B's leg should be fully consumed at 6000: %+v", r.LegsB)
	}
	if len(r.LegsA) != 1 || r.LegsA[0].Amount != 6000 {
		t.Fatalf("A's leg should be partially consumed at 6000: %+v", r.LegsA)
	}
}

func TestBilateralOffsetIgnoresOneSidedFlow(t *testing.T) {
	candidates := []Candidate{
		{TxID: "a1", Sender: "A", Receiver: "B", Amount: 1000, Priority: 0, ArrivalTick: 0},
	}
	if got := BilateralOffsets(candidates); len(got) != 0 {
		t.Fatalf("expected no offsets with only one-directional flow, got %d", len(got))
	}
}

func TestBilateralOffsetDeterministicPairOrder(t *testing.T) {
	candidates := []Candidate{
		{TxID: "z1", Sender: "Z", Receiver: "A", Amount: 100, ArrivalTick: 0},
		{TxID: "a1", Sender: "A", Receiver: "Z", Amount: 100, ArrivalTick: 0},
		{TxID: "b1", Sender: "B", Receiver: "A", Amount: 50, ArrivalTick: 0},
		{TxID: "a2", Sender: "A", Receiver: "B", Amount: 50, ArrivalTick: 0},
	}
	results := BilateralOffsets(candidates)
	if len(results) != 2 {
		t.Fatalf("expected 2 pairs netted, got %d", len(results))
	}
	if results[0].AgentA != "A" || results[0].AgentB != "B" {
		t.Fatalf("expected (A,B) pair first lexicographically, got (%s,%s)", results[0].AgentA, results[0].AgentB)
	}
}

func TestMultilateralTriangularCycle(t *testing.T) {
	// S3: A->B 5000, B->C 5000, C->A 5000.
	candidates := []Candidate{
		{TxID: "ab", Sender: "A", Receiver: "B", Amount: 5000, ArrivalTick: 3},
		{TxID: "bc", Sender: "B", Receiver: "C", Amount: 5000, ArrivalTick: 3},
		{TxID: "ca", Sender: "C", Receiver: "A", Amount: 5000, ArrivalTick: 3},
	}
	results := MultilateralCycles(candidates, 5, nil)
	if len(results) != 1 {
		t.Fatalf("expected 1 cycle settled, got %d", len(results))
	}
	r := results[0]
	if r.TotalValue != 15000 {
		t.Fatalf("expected total_value=15000, got %v", r.TotalValue)
	}
	if r.MaxNetOutflow != 0 {
		t.Fatalf("expected max_net_outflow=0, got %v", r.MaxNetOutflow)
	}
	if len(r.Agents) != 3 {
		t.Fatalf("expected 3 agents in cycle, got %d", len(r.Agents))
	}
}

func TestMultilateralCycleRejectedWhenInfeasible(t *testing.T) {
	candidates := []Candidate{
		{TxID: "ab", Sender: "A", Receiver: "B", Amount: 5000, ArrivalTick: 3},
		{TxID: "bc", Sender: "B", Receiver: "C", Amount: 5000, ArrivalTick: 3},
		{TxID: "ca", Sender: "C", Receiver: "A", Amount: 5000, ArrivalTick: 3},
	}
	results := MultilateralCycles(candidates, 5, func(agentID string, netOutflow money.Cents) bool { return false })
	if len(results) != 0 {
		t.Fatalf("an always-infeasible afford callback must prevent any cycle from settling, got %d", len(results))
	}
}

// Package lsm implements the Liquidity Saving Mechanism netting passes
// (spec §4.3): bilateral offset and small-cycle multilateral netting over
// the tick's release-eligible pending payments. Built fresh — no teacher
// graph/cycle code was close enough to adapt — from the spec's algorithm
// description, following the pack's general deterministic-ordering
// convention (sort before iterate, lexicographic tie-break).
package lsm

import (
	"sort"

	"simcash/sim/money"
)

// Candidate is one release-eligible pending payment considered by a
// netting pass. Sender/Receiver/Amount/Priority/ArrivalTick/TxID mirror
// the subset of txn.Transaction fields the netting order (spec §4.3,
// §4.1 step 5) depends on.
type Candidate struct {
	TxID        string
	Sender      string
	Receiver    string
	Amount      money.Cents
	Priority    int
	ArrivalTick uint64
}

// candidateLess implements the deterministic settlement ordering shared
// by bilateral netting and conventional settlement: priority desc,
// arrival_tick asc, tx_id asc (spec §4.1 step 5).
func candidateLess(a, b Candidate) bool {
	if a.Priority != b.Priority {
		return a.Priority > b.Priority
	}
	if a.ArrivalTick != b.ArrivalTick {
		return a.ArrivalTick < b.ArrivalTick
	}
	return a.TxID < b.TxID
}

func sortCandidates(cs []Candidate) []Candidate {
	out := make([]Candidate, len(cs))
	copy(out, cs)
	sort.SliceStable(out, func(i, j int) bool { return candidateLess(out[i], out[j]) })
	return out
}

// NettedLeg records how much of one transaction was consumed by a
// netting pass.
type NettedLeg struct {
	TxID   string
	Amount money.Cents
}

// netInOrder walks cs in settlement order, consuming up to budget cents
// total, partially consuming the final transaction if budget does not
// divide evenly across whole transaction amounts. Returns the legs
// consumed; if cs's total eligible amount is less than budget, the legs
// sum to that total and the rest of budget is not reported.
func netInOrder(cs []Candidate, budget money.Cents) []NettedLeg {
	ordered := sortCandidates(cs)
	var legs []NettedLeg
	remaining := budget
	for _, c := range ordered {
		if remaining <= 0 {
			break
		}
		take := c.Amount.Min(remaining)
		if take <= 0 {
			continue
		}
		legs = append(legs, NettedLeg{TxID: c.TxID, Amount: take})
		remaining -= take
	}
	return legs
}

// BilateralResult is the outcome of netting one unordered agent pair.
type BilateralResult struct {
	AgentA, AgentB string
	AmountA        money.Cents // total eligible A→B this tick
	AmountB        money.Cents // total eligible B→A this tick
	Netted         money.Cents // m = min(AmountA, AmountB)
	LegsA          []NettedLeg // A→B transactions consumed, in settlement order
	LegsB          []NettedLeg // B→A transactions consumed, in settlement order
}

// BilateralOffsets scans all release-eligible candidates and nets every
// unordered pair (A, B) with flow in both directions (spec §4.3
// "Bilateral offset"). Pairs are processed in lexicographic order of
// (agentA, agentB) so results are deterministic and independent of the
// candidates' input order.
func BilateralOffsets(candidates []Candidate) []BilateralResult {
	byDirection := make(map[[2]string][]Candidate) // [sender, receiver] -> candidates
	for _, c := range candidates {
		key := [2]string{c.Sender, c.Receiver}
		byDirection[key] = append(byDirection[key], c)
	}

	seen := make(map[[2]string]bool)
	var pairs [][2]string
	for k := range byDirection {
		a, b := k[0], k[1]
		if a == b {
			continue
		}
		lo, hi := a, b
		if hi < lo {
			lo, hi = hi, lo
		}
		pk := [2]string{lo, hi}
		if seen[pk] {
			continue
		}
		seen[pk] = true
		pairs = append(pairs, pk)
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i][0] != pairs[j][0] {
			return pairs[i][0] < pairs[j][0]
		}
		return pairs[i][1] < pairs[j][1]
	})

	var results []BilateralResult
	for _, pk := range pairs {
		a, b := pk[0], pk[1]
		aToB := byDirection[[2]string{a, b}]
		bToA := byDirection[[2]string{b, a}]
		if len(aToB) == 0 || len(bToA) == 0 {
			continue
		}
		var x, y money.Cents
		for _, c := range aToB {
			x += c.Amount
		}
		for _, c := range bToA {
			y += c.Amount
		}
		m := x.Min(y)
		if m <= 0 {
			continue
		}
		results = append(results, BilateralResult{
			AgentA:  a,
			AgentB:  b,
			AmountA: x,
			AmountB: y,
			Netted:  m,
			LegsA:   netInOrder(aToB, m),
			LegsB:   netInOrder(bToA, m),
		})
	}
	return results
}

// Package metrics implements the cost & metrics aggregator (spec §4.5):
// per-agent and system-wide integer-cent cost rollups, plus the
// settlement-rate calculation. Grounded on spec §4.5's cost formulas; no
// teacher analogue existed, so the accumulator shape follows the pack's
// general "plain struct + accrual methods" convention rather than any
// one file.
package metrics

import "simcash/sim/money"

// CostRates are the scenario's configured bps/per-cent cost parameters
// (spec §6 cost_rates). All rates are integers; conversions to cents use
// money.Bps exclusively (spec §9 "single integer-cent money type").
type CostRates struct {
	DelayCostPerTickBps      int64
	OverdraftCostPerTickBps  int64
	CollateralCostPerTickBps int64
	DeadlinePenaltyBps       int64
	EODPenaltyBps            int64
	SplitFrictionCents       money.Cents
}

// AgentCosts accumulates one agent's cost breakdown across the run.
type AgentCosts struct {
	DelayCost       money.Cents
	OverdraftCost   money.Cents
	DeadlinePenalty money.Cents
	EODPenalty      money.Cents
	CollateralCost  money.Cents
	SplitFriction   money.Cents
}

// Total sums every cost component for this agent.
func (c AgentCosts) Total() money.Cents {
	return c.DelayCost + c.OverdraftCost + c.DeadlinePenalty + c.EODPenalty + c.CollateralCost + c.SplitFriction
}

// SettlementCounts tracks the inputs to the settlement-rate formula
// (spec §4.5): only parent-less ("original") arrivals are counted, and
// an original counts as effectively settled per the recursive
// definition in spec §3 — never by checking a parent's own Status once
// it has children.
type SettlementCounts struct {
	OriginalArrivals      int64
	EffectivelySettled    int64
}

// SettlementRate is effectively_settled_originals / original_arrivals,
// or 0 if there have been no arrivals yet. A result > 1.0 indicates a
// counting bug (spec §4.5: "This is the only correct counting rule;
// rates >100% indicate a bug").
func (c SettlementCounts) SettlementRate() float64 {
	if c.OriginalArrivals == 0 {
		return 0
	}
	return float64(c.EffectivelySettled) / float64(c.OriginalArrivals)
}

// Aggregator owns the running per-agent cost breakdown and the
// system-wide settlement counters for one simulation run. The tick engine
// (sim/engine) is the sole caller that mutates it, at several steps
// within each tick (spec §5 "only the tick engine mutates [metrics]").
type Aggregator struct {
	Rates  CostRates
	Agents map[string]*AgentCosts
	Counts SettlementCounts
}

// NewAggregator constructs an Aggregator for the given cost rates.
func NewAggregator(rates CostRates) *Aggregator {
	return &Aggregator{Rates: rates, Agents: make(map[string]*AgentCosts)}
}

func (a *Aggregator) agent(agentID string) *AgentCosts {
	ac, ok := a.Agents[agentID]
	if !ok {
		ac = &AgentCosts{}
		a.Agents[agentID] = ac
	}
	return ac
}

// AccrueDelay accrues one tick's delay cost for a pending transaction
// (spec §4.5: delay_cost_per_tick_bps * remaining_amount / 10_000).
func (a *Aggregator) AccrueDelay(agentID string, remaining money.Cents) {
	a.agent(agentID).DelayCost += money.Bps(a.Rates.DelayCostPerTickBps, remaining)
}

// AccrueOverdraft accrues one tick's overdraft cost for an agent whose
// balance is negative (spec §4.5: attributed to agent, not tx).
func (a *Aggregator) AccrueOverdraft(agentID string, balance money.Cents) money.Cents {
	overdraft := money.Positive(-balance)
	cost := money.Bps(a.Rates.OverdraftCostPerTickBps, overdraft)
	a.agent(agentID).OverdraftCost += cost
	return cost
}

// AccrueDeadlinePenalty assesses the one-time deadline penalty when a tx
// first becomes overdue (spec §4.5; callers must guard against
// re-assessing via Transaction.DeadlinePenaltyAssessed).
func (a *Aggregator) AccrueDeadlinePenalty(agentID string, remaining money.Cents) money.Cents {
	penalty := money.Bps(a.Rates.DeadlinePenaltyBps, remaining)
	a.agent(agentID).DeadlinePenalty += penalty
	return penalty
}

// AccrueEODPenalty assesses the end-of-day penalty for a tx still
// unsettled at day boundary (spec §4.5).
func (a *Aggregator) AccrueEODPenalty(agentID string, remaining money.Cents) money.Cents {
	penalty := money.Bps(a.Rates.EODPenaltyBps, remaining)
	a.agent(agentID).EODPenalty += penalty
	return penalty
}

// AccrueCollateralCost accrues one tick's collateral carrying cost
// (spec §4.5).
func (a *Aggregator) AccrueCollateralCost(agentID string, posted money.Cents) {
	a.agent(agentID).CollateralCost += money.Bps(a.Rates.CollateralCostPerTickBps, posted)
}

// AccrueSplitFriction charges the fixed per-split cost, if configured
// (spec §4.5, optional).
func (a *Aggregator) AccrueSplitFriction(agentID string) {
	a.agent(agentID).SplitFriction += a.Rates.SplitFrictionCents
}

// RecordOriginalArrival counts a new parent-less transaction toward the
// settlement-rate denominator (spec §4.5: "original_arrivals counts only
// transactions with parent_id = None").
func (a *Aggregator) RecordOriginalArrival() {
	a.Counts.OriginalArrivals++
}

// RecordEffectivelySettled counts one original transaction that has
// become effectively settled (spec §3's recursive definition), toward
// the settlement-rate numerator. Callers must call this exactly once per
// original — typically when the recursive check first returns true.
func (a *Aggregator) RecordEffectivelySettled() {
	a.Counts.EffectivelySettled++
}

// SystemTotal sums every agent's Total() cost into one system-wide figure.
func (a *Aggregator) SystemTotal() money.Cents {
	var total money.Cents
	for _, ac := range a.Agents {
		total += ac.Total()
	}
	return total
}

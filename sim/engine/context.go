package engine

import (
	"simcash/sim/agent"
	"simcash/sim/money"
	"simcash/sim/policy"
	"simcash/sim/txn"
)

// queue1Value sums the RemainingAmount of every tx_id currently queued
// for an agent.
func (e *Engine) queue1Value(a *agent.Agent) int64 {
	var total int64
	for _, txID := range a.Queue1 {
		if tx, ok := e.state.Txns[txID]; ok {
			total += int64(tx.RemainingAmount)
		}
	}
	return total
}

func (e *Engine) agentFields(a *agent.Agent) policy.AgentFields {
	tick := e.state.CurrentTick
	ticksPerDay := e.state.TicksPerDay
	var tickInDay, ticksToEOD uint64
	if ticksPerDay > 0 {
		tickInDay = tick % ticksPerDay
		ticksToEOD = ticksPerDay - tickInDay
	}
	qv := e.queue1Value(a)
	return policy.AgentFields{
		Balance:                     int64(a.Balance),
		EffectiveLiquidity:          int64(a.EffectiveLiquidity()),
		CreditLimit:                 int64(a.Config.UnsecuredCap),
		PostedCollateral:            int64(a.PostedCollateral),
		MaxCollateralCapacity:       int64(a.Config.MaxCollateralCapacity),
		RemainingCollateralCapacity: int64(a.RemainingCollateralCapacity()),
		UnsecuredCap:                int64(a.Config.UnsecuredCap),
		Queue1Size:                  int64(len(a.Queue1)),
		Queue1Value:                 qv,
		Queue1TotalValue:            qv,
		Queue2Size:                  0, // no secondary holding queue is modeled (see DESIGN.md)
		Queue2Value:                 0,
		OutgoingQueueSize:           int64(len(a.Queue1)),
		CurrentTick:                 int64(tick),
		TicksPerDay:                 int64(ticksPerDay),
		TicksToEOD:                  int64(ticksToEOD),
		SystemTickInDay:             int64(tickInDay),
		TicksRemainingInDay:         int64(ticksToEOD),
	}
}

func (e *Engine) txFields(tx *txn.Transaction) policy.TxFields {
	tick := e.state.CurrentTick
	rates := e.scenario.CostRates

	var ticksToDeadline, ticksOverdue int64
	if tx.DeadlineTick >= tick {
		ticksToDeadline = int64(tx.DeadlineTick - tick)
	} else {
		ticksOverdue = int64(tick - tx.DeadlineTick)
	}
	isOverdue := int64(0)
	if tx.IsOverdue(tick) {
		isOverdue = 1
	}
	isDivisible := int64(0)
	if tx.IsDivisible {
		isDivisible = 1
	}

	return policy.TxFields{
		Amount:                         int64(tx.OriginalAmount),
		RemainingAmount:                int64(tx.RemainingAmount),
		Priority:                       int64(tx.Priority),
		TicksToDeadline:                ticksToDeadline,
		IsOverdue:                      isOverdue,
		TicksOverdue:                   ticksOverdue,
		IsDivisible:                    isDivisible,
		ArrivalTick:                    int64(tx.ArrivalTick),
		DeadlineTick:                   int64(tx.DeadlineTick),
		CostDelayThisTxOneTick:         int64(money.Bps(rates.DelayCostPerTickBps, tx.RemainingAmount)),
		CostOverdraftThisAmountOneTick: int64(money.Bps(rates.OverdraftCostPerTickBps, tx.RemainingAmount)),
		CostDeadlinePenalty:            int64(money.Bps(rates.DeadlinePenaltyBps, tx.RemainingAmount)),
	}
}

func (e *Engine) bankStateInts(a *agent.Agent) map[string]int64 {
	out := make(map[string]int64, len(a.BankState))
	for k := range a.BankState {
		out[k] = a.BankStateInt(k)
	}
	return out
}

func (e *Engine) paramsFor(agentID string) map[string]policy.Scalar {
	return e.policies[agentID].Parameters
}

// buildContext constructs the typed Context for evaluating kind's tree
// against agent a, optionally with an active transaction (payment_tree
// only, spec §4.2).
func (e *Engine) buildContext(kind policy.TreeKind, a *agent.Agent, tx *txn.Transaction) *policy.Context {
	ctx := &policy.Context{
		Kind:       kind,
		Agent:      e.agentFields(a),
		BankState:  e.bankStateInts(a),
		Parameters: e.paramsFor(a.Config.ID),
	}
	if tx != nil {
		ctx.HasTx = true
		ctx.Tx = e.txFields(tx)
	}
	return ctx
}

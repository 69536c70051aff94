// LSM result application and conventional settlement (spec §4.1 step 5).
package engine

import (
	"sort"

	"simcash/sim/events"
	"simcash/sim/lsm"
	"simcash/sim/money"
	"simcash/sim/txn"
)

// lsmAfford implements the cycle settlement precondition (spec §4.3:
// "balance - net_outflow >= -(unsecured_cap + posted_collateral)").
func (e *Engine) lsmAfford(agentID string, netOutflow money.Cents) bool {
	a, ok := e.state.Agents[agentID]
	if !ok {
		return false
	}
	return a.Balance-netOutflow >= a.MinBalance()
}

// stepLSM runs bilateral offset netting followed by multilateral cycle
// netting over this tick's release-eligible candidates, applies both
// outcomes (no balance change, spec §4.1 step 5a), and returns the
// released-but-unnetted remainder for conventional settlement. When
// lsm_config.enabled is false, netting is skipped entirely and every
// candidate passes through to conventional settlement unmodified.
func (e *Engine) stepLSM(t, day uint64, candidates []lsm.Candidate) []lsm.Candidate {
	if !e.scenario.LSM.Enabled {
		return candidates
	}

	bilateral := lsm.BilateralOffsets(candidates)
	consumed := make(map[string]money.Cents)
	for _, r := range bilateral {
		for _, leg := range r.LegsA {
			consumed[leg.TxID] += leg.Amount
		}
		for _, leg := range r.LegsB {
			consumed[leg.TxID] += leg.Amount
		}
	}
	afterBilateral := subtractConsumed(candidates, consumed)

	cycles := lsm.MultilateralCycles(afterBilateral, e.lsmMaxCycleLen, e.lsmAfford)
	for _, c := range cycles {
		for i, txID := range c.TxIDs {
			consumed[txID] += c.TxAmounts[i]
		}
	}

	e.applyLSMResults(t, day, bilateral, cycles)

	return subtractConsumed(candidates, consumed)
}

func subtractConsumed(candidates []lsm.Candidate, consumed map[string]money.Cents) []lsm.Candidate {
	var out []lsm.Candidate
	for _, c := range candidates {
		left := c.Amount - consumed[c.TxID]
		if left <= 0 {
			continue
		}
		c.Amount = left
		out = append(out, c)
	}
	return out
}

func (e *Engine) applyLSMResults(t, day uint64, bilateral []lsm.BilateralResult, cycles []lsm.CycleResult) {
	for _, r := range bilateral {
		for _, leg := range r.LegsA {
			e.settleNetted(t, leg.TxID, leg.Amount)
		}
		for _, leg := range r.LegsB {
			e.settleNetted(t, leg.TxID, leg.Amount)
		}
		e.state.EventLog.Append(t, day, events.KindLsmBilateralOffset, "", "", events.LsmBilateralOffsetDetails{
			AgentA: r.AgentA, AgentB: r.AgentB,
			AmountA: int64(r.AmountA), AmountB: int64(r.AmountB), Netted: int64(r.Netted),
		})
	}
	for _, c := range cycles {
		txAmounts := make([]int64, len(c.TxAmounts))
		for i, amt := range c.TxAmounts {
			txAmounts[i] = int64(amt)
			e.settleNetted(t, c.TxIDs[i], amt)
		}
		netPositions := make(map[string]int64, len(c.NetPositions))
		for k, v := range c.NetPositions {
			netPositions[k] = int64(v)
		}
		e.state.EventLog.Append(t, day, events.KindLsmCycleSettlement, "", "", events.LsmCycleSettlementDetails{
			Agents: c.Agents, TxIDs: c.TxIDs, TxAmounts: txAmounts, NetPositions: netPositions,
			MaxNetOutflow: int64(c.MaxNetOutflow), MaxNetOutflowAgent: c.MaxNetOutflowAgent, TotalValue: int64(c.TotalValue),
		})
	}
}

// settleNetted applies a netted settlement leg: no balance change (the
// offsetting flows cancel by construction), but the underlying
// transaction's remaining_amount still shrinks and the sender's queue
// entry clears once it fully settles.
func (e *Engine) settleNetted(t uint64, txID string, amount money.Cents) {
	tx, ok := e.state.Txns[txID]
	if !ok {
		return
	}
	tx.ApplySettlement(amount, t)
	e.checkInvariant(tx.SettledAmount+tx.RemainingAmount == tx.OriginalAmount,
		"settled_amount+remaining_amount diverged from original_amount after netted settlement")
	if tx.RemainingAmount == 0 {
		if sender, ok := e.state.Agents[tx.SenderID]; ok {
			sender.RemoveFromQueue(tx.TxID)
		}
		e.archiveTerminal(tx)
	}
	e.syncParentState(tx)
}

// syncParentState keeps a split parent's own settled_amount/status in
// step with its children's progress (spec §3: "settled_amount +
// remaining_amount = original_amount at all times" applies to a split
// parent too, even though it never settles directly). Walks the full
// ParentID chain, so a grandchild's settlement is reflected all the way
// up to the root of a multi-level split tree. Called after every
// settlement.
func (e *Engine) syncParentState(child *txn.Transaction) {
	cur := child
	for cur.ParentID != "" {
		parent := e.lookupTxn(cur.ParentID)
		if parent == nil {
			return
		}
		var settled money.Cents
		for _, childID := range parent.ChildIDs {
			c := e.lookupTxn(childID)
			if c == nil {
				continue
			}
			settled += c.SettledAmount
		}
		parent.SettledAmount = settled
		parent.RemainingAmount = parent.OriginalAmount - settled
		switch {
		case parent.RemainingAmount == 0:
			parent.Status = txn.Settled
		case settled > 0:
			parent.Status = txn.PartiallySettled
		}
		e.checkInvariant(parent.SettledAmount+parent.RemainingAmount == parent.OriginalAmount,
			"settled_amount+remaining_amount diverged from original_amount after parent sync")
		cur = parent
	}
}

func sortSettlementOrder(cs []lsm.Candidate) []lsm.Candidate {
	out := make([]lsm.Candidate, len(cs))
	copy(out, cs)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Priority != b.Priority {
			return a.Priority > b.Priority
		}
		if a.ArrivalTick != b.ArrivalTick {
			return a.ArrivalTick < b.ArrivalTick
		}
		return a.TxID < b.TxID
	})
	return out
}

// applyRemainingSettlements settles released-but-unnetted payments in
// deterministic order, rejecting any that would breach the settlement
// precondition (spec §4.1 step 5b).
func (e *Engine) applyRemainingSettlements(t, day uint64, remaining []lsm.Candidate) {
	for _, c := range sortSettlementOrder(remaining) {
		tx, ok := e.state.Txns[c.TxID]
		if !ok || tx.RemainingAmount <= 0 {
			continue
		}
		sender, ok := e.state.Agents[tx.SenderID]
		if !ok {
			continue
		}
		amount := tx.RemainingAmount

		if !sender.CanSettle(amount) {
			e.state.EventLog.Append(t, day, events.KindSettlementRejected, tx.SenderID, tx.TxID, events.SettlementRejectedDetails{
				SenderID: tx.SenderID, ReceiverID: tx.ReceiverID, Amount: int64(amount),
				Reason: "settlement precondition not met",
			})
			continue
		}

		sender.Balance -= amount
		e.checkInvariant(sender.Balance >= sender.MinBalance(), "agent balance fell below minimum after settlement")

		deferred := e.scenario.DeferredCrediting
		if deferred {
			e.state.DeferredCredits[tx.ReceiverID] += amount
		} else if receiver, ok := e.state.Agents[tx.ReceiverID]; ok {
			receiver.Balance += amount
		}

		tx.ApplySettlement(amount, t)
		e.checkInvariant(tx.SettledAmount+tx.RemainingAmount == tx.OriginalAmount,
			"settled_amount+remaining_amount diverged from original_amount after settlement")
		sender.RemoveFromQueue(tx.TxID)
		if tx.RemainingAmount == 0 {
			e.archiveTerminal(tx)
		}
		e.syncParentState(tx)

		e.state.EventLog.Append(t, day, events.KindSettlement, tx.SenderID, tx.TxID, events.SettlementDetails{
			SenderID: tx.SenderID, ReceiverID: tx.ReceiverID, Amount: int64(amount), Deferred: deferred,
		})
	}
}

// flushDeferredCredits applies buffered receiver credits at tick end
// (spec §4.1 step 7).
func (e *Engine) flushDeferredCredits(t, day uint64) {
	if !e.scenario.DeferredCrediting {
		return
	}
	for id, amt := range e.state.DeferredCredits {
		if a, ok := e.state.Agents[id]; ok {
			a.Balance += amt
		}
	}
	e.state.DeferredCredits = make(map[string]money.Cents)
}

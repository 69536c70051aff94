// Tick orchestration (spec §4.1): the single entry point driving one
// tick through arrivals, collateral, payment evaluation, LSM, settlement,
// metrics, and event emission, in fixed order.
package engine

import (
	"sort"

	"simcash/sim/events"
	"simcash/sim/lsm"
	"simcash/sim/money"
	"simcash/sim/policy"
	"simcash/sim/txn"
)

// Tick advances the simulation by exactly one tick, mutating SystemState
// in place and appending this tick's events to the log (spec §4.1).
func (e *Engine) Tick() {
	t := e.state.CurrentTick
	var day uint64
	if e.state.TicksPerDay > 0 {
		day = t / e.state.TicksPerDay
	}

	e.stepArrivals(t, day)

	if e.state.TicksPerDay > 0 && t%e.state.TicksPerDay == 0 {
		e.stepStrategicCollateral(t, day)
	}

	e.stepBankTree(t, day)

	released := e.stepPaymentEvaluation(t, day)

	remaining := e.stepLSM(t, day, released)

	e.applyRemainingSettlements(t, day, remaining)

	e.stepEndOfTickCollateral(t, day)

	e.flushDeferredCredits(t, day)

	e.stepMetricsAndOverdueSweep(t, day)

	tickEvents := e.state.EventLog.SinceTick(t)
	e.state.EventLog.Append(t, day, events.KindTickBoundary, "", "", events.TickBoundaryDetails{
		TickDurationEvents: len(tickEvents),
	})

	e.state.CurrentTick++
}

// stepArrivals admits scenario-scheduled and stochastically-generated
// transactions whose arrival_tick == t (spec §4.1 step 1). The
// Generator already folds scenario_events into its scheduled output, so
// this is the single admission path.
func (e *Engine) stepArrivals(t, day uint64) {
	for _, arr := range e.gen.AtTick(t) {
		e.admitArrival(t, day, arr.Sender, arr.Receiver, arr.Amount, arr.Priority, arr.ArrivalTick, arr.DeadlineTick)
	}
}

// admitArrival constructs and enqueues one new root transaction.
// is_divisible has no scenario-document field (spec §6 defines no such
// column for arrivals or scenario_events); every admitted transaction
// defaults to divisible, matching typical interbank payment messages.
func (e *Engine) admitArrival(t, day uint64, sender, receiver string, amount money.Cents, priority int, arrivalTick, deadlineTick uint64) {
	txID := e.nextTxID()
	tx := txn.New(txID, sender, receiver, amount, arrivalTick, deadlineTick, priority, true)
	e.state.Txns[txID] = tx
	e.state.Metrics.RecordOriginalArrival()

	if a, ok := e.state.Agents[sender]; ok {
		a.EnqueueSorted(txID, e.arrivalOf, e.priorityOf)
	}
	e.state.EventLog.Append(t, day, events.KindArrival, sender, txID, events.ArrivalDetails{
		SenderID: sender, ReceiverID: receiver, Amount: int64(amount), Priority: priority, DeadlineTick: deadlineTick,
	})
}

func (e *Engine) arrivalOf(txID string) uint64 {
	if tx, ok := e.state.Txns[txID]; ok {
		return tx.ArrivalTick
	}
	return 0
}

func (e *Engine) priorityOf(txID string) int {
	if tx, ok := e.state.Txns[txID]; ok {
		return tx.Priority
	}
	return 0
}

// stepStrategicCollateral evaluates every agent's strategic_collateral_tree
// once at day start (spec §4.1 step 2).
func (e *Engine) stepStrategicCollateral(t, day uint64) {
	for _, id := range e.state.AgentOrder {
		a := e.state.Agents[id]
		e.applyCollateralTree(t, day, a, e.policies[id].StrategicCollateralTree, policy.StrategicCollateralTree, "strategic_collateral_tree")
	}
}

// stepBankTree evaluates every agent's bank_tree, once per tick, before
// payment evaluation (spec §4.2).
func (e *Engine) stepBankTree(t, day uint64) {
	for _, id := range e.state.AgentOrder {
		e.applyBankTree(t, day, e.state.Agents[id])
	}
}

// stepPaymentEvaluation evaluates every agent's payment_tree against
// each of its pending transactions, in lexicographic agent order (spec
// §4.1 step 3), collecting this tick's Release candidates.
func (e *Engine) stepPaymentEvaluation(t, day uint64) []lsm.Candidate {
	var all []lsm.Candidate
	for _, id := range e.state.AgentOrder {
		all = append(all, e.evaluatePaymentQueue(t, day, e.state.Agents[id])...)
	}
	return all
}

// stepEndOfTickCollateral evaluates every agent's
// end_of_tick_collateral_tree, every tick (spec §4.1 step 6).
func (e *Engine) stepEndOfTickCollateral(t, day uint64) {
	for _, id := range e.state.AgentOrder {
		a := e.state.Agents[id]
		e.applyCollateralTree(t, day, a, e.policies[id].EndOfTickCollateralTree, policy.EndOfTickCollateralTree, "end_of_tick_collateral_tree")
	}
}

// stepMetricsAndOverdueSweep marks newly-overdue transactions, assesses
// deadline/EOD penalties, accrues per-tick delay/overdraft/collateral
// cost, and records newly-effectively-settled originals (spec §4.1 step
// 8, §4.5).
func (e *Engine) stepMetricsAndOverdueSweep(t, day uint64) {
	for _, id := range sortedTxnIDs(e.state.Txns) {
		tx := e.state.Txns[id]
		if tx.Status == txn.Settled || tx.Status == txn.Dropped || tx.RemainingAmount <= 0 {
			continue
		}

		if tx.DeadlineTick == t && tx.IsOverdue(t) {
			tx.MarkOverdue()
			e.state.EventLog.Append(t, day, events.KindDeadlineMiss, tx.SenderID, tx.TxID, events.DeadlineMissDetails{
				RemainingAmount: int64(tx.RemainingAmount),
			})
			if !tx.DeadlinePenaltyAssessed {
				penalty := e.state.Metrics.AccrueDeadlinePenalty(tx.SenderID, tx.RemainingAmount)
				tx.DeadlinePenaltyAssessed = true
				_ = penalty
			}
			if e.scenario.DeadlineCapAtEOD {
				tx.MarkDropped()
				if a, ok := e.state.Agents[tx.SenderID]; ok {
					a.RemoveFromQueue(tx.TxID)
				}
				e.archiveTerminal(tx)
				e.state.EventLog.Append(t, day, events.KindDrop, tx.SenderID, tx.TxID, events.DropDetails{
					Reason: "deadline_cap_at_eod",
				})
				continue
			}
		}

		if t > tx.ArrivalTick {
			e.state.Metrics.AccrueDelay(tx.SenderID, tx.RemainingAmount)
		}
	}

	for _, id := range e.state.AgentOrder {
		a := e.state.Agents[id]
		cost := e.state.Metrics.AccrueOverdraft(id, a.Balance)
		if cost > 0 {
			e.state.EventLog.Append(t, day, events.KindOverdraft, id, "", events.OverdraftDetails{
				OverdraftAmount: int64(money.Positive(-a.Balance)), Cost: int64(cost),
			})
		}
		e.state.Metrics.AccrueCollateralCost(id, a.PostedCollateral)
	}

	if e.state.TicksPerDay > 0 && (t+1)%e.state.TicksPerDay == 0 {
		e.accrueEODPenalties()
	}

	e.sweepEffectivelySettled()
}

func sortedTxnIDs(txns map[string]*txn.Transaction) []string {
	ids := make([]string, 0, len(txns))
	for id := range txns {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// accrueEODPenalties assesses the end-of-day penalty on every
// still-pending leaf transaction at the last tick of a day (spec §4.5).
func (e *Engine) accrueEODPenalties() {
	for _, id := range sortedTxnIDs(e.state.Txns) {
		tx := e.state.Txns[id]
		if tx.Status == txn.Settled || tx.Status == txn.Dropped || tx.HasChildren() || tx.RemainingAmount <= 0 {
			continue
		}
		e.state.Metrics.AccrueEODPenalty(tx.SenderID, tx.RemainingAmount)
	}
}

// isEffectivelySettled implements spec §3's recursive definition: a leaf
// transaction is effectively settled iff Settled; a split parent is
// effectively settled iff every child is (recursively).
func (e *Engine) isEffectivelySettled(tx *txn.Transaction) bool {
	if !tx.HasChildren() {
		return tx.Status == txn.Settled
	}
	for _, childID := range tx.ChildIDs {
		child := e.lookupTxn(childID)
		if child == nil || !e.isEffectivelySettled(child) {
			return false
		}
	}
	return true
}

// lookupTxn resolves a transaction from the live map first, falling back
// to the archive store for evicted terminal-state children.
func (e *Engine) lookupTxn(txID string) *txn.Transaction {
	if tx, ok := e.state.Txns[txID]; ok {
		return tx
	}
	if e.state.Archive == nil {
		return nil
	}
	rec, ok := e.state.Archive.Get(txID)
	if !ok {
		return nil
	}
	return &txn.Transaction{
		TxID: rec.TxID, OriginalAmount: rec.OriginalAmount, SettledAmount: rec.SettledAmount,
		RemainingAmount: rec.RemainingAmount, Status: rec.Status, ParentID: rec.ParentID, ChildIDs: rec.ChildIDs,
	}
}

// sweepEffectivelySettled records each root transaction that has become
// effectively settled exactly once, toward the settlement-rate
// numerator (spec §4.5).
func (e *Engine) sweepEffectivelySettled() {
	for id, tx := range e.state.Txns {
		if tx.ParentID != "" || e.settledRecorded[id] {
			continue
		}
		if e.isEffectivelySettled(tx) {
			e.state.Metrics.RecordEffectivelySettled()
			e.settledRecorded[id] = true
		}
	}
	e.checkInvariant(e.state.Metrics.Counts.EffectivelySettled <= e.state.Metrics.Counts.OriginalArrivals,
		"effectively_settled exceeds original_arrivals: settlement-rate counting bug")
}

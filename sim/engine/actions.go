// Policy action application: translating a policy.Action returned by
// EvalTree into mutations on SystemState (spec §4.1 steps 2, 3, 6).
package engine

import (
	"simcash/sim/agent"
	"simcash/sim/archive"
	"simcash/sim/events"
	"simcash/sim/lsm"
	"simcash/sim/money"
	"simcash/sim/policy"
	"simcash/sim/txn"
)

// releaseBudgetKey is the bank_state scratch key a bank_tree's
// SetReleaseBudget populates, consumed by acceptReleaseBudget (see SPEC_FULL's
// D.5 supplemented behavior: spec.md §4.2 defines SetReleaseBudget but
// leaves the consuming side implicit).
const releaseBudgetKey = "__release_budget_remaining"

func bankValueFromScalar(v policy.BankScratchValue) agent.BankValue {
	if v.IsString {
		return agent.StrValue(v.Str)
	}
	return agent.IntValue(v.Int)
}

// applyBankTree evaluates a's bank_tree once per tick, before payment
// evaluation (spec §4.2).
func (e *Engine) applyBankTree(t, day uint64, a *agent.Agent) {
	tree := e.policies[a.Config.ID].BankTree
	if tree == nil {
		return
	}
	act, err := policy.EvalTree(tree, e.buildContext(policy.BankTree, a, nil))
	if err != nil {
		e.state.EventLog.Append(t, day, events.KindPolicyEvaluationWarning, a.Config.ID, "", events.PolicyEvaluationWarningDetails{
			TreeKind: "bank_tree", Cause: err.Error(),
		})
	}
	switch act.Kind {
	case policy.ActionSetReleaseBudget:
		a.BankState[releaseBudgetKey] = agent.IntValue(act.Budget)
	case policy.ActionSetState:
		a.BankState[act.StateKey] = bankValueFromScalar(act.StateValue)
	case policy.ActionAddState:
		a.BankState[act.StateKey] = agent.IntValue(a.BankStateInt(act.StateKey) + act.StateDelta)
	case policy.ActionNoAction:
	}
}

// applyCollateralTree evaluates a strategic_collateral_tree or
// end_of_tick_collateral_tree and applies its Post/Withdraw/Hold action
// (spec §4.1 steps 2 and 6).
func (e *Engine) applyCollateralTree(t, day uint64, a *agent.Agent, tree *policy.Tree, kind policy.TreeKind, label string) {
	if tree == nil {
		return
	}
	act, err := policy.EvalTree(tree, e.buildContext(kind, a, nil))
	if err != nil {
		e.state.EventLog.Append(t, day, events.KindPolicyEvaluationWarning, a.Config.ID, "", events.PolicyEvaluationWarningDetails{
			TreeKind: label, Cause: err.Error(),
		})
	}
	old := a.PostedCollateral
	switch act.Kind {
	case policy.ActionPostCollateral:
		a.SetCollateral(old + money.Cents(act.CollateralAmount))
	case policy.ActionWithdrawCollateral:
		a.SetCollateral(old - money.Cents(act.CollateralAmount))
	case policy.ActionHoldCollateral:
		return
	default:
		return
	}
	if a.PostedCollateral != old {
		e.state.EventLog.Append(t, day, events.KindCollateralChange, a.Config.ID, "", events.CollateralChangeDetails{
			OldAmount: int64(old), NewAmount: int64(a.PostedCollateral), Reason: act.Reason,
		})
	}
}

// evaluatePaymentQueue walks a's Queue1 snapshot, evaluates payment_tree
// against each pending tx, and applies the returned Action (spec §4.1
// step 3). Returns the Release-eligible candidates collected this tick.
func (e *Engine) evaluatePaymentQueue(t, day uint64, a *agent.Agent) []lsm.Candidate {
	tree := e.policies[a.Config.ID].PaymentTree
	queueSnapshot := append([]string{}, a.Queue1...)

	var candidates []lsm.Candidate
	for _, txID := range queueSnapshot {
		tx, ok := e.state.Txns[txID]
		if !ok {
			continue
		}
		if tx.ReleaseEligibleTick > t {
			continue // staggered child not yet eligible; implicitly held
		}

		var act policy.Action
		if tree == nil {
			// No payment_tree configured: default to immediate release.
			act = policy.Action{Kind: policy.ActionRelease}
		} else {
			var err error
			act, err = policy.EvalTree(tree, e.buildContext(policy.PaymentTree, a, tx))
			if err != nil {
				e.state.EventLog.Append(t, day, events.KindPolicyEvaluationWarning, a.Config.ID, tx.TxID, events.PolicyEvaluationWarningDetails{
					TreeKind: "payment_tree", Cause: err.Error(),
				})
			}
			act = e.handleReprioritize(t, day, a, tx, act, tree)
		}

		e.state.EventLog.Append(t, day, events.KindPolicyDecision, a.Config.ID, tx.TxID, events.PolicyDecisionDetails{
			TreeKind: "payment_tree", Action: act.Kind.String(),
		})

		switch act.Kind {
		case policy.ActionRelease:
			if e.acceptReleaseBudget(t, day, a, tx, "Release") {
				candidates = append(candidates, candidateFor(tx))
			}
		case policy.ActionHold:
		case policy.ActionDrop:
			e.applyDrop(t, day, a, tx)
		case policy.ActionSplit:
			if e.acceptReleaseBudget(t, day, a, tx, "Split") {
				e.applySplit(t, day, a, tx, act.NumSplits, 0)
			}
		case policy.ActionStaggerSplit:
			if e.acceptReleaseBudget(t, day, a, tx, "StaggerSplit") {
				e.applySplit(t, day, a, tx, act.NumSplits, act.IntervalTicks)
			}
		case policy.ActionPaceAndRelease:
			if e.acceptReleaseBudget(t, day, a, tx, "PaceAndRelease") {
				e.applySplit(t, day, a, tx, act.NumSplits, 1)
			}
		}
	}
	return candidates
}

// handleReprioritize mutates priority and re-evaluates the tree once
// more; a second Reprioritize coerces to Hold to avoid loops (spec §4.1
// step 3).
func (e *Engine) handleReprioritize(t, day uint64, a *agent.Agent, tx *txn.Transaction, act policy.Action, tree *policy.Tree) policy.Action {
	if act.Kind != policy.ActionReprioritize {
		return act
	}
	old := tx.Priority
	tx.Priority = act.NewPriority
	e.state.EventLog.Append(t, day, events.KindReprioritize, a.Config.ID, tx.TxID, events.ReprioritizeDetails{
		OldPriority: old, NewPriority: tx.Priority,
	})

	act2, err := policy.EvalTree(tree, e.buildContext(policy.PaymentTree, a, tx))
	if err != nil {
		e.state.EventLog.Append(t, day, events.KindPolicyEvaluationWarning, a.Config.ID, tx.TxID, events.PolicyEvaluationWarningDetails{
			TreeKind: "payment_tree", Cause: err.Error(),
		})
	}
	if act2.Kind == policy.ActionReprioritize {
		e.state.EventLog.Append(t, day, events.KindActionCoercion, a.Config.ID, tx.TxID, events.ActionCoercionDetails{
			TreeKind: "payment_tree", AttemptedKind: "Reprioritize", CoercedTo: "Hold",
			Reason: "repeated Reprioritize coerced to Hold to prevent loops",
		})
		return policy.Action{Kind: policy.ActionHold}
	}
	return act2
}

// acceptReleaseBudget enforces the bank_tree release-budget cap against
// any action that commits tx's full remaining_amount to leave the queue
// this tick — Release directly, or Split/StaggerSplit/PaceAndRelease via
// their children (SPEC_FULL §D.5). The attempted action is coerced to
// Hold once the agent's __release_budget_remaining scratch value would
// go negative.
func (e *Engine) acceptReleaseBudget(t, day uint64, a *agent.Agent, tx *txn.Transaction, attemptedKind string) bool {
	if v, ok := a.BankState[releaseBudgetKey]; ok && !v.IsString {
		if int64(tx.RemainingAmount) > v.Int {
			e.state.EventLog.Append(t, day, events.KindActionCoercion, a.Config.ID, tx.TxID, events.ActionCoercionDetails{
				TreeKind: "payment_tree", AttemptedKind: attemptedKind, CoercedTo: "Hold",
				Reason: "release budget exhausted",
			})
			return false
		}
		a.BankState[releaseBudgetKey] = agent.IntValue(v.Int - int64(tx.RemainingAmount))
	}
	return true
}

func candidateFor(tx *txn.Transaction) lsm.Candidate {
	return lsm.Candidate{
		TxID: tx.TxID, Sender: tx.SenderID, Receiver: tx.ReceiverID,
		Amount: tx.RemainingAmount, Priority: tx.Priority, ArrivalTick: tx.ArrivalTick,
	}
}

// applyDrop terminates tx as Dropped if the precondition (overdue) is
// met; otherwise the Drop is coerced to Hold with a warning event (spec
// §4.1 step 3).
func (e *Engine) applyDrop(t, day uint64, a *agent.Agent, tx *txn.Transaction) {
	if !tx.IsOverdue(t) {
		e.state.EventLog.Append(t, day, events.KindActionCoercion, a.Config.ID, tx.TxID, events.ActionCoercionDetails{
			TreeKind: "payment_tree", AttemptedKind: "Drop", CoercedTo: "Hold",
			Reason: "drop not permitted before overdue",
		})
		return
	}
	tx.MarkDropped()
	a.RemoveFromQueue(tx.TxID)
	e.archiveTerminal(tx)
	e.state.EventLog.Append(t, day, events.KindDrop, a.Config.ID, tx.TxID, events.DropDetails{Reason: "policy decision"})
}

// applySplit partitions tx into numSplits children, splicing them into
// the queue at tx's former position in index order (spec §4.1 step 3).
// intervalTicks of 0 means an ordinary Split (no staggering).
func (e *Engine) applySplit(t, day uint64, a *agent.Agent, tx *txn.Transaction, numSplits int, intervalTicks uint64) {
	if !tx.IsDivisible || numSplits < 2 || int64(tx.RemainingAmount) < int64(numSplits) {
		e.state.EventLog.Append(t, day, events.KindActionCoercion, a.Config.ID, tx.TxID, events.ActionCoercionDetails{
			TreeKind: "payment_tree", AttemptedKind: "Split", CoercedTo: "Hold",
			Reason: "split preconditions not met",
		})
		return
	}

	childIDs := make([]string, numSplits)
	for i := range childIDs {
		childIDs[i] = childTxID(tx.TxID, i)
	}
	children := tx.Split(childIDs, numSplits, t)

	amounts := make([]int64, len(children))
	for i, c := range children {
		if intervalTicks > 0 {
			c.ReleaseEligibleTick = t + uint64(i)*intervalTicks
		}
		e.state.Txns[c.TxID] = c
		amounts[i] = int64(c.OriginalAmount)
	}
	a.ReplaceInQueue(tx.TxID, childIDs)
	e.state.Metrics.AccrueSplitFriction(a.Config.ID)
	e.state.EventLog.Append(t, day, events.KindSplit, a.Config.ID, tx.TxID, events.SplitDetails{ChildIDs: childIDs, Amounts: amounts})
}

// archiveTerminal persists tx's terminal state to the archive store, if
// configured (spec §5's "may periodically archive terminal-state
// transactions").
func (e *Engine) archiveTerminal(tx *txn.Transaction) {
	if e.state.Archive == nil {
		return
	}
	_ = e.state.Archive.Put(archive.Record{
		TxID:            tx.TxID,
		OriginalAmount:  tx.OriginalAmount,
		SettledAmount:   tx.SettledAmount,
		RemainingAmount: tx.RemainingAmount,
		Status:          tx.Status,
		ParentID:        tx.ParentID,
		ChildIDs:        tx.ChildIDs,
	})
}

// Package agent implements per-bank runtime state: balance, collateral,
// outgoing queue, and scratch key/value state (spec §3). Adapted from the
// teacher's chain/node/txpool.go per-sender nonce-ordered queue, generalized
// from a nonce-sorted pending list to a priority/arrival/tx_id-ordered
// outgoing payment queue.
package agent

import (
	"sort"

	"simcash/sim/money"
)

// BankValue is a scratch value: either an integer or a string, matching the
// policy interpreter's bank_state_<key> field contract (spec §4.2).
type BankValue struct {
	IsString bool
	Int      int64
	Str      string
}

// IntValue wraps an int64 scratch value.
func IntValue(v int64) BankValue { return BankValue{Int: v} }

// StrValue wraps a string scratch value.
func StrValue(v string) BankValue { return BankValue{IsString: true, Str: v} }

// Config is an agent's static, scenario-supplied configuration, already
// extracted through config.ExtractAgentRuntime (the canonical extractor,
// spec §9) before an Agent is constructed — Agent itself never derives any
// of these fields by another path.
type Config struct {
	ID                         string
	OpeningBalance             money.Cents
	UnsecuredCap               money.Cents
	MaxCollateralCapacity      money.Cents // 0 means "no collateral capacity configured"
	HasCollateralCapacity      bool
	LiquidityPool              money.Cents
	HasLiquidityPool           bool
	InitialLiquidityFractionOK bool
	InitialLiquidityFraction   float64
}

// Agent is the runtime state of one settlement participant.
type Agent struct {
	Config Config

	Balance          money.Cents
	PostedCollateral money.Cents

	// Queue1 holds tx_ids of pending outgoing payments, in deterministic
	// order: first by arrival_tick, then priority (higher first), then a
	// stable tx_id comparator (spec §4.1 step 1).
	Queue1 []string

	// BankState is the scratch map policy trees read/write via
	// bank_state_<key> and the bank_tree's SetState/AddState actions.
	BankState map[string]BankValue
}

// New constructs an Agent from its extracted configuration.
func New(cfg Config) *Agent {
	return &Agent{
		Config:    cfg,
		Balance:   cfg.OpeningBalance,
		BankState: make(map[string]BankValue),
	}
}

// EffectiveLiquidity is balance + unsecured_cap + posted_collateral.
func (a *Agent) EffectiveLiquidity() money.Cents {
	return a.Balance + a.Config.UnsecuredCap + a.PostedCollateral
}

// RemainingCollateralCapacity is max_collateral_capacity − posted_collateral.
// Zero if no capacity is configured.
func (a *Agent) RemainingCollateralCapacity() money.Cents {
	if !a.Config.HasCollateralCapacity {
		return 0
	}
	return a.Config.MaxCollateralCapacity - a.PostedCollateral
}

// MinBalance is the lowest balance this agent may settle down to:
// -(unsecured_cap + posted_collateral).
func (a *Agent) MinBalance() money.Cents {
	return -(a.Config.UnsecuredCap + a.PostedCollateral)
}

// CanSettle reports whether subtracting amt from Balance keeps it at or
// above MinBalance (spec §4.1 step 5's settlement precondition).
func (a *Agent) CanSettle(amt money.Cents) bool {
	return a.Balance-amt >= a.MinBalance()
}

// SetCollateral clamps target into [0, max_collateral_capacity] and applies
// it, per spec §4.1 step 2's "clamped to [0, max_collateral_capacity]".
func (a *Agent) SetCollateral(target money.Cents) {
	if target < 0 {
		target = 0
	}
	if a.Config.HasCollateralCapacity && target > a.Config.MaxCollateralCapacity {
		target = a.Config.MaxCollateralCapacity
	}
	a.PostedCollateral = target
}

// EnqueueSorted inserts txID into Queue1, maintaining the deterministic
// order: arrival_tick asc, priority desc, tx_id asc. arrivalOf/priorityOf
// are callbacks into the transaction store so Agent itself owns no
// transaction data (SystemState is the sole transaction owner, spec §3).
func (a *Agent) EnqueueSorted(txID string, arrivalOf func(string) uint64, priorityOf func(string) int) {
	a.Queue1 = append(a.Queue1, txID)
	sort.SliceStable(a.Queue1, func(i, j int) bool {
		ti, tj := a.Queue1[i], a.Queue1[j]
		ai, aj := arrivalOf(ti), arrivalOf(tj)
		if ai != aj {
			return ai < aj
		}
		pi, pj := priorityOf(ti), priorityOf(tj)
		if pi != pj {
			return pi > pj
		}
		return ti < tj
	})
}

// RemoveFromQueue removes the first occurrence of txID from Queue1.
func (a *Agent) RemoveFromQueue(txID string) {
	for i, id := range a.Queue1 {
		if id == txID {
			a.Queue1 = append(a.Queue1[:i], a.Queue1[i+1:]...)
			return
		}
	}
}

// ReplaceInQueue splices newIDs into Queue1 at oldID's position, in the
// order given — used for Split/StaggerSplit/PaceAndRelease, where
// spec §4.1 step 3 requires "children enter queue1[a] in index order"
// rather than the arrival/priority/tx_id sort EnqueueSorted applies.
func (a *Agent) ReplaceInQueue(oldID string, newIDs []string) {
	for i, id := range a.Queue1 {
		if id == oldID {
			rest := append([]string{}, a.Queue1[i+1:]...)
			a.Queue1 = append(a.Queue1[:i], append(append([]string{}, newIDs...), rest...)...)
			return
		}
	}
}

// BankStateInt returns the integer scratch value for key, defaulting to 0
// for a missing key (spec §4.2: "missing keys yield 0").
func (a *Agent) BankStateInt(key string) int64 {
	v, ok := a.BankState[key]
	if !ok || v.IsString {
		return 0
	}
	return v.Int
}

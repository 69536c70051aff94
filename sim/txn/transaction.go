// Package txn implements the transaction model: immutable identity plus
// mutable settlement state, with parent/child links for splits (spec §3).
// Adapted from the teacher's chain/types/transaction.go (identity fields
// separated from mutable/computed fields) generalized
// from a signed-and-gassed chain transaction to a settlement instruction.
package txn

import "simcash/sim/money"

// Status is the settlement lifecycle state of a transaction.
type Status uint8

const (
	Pending Status = iota
	PartiallySettled
	Settled
	Dropped
	Overdue
)

func (s Status) String() string {
	switch s {
	case Pending:
		return "Pending"
	case PartiallySettled:
		return "PartiallySettled"
	case Settled:
		return "Settled"
	case Dropped:
		return "Dropped"
	case Overdue:
		return "Overdue"
	default:
		return "Unknown"
	}
}

// Transaction is a single payment instruction plus its mutable settlement
// state. Identity fields are set once at construction; everything below
// the "mutable state" marker is updated as the tick engine processes it.
type Transaction struct {
	// Identity — immutable after construction.
	TxID           string
	SenderID       string
	ReceiverID     string
	OriginalAmount money.Cents
	ArrivalTick    uint64
	DeadlineTick   uint64
	Priority       int
	IsDivisible    bool
	ParentID       string // empty if this is a root transaction

	// Mutable settlement state.
	RemainingAmount   money.Cents
	SettledAmount     money.Cents
	Status            Status
	FirstReleaseTick  uint64
	HasFirstRelease   bool
	SettlementTick    uint64
	HasSettlementTick bool

	// ReleaseEligibleTick gates StaggerSplit/PaceAndRelease children: the
	// tick from which this transaction may be considered for release. Zero
	// means "eligible immediately" for non-staggered transactions, but
	// root transactions are always eligible from ArrivalTick, so this
	// field is only meaningful (and ever non-zero) on staggered children.
	ReleaseEligibleTick uint64

	// ChildIDs are populated when this transaction has been split; a
	// transaction with children never settles directly (spec §3).
	ChildIDs []string

	// DeadlinePenaltyAssessed guards the "assessed exactly once" rule
	// (spec §4.5, boundary behavior in §8).
	DeadlinePenaltyAssessed bool
}

// New constructs a root (non-split) pending transaction.
func New(txID, sender, receiver string, amount money.Cents, arrivalTick, deadlineTick uint64, priority int, isDivisible bool) *Transaction {
	return &Transaction{
		TxID:            txID,
		SenderID:        sender,
		ReceiverID:      receiver,
		OriginalAmount:  amount,
		ArrivalTick:     arrivalTick,
		DeadlineTick:    deadlineTick,
		Priority:        priority,
		IsDivisible:     isDivisible,
		RemainingAmount: amount,
		Status:          Pending,
	}
}

// IsOverdue reports whether tx has passed its deadline and is not fully
// settled.
func (t *Transaction) IsOverdue(currentTick uint64) bool {
	return currentTick >= t.DeadlineTick && t.RemainingAmount > 0
}

// HasChildren reports whether this transaction was split.
func (t *Transaction) HasChildren() bool {
	return len(t.ChildIDs) > 0
}

// ApplySettlement records a (possibly partial) settlement of amt cents
// against this transaction at tick t. The caller is responsible for
// enforcing amt <= RemainingAmount.
func (t *Transaction) ApplySettlement(amt money.Cents, tick uint64) {
	t.SettledAmount += amt
	t.RemainingAmount -= amt
	if !t.HasFirstRelease {
		t.FirstReleaseTick = tick
		t.HasFirstRelease = true
	}
	if t.RemainingAmount == 0 {
		t.Status = Settled
		t.SettlementTick = tick
		t.HasSettlementTick = true
	} else {
		t.Status = PartiallySettled
	}
}

// MarkDropped terminates the transaction without settlement.
func (t *Transaction) MarkDropped() {
	t.Status = Dropped
}

// MarkOverdue transitions a still-pending transaction to Overdue. Callers
// must not call this on a transaction that has already fully settled.
func (t *Transaction) MarkOverdue() {
	if t.RemainingAmount > 0 && t.Status != Dropped {
		t.Status = Overdue
	}
}

// Split partitions RemainingAmount into numSplits children "as equally as
// possible" (spec §4.1 step 3, §8 boundary behavior): the first
// remaining_amount mod num_splits children receive one extra cent. Returns
// the child transactions in index order and records childIDs as the
// parent's ChildIDs; the caller is responsible for inserting the children
// into the store and queue.
func (t *Transaction) Split(childIDs []string, numSplits int, currentTick uint64) []*Transaction {
	base := int64(t.RemainingAmount) / int64(numSplits)
	extra := int64(t.RemainingAmount) % int64(numSplits)

	children := make([]*Transaction, numSplits)
	for i := 0; i < numSplits; i++ {
		amt := money.Cents(base)
		if int64(i) < extra {
			amt++
		}
		child := New(childIDs[i], t.SenderID, t.ReceiverID, amt, currentTick, t.DeadlineTick, t.Priority, t.IsDivisible)
		child.ParentID = t.TxID
		children[i] = child
	}
	t.ChildIDs = childIDs
	return children
}

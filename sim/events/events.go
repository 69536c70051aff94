// Package events implements the append-only, totally-ordered event log
// (spec §4.6): every state-changing step in a tick emits a typed event,
// assigned an emission-order EventID. Grounded on the teacher's
// chain/types/block.go calculateMerkleRoot pattern, generalized from
// transaction hashing to a digest over the tick's emitted events so
// S5/S6's "identical event log hashes" determinism check has a concrete
// implementation.
package events

import (
	"encoding/binary"
	"fmt"

	"simcash/internal/statehash"
)

// EventID is assigned in strict emission order, starting at 0 for a run.
type EventID uint64

// Kind tags the event-type-specific body a record carries.
type Kind uint8

const (
	KindArrival Kind = iota
	KindPolicyDecision
	KindRelease
	KindSplit
	KindDrop
	KindReprioritize
	KindLsmBilateralOffset
	KindLsmCycleSettlement
	KindSettlement
	KindSettlementRejected
	KindCollateralChange
	KindDeadlineMiss
	KindOverdraft
	KindTickBoundary
	KindPolicyEvaluationWarning
	KindActionCoercion
)

func (k Kind) String() string {
	switch k {
	case KindArrival:
		return "Arrival"
	case KindPolicyDecision:
		return "PolicyDecision"
	case KindRelease:
		return "Release"
	case KindSplit:
		return "Split"
	case KindDrop:
		return "Drop"
	case KindReprioritize:
		return "Reprioritize"
	case KindLsmBilateralOffset:
		return "LsmBilateralOffset"
	case KindLsmCycleSettlement:
		return "LsmCycleSettlement"
	case KindSettlement:
		return "Settlement"
	case KindSettlementRejected:
		return "SettlementRejected"
	case KindCollateralChange:
		return "CollateralChange"
	case KindDeadlineMiss:
		return "DeadlineMiss"
	case KindOverdraft:
		return "Overdraft"
	case KindTickBoundary:
		return "TickBoundary"
	case KindPolicyEvaluationWarning:
		return "PolicyEvaluationWarning"
	case KindActionCoercion:
		return "ActionCoercion"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// Event is a header plus a kind-specific Details body. Only the Details
// field matching Kind is meaningful, per the tagged-variant convention
// used throughout (spec §9).
type Event struct {
	ID             EventID
	SimulationID   string
	Tick           uint64
	Day            uint64
	Kind           Kind
	TimestampLogical uint64 // logical clock, not wall-clock (spec §5 forbids real time)

	AgentID string // optional, empty if not applicable
	TxID    string // optional, empty if not applicable

	Details interface{}
}

// Details payloads, one struct per Kind that carries a non-trivial body.

type ArrivalDetails struct {
	SenderID, ReceiverID string
	Amount               int64
	Priority             int
	DeadlineTick         uint64
}

type PolicyDecisionDetails struct {
	TreeKind string
	Action   string
}

type ReleaseDetails struct {
	Amount int64
}

type SplitDetails struct {
	ChildIDs []string
	Amounts  []int64
}

type DropDetails struct {
	Reason string
}

type ReprioritizeDetails struct {
	OldPriority, NewPriority int
}

type LsmBilateralOffsetDetails struct {
	AgentA, AgentB         string
	AmountA, AmountB       int64
	Netted                 int64
}

type LsmCycleSettlementDetails struct {
	Agents             []string
	TxIDs              []string
	TxAmounts          []int64
	NetPositions       map[string]int64
	MaxNetOutflow      int64
	MaxNetOutflowAgent string
	TotalValue         int64
}

type SettlementDetails struct {
	SenderID, ReceiverID string
	Amount               int64
	Deferred             bool
}

type SettlementRejectedDetails struct {
	SenderID, ReceiverID string
	Amount               int64
	Reason               string
}

type CollateralChangeDetails struct {
	OldAmount, NewAmount int64
	Reason               string
}

type DeadlineMissDetails struct {
	RemainingAmount int64
	PenaltyAssessed int64
}

type OverdraftDetails struct {
	OverdraftAmount int64
	Cost            int64
}

type TickBoundaryDetails struct {
	TickDurationEvents int
}

type PolicyEvaluationWarningDetails struct {
	TreeKind string
	NodeInfo string
	Cause    string
}

type ActionCoercionDetails struct {
	TreeKind      string
	AttemptedKind string
	CoercedTo     string
	Reason        string
}

// Log is the append-only, totally-ordered store for one simulation run.
type Log struct {
	simulationID string
	events       []Event
	nextID       EventID
}

// NewLog constructs an empty Log for the given simulation identity, used
// to stamp every event's SimulationID field.
func NewLog(simulationID string) *Log {
	return &Log{simulationID: simulationID}
}

// Append assigns the next EventID in emission order and appends e.
func (l *Log) Append(tick, day uint64, kind Kind, agentID, txID string, details interface{}) Event {
	e := Event{
		ID:               l.nextID,
		SimulationID:     l.simulationID,
		Tick:             tick,
		Day:              day,
		Kind:             kind,
		TimestampLogical: uint64(l.nextID),
		AgentID:          agentID,
		TxID:             txID,
		Details:          details,
	}
	l.events = append(l.events, e)
	l.nextID++
	return e
}

// All returns every event appended so far, in emission order. Callers
// must not mutate the returned slice's backing array.
func (l *Log) All() []Event {
	return l.events
}

// SinceTick returns events with Tick == tick, in emission order.
func (l *Log) SinceTick(tick uint64) []Event {
	var out []Event
	for _, e := range l.events {
		if e.Tick == tick {
			out = append(out, e)
		}
	}
	return out
}

// leafHash produces a deterministic per-event hash input from the
// fields that identify it uniquely within a run: ID, kind, agent/tx
// references, and tick/day — enough to distinguish any two distinct
// emissions without serializing the full Details payload.
func leafHash(e Event) statehash.Hash {
	buf := make([]byte, 0, 64+len(e.AgentID)+len(e.TxID)+len(e.SimulationID))
	var idBuf [8]byte
	binary.BigEndian.PutUint64(idBuf[:], uint64(e.ID))
	buf = append(buf, idBuf[:]...)
	buf = append(buf, byte(e.Kind))
	var tickBuf [8]byte
	binary.BigEndian.PutUint64(tickBuf[:], e.Tick)
	buf = append(buf, tickBuf[:]...)
	var dayBuf [8]byte
	binary.BigEndian.PutUint64(dayBuf[:], e.Day)
	buf = append(buf, dayBuf[:]...)
	buf = append(buf, []byte(e.SimulationID)...)
	buf = append(buf, []byte(e.AgentID)...)
	buf = append(buf, []byte(e.TxID)...)
	return statehash.Sum(buf)
}

// Digest returns the Merkle digest of every event appended so far, in
// emission order — two runs with byte-identical event streams (spec §6
// determinism contract, §8 property 5) produce identical digests.
func (l *Log) Digest() statehash.Hash {
	leaves := make([]statehash.Hash, len(l.events))
	for i, e := range l.events {
		leaves[i] = leafHash(e)
	}
	return statehash.MerkleReduce(leaves)
}

// Package engine implements the tick orchestrator and settlement engine
// (spec §4.1): the single entry point, Tick(), that drives one tick
// through arrivals, strategic collateral, payment-tree evaluation, LSM
// netting, settlement, end-of-tick collateral, deferred credits, metrics
// accrual and event emission, in that fixed order. Grounded on spec §4.1
// step-by-step; structurally modeled on the teacher's
// chain/node/blockchain.go state-owning struct, simplified: spec §5 is
// explicitly single-threaded, so the teacher's sync.RWMutex fields are
// dropped rather than carried — there is no concurrent caller by design.
package engine

import (
	"fmt"
	"sort"

	"github.com/rs/zerolog"

	"simcash/sim/agent"
	"simcash/sim/archive"
	"simcash/sim/arrivals"
	"simcash/sim/config"
	"simcash/sim/events"
	"simcash/sim/metrics"
	"simcash/sim/money"
	"simcash/sim/txn"
)

// SystemState is the single value threaded through every Tick() call
// (spec §9: "SystemState is a single value threaded through tick();
// process-wide statics are forbidden"). It exclusively owns every Agent
// and Transaction record (spec §3).
type SystemState struct {
	CurrentTick uint64
	TicksPerDay uint64
	NumDays     uint64

	Agents     map[string]*agent.Agent
	AgentOrder []string // cached lexicographic agent_id order

	Txns map[string]*txn.Transaction

	EventLog *events.Log
	Metrics  *metrics.Aggregator
	Archive  *archive.Store

	// DeferredCredits buffers receiver credits when DeferredCrediting is
	// enabled; owned by the tick and cleared at tick end (spec §5).
	DeferredCredits map[string]money.Cents
}

// Engine owns a SystemState and the scenario-derived configuration
// needed to evaluate it: agent policies, cost rates, the arrival
// generator, and LSM settings.
type Engine struct {
	state    *SystemState
	logger   zerolog.Logger
	scenario config.Scenario
	policies map[string]config.Policy // agent_id -> its policy bundle

	gen *arrivals.Generator

	lsmMaxCycleLen int
	nextTxSeq      uint64

	forceInvariantChecks bool

	// settledRecorded guards RecordEffectivelySettled against
	// double-counting the same root transaction across ticks.
	settledRecorded map[string]bool
}

// New constructs an Engine from a validated scenario. simulationID
// stamps every emitted event (spec §3's Event header). archiveStore may
// be nil (memory-only archival).
func New(simulationID string, scenario config.Scenario, archiveStore *archive.Store, logger zerolog.Logger, lsmMaxCycleLen int, forceInvariantChecks bool) (*Engine, error) {
	if err := scenario.Validate(); err != nil {
		return nil, err
	}

	agents := make(map[string]*agent.Agent, len(scenario.Agents))
	policies := make(map[string]config.Policy, len(scenario.Agents))
	var order []string
	for _, a := range scenario.Agents {
		rt := config.ExtractAgentRuntime(a)
		rt.OpeningBalance = config.InitialBalance(a)
		agents[a.ID] = agent.New(rt)
		policies[a.ID] = a.Policy
		order = append(order, a.ID)
	}
	sort.Strings(order)

	if archiveStore == nil {
		archiveStore = archive.NewStore(nil)
	}

	if scenario.LSM.MaxCycleLength > 0 {
		lsmMaxCycleLen = scenario.LSM.MaxCycleLength
	}
	if lsmMaxCycleLen <= 0 {
		lsmMaxCycleLen = 5
	}

	state := &SystemState{
		CurrentTick:     0,
		TicksPerDay:     scenario.TicksPerDay,
		NumDays:         scenario.NumDays,
		Agents:          agents,
		AgentOrder:      order,
		Txns:            make(map[string]*txn.Transaction),
		EventLog:        events.NewLog(simulationID),
		Metrics:         metrics.NewAggregator(scenario.CostRates.ToMetricsRates()),
		Archive:         archiveStore,
		DeferredCredits: make(map[string]money.Cents),
	}

	return &Engine{
		state:                state,
		logger:               logger,
		scenario:             scenario,
		policies:             policies,
		gen:                  arrivals.NewGenerator(scenario),
		lsmMaxCycleLen:       lsmMaxCycleLen,
		forceInvariantChecks: forceInvariantChecks,
		settledRecorded:      make(map[string]bool),
	}, nil
}

// State exposes the read-only current SystemState for inspection between
// Tick() calls (spec §5: "between calls the caller may inspect state").
func (e *Engine) State() *SystemState {
	return e.state
}

// CurrentMetrics returns the running per-agent and system cost breakdown
// (spec §6's companion current_metrics() operation).
func (e *Engine) CurrentMetrics() *metrics.Aggregator {
	return e.state.Metrics
}

func (e *Engine) nextTxID() string {
	id := e.nextTxSeq
	e.nextTxSeq++
	return fmt.Sprintf("tx-%d-%d", e.state.CurrentTick, id)
}

// childTxID names a split child so lexicographic string order matches
// index order up to 1000 children per split (zero-padded), satisfying
// spec §4.1 step 3's "children enter queue1[a] in index order" even on
// any tie-break that falls back to tx_id comparison.
func childTxID(parentID string, index int) string {
	return fmt.Sprintf("%s-c%03d", parentID, index)
}

// Package config implements the scenario configuration document (spec
// §6) and the canonical agent-runtime extractor (spec §9, "Policy
// Evaluation Identity"). Adapted from the teacher's
// chain/config/genesis.go: kept the plain-struct-plus-Validate()
// convention, but not genesis.go's ad hoc per-call allocation
// computation — that pattern is exactly the divergent-extractor bug
// spec §9 warns against, so ExtractAgentRuntime is new, not copied.
package config

import (
	"fmt"

	"simcash/sim/agent"
	"simcash/sim/metrics"
	"simcash/sim/money"
	"simcash/sim/policy"
)

// CostRates mirrors spec §6's cost_rates document fields.
type CostRates struct {
	DelayCostPerTickBps      int64 `json:"delay_cost_per_tick_bps"`
	OverdraftCostPerTickBps  int64 `json:"overdraft_cost_per_tick_bps"`
	CollateralCostPerTickBps int64 `json:"collateral_cost_per_tick_bps"`
	DeadlinePenaltyBps       int64 `json:"deadline_penalty_bps"`
	EODPenaltyBps            int64 `json:"eod_penalty_bps"`
	SplitFrictionCents       int64 `json:"split_friction"`
}

// ToMetricsRates converts the config document's CostRates into the
// metrics package's CostRates, the only path by which rates reach the
// aggregator (spec §9's "exactly one canonical extractor" principle
// applies equally to cost rates, not only agent runtime config).
func (r CostRates) ToMetricsRates() metrics.CostRates {
	return metrics.CostRates{
		DelayCostPerTickBps:      r.DelayCostPerTickBps,
		OverdraftCostPerTickBps:  r.OverdraftCostPerTickBps,
		CollateralCostPerTickBps: r.CollateralCostPerTickBps,
		DeadlinePenaltyBps:       r.DeadlinePenaltyBps,
		EODPenaltyBps:            r.EODPenaltyBps,
		SplitFrictionCents:       money.Cents(r.SplitFrictionCents),
	}
}

// Policy bundles an agent's up-to-four trees plus its flat parameters
// map (spec §4.2).
type Policy struct {
	PaymentTree                  *policy.Tree
	BankTree                     *policy.Tree
	StrategicCollateralTree      *policy.Tree
	EndOfTickCollateralTree      *policy.Tree
	Parameters                   map[string]policy.Scalar
}

// AgentConfig mirrors one entry of spec §6's agents list.
type AgentConfig struct {
	ID                             string      `json:"id"`
	OpeningBalance                 money.Cents `json:"opening_balance"`
	UnsecuredCap                   money.Cents `json:"unsecured_cap"`
	MaxCollateralCapacity          money.Cents `json:"max_collateral_capacity,omitempty"`
	HasMaxCollateralCapacity       bool        `json:"-"`
	LiquidityPool                  money.Cents `json:"liquidity_pool,omitempty"`
	HasLiquidityPool                bool       `json:"-"`
	LiquidityAllocationFraction     float64     `json:"liquidity_allocation_fraction,omitempty"`
	HasLiquidityAllocationFraction bool        `json:"-"`
	InitialLiquidityFraction       float64     `json:"initial_liquidity_fraction,omitempty"`
	HasInitialLiquidityFraction    bool        `json:"-"`
	Policy                          Policy      `json:"-"`
}

// ScenarioEvent mirrors one scheduled transaction in spec §6's
// scenario_events list.
type ScenarioEvent struct {
	FromAgent    string      `json:"from_agent"`
	ToAgent      string      `json:"to_agent"`
	Amount       money.Cents `json:"amount"`
	Priority     int         `json:"priority"`
	ArrivalTick  uint64      `json:"arrival_tick"`
	DeadlineTick uint64      `json:"deadline_tick"`
}

// ArrivalSpec describes a stochastic arrival stream (spec §4.4).
type ArrivalSpec struct {
	Sender            string  `json:"sender"`
	Receiver          string  `json:"receiver"`
	InterarrivalDist  string  `json:"interarrival_distribution"` // "poisson" | "uniform"
	InterarrivalParam float64 `json:"interarrival_param"`
	AmountDist        string  `json:"amount_distribution"` // "lognormal" | "uniform"
	AmountParam1      float64 `json:"amount_param1"`
	AmountParam2      float64 `json:"amount_param2"`
	Priority          int     `json:"priority"`
	DeadlineOffset    uint64  `json:"deadline_offset_ticks"`
}

// Validate reports a ConfigError for an ArrivalSpec with an unrecognized
// distribution name (spec §4.4: "enumerated set"). Lives here rather
// than in sim/arrivals (which imports this package for Scenario/
// ArrivalSpec itself) to avoid an import cycle; sim/arrivals.ValidateSpec
// delegates to this method.
func (spec ArrivalSpec) Validate() error {
	switch spec.InterarrivalDist {
	case "poisson", "uniform":
	default:
		return fmt.Errorf("config: unknown interarrival distribution %q", spec.InterarrivalDist)
	}
	switch spec.AmountDist {
	case "lognormal", "uniform":
	default:
		return fmt.Errorf("config: unknown amount distribution %q", spec.AmountDist)
	}
	return nil
}

// LSMConfig mirrors spec §6's lsm_config document.
type LSMConfig struct {
	Enabled        bool `json:"enabled"`
	MaxCycleLength int  `json:"max_cycle_length"`
}

// Scenario is the full declarative input document (spec §6). Parsing
// scenario bytes (YAML) is explicitly out of scope (spec §1); Scenario
// is the structured target such parsing (an external collaborator)
// produces.
type Scenario struct {
	TicksPerDay        uint64          `json:"ticks_per_day"`
	NumDays            uint64          `json:"num_days"`
	RNGSeed            uint64          `json:"rng_seed"`
	DeferredCrediting  bool            `json:"deferred_crediting"`
	DeadlineCapAtEOD   bool            `json:"deadline_cap_at_eod"`
	CostRates          CostRates       `json:"cost_rates"`
	Agents             []AgentConfig   `json:"agents"`
	ScenarioEvents     []ScenarioEvent `json:"scenario_events"`
	Arrivals           []ArrivalSpec   `json:"arrivals"`
	LSM                LSMConfig       `json:"lsm_config"`
}

// Validate enforces the ConfigError checks spec §7 assigns to scenario
// loading: non-empty, unique agent IDs; ticks_per_day/num_days > 0;
// positive scenario-event amounts; deadline_tick >= arrival_tick.
func (s *Scenario) Validate() error {
	if s.TicksPerDay == 0 {
		return fmt.Errorf("config: ticks_per_day must be > 0")
	}
	if s.NumDays == 0 {
		return fmt.Errorf("config: num_days must be > 0")
	}
	seen := make(map[string]bool, len(s.Agents))
	for i, a := range s.Agents {
		if a.ID == "" {
			return fmt.Errorf("config: agents[%d] has empty id", i)
		}
		if seen[a.ID] {
			return fmt.Errorf("config: duplicate agent id %q", a.ID)
		}
		seen[a.ID] = true
		if a.UnsecuredCap < 0 {
			return fmt.Errorf("config: agent %q unsecured_cap must be >= 0", a.ID)
		}
		if a.HasMaxCollateralCapacity && a.MaxCollateralCapacity < 0 {
			return fmt.Errorf("config: agent %q max_collateral_capacity must be >= 0", a.ID)
		}
		for _, tree := range []*policy.Tree{a.Policy.PaymentTree, a.Policy.BankTree, a.Policy.StrategicCollateralTree, a.Policy.EndOfTickCollateralTree} {
			if tree == nil {
				continue
			}
			if err := tree.Validate(); err != nil {
				return fmt.Errorf("config: agent %q: %w", a.ID, err)
			}
			if err := policy.ValidateParams(tree, a.Policy.Parameters); err != nil {
				return fmt.Errorf("config: agent %q: %w", a.ID, err)
			}
		}
	}
	for i, e := range s.ScenarioEvents {
		if !seen[e.FromAgent] || !seen[e.ToAgent] {
			return fmt.Errorf("config: scenario_events[%d] references an undefined agent", i)
		}
		if e.Amount <= 0 {
			return fmt.Errorf("config: scenario_events[%d] amount must be > 0", i)
		}
		if e.DeadlineTick < e.ArrivalTick {
			return fmt.Errorf("config: scenario_events[%d] deadline_tick must be >= arrival_tick", i)
		}
	}
	if s.LSM.Enabled && s.LSM.MaxCycleLength > 0 && s.LSM.MaxCycleLength < 3 {
		return fmt.Errorf("config: lsm_config.max_cycle_length must be >= 3 when set")
	}
	for i, spec := range s.Arrivals {
		if !seen[spec.Sender] || !seen[spec.Receiver] {
			return fmt.Errorf("config: arrivals[%d] references an undefined agent", i)
		}
		if err := spec.Validate(); err != nil {
			return fmt.Errorf("config: arrivals[%d]: %w", i, err)
		}
	}
	return nil
}

// ExtractAgentRuntime is the single canonical extractor spec §9 requires
// ("there must be exactly one canonical extractor that turns a scenario
// + policy into the agent's effective configuration... All call sites
// route through it; divergent extractors have historically caused
// cost-mismatch bugs"). Every caller — direct tick evaluation, bootstrap
// resampling, batch optimization — must construct agent.Config only
// through this function, never by re-deriving fields ad hoc.
func ExtractAgentRuntime(a AgentConfig) agent.Config {
	cfg := agent.Config{
		ID:                    a.ID,
		OpeningBalance:        InitialBalance(a),
		UnsecuredCap:          a.UnsecuredCap,
		MaxCollateralCapacity: a.MaxCollateralCapacity,
		HasCollateralCapacity: a.HasMaxCollateralCapacity,
		LiquidityPool:         a.LiquidityPool,
		HasLiquidityPool:      a.HasLiquidityPool,
	}
	if a.HasInitialLiquidityFraction {
		cfg.InitialLiquidityFractionOK = true
		cfg.InitialLiquidityFraction = a.InitialLiquidityFraction
	}
	return cfg
}

// InitialBalance resolves an agent's actual opening balance, applying
// the initial_liquidity_fraction ratio against its liquidity_pool when
// configured, via the single documented truncate-toward-zero rounding
// rule (spec §3, §9). This is part of ExtractAgentRuntime's contract:
// callers must use this instead of computing opening_balance themselves.
func InitialBalance(a AgentConfig) money.Cents {
	if a.HasLiquidityPool && a.HasInitialLiquidityFraction {
		return money.TruncRatio(a.InitialLiquidityFraction, a.LiquidityPool)
	}
	return a.OpeningBalance
}

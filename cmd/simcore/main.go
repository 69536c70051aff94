// Command simcore is a thin demonstration binary: it builds a small
// hard-coded scenario, drives it for a fixed number of ticks, and
// prints the resulting settlement rate and cost rollup. The CLI proper
// (scenario loading, batch/bootstrap runs) is an external collaborator
// (spec.md §1) — this binary exists only to exercise sim/engine
// end-to-end, the way the teacher's cmd/ binaries wrap chain/node.
package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"simcash/internal/runtimeconfig"
	"simcash/sim/archive"
	"simcash/sim/config"
	"simcash/sim/engine"
	"simcash/sim/money"
)

func demoScenario() config.Scenario {
	return config.Scenario{
		TicksPerDay: 10,
		NumDays:     1,
		RNGSeed:     42,
		CostRates: config.CostRates{
			DelayCostPerTickBps:     5,
			OverdraftCostPerTickBps: 20,
			DeadlinePenaltyBps:      100,
			EODPenaltyBps:           200,
		},
		Agents: []config.AgentConfig{
			{ID: "bank-a", OpeningBalance: 100_000_00, UnsecuredCap: 10_000_00},
			{ID: "bank-b", OpeningBalance: 100_000_00, UnsecuredCap: 10_000_00},
		},
		ScenarioEvents: []config.ScenarioEvent{
			{FromAgent: "bank-a", ToAgent: "bank-b", Amount: money.Cents(5_000_00), Priority: 1, ArrivalTick: 0, DeadlineTick: 5},
			{FromAgent: "bank-b", ToAgent: "bank-a", Amount: money.Cents(4_000_00), Priority: 1, ArrivalTick: 0, DeadlineTick: 5},
		},
		LSM: config.LSMConfig{Enabled: true, MaxCycleLength: 5},
	}
}

func main() {
	settings := runtimeconfig.Load()

	level, err := zerolog.ParseLevel(settings.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).
		Level(level).
		With().Timestamp().Logger()

	scenario := demoScenario()
	store := archive.NewStore(nil)

	eng, err := engine.New("demo-run", scenario, store, logger, settings.DefaultMaxCycleLength, settings.ForceInvariantChecks)
	if err != nil {
		logger.Error().Err(err).Msg("failed to construct engine")
		os.Exit(1)
	}

	ticks := scenario.TicksPerDay * scenario.NumDays
	for i := uint64(0); i < ticks; i++ {
		eng.Tick()
	}

	metrics := eng.CurrentMetrics()
	digest := eng.State().EventLog.Digest()

	fmt.Printf("settlement_rate=%.4f system_cost=%d event_log_digest=%s\n",
		metrics.Counts.SettlementRate(), metrics.SystemTotal(), digest.Hex())
}

// Package arrivals implements the arrival generator (spec §4.4):
// deterministically producing scheduled and stochastic transactions per
// tick from a scenario. Grounded on spec §4.4 directly; consumes
// sim/rng for the stochastic streams.
package arrivals

import (
	"simcash/sim/config"
	"simcash/sim/money"
	"simcash/sim/rng"
)

// Arrival is one transaction born at a given tick, not yet assigned a
// tx_id or inserted into any queue — that is sim/engine's job, since
// tx_id allocation must stay deterministic and centrally owned.
type Arrival struct {
	Sender       string
	Receiver     string
	Amount       money.Cents
	Priority     int
	ArrivalTick  uint64
	DeadlineTick uint64
}

// Generator produces the arrivals for each tick of a scenario: the
// scheduled scenario_events exactly as configured, plus transactions
// drawn from each configured stochastic ArrivalSpec's streams.
type Generator struct {
	masterSeed uint64
	scheduled  map[uint64][]Arrival // arrival_tick -> scheduled arrivals
	streams    []stochasticStream
}

type stochasticStream struct {
	spec           config.ArrivalSpec
	interarrival   *rng.Stream
	amount         *rng.Stream
	nextArrival    uint64
	nextArrivalSet bool
}

// NewGenerator builds a Generator from a scenario document. masterSeed
// drives every stochastic stream via rng.DeriveStreamID(sender, receiver,
// distribution) (spec §4.4).
func NewGenerator(scenario config.Scenario) *Generator {
	g := &Generator{
		masterSeed: scenario.RNGSeed,
		scheduled:  make(map[uint64][]Arrival),
	}
	for _, e := range scenario.ScenarioEvents {
		g.scheduled[e.ArrivalTick] = append(g.scheduled[e.ArrivalTick], Arrival{
			Sender:       e.FromAgent,
			Receiver:     e.ToAgent,
			Amount:       e.Amount,
			Priority:     e.Priority,
			ArrivalTick:  e.ArrivalTick,
			DeadlineTick: e.DeadlineTick,
		})
	}
	for _, spec := range scenario.Arrivals {
		interStreamID := rng.DeriveStreamID(spec.Sender, spec.Receiver, spec.InterarrivalDist)
		amountStreamID := rng.DeriveStreamID(spec.Sender, spec.Receiver, spec.AmountDist)
		g.streams = append(g.streams, stochasticStream{
			spec:         spec,
			interarrival: rng.NewStream(g.masterSeed, interStreamID),
			amount:       rng.NewStream(g.masterSeed, amountStreamID),
		})
	}
	return g
}

// AtTick returns every arrival (scheduled and stochastic) with
// arrival_tick == t, in a fixed order: scheduled events first (scenario
// order preserved), then stochastic streams in the order configured.
// Determinism across platforms follows from sim/rng's chacha20-based
// Stream (spec §4.4 "byte-identical output across platforms").
func (g *Generator) AtTick(t uint64) []Arrival {
	var out []Arrival
	out = append(out, g.scheduled[t]...)

	for i := range g.streams {
		out = append(out, g.streams[i].drawDue(t)...)
	}
	return out
}

// drawDue advances this stream's interarrival clock, emitting zero or
// more arrivals whose computed arrival tick equals t. Poisson
// interarrival draws an integer tick delta >= 1 (a delta of 0 would
// never advance, stalling the stream); at most one arrival fires per
// tick from dues up to t to keep tick-by-tick output order stable.
func (s *stochasticStream) drawDue(t uint64) []Arrival {
	var out []Arrival
	for {
		if !s.nextArrivalSet {
			s.nextArrival = t + s.delta()
			s.nextArrivalSet = true
		}
		if s.nextArrival != t {
			return out
		}
		out = append(out, s.draw(t))
		s.nextArrivalSet = false
	}
}

func (s *stochasticStream) delta() uint64 {
	switch s.spec.InterarrivalDist {
	case "poisson":
		d := s.interarrival.Poisson(s.spec.InterarrivalParam)
		if d < 1 {
			d = 1
		}
		return uint64(d)
	case "uniform":
		lo, hi := s.spec.InterarrivalParam, s.spec.InterarrivalParam
		d := s.interarrival.UniformInt(int64(lo), int64(hi)+1)
		if d < 1 {
			d = 1
		}
		return uint64(d)
	default:
		return 1
	}
}

func (s *stochasticStream) draw(t uint64) Arrival {
	amt := s.drawAmount()
	return Arrival{
		Sender:       s.spec.Sender,
		Receiver:     s.spec.Receiver,
		Amount:       amt,
		Priority:     s.spec.Priority,
		ArrivalTick:  t,
		DeadlineTick: t + s.spec.DeadlineOffset,
	}
}

func (s *stochasticStream) drawAmount() money.Cents {
	switch s.spec.AmountDist {
	case "lognormal":
		v := s.amount.LogNormal(s.spec.AmountParam1, s.spec.AmountParam2)
		return money.TruncRatio(v, 1)
	case "uniform":
		v := s.amount.Uniform(s.spec.AmountParam1, s.spec.AmountParam2)
		return money.TruncRatio(v, 1)
	default:
		return money.Cents(s.spec.AmountParam1)
	}
}

// ValidateSpec reports a ConfigError for an ArrivalSpec with an
// unrecognized distribution name (spec §4.4: "enumerated set"). The
// check itself lives on config.ArrivalSpec (sim/config can't import
// sim/arrivals, which already imports sim/config for Scenario), and
// sim/config.Scenario.Validate calls that method directly; this is a
// thin wrapper over it, called by arrivals_test.go.
func ValidateSpec(spec config.ArrivalSpec) error {
	return spec.Validate()
}

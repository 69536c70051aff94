package lsm

import (
	"sort"

	"simcash/sim/money"
)

// DefaultMaxCycleLength is the cap spec §4.3 names as the default
// ("up to a configured cap (default 5)").
const DefaultMaxCycleLength = 5

// CycleResult is the outcome of settling one multilateral cycle.
type CycleResult struct {
	Agents             []string // a1, a2, ..., ak in cycle order
	TxIDs              []string
	TxAmounts          []money.Cents
	NetPositions       map[string]money.Cents // agent -> incoming - outgoing over the cycle
	MaxNetOutflow      money.Cents
	MaxNetOutflowAgent string
	TotalValue         money.Cents // m * k
}

type edge struct {
	to     string
	weight money.Cents
	legs   []Candidate
}

// canAfford reports whether agentID can absorb netOutflow against its
// current settlement precondition (spec §4.3: "balance - net_outflow >=
// -(unsecured_cap + posted_collateral)"). Kept as a caller-supplied
// callback so lsm has no dependency on the agent package's balance
// model — it only knows about flows.
type canAfford func(agentID string, netOutflow money.Cents) bool

// MultilateralCycles finds and greedily settles simple cycles of length
// 3..maxLen over candidates' directed flow graph, in the deterministic
// order spec §4.3 fixes: (length asc, total_value desc, lexicographic
// agent sequence). Settled legs are consumed from the graph as each
// cycle executes, so later cycles in the same pass see reduced
// availability — this is what makes "each pass strictly reduces
// aggregate eligible pending value" hold (spec §4.3 Termination).
func MultilateralCycles(candidates []Candidate, maxLen int, afford canAfford) []CycleResult {
	if maxLen < 3 {
		maxLen = DefaultMaxCycleLength
	}
	graph := buildGraph(candidates)

	var results []CycleResult
	for {
		cycles := enumerateCycles(graph, maxLen)
		if len(cycles) == 0 {
			break
		}
		sortCycles(cycles)

		executed := false
		for _, cyc := range cycles {
			res, ok := tryExecuteCycle(graph, cyc, afford)
			if ok {
				results = append(results, res)
				executed = true
				break // graph changed; re-enumerate from scratch for determinism
			}
		}
		if !executed {
			break
		}
	}
	return results
}

func buildGraph(candidates []Candidate) map[string]map[string]*edge {
	g := make(map[string]map[string]*edge)
	for _, c := range candidates {
		if c.Sender == c.Receiver {
			continue
		}
		if g[c.Sender] == nil {
			g[c.Sender] = make(map[string]*edge)
		}
		e, ok := g[c.Sender][c.Receiver]
		if !ok {
			e = &edge{to: c.Receiver}
			g[c.Sender][c.Receiver] = e
		}
		e.weight += c.Amount
		e.legs = append(e.legs, c)
	}
	return g
}

type cycleCandidate struct {
	agents []string // length k, agents[0] is the lexicographically smallest
	m      money.Cents
}

// enumerateCycles finds every simple cycle of length 3..maxLen, each
// reported exactly once starting from its lexicographically smallest
// vertex, by DFS from each vertex in sorted order.
func enumerateCycles(graph map[string]map[string]*edge, maxLen int) []cycleCandidate {
	var vertices []string
	for v := range graph {
		vertices = append(vertices, v)
	}
	sort.Strings(vertices)

	var out []cycleCandidate
	for _, start := range vertices {
		var path []string
		visited := make(map[string]bool)
		var dfs func(current string)
		dfs = func(current string) {
			path = append(path, current)
			visited[current] = true
			defer func() {
				visited[current] = false
				path = path[:len(path)-1]
			}()

			if len(path) > maxLen {
				return
			}
			neighbors := sortedNeighbors(graph[current])
			for _, next := range neighbors {
				if next == start && len(path) >= 3 {
					m := cycleMinWeight(graph, append(append([]string{}, path...), start))
					if m > 0 {
						out = append(out, cycleCandidate{agents: append([]string{}, path...), m: m})
					}
					continue
				}
				if visited[next] || next < start {
					// only explore vertices >= start so `start` stays the
					// lexicographically smallest vertex in the cycle,
					// guaranteeing each cycle is reported exactly once
					continue
				}
				if len(path) < maxLen {
					dfs(next)
				}
			}
		}
		dfs(start)
	}
	return out
}

func sortedNeighbors(adj map[string]*edge) []string {
	var out []string
	for n := range adj {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

func cycleMinWeight(graph map[string]map[string]*edge, agentsClosed []string) money.Cents {
	var m money.Cents = -1
	for i := 0; i < len(agentsClosed)-1; i++ {
		e, ok := graph[agentsClosed[i]][agentsClosed[i+1]]
		if !ok {
			return 0
		}
		if m < 0 || e.weight < m {
			m = e.weight
		}
	}
	if m < 0 {
		return 0
	}
	return m
}

func sortCycles(cycles []cycleCandidate) {
	sort.SliceStable(cycles, func(i, j int) bool {
		ci, cj := cycles[i], cycles[j]
		if len(ci.agents) != len(cj.agents) {
			return len(ci.agents) < len(cj.agents)
		}
		totalI := ci.m * money.Cents(len(ci.agents))
		totalJ := cj.m * money.Cents(len(cj.agents))
		if totalI != totalJ {
			return totalI > totalJ
		}
		for k := range ci.agents {
			if ci.agents[k] != cj.agents[k] {
				return ci.agents[k] < cj.agents[k]
			}
		}
		return false
	})
}

// tryExecuteCycle checks the feasibility precondition for every agent
// along the cycle, and if satisfied, settles m along each edge and
// mutates graph to remove the consumed capacity.
func tryExecuteCycle(graph map[string]map[string]*edge, cyc cycleCandidate, afford canAfford) (CycleResult, bool) {
	k := len(cyc.agents)
	closed := append(append([]string{}, cyc.agents...), cyc.agents[0])

	// Every edge in the cycle settles exactly cyc.m, so each agent's
	// incoming (from its predecessor) equals its outgoing (to its
	// successor): net position = incoming - outgoing = 0 for all agents,
	// and net outflow is 0 for all agents (spec §4.3 S3: "max_net_outflow=0").
	netPositions := make(map[string]money.Cents, k)
	for _, a := range cyc.agents {
		netPositions[a] = 0
	}

	for _, a := range cyc.agents {
		if afford != nil && !afford(a, 0) {
			return CycleResult{}, false
		}
	}
	var maxOutflow money.Cents = 0
	maxOutflowAgent := cyc.agents[0]

	var txIDs []string
	var txAmounts []money.Cents
	for i := 0; i < k; i++ {
		from, to := closed[i], closed[i+1]
		e := graph[from][to]
		legs := netInOrder(e.legs, cyc.m)
		for _, leg := range legs {
			txIDs = append(txIDs, leg.TxID)
			txAmounts = append(txAmounts, leg.Amount)
		}
		consumeEdge(graph, from, to, cyc.m)
	}

	return CycleResult{
		Agents:             append([]string{}, cyc.agents...),
		TxIDs:              txIDs,
		TxAmounts:          txAmounts,
		NetPositions:       netPositions,
		MaxNetOutflow:      maxOutflow,
		MaxNetOutflowAgent: maxOutflowAgent,
		TotalValue:         cyc.m * money.Cents(k),
	}, true
}

// consumeEdge reduces the weight of from->to by amt, dropping
// fully-consumed legs and the edge itself when its weight reaches zero.
func consumeEdge(graph map[string]map[string]*edge, from, to string, amt money.Cents) {
	e, ok := graph[from][to]
	if !ok {
		return
	}
	remaining := amt
	var keptLegs []Candidate
	for _, leg := range e.legs {
		if remaining <= 0 {
			keptLegs = append(keptLegs, leg)
			continue
		}
		if leg.Amount <= remaining {
			remaining -= leg.Amount
			continue
		}
		leg.Amount -= remaining
		remaining = 0
		keptLegs = append(keptLegs, leg)
	}
	e.legs = keptLegs
	e.weight -= amt
	if e.weight <= 0 || len(e.legs) == 0 {
		delete(graph[from], to)
		if len(graph[from]) == 0 {
			delete(graph, from)
		}
	}
}

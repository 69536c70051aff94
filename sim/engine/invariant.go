package engine

import "fmt"

// InvariantViolation is the panic value raised when an InternalInvariant
// check fails in a debug build (spec §7: "InternalInvariant: an
// invariant from §3 fails in debug builds. Fatal — abort the run;
// silent corruption is worse than crashing in a research tool").
type InvariantViolation struct {
	Msg  string
	Tick uint64
}

func (v InvariantViolation) Error() string {
	return fmt.Sprintf("internal invariant violated at tick %d: %s", v.Tick, v.Msg)
}

// checkInvariant evaluates cond and, if false, either panics with an
// InvariantViolation (simcash_debug build, or ForceInvariantChecks set
// via internal/runtimeconfig) or logs and continues (release build,
// matching "release builds log and continue" in SPEC_FULL.md A.2).
func (e *Engine) checkInvariant(cond bool, msg string) {
	if cond {
		return
	}
	v := InvariantViolation{Msg: msg, Tick: e.state.CurrentTick}
	if debugInvariantsEnabled || e.forceInvariantChecks {
		panic(v)
	}
	e.logger.Error().
		Uint64("tick", e.state.CurrentTick).
		Str("invariant", msg).
		Msg("internal invariant violated (continuing: not a debug build)")
}

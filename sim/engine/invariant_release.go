//go:build !simcash_debug

package engine

// debugInvariantsEnabled is false in ordinary builds; InternalInvariant
// failures are logged and the run continues (spec §7's fatal-abort
// behavior is reserved for simcash_debug builds, or forced on via
// internal/runtimeconfig's ForceInvariantChecks escape hatch).
const debugInvariantsEnabled = false

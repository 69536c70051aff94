//go:build simcash_debug

package engine

// debugInvariantsEnabled is true only in builds tagged simcash_debug,
// gating InternalInvariant's panic path (spec §7).
const debugInvariantsEnabled = true

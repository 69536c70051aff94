// Package runtimeconfig loads operational settings that are not part of
// a scenario document: log level, whether InternalInvariant panics are
// force-enabled outside a simcash_debug build, and the default LSM
// cycle cap. Grounded on SPEC_FULL.md A.3: a dedicated env/flag-bound
// settings object, the shape the teacher and the wider pack both use
// for non-scenario operational config, via github.com/spf13/viper.
package runtimeconfig

import (
	"strings"

	"github.com/spf13/viper"
)

// Settings is the resolved set of operational knobs for one process.
type Settings struct {
	// LogLevel is one of zerolog's level names ("debug", "info", "warn",
	// "error"); defaults to "info".
	LogLevel string

	// ForceInvariantChecks enables InternalInvariant panics even in a
	// build without the simcash_debug tag — an operator escape hatch for
	// running invariant-checked simulations without a custom build.
	ForceInvariantChecks bool

	// DefaultMaxCycleLength is used when a scenario's lsm_config omits
	// max_cycle_length (spec §4.3 default of 5).
	DefaultMaxCycleLength int
}

// envPrefix namespaces every environment variable this package reads:
// SIMCASH_LOG_LEVEL, SIMCASH_FORCE_INVARIANT_CHECKS, SIMCASH_DEFAULT_MAX_CYCLE_LENGTH.
const envPrefix = "SIMCASH"

// Load resolves Settings from the environment, falling back to
// documented defaults for anything unset.
func Load() Settings {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("log_level", "info")
	v.SetDefault("force_invariant_checks", false)
	v.SetDefault("default_max_cycle_length", 5)

	return Settings{
		LogLevel:              v.GetString("log_level"),
		ForceInvariantChecks:  v.GetBool("force_invariant_checks"),
		DefaultMaxCycleLength: v.GetInt("default_max_cycle_length"),
	}
}

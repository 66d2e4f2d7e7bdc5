// Property-based tests for configuration fallback to defaults.
package config

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// TestProperty_InvalidDurationsFallBackToDefault
//
// Property: for any non-positive grace period or staleness threshold, the defaulting pass
// SHALL restore the documented default so the supervisor never waits zero or negative time.
func TestProperty_InvalidDurationsFallBackToDefault(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	properties.Property("non-positive staleness threshold falls back to default", prop.ForAll(
		func(seconds int) bool {
			cfg := &Config{Status: StatusConfig{StalenessThreshold: time.Duration(seconds) * time.Second}}
			validateAndApplyDefaults(cfg)
			return cfg.Status.StalenessThreshold == DefaultStalenessThreshold
		},
		gen.IntRange(-1000, 0),
	))

	properties.Property("non-positive launch and stop grace fall back to default", prop.ForAll(
		func(launch, stop int) bool {
			cfg := &Config{Supervisor: SupervisorConfig{
				LaunchGrace: time.Duration(launch) * time.Millisecond,
				StopGrace:   time.Duration(stop) * time.Millisecond,
			}}
			validateAndApplyDefaults(cfg)
			return cfg.Supervisor.LaunchGrace == DefaultLaunchGrace &&
				cfg.Supervisor.StopGrace == DefaultStopGrace
		},
		gen.IntRange(-5000, 0),
		gen.IntRange(-5000, 0),
	))

	properties.Property("valid durations are preserved", prop.ForAll(
		func(seconds int) bool {
			threshold := time.Duration(seconds) * time.Second
			cfg := &Config{Status: StatusConfig{StalenessThreshold: threshold}}
			validateAndApplyDefaults(cfg)
			return cfg.Status.StalenessThreshold == threshold
		},
		gen.IntRange(1, 3600),
	))

	properties.TestingRun(t)
}

// TestProperty_UnknownBackendIsRejected
//
// Property: any backend name outside file/redis/http SHALL be kept as written and rejected,
// and the known names SHALL be accepted in any letter case.
func TestProperty_UnknownBackendIsRejected(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	properties.Property("unknown backends are rejected", prop.ForAll(
		func(name string) bool {
			cfg := &Config{Status: StatusConfig{Backend: "x" + name}}
			validateAndApplyDefaults(cfg)
			return cfg.Status.Backend == strings.ToLower("x"+name) && errors.Is(validate(cfg), ErrInvalidConfig)
		},
		gen.AlphaString(),
	))

	properties.Property("known backends are accepted in any case", prop.ForAll(
		func(name string, upper bool) bool {
			if upper {
				name = strings.ToUpper(name)
			}
			cfg := &Config{Status: StatusConfig{Backend: name}}
			validateAndApplyDefaults(cfg)
			return validate(cfg) == nil
		},
		gen.OneConstOf("file", "redis", "http", ""),
		gen.Bool(),
	))

	properties.TestingRun(t)
}

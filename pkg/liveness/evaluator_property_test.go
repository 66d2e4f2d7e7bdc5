package liveness

import (
	"testing"
	"time"

	"modelctl/pkg/constants"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// TestProperty_StalenessBoundary checks the classification on both sides of the threshold
func TestProperty_StalenessBoundary(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200

	properties := gopter.NewProperties(parameters)
	threshold := 30 * time.Second

	properties.Property("ages up to the threshold are alive", prop.ForAll(
		func(ageMs int64) bool {
			age := time.Duration(ageMs) * time.Millisecond
			verdict := Evaluate(snapshotAt(baseTime.Add(-age)), nil, baseTime, threshold)
			return verdict.Liveness == constants.LivenessAlive
		},
		gen.Int64Range(0, threshold.Milliseconds()),
	))

	properties.Property("ages past the threshold are stale", prop.ForAll(
		func(ageMs int64) bool {
			age := time.Duration(ageMs) * time.Millisecond
			verdict := Evaluate(snapshotAt(baseTime.Add(-age)), nil, baseTime, threshold)
			return verdict.Liveness == constants.LivenessStale
		},
		gen.Int64Range(threshold.Milliseconds()+1, 24*time.Hour.Milliseconds()),
	))

	properties.Property("future heartbeats are alive with zero age", prop.ForAll(
		func(aheadMs int64) bool {
			ahead := time.Duration(aheadMs) * time.Millisecond
			verdict := Evaluate(snapshotAt(baseTime.Add(ahead)), nil, baseTime, threshold)
			return verdict.Liveness == constants.LivenessAlive && verdict.HeartbeatAge == 0
		},
		gen.Int64Range(1, time.Hour.Milliseconds()),
	))

	properties.TestingRun(t)
}

package interfaces

import (
	"time"

	"modelctl/pkg/constants"
)

// MetricsObserver receives per-invocation measurements
type MetricsObserver interface {
	ObserveOperation(op constants.Operation, outcome constants.Outcome, duration time.Duration)
	ObserveWorker(liveness constants.Liveness, heartbeatAge time.Duration, crashCount int)
}

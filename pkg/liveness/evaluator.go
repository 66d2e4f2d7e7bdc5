// Package liveness classifies the worker from its latest self-report.
package liveness

import (
	"context"
	"errors"
	"fmt"
	"time"

	"modelctl/pkg/constants"
	"modelctl/pkg/interfaces"

	"github.com/benbjohnson/clock"
)

// Verdict result of one evaluation
type Verdict struct {
	Liveness     constants.Liveness
	HeartbeatAge time.Duration // zero when Absent
	Reason       string
	Snapshot     *interfaces.StatusSnapshot // nil when Absent
	ReadErr      error                      // set when the record exists but is unreadable
}

// IsAlive reports whether the worker is reporting inside the threshold
func (v *Verdict) IsAlive() bool {
	return v != nil && v.Liveness == constants.LivenessAlive
}

// Evaluate classifies a status read.
// A heartbeat age equal to the threshold is still Alive. A heartbeat in the
// future counts as age zero.
func Evaluate(snapshot *interfaces.StatusSnapshot, readErr error, now time.Time, threshold time.Duration) *Verdict {
	if readErr != nil {
		if errors.Is(readErr, interfaces.ErrStatusUnreadable) {
			return &Verdict{
				Liveness: constants.LivenessAbsent,
				Reason:   "status record unreadable",
				ReadErr:  readErr,
			}
		}
		if errors.Is(readErr, interfaces.ErrStatusNotFound) {
			return &Verdict{Liveness: constants.LivenessAbsent, Reason: "no status record"}
		}
		return &Verdict{
			Liveness: constants.LivenessAbsent,
			Reason:   fmt.Sprintf("status store error: %v", readErr),
			ReadErr:  readErr,
		}
	}
	if snapshot == nil || snapshot.Record == nil {
		return &Verdict{Liveness: constants.LivenessAbsent, Reason: "no status record"}
	}

	age := now.Sub(snapshot.Record.HeartbeatTime())
	if age < 0 {
		age = 0
	}
	verdict := &Verdict{HeartbeatAge: age, Snapshot: snapshot}

	switch {
	case age > threshold:
		verdict.Liveness = constants.LivenessStale
		verdict.Reason = fmt.Sprintf("heartbeat is %s old, threshold %s", age.Truncate(time.Millisecond), threshold)
	case !snapshot.UpdatedAt.IsZero() && now.Sub(snapshot.UpdatedAt) > threshold:
		// record claims a fresh heartbeat but nobody replaced it recently
		verdict.Liveness = constants.LivenessStale
		verdict.Reason = fmt.Sprintf("status not updated for %s", now.Sub(snapshot.UpdatedAt).Truncate(time.Millisecond))
	default:
		verdict.Liveness = constants.LivenessAlive
		verdict.Reason = "heartbeat within threshold"
	}
	return verdict
}

// Evaluator reads the status store and classifies the worker
type Evaluator struct {
	reader    interfaces.StatusReader
	clock     clock.Clock
	threshold time.Duration
}

// NewEvaluator creates an evaluator; a nil clock means wall clock
func NewEvaluator(reader interfaces.StatusReader, clk clock.Clock, threshold time.Duration) *Evaluator {
	if clk == nil {
		clk = clock.New()
	}
	return &Evaluator{
		reader:    reader,
		clock:     clk,
		threshold: threshold,
	}
}

// Threshold returns the staleness threshold in use
func (e *Evaluator) Threshold() time.Duration {
	return e.threshold
}

// Evaluate reads the store once and returns the verdict
func (e *Evaluator) Evaluate(ctx context.Context) *Verdict {
	snapshot, err := e.reader.Read(ctx)
	return Evaluate(snapshot, err, e.clock.Now(), e.threshold)
}

package supervisor

import (
	"time"

	"modelctl/internal/model"
	"modelctl/pkg/constants"
	"modelctl/pkg/interfaces"
	"modelctl/pkg/liveness"
)

// Result outcome of one lifecycle operation. Always returned, also on error.
type Result struct {
	Operation    constants.Operation
	Outcome      constants.Outcome
	State        constants.SupervisorState
	Liveness     constants.Liveness
	Message      string
	Record       *model.StatusRecord // last record observed, nil when Absent
	HeartbeatAge time.Duration
	Launch       *interfaces.LaunchResult
	Signalled    []int     // pids a termination request was sent to
	Transitions  []string  // state changes in order, e.g. "stopped->starting"
	Steps        []*Result // stop and start results of a restart
	Duration     time.Duration
}

func newResult(op constants.Operation, verdict *liveness.Verdict) *Result {
	res := &Result{
		Operation: op,
		State:     constants.StateFromLiveness(verdict.Liveness),
	}
	res.observe(verdict)
	return res
}

// observe records the latest liveness verdict
func (r *Result) observe(verdict *liveness.Verdict) {
	r.Liveness = verdict.Liveness
	r.HeartbeatAge = verdict.HeartbeatAge
	if verdict.Snapshot != nil {
		r.Record = verdict.Snapshot.Record
	} else {
		r.Record = nil
	}
}

// ServiceID of the last observed record
func (r *Result) ServiceID() string {
	if r.Record == nil {
		return ""
	}
	return r.Record.ServiceID
}

// Succeeded success or no-op
func (r *Result) Succeeded() bool {
	return r.Outcome == constants.OutcomeSuccess || r.Outcome == constants.OutcomeNoop
}

package supervisor

import (
	"context"

	"modelctl/pkg/constants"
	"modelctl/pkg/logger"

	"github.com/looplab/fsm"
)

const (
	eventLaunch       = "launch"
	eventReady        = "ready"
	eventNoResponse   = "no_response"
	eventLaunchFailed = "launch_failed"
	eventTerminate    = "terminate"
	eventTerminated   = "terminated"
	eventSurvived     = "survived"
	eventHung         = "hung"
)

var (
	stateStopped      = constants.StateStopped.String()
	stateStarting     = constants.StateStarting.String()
	stateRunning      = constants.StateRunning.String()
	stateUnresponsive = constants.StateUnresponsive.String()
	stateStopping     = constants.StateStopping.String()
)

// lifecycle wraps the state machine of one operation; it starts from the state
// implied by the observed liveness since nothing is kept between invocations
type lifecycle struct {
	machine     *fsm.FSM
	transitions []string
}

func newLifecycle(initial constants.SupervisorState) *lifecycle {
	lc := &lifecycle{}
	lc.machine = fsm.NewFSM(
		initial.String(),
		fsm.Events{
			{Name: eventLaunch, Src: []string{stateStopped, stateUnresponsive}, Dst: stateStarting},
			{Name: eventReady, Src: []string{stateStarting}, Dst: stateRunning},
			{Name: eventNoResponse, Src: []string{stateStarting}, Dst: stateUnresponsive},
			{Name: eventLaunchFailed, Src: []string{stateStarting}, Dst: stateStopped},
			{Name: eventTerminate, Src: []string{stateRunning, stateUnresponsive}, Dst: stateStopping},
			{Name: eventTerminated, Src: []string{stateStopping}, Dst: stateStopped},
			{Name: eventSurvived, Src: []string{stateStopping}, Dst: stateRunning},
			{Name: eventHung, Src: []string{stateStopping}, Dst: stateUnresponsive},
		},
		fsm.Callbacks{
			"enter_state": func(ctx context.Context, e *fsm.Event) {
				lc.transitions = append(lc.transitions, e.Src+"->"+e.Dst)
				logger.DebugCtx(ctx, "worker state %s -> %s (%s)", e.Src, e.Dst, e.Event)
			},
		},
	)
	return lc
}

// fire triggers an event; an event invalid in the current state is logged and ignored
func (lc *lifecycle) fire(ctx context.Context, event string) {
	if err := lc.machine.Event(ctx, event); err != nil {
		logger.WarnCtx(ctx, "ignored lifecycle event %s in state %s: %v", event, lc.machine.Current(), err)
	}
}

func (lc *lifecycle) current() constants.SupervisorState {
	return constants.SupervisorState(lc.machine.Current())
}

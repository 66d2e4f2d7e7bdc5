// Package supervisor implements start, stop, restart and status of the model
// worker. Every call rebuilds the lifecycle state from the status store, so the
// supervisor keeps nothing between invocations.
package supervisor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"syscall"
	"time"

	"modelctl/pkg/constants"
	"modelctl/pkg/interfaces"
	"modelctl/pkg/liveness"
	"modelctl/pkg/logger"
	"modelctl/pkg/status"

	"github.com/benbjohnson/clock"
)

// Options grace periods and stop signal
type Options struct {
	StopGrace    time.Duration
	RestartPause time.Duration
	StopSignal   os.Signal
}

// Dependencies collaborators of the supervisor. Recorder and Observer are optional.
type Dependencies struct {
	Evaluator  *liveness.Evaluator
	Launcher   interfaces.Launcher
	Terminator interfaces.Terminator
	Recorder   interfaces.EventRecorder
	Observer   interfaces.MetricsObserver
	Diagnoser  *status.BootstrapDiagnoser
	Clock      clock.Clock
}

// Supervisor lifecycle operations over one worker
type Supervisor struct {
	evaluator  *liveness.Evaluator
	launcher   interfaces.Launcher
	terminator interfaces.Terminator
	recorder   interfaces.EventRecorder
	observer   interfaces.MetricsObserver
	diagnoser  *status.BootstrapDiagnoser
	clock      clock.Clock
	opts       Options
}

// New creates a supervisor
func New(deps Dependencies, opts Options) *Supervisor {
	if deps.Clock == nil {
		deps.Clock = clock.New()
	}
	if deps.Diagnoser == nil {
		deps.Diagnoser = status.NewBootstrapDiagnoser()
	}
	if opts.StopSignal == nil {
		opts.StopSignal = syscall.SIGTERM
	}
	return &Supervisor{
		evaluator:  deps.Evaluator,
		launcher:   deps.Launcher,
		terminator: deps.Terminator,
		recorder:   deps.Recorder,
		observer:   deps.Observer,
		diagnoser:  deps.Diagnoser,
		clock:      deps.Clock,
		opts:       opts,
	}
}

// Start launches the worker unless it is already alive
func (s *Supervisor) Start(ctx context.Context) (*Result, error) {
	begin := s.clock.Now()
	res, err := s.start(ctx)
	s.finish(ctx, res, err, begin)
	return res, err
}

// Stop requests termination unless nothing is reporting
func (s *Supervisor) Stop(ctx context.Context) (*Result, error) {
	begin := s.clock.Now()
	res, err := s.stop(ctx)
	s.finish(ctx, res, err, begin)
	return res, err
}

// Restart stops, pauses and starts. Start is skipped when stop fails.
func (s *Supervisor) Restart(ctx context.Context) (*Result, error) {
	begin := s.clock.Now()
	res, err := s.restart(ctx)
	s.finish(ctx, res, err, begin)
	return res, err
}

// Status reads liveness and the full record without acting on the worker
func (s *Supervisor) Status(ctx context.Context) (*Result, error) {
	begin := s.clock.Now()
	verdict := s.evaluator.Evaluate(ctx)
	res := newResult(constants.OperationStatus, verdict)

	var err error
	switch verdict.Liveness {
	case constants.LivenessAlive:
		res.Outcome = constants.OutcomeSuccess
		res.Message = "worker is running"
	case constants.LivenessStale:
		res.Outcome = constants.OutcomeFailure
		res.Message = "worker is not responding: " + verdict.Reason
		err = fmt.Errorf("%w: %s", ErrUnresponsive, verdict.Reason)
	default:
		res.Outcome = constants.OutcomeFailure
		res.Message = "worker is not running: " + verdict.Reason
		if verdict.ReadErr != nil {
			err = fmt.Errorf("%w: %w", ErrNotRunning, verdict.ReadErr)
		} else {
			err = ErrNotRunning
		}
	}

	s.finish(ctx, res, err, begin)
	return res, err
}

func (s *Supervisor) start(ctx context.Context) (*Result, error) {
	verdict := s.evaluator.Evaluate(ctx)
	res := newResult(constants.OperationStart, verdict)

	if verdict.IsAlive() {
		res.Outcome = constants.OutcomeNoop
		res.Message = "worker already running"
		logger.InfoCtx(ctx, "start skipped, worker %s is alive", res.ServiceID())
		return res, nil
	}
	if verdict.ReadErr != nil {
		logger.WarnCtx(ctx, "treating worker as not running: %v", verdict.ReadErr)
	}

	lc := newLifecycle(res.State)
	defer func() {
		res.State = lc.current()
		res.Transitions = lc.transitions
	}()

	lc.fire(ctx, eventLaunch)
	launch, err := s.launcher.Launch(ctx)
	if err != nil {
		launch = &interfaces.LaunchResult{ExitCode: -1, Output: err.Error()}
	}
	res.Launch = launch

	if !launch.Launched {
		lc.fire(ctx, eventLaunchFailed)
		bootErr := &BootstrapError{
			ExitCode:  launch.ExitCode,
			Output:    launch.Output,
			LogPath:   launch.LogPath,
			Diagnosis: s.diagnoser.Diagnose(launch.ExitCode, launch.Output),
		}
		res.Outcome = constants.OutcomeFailure
		res.Message = bootErr.Error()
		logger.ErrorCtx(ctx, "worker bootstrap failed: exit=%d, class=%s", launch.ExitCode, bootErr.Diagnosis.Class)
		return res, bootErr
	}

	// the launcher already waited the launch grace period
	verdict = s.evaluator.Evaluate(ctx)
	res.observe(verdict)

	if verdict.IsAlive() {
		lc.fire(ctx, eventReady)
		res.Outcome = constants.OutcomeSuccess
		res.Message = "worker running"
		logger.InfoCtx(ctx, "worker %s running, pid=%d", res.ServiceID(), launch.PID)
		return res, nil
	}

	lc.fire(ctx, eventNoResponse)
	res.Outcome = constants.OutcomeFailure
	res.Message = "process started but not responding"
	logger.WarnCtx(ctx, "worker pid=%d started but not responding: %s", launch.PID, verdict.Reason)
	return res, fmt.Errorf("%w: process started but not responding (%s)", ErrUnresponsive, verdict.Reason)
}

func (s *Supervisor) stop(ctx context.Context) (*Result, error) {
	verdict := s.evaluator.Evaluate(ctx)
	res := newResult(constants.OperationStop, verdict)

	if verdict.Liveness == constants.LivenessAbsent {
		res.Outcome = constants.OutcomeNoop
		res.Message = "worker not running"
		logger.InfoCtx(ctx, "stop skipped, nothing is reporting")
		return res, nil
	}

	lc := newLifecycle(res.State)
	defer func() {
		res.State = lc.current()
		res.Transitions = lc.transitions
	}()

	target := interfaces.TerminationTarget{Signal: s.opts.StopSignal}
	if res.Record != nil {
		target.PID = res.Record.PID
	}

	lc.fire(ctx, eventTerminate)
	signalled, err := s.terminator.Terminate(ctx, target)
	if err != nil {
		lc.machine.SetState(constants.StateFromLiveness(verdict.Liveness).String())
		res.Outcome = constants.OutcomeFailure
		res.Message = "termination request failed: " + err.Error()
		return res, fmt.Errorf("failed to request worker termination: %w", err)
	}
	res.Signalled = signalled
	if len(signalled) == 0 {
		logger.WarnCtx(ctx, "no process matched the worker pattern")
	}

	s.clock.Sleep(s.opts.StopGrace)

	verdict = s.evaluator.Evaluate(ctx)
	res.observe(verdict)

	switch verdict.Liveness {
	case constants.LivenessAbsent:
		lc.fire(ctx, eventTerminated)
		res.Outcome = constants.OutcomeSuccess
		res.Message = "worker stopped"
		return res, nil
	case constants.LivenessStale:
		// a dead worker cannot refresh or withdraw its record
		remaining, findErr := s.terminator.Find(ctx, target)
		if findErr != nil {
			logger.WarnCtx(ctx, "failed to look for remaining worker processes: %v", findErr)
		} else if len(remaining) == 0 {
			lc.fire(ctx, eventTerminated)
			res.Outcome = constants.OutcomeSuccess
			res.Message = "worker stopped, stale status record left behind"
			logger.InfoCtx(ctx, "no worker process left, ignoring stale record of %s", res.ServiceID())
			return res, nil
		}
		lc.fire(ctx, eventHung)
	case constants.LivenessAlive:
		lc.fire(ctx, eventSurvived)
	}
	res.Outcome = constants.OutcomeFailure
	res.Message = fmt.Sprintf("worker still %s after %s", verdict.Liveness, s.opts.StopGrace)
	return res, fmt.Errorf("%w: liveness %s after %s", ErrTerminationTimeout, verdict.Liveness, s.opts.StopGrace)
}

func (s *Supervisor) restart(ctx context.Context) (*Result, error) {
	stopRes, err := s.stop(ctx)
	if err != nil {
		res := *stopRes
		res.Operation = constants.OperationRestart
		res.Steps = []*Result{stopRes}
		res.Message = "restart aborted: " + stopRes.Message
		return &res, fmt.Errorf("restart aborted: %w", err)
	}

	s.clock.Sleep(s.opts.RestartPause)

	startRes, err := s.start(ctx)
	res := *startRes
	res.Operation = constants.OperationRestart
	res.Steps = []*Result{stopRes, startRes}
	res.Signalled = stopRes.Signalled
	res.Transitions = append(append([]string(nil), stopRes.Transitions...), startRes.Transitions...)
	if err != nil {
		return &res, err
	}
	// a restart that only started a stopped worker still did work
	res.Outcome = constants.OutcomeSuccess
	if startRes.Outcome == constants.OutcomeNoop {
		res.Message = "worker came back before start; nothing launched"
	} else {
		res.Message = "worker restarted"
	}
	return &res, nil
}

// finish journals and measures the operation. Failures here never fail the operation.
func (s *Supervisor) finish(ctx context.Context, res *Result, opErr error, begin time.Time) {
	res.Duration = s.clock.Since(begin)

	if s.observer != nil {
		s.observer.ObserveOperation(res.Operation, res.Outcome, res.Duration)
		crashCount := 0
		if res.Record != nil {
			crashCount = res.Record.CrashCount
		}
		s.observer.ObserveWorker(res.Liveness, res.HeartbeatAge, crashCount)
	}

	if opErr != nil {
		logger.InfoCtx(ctx, "%s finished: outcome=%s state=%s err=%v", res.Operation, res.Outcome, res.State, opErr)
	} else {
		logger.InfoCtx(ctx, "%s finished: outcome=%s state=%s", res.Operation, res.Outcome, res.State)
	}

	// status is a pure read and is not journaled
	if s.recorder == nil || res.Operation == constants.OperationStatus {
		return
	}
	message := res.Message
	var bootErr *BootstrapError
	if errors.As(opErr, &bootErr) && bootErr.Diagnosis != nil {
		message = bootErr.Diagnosis.Summary()
	}
	entry := &interfaces.LifecycleEntry{
		Operation:  res.Operation.String(),
		Outcome:    res.Outcome.String(),
		State:      res.State.String(),
		Liveness:   res.Liveness.String(),
		ServiceID:  res.ServiceID(),
		Message:    message,
		DurationMs: res.Duration.Milliseconds(),
		OccurredAt: s.clock.Now(),
	}
	if err := s.recorder.Record(ctx, entry); err != nil {
		logger.WarnCtx(ctx, "failed to journal %s: %v", res.Operation, err)
	}
}

package supervisor

import (
	"errors"
	"fmt"

	"modelctl/pkg/interfaces"
	"modelctl/pkg/status"
)

var (
	// ErrBootstrapFailure the worker exited before completing startup
	ErrBootstrapFailure = errors.New("worker failed to bootstrap")
	// ErrUnresponsive a process is running but not heartbeating within threshold
	ErrUnresponsive = errors.New("worker is not responding")
	// ErrStatusUnreadable the status record exists but cannot be parsed
	ErrStatusUnreadable = interfaces.ErrStatusUnreadable
	// ErrTerminationTimeout the worker still reports after the stop grace period
	ErrTerminationTimeout = errors.New("worker did not stop within grace period")
	// ErrNotRunning nothing is reporting
	ErrNotRunning = errors.New("worker is not running")
)

// BootstrapError carries what the worker left behind when it died during startup
type BootstrapError struct {
	ExitCode  int // -1 when the process could not be spawned
	Output    string
	LogPath   string
	Diagnosis *status.Diagnosis
}

func (e *BootstrapError) Error() string {
	msg := fmt.Sprintf("%s (exit code %d)", ErrBootstrapFailure, e.ExitCode)
	if e.Diagnosis != nil {
		msg += ": " + e.Diagnosis.UserMessage
	}
	return msg
}

func (e *BootstrapError) Unwrap() error {
	return ErrBootstrapFailure
}

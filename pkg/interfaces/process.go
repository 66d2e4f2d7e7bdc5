package interfaces

import (
	"context"
	"os"
)

// LaunchResult outcome of spawning the worker
type LaunchResult struct {
	Launched bool   // still running after the grace period
	PID      int    // process id, 0 when the spawn itself failed
	ExitCode int    // exit code when Launched is false, -1 if it never ran
	Output   string // stdout/stderr captured when Launched is false
	LogPath  string
}

// Launcher spawns the worker as a detached process
type Launcher interface {
	Launch(ctx context.Context) (*LaunchResult, error)
}

// TerminationTarget identifies which process to signal
type TerminationTarget struct {
	PID    int // pid reported by the worker, 0 if unknown
	Signal os.Signal
}

// Terminator sends a termination request to running worker processes.
// Terminate returns the pids that were signalled; Find returns the pids
// Terminate would signal, without signalling them.
type Terminator interface {
	Terminate(ctx context.Context, target TerminationTarget) ([]int, error)
	Find(ctx context.Context, target TerminationTarget) ([]int, error)
}

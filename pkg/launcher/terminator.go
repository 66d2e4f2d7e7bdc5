package launcher

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"modelctl/pkg/interfaces"
	"modelctl/pkg/logger"

	"github.com/prometheus/procfs"
)

// PatternTerminator signals worker processes identified by a command line substring
type PatternTerminator struct {
	pattern   string
	procMount string
	selfPID   int
}

// NewPatternTerminator creates a terminator matching against /proc
func NewPatternTerminator(pattern string) *PatternTerminator {
	return &PatternTerminator{
		pattern:   pattern,
		procMount: procfs.DefaultMountPoint,
		selfPID:   os.Getpid(),
	}
}

// Terminate signals the target pid when its command line still matches the
// pattern, otherwise every matching process except this one.
func (t *PatternTerminator) Terminate(ctx context.Context, target interfaces.TerminationTarget) ([]int, error) {
	pids, err := t.Find(ctx, target)
	if err != nil {
		return nil, err
	}

	signalled := make([]int, 0, len(pids))
	for _, pid := range pids {
		if err := signalPID(pid, target.Signal); err != nil {
			if errors.Is(err, os.ErrProcessDone) {
				continue
			}
			logger.WarnCtx(ctx, "failed to signal pid %d: %v", pid, err)
			continue
		}
		logger.InfoCtx(ctx, "sent %v to worker pid %d", target.Signal, pid)
		signalled = append(signalled, pid)
	}
	return signalled, nil
}

// Find lists the pids Terminate would signal
func (t *PatternTerminator) Find(ctx context.Context, target interfaces.TerminationTarget) ([]int, error) {
	if strings.TrimSpace(t.pattern) == "" {
		return nil, errors.New("no worker match pattern configured")
	}

	fs, err := procfs.NewFS(t.procMount)
	if err != nil {
		return nil, fmt.Errorf("failed to open procfs: %w", err)
	}
	return t.findTargets(ctx, fs, target.PID)
}

func (t *PatternTerminator) findTargets(ctx context.Context, fs procfs.FS, reportedPID int) ([]int, error) {
	if reportedPID > 0 && reportedPID != t.selfPID {
		if proc, err := fs.Proc(reportedPID); err == nil && t.matches(proc) {
			return []int{reportedPID}, nil
		}
		logger.DebugCtx(ctx, "reported pid %d does not match %q, scanning processes", reportedPID, t.pattern)
	}

	procs, err := fs.AllProcs()
	if err != nil {
		return nil, fmt.Errorf("failed to list processes: %w", err)
	}

	pids := make([]int, 0)
	for _, proc := range procs {
		if proc.PID == t.selfPID {
			continue
		}
		if t.matches(proc) {
			pids = append(pids, proc.PID)
		}
	}
	return pids, nil
}

func (t *PatternTerminator) matches(proc procfs.Proc) bool {
	cmdline, err := proc.CmdLine()
	if err != nil || len(cmdline) == 0 {
		// exited or kernel thread
		return false
	}
	return strings.Contains(strings.Join(cmdline, " "), t.pattern)
}

func signalPID(pid int, sig os.Signal) error {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return err
	}
	return proc.Signal(sig)
}

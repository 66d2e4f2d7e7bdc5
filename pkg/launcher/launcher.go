// Package launcher spawns the model worker as a detached process and
// finds it again by command line when it has to be stopped.
package launcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"modelctl/pkg/interfaces"
	"modelctl/pkg/logger"

	"github.com/benbjohnson/clock"
	"github.com/mattn/go-shellwords"
)

// maxCapturedOutput bounds how much of the worker log is returned on early exit
const maxCapturedOutput = 64 * 1024

// Options launch configuration
type Options struct {
	Command string
	WorkDir string
	Env     []string
	LogPath string
	Grace   time.Duration
}

// ProcessLauncher starts exactly one worker process per Launch call
type ProcessLauncher struct {
	opts  Options
	argv  []string
	clock clock.Clock
}

// NewProcessLauncher parses the worker command line
func NewProcessLauncher(opts Options, clk clock.Clock) (*ProcessLauncher, error) {
	argv, err := shellwords.Parse(opts.Command)
	if err != nil {
		return nil, fmt.Errorf("failed to parse worker command: %w", err)
	}
	if len(argv) == 0 {
		return nil, errors.New("worker command is empty")
	}
	if clk == nil {
		clk = clock.New()
	}
	return &ProcessLauncher{opts: opts, argv: argv, clock: clk}, nil
}

// Launch spawns the worker and waits the grace period.
// A process still alive after the grace period is reported as launched; it is
// never waited on beyond that. ctx bounds the spawn only.
func (l *ProcessLauncher) Launch(ctx context.Context) (*interfaces.LaunchResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	logFile, offset, err := openWorkerLog(l.opts.LogPath)
	if err != nil {
		return nil, err
	}
	defer logFile.Close()

	cmd := exec.Command(l.argv[0], l.argv[1:]...)
	cmd.Dir = l.opts.WorkDir
	cmd.Env = append(os.Environ(), l.opts.Env...)
	cmd.Stdout = logFile
	cmd.Stderr = logFile
	cmd.SysProcAttr = detachedProcAttr()

	if err := cmd.Start(); err != nil {
		logger.WarnCtx(ctx, "failed to spawn worker %s: %v", l.argv[0], err)
		return &interfaces.LaunchResult{
			Launched: false,
			ExitCode: -1,
			Output:   err.Error(),
			LogPath:  l.opts.LogPath,
		}, nil
	}

	pid := cmd.Process.Pid
	logger.InfoCtx(ctx, "worker spawned, pid=%d, grace=%s", pid, l.opts.Grace)

	// reaps the child whenever it exits
	exited := make(chan error, 1)
	go func() {
		exited <- cmd.Wait()
	}()

	select {
	case <-exited:
		exitCode := exitCodeOf(cmd)
		output, readErr := readFrom(l.opts.LogPath, offset)
		if readErr != nil {
			logger.WarnCtx(ctx, "failed to read worker log %s: %v", l.opts.LogPath, readErr)
		}
		logger.WarnCtx(ctx, "worker pid=%d exited during grace period with code %d", pid, exitCode)
		return &interfaces.LaunchResult{
			Launched: false,
			PID:      pid,
			ExitCode: exitCode,
			Output:   output,
			LogPath:  l.opts.LogPath,
		}, nil
	case <-l.clock.After(l.opts.Grace):
		return &interfaces.LaunchResult{
			Launched: true,
			PID:      pid,
			LogPath:  l.opts.LogPath,
		}, nil
	}
}

// openWorkerLog opens the append-only worker log and returns its current size
func openWorkerLog(path string) (*os.File, int64, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, 0, fmt.Errorf("failed to create worker log directory: %w", err)
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to open worker log: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, 0, fmt.Errorf("failed to stat worker log: %w", err)
	}
	return f, info.Size(), nil
}

// readFrom returns what was appended to path after offset, keeping the tail
func readFrom(path string, offset int64) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", err
	}
	start := offset
	if info.Size()-start > maxCapturedOutput {
		start = info.Size() - maxCapturedOutput
	}
	if _, err := f.Seek(start, io.SeekStart); err != nil {
		return "", err
	}
	data, err := io.ReadAll(f)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// exitCodeOf returns -1 when the worker was killed by a signal
func exitCodeOf(cmd *exec.Cmd) int {
	if cmd.ProcessState == nil {
		return -1
	}
	return cmd.ProcessState.ExitCode()
}

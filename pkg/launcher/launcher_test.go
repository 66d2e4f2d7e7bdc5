package launcher

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func skipUnlessUnix(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("requires a POSIX shell")
	}
}

func newTestLauncher(t *testing.T, command string, grace time.Duration) (*ProcessLauncher, string) {
	t.Helper()
	logPath := filepath.Join(t.TempDir(), "logs", "model_service.log")
	l, err := NewProcessLauncher(Options{
		Command: command,
		LogPath: logPath,
		Grace:   grace,
	}, clock.New())
	require.NoError(t, err)
	return l, logPath
}

func TestNewProcessLauncher_InvalidCommand(t *testing.T) {
	_, err := NewProcessLauncher(Options{Command: ""}, nil)
	assert.Error(t, err)

	_, err = NewProcessLauncher(Options{Command: "python 'unterminated"}, nil)
	assert.Error(t, err)
}

func TestLaunch_EarlyExitCapturesOutput(t *testing.T) {
	skipUnlessUnix(t)

	l, logPath := newTestLauncher(t,
		`sh -c 'echo "ImportError: No module named torch" >&2; exit 3'`, 5*time.Second)

	// output from an earlier run must not be reported again
	require.NoError(t, os.MkdirAll(filepath.Dir(logPath), 0o755))
	require.NoError(t, os.WriteFile(logPath, []byte("previous run: CUDA out of memory\n"), 0o644))

	start := time.Now()
	result, err := l.Launch(context.Background())
	require.NoError(t, err)

	assert.False(t, result.Launched)
	assert.Equal(t, 3, result.ExitCode)
	assert.Contains(t, result.Output, "ImportError")
	assert.NotContains(t, result.Output, "previous run")
	assert.Less(t, time.Since(start), 5*time.Second)

	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "previous run")
	assert.Contains(t, string(data), "ImportError")
}

func TestLaunch_SurvivesGrace(t *testing.T) {
	skipUnlessUnix(t)

	l, _ := newTestLauncher(t, "sleep 5", 200*time.Millisecond)

	result, err := l.Launch(context.Background())
	require.NoError(t, err)
	require.True(t, result.Launched)
	assert.Greater(t, result.PID, 0)

	proc, err := os.FindProcess(result.PID)
	require.NoError(t, err)
	assert.NoError(t, proc.Kill())
}

func TestLaunch_SpawnError(t *testing.T) {
	l, _ := newTestLauncher(t, "/nonexistent/bin/model-worker --port 8011", time.Second)

	result, err := l.Launch(context.Background())
	require.NoError(t, err)
	assert.False(t, result.Launched)
	assert.Equal(t, -1, result.ExitCode)
	assert.NotEmpty(t, result.Output)
}

func TestLaunch_CanceledContext(t *testing.T) {
	l, _ := newTestLauncher(t, "sleep 5", time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := l.Launch(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

package logger

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"modelctl/pkg/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInvocationID(t *testing.T) {
	assert.Equal(t, "-", InvocationID(context.Background()))

	ctx := WithInvocationID(context.Background(), "abc123")
	assert.Equal(t, "abc123", InvocationID(ctx))
}

func TestInitWith_FileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "modelctl.log")
	err := InitWith(config.LoggerConfig{
		Level:  "info",
		Output: "file",
		File:   config.LoggerFileConfig{Path: path, MaxSizeMB: 1, MaxBackups: 1, MaxAgeDays: 1},
	})
	require.NoError(t, err)

	InfoCtx(WithInvocationID(context.Background(), "inv-1"), "worker %s launched", "svc-1")
	_ = Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "inv-1")
	assert.Contains(t, string(data), "worker svc-1 launched")

	// restore console logger for other tests
	require.NoError(t, InitWith(config.Default().Logger))
}

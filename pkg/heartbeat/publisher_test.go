package heartbeat

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"modelctl/internal/model"
	"modelctl/pkg/constants"
	"modelctl/pkg/interfaces"
	"modelctl/pkg/store/memory"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingWriter struct{}

func (failingWriter) Write(ctx context.Context, record *model.StatusRecord) error {
	return errors.New("read-only file system")
}

type heartbeatCounter struct {
	ok, failed int
}

func (c *heartbeatCounter) ObserveHeartbeat(err error) {
	if err != nil {
		c.failed++
		return
	}
	c.ok++
}

func TestValidateInterval(t *testing.T) {
	assert.NoError(t, ValidateInterval(5*time.Second, 30*time.Second))
	assert.Error(t, ValidateInterval(30*time.Second, 30*time.Second))
	assert.Error(t, ValidateInterval(45*time.Second, 30*time.Second))
	assert.Error(t, ValidateInterval(0, 30*time.Second))
}

func TestNewPublisher_Defaults(t *testing.T) {
	p := NewPublisher(memory.NewStatusStore(), Options{})

	assert.NotEmpty(t, p.ServiceID())
	assert.Equal(t, DefaultInterval, p.Interval())
	assert.Equal(t, "heartbeat", p.Name())

	record := p.Snapshot()
	assert.Equal(t, "starting", record.OverallStatus)
	assert.Equal(t, os.Getpid(), record.PID)
	assert.Greater(t, record.StartedAt, 0.0)

	other := NewPublisher(memory.NewStatusStore(), Options{})
	assert.NotEqual(t, p.ServiceID(), other.ServiceID(), "every worker run gets a new service id")
}

func TestPublish(t *testing.T) {
	store := memory.NewStatusStore()
	mock := clock.NewMock()
	mock.Set(time.Date(2026, 5, 2, 8, 0, 0, 0, time.UTC))
	counter := &heartbeatCounter{}

	p := NewPublisher(store, Options{ServiceID: "svc-hb", Clock: mock, Observer: counter})
	p.SetModelState("legal-7b", constants.ModelStateLoading)
	p.SetGPUMemory(6.2, 24)
	require.NoError(t, p.Publish(context.Background()))

	snapshot, err := store.Read(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "svc-hb", snapshot.Record.ServiceID)
	assert.Equal(t, "loading", snapshot.Record.Models["legal-7b"])
	assert.Equal(t, 24.0, snapshot.Record.GPUMemory.TotalGB)
	assert.True(t, snapshot.Record.HeartbeatTime().Equal(mock.Now()))

	mock.Add(5 * time.Second)
	p.SetModelState("legal-7b", constants.ModelStateLoaded)
	p.SetOverallStatus(constants.OverallStatusReady)
	p.SetGPUMemory(0, 0)
	p.RecordCrash()
	require.NoError(t, p.Run(context.Background()))

	snapshot, err = store.Read(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ready", snapshot.Record.OverallStatus)
	assert.Equal(t, 1, snapshot.Record.CrashCount)
	assert.Nil(t, snapshot.Record.GPUMemory)
	assert.True(t, snapshot.Record.HeartbeatTime().Equal(mock.Now()))
	assert.Equal(t, 2, counter.ok)
}

func TestPublish_WriteError(t *testing.T) {
	counter := &heartbeatCounter{}
	p := NewPublisher(failingWriter{}, Options{Observer: counter})

	err := p.Publish(context.Background())
	assert.ErrorContains(t, err, "read-only file system")
	assert.Equal(t, 1, counter.failed)
	assert.NoError(t, p.Withdraw(context.Background()), "writer without remover")
}

func TestWithdraw(t *testing.T) {
	store := memory.NewStatusStore()
	p := NewPublisher(store, Options{})
	require.NoError(t, p.Publish(context.Background()))

	require.NoError(t, p.Finalize(context.Background()))
	_, err := store.Read(context.Background())
	assert.ErrorIs(t, err, interfaces.ErrStatusNotFound)
}

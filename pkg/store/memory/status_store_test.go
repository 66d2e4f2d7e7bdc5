package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"modelctl/internal/model"
	"modelctl/pkg/interfaces"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusStore(t *testing.T) {
	store := NewStatusStore()
	ctx := context.Background()

	_, err := store.Read(ctx)
	assert.ErrorIs(t, err, interfaces.ErrStatusNotFound)

	record := &model.StatusRecord{
		ServiceID:     "svc-mem",
		LastHeartbeat: model.EpochSeconds(time.Now()),
		Models:        map[string]string{"legal-7b": "loading"},
	}
	require.NoError(t, store.Write(ctx, record))

	// mutation after write does not leak into the store
	record.Models["legal-7b"] = "error"

	snapshot, err := store.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, "loading", snapshot.Record.Models["legal-7b"])

	store.SetReadError(errors.New("disk on fire"))
	_, err = store.Read(ctx)
	assert.EqualError(t, err, "disk on fire")

	store.Clear()
	_, err = store.Read(ctx)
	assert.ErrorIs(t, err, interfaces.ErrStatusNotFound)
}

func TestStatusStore_RejectsIncomplete(t *testing.T) {
	err := NewStatusStore().Write(context.Background(), &model.StatusRecord{})
	assert.ErrorIs(t, err, model.ErrIncompleteRecord)
}

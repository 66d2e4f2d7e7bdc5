package interfaces

import (
	"context"
	"errors"
	"time"

	"modelctl/internal/model"
)

var (
	// ErrStatusNotFound nothing is stored: the worker never reported or its record was removed
	ErrStatusNotFound = errors.New("status record not found")
	// ErrStatusUnreadable a record is stored but cannot be parsed
	ErrStatusUnreadable = errors.New("status record unreadable")
)

// StatusSnapshot a record read from the status store together with
// the store-side modification time (zero when the backend has none)
type StatusSnapshot struct {
	Record    *model.StatusRecord
	UpdatedAt time.Time
}

// StatusReader reads the worker's latest self-report.
// Implementations return an error wrapping ErrStatusNotFound when nothing is
// stored and ErrStatusUnreadable when the stored bytes cannot be parsed.
type StatusReader interface {
	Read(ctx context.Context) (*StatusSnapshot, error)
}

// StatusWriter replaces the stored record wholesale. Used by the worker only.
type StatusWriter interface {
	Write(ctx context.Context, record *model.StatusRecord) error
}

// StatusRemover withdraws the record when the worker shuts down cleanly
type StatusRemover interface {
	Remove(ctx context.Context) error
}

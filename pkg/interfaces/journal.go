package interfaces

import (
	"context"
	"time"
)

// LifecycleEntry journal view of one operation outcome
type LifecycleEntry struct {
	EventID    string
	Operation  string
	Outcome    string
	State      string
	Liveness   string
	ServiceID  string
	Message    string
	DurationMs int64
	OccurredAt time.Time
}

// EventRecorder persists lifecycle outcomes
type EventRecorder interface {
	Record(ctx context.Context, entry *LifecycleEntry) error
	ListRecent(ctx context.Context, limit int) ([]*LifecycleEntry, error)
}

package journal

import (
	"context"
	"fmt"
	"time"

	"modelctl/pkg/interfaces"

	"github.com/google/uuid"
)

// EventRepository handles lifecycle event persistence
type EventRepository struct {
	ds *Datastore
}

// NewEventRepository creates a new lifecycle event repository
func NewEventRepository(ds *Datastore) *EventRepository {
	return &EventRepository{ds: ds}
}

// Record appends one entry; EventID and OccurredAt are filled in when empty
func (r *EventRepository) Record(ctx context.Context, entry *interfaces.LifecycleEntry) error {
	if entry.EventID == "" {
		entry.EventID = uuid.New().String()
	}
	if entry.OccurredAt.IsZero() {
		entry.OccurredAt = time.Now()
	}

	event := &LifecycleEvent{
		EventID:    entry.EventID,
		Operation:  entry.Operation,
		Outcome:    entry.Outcome,
		State:      entry.State,
		Liveness:   entry.Liveness,
		ServiceID:  entry.ServiceID,
		Message:    entry.Message,
		DurationMs: entry.DurationMs,
		OccurredAt: entry.OccurredAt.UTC(),
	}
	if err := r.ds.DB(ctx).Create(event).Error; err != nil {
		return fmt.Errorf("failed to record lifecycle event: %w", err)
	}
	return nil
}

// ListRecent retrieves the most recent entries, newest first
func (r *EventRepository) ListRecent(ctx context.Context, limit int) ([]*interfaces.LifecycleEntry, error) {
	if limit <= 0 {
		limit = 20
	}

	var events []*LifecycleEvent
	err := r.ds.DB(ctx).
		Order("occurred_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&events).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list lifecycle events: %w", err)
	}

	entries := make([]*interfaces.LifecycleEntry, 0, len(events))
	for _, e := range events {
		entries = append(entries, &interfaces.LifecycleEntry{
			EventID:    e.EventID,
			Operation:  e.Operation,
			Outcome:    e.Outcome,
			State:      e.State,
			Liveness:   e.Liveness,
			ServiceID:  e.ServiceID,
			Message:    e.Message,
			DurationMs: e.DurationMs,
			OccurredAt: e.OccurredAt,
		})
	}
	return entries, nil
}

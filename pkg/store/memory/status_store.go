// Package memory holds the status record in process memory. The worker side uses it
// behind its HTTP status endpoint; tests use it as a status store double.
package memory

import (
	"context"
	"sync"
	"time"

	"modelctl/internal/model"
	"modelctl/pkg/interfaces"
)

// StatusStore thread-safe in-memory status record
type StatusStore struct {
	mu        sync.RWMutex
	record    *model.StatusRecord
	updatedAt time.Time
	readErr   error
}

// NewStatusStore creates an empty store
func NewStatusStore() *StatusStore {
	return &StatusStore{}
}

// Read returns a copy of the current record
func (s *StatusStore) Read(ctx context.Context) (*interfaces.StatusSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.readErr != nil {
		return nil, s.readErr
	}
	if s.record == nil {
		return nil, interfaces.ErrStatusNotFound
	}
	return &interfaces.StatusSnapshot{Record: s.record.Clone(), UpdatedAt: s.updatedAt}, nil
}

// Write replaces the record
func (s *StatusStore) Write(ctx context.Context, record *model.StatusRecord) error {
	if err := record.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record = record.Clone()
	s.updatedAt = time.Now()
	return nil
}

// Clear removes the record
func (s *StatusStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record = nil
	s.readErr = nil
}

// SetReadError makes subsequent reads fail with err until Clear or a nil error
func (s *StatusStore) SetReadError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.readErr = err
}

// SetUpdatedAt overrides the modification time reported with the record
func (s *StatusStore) SetUpdatedAt(t time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updatedAt = t
}

// Remove deletes the record
func (s *StatusStore) Remove(ctx context.Context) error {
	s.Clear()
	return nil
}

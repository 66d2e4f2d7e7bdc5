// Package file implements the default status store: one JSON document on local disk,
// replaced atomically by the worker and read without locking by the supervisor.
package file

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"modelctl/internal/model"
	"modelctl/pkg/interfaces"

	"github.com/tidwall/pretty"
)

// StatusStore file-backed status record
type StatusStore struct {
	path string
}

// NewStatusStore creates a store rooted at path
func NewStatusStore(path string) *StatusStore {
	return &StatusStore{path: path}
}

// Path returns the status file location
func (s *StatusStore) Path() string {
	return s.path
}

// Read returns the current record and the file's modification time
func (s *StatusStore) Read(ctx context.Context) (*interfaces.StatusSnapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	info, err := os.Stat(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", interfaces.ErrStatusNotFound, s.path)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: stat %s: %v", interfaces.ErrStatusUnreadable, s.path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", interfaces.ErrStatusUnreadable, s.path)
	}

	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		// removed between stat and read
		return nil, fmt.Errorf("%w: %s", interfaces.ErrStatusNotFound, s.path)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", interfaces.ErrStatusUnreadable, s.path, err)
	}

	record, err := model.DecodeStatusRecord(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", interfaces.ErrStatusUnreadable, err)
	}

	return &interfaces.StatusSnapshot{Record: record, UpdatedAt: info.ModTime()}, nil
}

// Write replaces the record atomically: the new document is written to a
// temporary file in the same directory and renamed over the old one.
func (s *StatusStore) Write(ctx context.Context, record *model.StatusRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := model.EncodeStatusRecord(record)
	if err != nil {
		return err
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create status directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp status file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath) // no-op after a successful rename

	if _, err := tmp.Write(pretty.Pretty(data)); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write status file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync status file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close status file: %w", err)
	}
	if err := os.Chmod(tmpPath, 0644); err != nil {
		return fmt.Errorf("failed to chmod status file: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		return fmt.Errorf("failed to replace status file: %w", err)
	}
	return nil
}

// Remove deletes the record; used by a worker on clean shutdown
func (s *StatusStore) Remove(ctx context.Context) error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove status file: %w", err)
	}
	return nil
}

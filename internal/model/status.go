package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"
)

// ErrIncompleteRecord is returned when a record parses but misses required fields
var ErrIncompleteRecord = errors.New("status record is incomplete")

// GPUMemory GPU memory usage reported by the worker
type GPUMemory struct {
	AllocatedGB float64 `json:"allocated_gb"`
	TotalGB     float64 `json:"total_gb"`
}

// StatusRecord self-reported worker state.
// Written wholesale by the worker on every heartbeat, read-only for the supervisor.
type StatusRecord struct {
	ServiceID     string            `json:"service_id"`
	OverallStatus string            `json:"overall_status"`
	LastHeartbeat float64           `json:"last_heartbeat"` // epoch seconds
	CrashCount    int               `json:"crash_count"`
	Models        map[string]string `json:"models"`
	GPUMemory     *GPUMemory        `json:"gpu_memory,omitempty"`
	PID           int               `json:"pid,omitempty"`        // worker's own process id
	StartedAt     float64           `json:"started_at,omitempty"` // epoch seconds
}

// EpochSeconds converts a time to the record's timestamp unit
func EpochSeconds(t time.Time) float64 {
	return float64(t.UnixNano()) / float64(time.Second)
}

// FromEpochSeconds converts a record timestamp back to time.Time
func FromEpochSeconds(sec float64) time.Time {
	whole, frac := math.Modf(sec)
	return time.Unix(int64(whole), int64(frac*float64(time.Second)))
}

// HeartbeatTime returns LastHeartbeat as time.Time
func (r *StatusRecord) HeartbeatTime() time.Time {
	return FromEpochSeconds(r.LastHeartbeat)
}

// StartedTime returns StartedAt as time.Time, zero when unreported
func (r *StatusRecord) StartedTime() time.Time {
	if r.StartedAt <= 0 {
		return time.Time{}
	}
	return FromEpochSeconds(r.StartedAt)
}

// ModelNames returns model names in stable order
func (r *StatusRecord) ModelNames() []string {
	names := make([]string, 0, len(r.Models))
	for name := range r.Models {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Validate checks the fields the supervisor depends on
func (r *StatusRecord) Validate() error {
	if r.ServiceID == "" {
		return fmt.Errorf("%w: missing service_id", ErrIncompleteRecord)
	}
	if r.LastHeartbeat <= 0 {
		return fmt.Errorf("%w: missing last_heartbeat", ErrIncompleteRecord)
	}
	if r.CrashCount < 0 {
		return fmt.Errorf("%w: negative crash_count", ErrIncompleteRecord)
	}
	return nil
}

// Clone returns a deep copy
func (r *StatusRecord) Clone() *StatusRecord {
	if r == nil {
		return nil
	}
	out := *r
	if r.Models != nil {
		out.Models = make(map[string]string, len(r.Models))
		for k, v := range r.Models {
			out.Models[k] = v
		}
	}
	if r.GPUMemory != nil {
		gpu := *r.GPUMemory
		out.GPUMemory = &gpu
	}
	return &out
}

// DecodeStatusRecord parses and validates a record.
// Partially initialized records are rejected rather than returned.
func DecodeStatusRecord(data []byte) (*StatusRecord, error) {
	var record StatusRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("failed to unmarshal status record: %w", err)
	}
	if err := record.Validate(); err != nil {
		return nil, err
	}
	return &record, nil
}

// EncodeStatusRecord serializes a record for storage
func EncodeStatusRecord(record *StatusRecord) ([]byte, error) {
	if err := record.Validate(); err != nil {
		return nil, err
	}
	data, err := json.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal status record: %w", err)
	}
	return data, nil
}

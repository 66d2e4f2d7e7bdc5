// Package heartbeat is the worker side of the status contract: it owns the
// worker's StatusRecord and replaces it in the status store on every tick.
package heartbeat

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"modelctl/internal/model"
	"modelctl/pkg/constants"
	"modelctl/pkg/interfaces"
	"modelctl/pkg/logger"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
)

// DefaultInterval heartbeat cadence, well under the default staleness threshold
const DefaultInterval = 5 * time.Second

// Observer receives the result of every publish
type Observer interface {
	ObserveHeartbeat(err error)
}

// Options publisher configuration
type Options struct {
	ServiceID string // generated when empty
	Interval  time.Duration
	Clock     clock.Clock
	Observer  Observer
}

// Publisher periodically writes the worker's self-report
type Publisher struct {
	writer   interfaces.StatusWriter
	interval time.Duration
	clock    clock.Clock
	observer Observer

	mu     sync.RWMutex
	record model.StatusRecord
}

// ValidateInterval rejects a cadence that would let the supervisor see a live worker as stale
func ValidateInterval(interval, threshold time.Duration) error {
	if interval <= 0 {
		return fmt.Errorf("heartbeat interval must be positive, got %s", interval)
	}
	if interval >= threshold {
		return fmt.Errorf("heartbeat interval %s must be shorter than staleness threshold %s", interval, threshold)
	}
	return nil
}

// NewPublisher creates a publisher for a freshly started worker
func NewPublisher(writer interfaces.StatusWriter, opts Options) *Publisher {
	if opts.ServiceID == "" {
		opts.ServiceID = uuid.New().String()
	}
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.Clock == nil {
		opts.Clock = clock.New()
	}
	return &Publisher{
		writer:   writer,
		interval: opts.Interval,
		clock:    opts.Clock,
		observer: opts.Observer,
		record: model.StatusRecord{
			ServiceID:     opts.ServiceID,
			OverallStatus: constants.OverallStatusStarting.String(),
			Models:        make(map[string]string),
			PID:           os.Getpid(),
			StartedAt:     model.EpochSeconds(opts.Clock.Now()),
		},
	}
}

// ServiceID identifier of this worker run
func (p *Publisher) ServiceID() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.record.ServiceID
}

// SetOverallStatus updates the overall status reported on the next tick
func (p *Publisher) SetOverallStatus(status constants.OverallStatus) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.record.OverallStatus = status.String()
}

// SetModelState updates one model's state
func (p *Publisher) SetModelState(name string, state constants.ModelState) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.record.Models[name] = state.String()
}

// SetGPUMemory reports GPU memory usage; a zero total clears it
func (p *Publisher) SetGPUMemory(allocatedGB, totalGB float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if totalGB <= 0 {
		p.record.GPUMemory = nil
		return
	}
	p.record.GPUMemory = &model.GPUMemory{AllocatedGB: allocatedGB, TotalGB: totalGB}
}

// RecordCrash counts a crash of the worker's own inference loop
func (p *Publisher) RecordCrash() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.record.CrashCount++
}

// Snapshot returns a copy of the record as it would be published now
func (p *Publisher) Snapshot() *model.StatusRecord {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.record.Clone()
}

// Publish stamps the heartbeat and replaces the stored record
func (p *Publisher) Publish(ctx context.Context) error {
	p.mu.Lock()
	p.record.LastHeartbeat = model.EpochSeconds(p.clock.Now())
	record := p.record.Clone()
	p.mu.Unlock()

	err := p.writer.Write(ctx, record)
	if p.observer != nil {
		p.observer.ObserveHeartbeat(err)
	}
	if err != nil {
		return fmt.Errorf("failed to publish heartbeat: %w", err)
	}
	return nil
}

// Withdraw removes the record on clean shutdown when the store supports it
func (p *Publisher) Withdraw(ctx context.Context) error {
	remover, ok := p.writer.(interfaces.StatusRemover)
	if !ok {
		return nil
	}
	if err := remover.Remove(ctx); err != nil {
		return fmt.Errorf("failed to withdraw status record: %w", err)
	}
	logger.InfoCtx(ctx, "status record of %s withdrawn", p.ServiceID())
	return nil
}

// Name implements jobs.Job
func (p *Publisher) Name() string { return "heartbeat" }

// Interval implements jobs.Job
func (p *Publisher) Interval() time.Duration { return p.interval }

// Run implements jobs.Job
func (p *Publisher) Run(ctx context.Context) error { return p.Publish(ctx) }

// Finalize implements jobs.FinalJob
func (p *Publisher) Finalize(ctx context.Context) error { return p.Withdraw(ctx) }

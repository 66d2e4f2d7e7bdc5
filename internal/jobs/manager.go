package jobs

import (
	"context"
	"sync"
	"time"

	"modelctl/pkg/logger"

	"github.com/benbjohnson/clock"
)

// Job represents a periodic background task.
type Job interface {
	Name() string
	Interval() time.Duration
	Run(ctx context.Context) error
}

// FinalJob is a job with work to do once the manager stops, e.g. withdrawing a record.
type FinalJob interface {
	Job
	Finalize(ctx context.Context) error
}

// Manager orchestrates the lifecycle of background jobs.
type Manager struct {
	ctx     context.Context
	cancel  context.CancelFunc
	clock   clock.Clock
	jobs    []Job
	started bool

	mu sync.Mutex
	wg sync.WaitGroup
}

// NewManager creates a job manager bound to the provided context.
func NewManager(parent context.Context, clk clock.Clock) *Manager {
	if clk == nil {
		clk = clock.New()
	}
	ctx, cancel := context.WithCancel(parent)
	return &Manager{
		ctx:    ctx,
		cancel: cancel,
		clock:  clk,
		jobs:   make([]Job, 0),
	}
}

// Register adds a job to the manager.
func (m *Manager) Register(job Job) {
	if job == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.jobs = append(m.jobs, job)
}

// Start launches all registered jobs. Each job runs once immediately.
func (m *Manager) Start() {
	m.mu.Lock()
	if m.started {
		m.mu.Unlock()
		return
	}
	m.started = true
	jobs := append([]Job(nil), m.jobs...)
	m.mu.Unlock()

	for _, job := range jobs {
		m.wg.Add(1)
		go m.runJob(job)
	}
}

// Stop signals all jobs to stop.
func (m *Manager) Stop() {
	m.cancel()
}

// Wait blocks until all jobs exit.
func (m *Manager) Wait() {
	m.wg.Wait()
}

// Shutdown stops the jobs, waits for them and runs their finalizers within ctx.
func (m *Manager) Shutdown(ctx context.Context) {
	m.Stop()
	m.Wait()

	m.mu.Lock()
	jobs := append([]Job(nil), m.jobs...)
	m.mu.Unlock()

	for _, job := range jobs {
		final, ok := job.(FinalJob)
		if !ok {
			continue
		}
		if err := final.Finalize(ctx); err != nil {
			logger.WarnCtx(ctx, "finalizing job %s failed: %v", job.Name(), err)
		}
	}
}

func (m *Manager) runJob(job Job) {
	defer m.wg.Done()

	interval := job.Interval()
	if interval <= 0 {
		interval = time.Second
	}

	m.executeJob(job)

	ticker := m.clock.Ticker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-m.ctx.Done():
			return
		case <-ticker.C:
			m.executeJob(job)
		}
	}
}

func (m *Manager) executeJob(job Job) {
	if m.ctx.Err() != nil {
		return
	}
	if err := job.Run(m.ctx); err != nil {
		logger.WarnCtx(m.ctx, "background job %s failed: %v", job.Name(), err)
	}
}

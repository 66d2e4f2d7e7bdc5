package main

import (
	"context"
	"fmt"

	"modelctl/pkg/config"
	"modelctl/pkg/interfaces"
	"modelctl/pkg/logger"
	"modelctl/pkg/metrics"
	"modelctl/pkg/supervisor"

	"github.com/google/uuid"
)

// Application wires the components one CLI invocation needs
type Application struct {
	configPath string
	forceStop  bool

	config       *config.Config
	statusReader interfaces.StatusReader
	journal      interfaces.EventRecorder
	metrics      *metrics.Recorder
	supervisor   *supervisor.Supervisor

	ctx context.Context

	// cleanup functions, run in reverse registration order
	cleanupFuncs []func()
}

// NewApplication creates a new Application instance
func NewApplication(configPath string, forceStop bool) *Application {
	invocationID := uuid.New().String()[:8]
	return &Application{
		configPath:   configPath,
		forceStop:    forceStop,
		ctx:          logger.WithInvocationID(context.Background(), invocationID),
		cleanupFuncs: make([]func(), 0),
	}
}

// Initialize initializes all application components
func (app *Application) Initialize() error {
	steps := []struct {
		name string
		fn   func() error
	}{
		{"Configuration", app.initConfig},
		{"Logging", app.initLogger},
		{"Status Store", app.initStatusStore},
		{"Journal", app.initJournal},
		{"Metrics", app.initMetrics},
		{"Supervisor", app.initSupervisor},
	}

	for _, step := range steps {
		logger.DebugCtx(app.ctx, "Initializing %s...", step.name)
		if err := step.fn(); err != nil {
			return fmt.Errorf("failed to initialize %s: %w", step.name, err)
		}
		logger.DebugCtx(app.ctx, "%s initialized successfully", step.name)
	}
	return nil
}

// Shutdown releases everything Initialize acquired
func (app *Application) Shutdown() {
	for i := len(app.cleanupFuncs) - 1; i >= 0; i-- {
		app.cleanupFuncs[i]()
	}
	app.cleanupFuncs = nil
}

func (app *Application) registerCleanup(fn func()) {
	app.cleanupFuncs = append(app.cleanupFuncs, fn)
}

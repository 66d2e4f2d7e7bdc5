package main

import (
	"context"
	"fmt"
	"os"
	"syscall"

	"modelctl/pkg/config"
	"modelctl/pkg/interfaces"
	"modelctl/pkg/launcher"
	"modelctl/pkg/liveness"
	"modelctl/pkg/logger"
	"modelctl/pkg/metrics"
	"modelctl/pkg/status"
	"modelctl/pkg/store"
	"modelctl/pkg/supervisor"
)

// initConfig initializes configuration
func (app *Application) initConfig() error {
	if err := config.Init(app.configPath); err != nil {
		return err
	}
	app.config = config.GlobalConfig
	return nil
}

// initLogger initializes logging
func (app *Application) initLogger() error {
	if err := logger.Init(); err != nil {
		return err
	}
	app.registerCleanup(func() {
		_ = logger.Sync()
	})
	return nil
}

// initStatusStore opens the reader for the configured status backend
func (app *Application) initStatusStore() error {
	reader, closeFn, err := store.CreateStatusReader(app.config)
	if err != nil {
		return err
	}
	app.statusReader = reader
	app.registerCleanup(func() {
		if err := closeFn(); err != nil {
			logger.WarnCtx(app.ctx, "failed to close status store: %v", err)
		}
	})
	return nil
}

// initJournal opens the lifecycle journal. An unavailable journal only disables journaling.
func (app *Application) initJournal() error {
	recorder, closeFn, err := store.CreateJournal(app.config)
	if err != nil {
		logger.WarnCtx(app.ctx, "lifecycle journal unavailable, continuing without it: %v", err)
		return nil
	}
	app.journal = recorder
	app.registerCleanup(func() {
		if err := closeFn(); err != nil {
			logger.WarnCtx(app.ctx, "failed to close journal: %v", err)
		}
	})
	return nil
}

// initMetrics creates the recorder; the textfile is written on shutdown
func (app *Application) initMetrics() error {
	app.metrics = metrics.NewRecorder(app.config.Metrics.TextfilePath)
	app.registerCleanup(func() {
		if err := app.metrics.Flush(); err != nil {
			logger.WarnCtx(app.ctx, "%v", err)
		}
	})
	return nil
}

// initSupervisor wires the evaluator, launcher and terminator
func (app *Application) initSupervisor() error {
	workerCfg := app.config.Worker
	supCfg := app.config.Supervisor

	var workerLauncher interfaces.Launcher
	processLauncher, err := launcher.NewProcessLauncher(launcher.Options{
		Command: workerCfg.Command,
		WorkDir: workerCfg.WorkDir,
		Env:     workerCfg.Env,
		LogPath: workerCfg.LogPath,
		Grace:   supCfg.LaunchGrace,
	}, nil)
	if err != nil {
		// start reports this as a bootstrap failure; the other verbs still work
		workerLauncher = unconfiguredLauncher{reason: err}
	} else {
		workerLauncher = processLauncher
	}

	stopSignal := signalFromName(supCfg.StopSignal)
	if app.forceStop {
		stopSignal = syscall.SIGKILL
	}

	app.supervisor = supervisor.New(supervisor.Dependencies{
		Evaluator:  liveness.NewEvaluator(app.statusReader, nil, app.config.Status.StalenessThreshold),
		Launcher:   workerLauncher,
		Terminator: launcher.NewPatternTerminator(workerCfg.MatchPattern),
		Recorder:   app.journal,
		Observer:   app.metrics,
		Diagnoser:  status.NewBootstrapDiagnoser(),
	}, supervisor.Options{
		StopGrace:    supCfg.StopGrace,
		RestartPause: supCfg.RestartPause,
		StopSignal:   stopSignal,
	})
	return nil
}

func signalFromName(name string) os.Signal {
	switch name {
	case "INT":
		return syscall.SIGINT
	case "KILL":
		return syscall.SIGKILL
	default:
		return syscall.SIGTERM
	}
}

// unconfiguredLauncher stands in when worker.command cannot be used
type unconfiguredLauncher struct {
	reason error
}

func (l unconfiguredLauncher) Launch(ctx context.Context) (*interfaces.LaunchResult, error) {
	return nil, fmt.Errorf("worker.command is not usable: %w", l.reason)
}

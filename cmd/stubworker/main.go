// Command stubworker is a placeholder model worker. It reports a heartbeat the
// way the real model process does, so the supervisor can be exercised locally.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"modelctl/app/handler"
	"modelctl/app/router"
	"modelctl/internal/jobs"
	"modelctl/pkg/config"
	"modelctl/pkg/constants"
	"modelctl/pkg/heartbeat"
	"modelctl/pkg/interfaces"
	"modelctl/pkg/logger"
	"modelctl/pkg/metrics"
	"modelctl/pkg/store"

	"github.com/benbjohnson/clock"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

type workerOptions struct {
	configPath string
	models     []string
	interval   time.Duration
	loadDelay  time.Duration
	failWith   string
	listen     string
}

func main() {
	opts := &workerOptions{}
	cmd := &cobra.Command{
		Use:           "stubworker",
		Short:         "Placeholder model worker that publishes heartbeats",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(opts)
		},
	}
	cmd.Flags().StringVar(&opts.configPath, "config", "", "path to the configuration file")
	cmd.Flags().StringSliceVar(&opts.models, "models", []string{"legal-7b"}, "models to report")
	cmd.Flags().DurationVar(&opts.interval, "interval", heartbeat.DefaultInterval, "heartbeat interval")
	cmd.Flags().DurationVar(&opts.loadDelay, "load-delay", 0, "time models stay in loading state")
	cmd.Flags().StringVar(&opts.failWith, "fail-with", "", "print this message to stderr and exit 1 before reporting")
	cmd.Flags().StringVar(&opts.listen, "listen", "", "serve the record over HTTP (default status.http.listen for the http backend)")

	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(opts *workerOptions) error {
	if opts.failWith != "" {
		// mimics an interpreter dying on import
		fmt.Fprintln(os.Stderr, opts.failWith)
		os.Exit(1)
	}

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}
	if err := logger.InitWith(cfg.Logger); err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	if err := heartbeat.ValidateInterval(opts.interval, cfg.Status.StalenessThreshold); err != nil {
		return err
	}

	writer, closeStore, err := store.CreateStatusWriter(cfg)
	if err != nil {
		return fmt.Errorf("failed to create status writer: %w", err)
	}
	defer func() { _ = closeStore() }()

	recorder := metrics.NewRecorder("")
	publisher := heartbeat.NewPublisher(writer, heartbeat.Options{
		Interval: opts.interval,
		Observer: recorder,
	})
	ctx := logger.WithInvocationID(context.Background(), publisher.ServiceID()[:8])

	publisher.SetOverallStatus(constants.OverallStatusLoading)
	for _, name := range opts.models {
		publisher.SetModelState(strings.TrimSpace(name), constants.ModelStateLoading)
	}

	manager := jobs.NewManager(ctx, clock.New())
	manager.Register(publisher)
	manager.Start()
	logger.InfoCtx(ctx, "stub worker %s started, pid=%d, backend=%s", publisher.ServiceID(), os.Getpid(), cfg.Status.Backend)

	listen := opts.listen
	if listen == "" && cfg.Status.Backend == constants.StatusBackendHTTP {
		listen = cfg.Status.HTTP.Listen
	}
	var server *http.Server
	if listen != "" {
		server, err = serveStatus(ctx, writer, recorder, listen, cfg.Status.HTTP.Token)
		if err != nil {
			manager.Shutdown(ctx)
			return err
		}
	}

	loaded := time.After(opts.loadDelay)
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	for {
		select {
		case <-loaded:
			for _, name := range opts.models {
				publisher.SetModelState(strings.TrimSpace(name), constants.ModelStateLoaded)
			}
			publisher.SetOverallStatus(constants.OverallStatusReady)
			logger.InfoCtx(ctx, "models loaded: %s", strings.Join(opts.models, ", "))
			loaded = nil
		case sig := <-quit:
			logger.InfoCtx(ctx, "Received exit signal: %v", sig)
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if server != nil {
				if err := server.Shutdown(shutdownCtx); err != nil {
					logger.ErrorCtx(ctx, "HTTP server shutdown error: %v", err)
				}
			}
			manager.Shutdown(shutdownCtx)
			logger.InfoCtx(ctx, "stub worker exited")
			return nil
		}
	}
}

// serveStatus exposes the record and heartbeat metrics over HTTP
func serveStatus(ctx context.Context, writer interfaces.StatusWriter, recorder *metrics.Recorder, listen, token string) (*http.Server, error) {
	reader, ok := writer.(interfaces.StatusReader)
	if !ok {
		return nil, errors.New("status backend cannot be served over HTTP")
	}

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	router.NewRouter(handler.NewStatusHandler(reader), recorder.Handler(), token).Setup(engine)

	server := &http.Server{
		Addr:    listen,
		Handler: engine,
	}
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.ErrorCtx(ctx, "status server failed: %v", err)
		}
	}()
	logger.InfoCtx(ctx, "serving status on %s", listen)
	return server, nil
}

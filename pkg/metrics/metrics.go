// Package metrics exposes supervisor and worker measurements in Prometheus format.
// The CLI is short-lived, so supervisor metrics are flushed to a node exporter
// textfile at the end of each invocation.
package metrics

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"modelctl/pkg/constants"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "modelctl"

var livenessValues = []constants.Liveness{
	constants.LivenessAbsent,
	constants.LivenessStale,
	constants.LivenessAlive,
}

// Recorder owns a private registry so tests and the CLI never share global state
type Recorder struct {
	registry     *prometheus.Registry
	textfilePath string

	operations        *prometheus.CounterVec
	operationDuration *prometheus.GaugeVec
	lastOperation     prometheus.Gauge
	workerLiveness    *prometheus.GaugeVec
	heartbeatAge      prometheus.Gauge
	crashCount        prometheus.Gauge
	heartbeats        *prometheus.CounterVec
}

// NewRecorder creates a recorder; an empty textfilePath disables Flush
func NewRecorder(textfilePath string) *Recorder {
	r := &Recorder{
		registry:     prometheus.NewRegistry(),
		textfilePath: textfilePath,
		operations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "operations_total",
				Help:      "lifecycle operations by outcome",
			}, []string{"operation", "outcome"}),
		operationDuration: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "operation_duration_seconds",
				Help:      "duration of the last lifecycle operation",
			}, []string{"operation"}),
		lastOperation: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "last_operation_timestamp_seconds",
				Help:      "unix time the last lifecycle operation finished",
			}),
		workerLiveness: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "worker_liveness",
				Help:      "1 for the liveness observed last, 0 otherwise",
			}, []string{"liveness"}),
		heartbeatAge: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "heartbeat_age_seconds",
				Help:      "age of the last worker heartbeat",
			}),
		crashCount: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "worker_crash_count",
				Help:      "crash count reported by the worker",
			}),
		heartbeats: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "worker",
				Name:      "heartbeats_total",
				Help:      "status records published by the worker",
			}, []string{"result"}),
	}
	r.registry.MustRegister(
		r.operations,
		r.operationDuration,
		r.lastOperation,
		r.workerLiveness,
		r.heartbeatAge,
		r.crashCount,
		r.heartbeats,
	)
	return r
}

// ObserveOperation counts one finished operation
func (r *Recorder) ObserveOperation(op constants.Operation, outcome constants.Outcome, duration time.Duration) {
	r.operations.WithLabelValues(op.String(), outcome.String()).Inc()
	r.operationDuration.WithLabelValues(op.String()).Set(duration.Seconds())
	r.lastOperation.SetToCurrentTime()
}

// ObserveWorker records the last observed worker state
func (r *Recorder) ObserveWorker(liveness constants.Liveness, heartbeatAge time.Duration, crashCount int) {
	for _, l := range livenessValues {
		value := 0.0
		if l == liveness {
			value = 1
		}
		r.workerLiveness.WithLabelValues(l.String()).Set(value)
	}
	r.heartbeatAge.Set(heartbeatAge.Seconds())
	r.crashCount.Set(float64(crashCount))
}

// ObserveHeartbeat counts one publish attempt of the worker
func (r *Recorder) ObserveHeartbeat(err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	r.heartbeats.WithLabelValues(result).Inc()
}

// Registry returns the underlying registry
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Handler serves the registry over HTTP
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// Flush writes the registry to the textfile; a no-op without a path
func (r *Recorder) Flush() error {
	if r.textfilePath == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(r.textfilePath), 0o755); err != nil {
		return fmt.Errorf("failed to create metrics directory: %w", err)
	}
	if err := prometheus.WriteToTextfile(r.textfilePath, r.registry); err != nil {
		return fmt.Errorf("failed to write metrics textfile: %w", err)
	}
	return nil
}

package qcmd

import (
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/wagiedev/qcmd-go/internal/config"
	"github.com/wagiedev/qcmd-go/internal/metrics"
	"github.com/wagiedev/qcmd-go/internal/ptysession"
)

// Options configures command execution.
type Options = config.Options

// Metrics records Prometheus metrics for executions.
type Metrics = metrics.Recorder

// NewMetrics creates a Metrics and registers its collectors with reg.
// Share one Metrics between runners that use the same registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	return metrics.New(reg)
}

// Option configures a Runner using the functional options pattern.
type Option func(*runnerOptions)

type runnerOptions struct {
	Options

	registry *ptysession.Registry
}

// applyOptions applies functional options and fills in defaults.
func applyOptions(opts []Option) *runnerOptions {
	o := &runnerOptions{}
	for _, opt := range opts {
		opt(o)
	}

	o.Options = *o.WithDefaults()

	return o
}

// WithLogger sets the logger for debug output.
// If not set, logging is disabled (silent operation).
func WithLogger(logger *slog.Logger) Option {
	return func(o *runnerOptions) {
		o.Logger = logger
	}
}

// WithShell sets the interpreter used as "<shell> -c <command>".
// Defaults to $QCMD_SHELL or /bin/sh.
func WithShell(shell string) Option {
	return func(o *runnerOptions) {
		o.Shell = shell
	}
}

// WithReadBufferSize sets the largest chunk delivered to a callback.
func WithReadBufferSize(size int) Option {
	return func(o *runnerOptions) {
		o.ReadBufferSize = size
	}
}

// WithFirstInterval sets the delay before a timed execution's first
// liveness check for ETCommand. TCommand takes the delay as an argument.
func WithFirstInterval(d time.Duration) Option {
	return func(o *runnerOptions) {
		o.FirstInterval = d
	}
}

// WithRepeatInterval sets the delay between later liveness checks.
// Defaults to $QCMD_REPEAT_INTERVAL_MS or 3 seconds.
func WithRepeatInterval(d time.Duration) Option {
	return func(o *runnerOptions) {
		o.RepeatInterval = d
	}
}

// WithMetrics records execution metrics into m.
func WithMetrics(m *Metrics) Option {
	return func(o *runnerOptions) {
		o.Metrics = m
	}
}

// WithRegistry sets the registry that tracks raw-mode terminals.
// Defaults to the process-wide DefaultRegistry.
func WithRegistry(reg *Registry) Option {
	return func(o *runnerOptions) {
		o.registry = reg
	}
}

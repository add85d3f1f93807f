// Package metrics records Prometheus metrics for command executions.
//
// A nil *Recorder is valid and records nothing, so callers never need to
// check whether metrics were configured.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Execution modes used as the "mode" label.
const (
	ModePipe  = "pipe"
	ModePTY   = "pty"
	ModeTimed = "timed"
)

// Recorder holds the metric vectors for one registry.
type Recorder struct {
	ExecutionsStarted *prometheus.CounterVec
	ExecutionsActive  *prometheus.GaugeVec
	SpawnFailures     *prometheus.CounterVec
	BytesStreamed     *prometheus.CounterVec
	StreamDuration    *prometheus.HistogramVec
	Finalizations     prometheus.Counter
	TimerFirings      prometheus.Counter
}

// New creates a Recorder and registers its collectors with reg.
// A nil reg yields a nil Recorder.
func New(reg prometheus.Registerer) *Recorder {
	if reg == nil {
		return nil
	}

	r := &Recorder{
		ExecutionsStarted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "qcmd_executions_started_total",
				Help: "Number of child processes started",
			},
			[]string{"mode"},
		),
		ExecutionsActive: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "qcmd_executions_active",
				Help: "Number of executions whose output is still being streamed",
			},
			[]string{"mode"},
		),
		SpawnFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "qcmd_spawn_failures_total",
				Help: "Number of failed process launches",
			},
			[]string{"mode"},
		),
		BytesStreamed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "qcmd_bytes_streamed_total",
				Help: "Bytes of child output delivered to callbacks",
			},
			[]string{"mode"},
		),
		StreamDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "qcmd_stream_duration_seconds",
				Help:    "Time from process start to end of output",
				Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1.0, 5.0, 30.0, 60.0},
			},
			[]string{"mode"},
		),
		Finalizations: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "qcmd_finalizations_total",
				Help: "Number of finalization callbacks fired by timed executions",
			},
		),
		TimerFirings: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "qcmd_timer_firings_total",
				Help: "Number of liveness checks performed by supervision timers",
			},
		),
	}

	reg.MustRegister(
		r.ExecutionsStarted,
		r.ExecutionsActive,
		r.SpawnFailures,
		r.BytesStreamed,
		r.StreamDuration,
		r.Finalizations,
		r.TimerFirings,
	)

	return r
}

// Started records a successful launch.
func (r *Recorder) Started(mode string) {
	if r == nil {
		return
	}

	r.ExecutionsStarted.WithLabelValues(mode).Inc()
	r.ExecutionsActive.WithLabelValues(mode).Inc()
}

// SpawnFailed records a failed launch.
func (r *Recorder) SpawnFailed(mode string) {
	if r == nil {
		return
	}

	r.SpawnFailures.WithLabelValues(mode).Inc()
}

// Finished records that a started child was closed or reaped. Call it once
// per Started.
func (r *Recorder) Finished(mode string) {
	if r == nil {
		return
	}

	r.ExecutionsActive.WithLabelValues(mode).Dec()
}

// Streamed records the end of an output stream.
func (r *Recorder) Streamed(mode string, total int64, elapsed time.Duration) {
	if r == nil {
		return
	}

	r.BytesStreamed.WithLabelValues(mode).Add(float64(total))
	r.StreamDuration.WithLabelValues(mode).Observe(elapsed.Seconds())
}

// TimerFired records one supervision timer firing.
func (r *Recorder) TimerFired() {
	if r == nil {
		return
	}

	r.TimerFirings.Inc()
}

// Finalized records one finalization callback.
func (r *Recorder) Finalized() {
	if r == nil {
		return
	}

	r.Finalizations.Inc()
}

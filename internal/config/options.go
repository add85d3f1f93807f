// Package config provides configuration types for command execution.
package config

import (
	"log/slog"
	"time"

	"github.com/wagiedev/qcmd-go/internal/metrics"
)

const (
	// DefaultShell is the interpreter used to run pipe-mode command lines.
	DefaultShell = "/bin/sh"

	// DefaultReadBufferSize is the size of a single read from child output.
	DefaultReadBufferSize = 8192

	// MaxCommandLength bounds the length of a formatted command line.
	MaxCommandLength = 4 * DefaultReadBufferSize

	// DefaultFirstInterval is the delay before the first liveness check of
	// an easy timed execution.
	DefaultFirstInterval = 333 * time.Millisecond

	// DefaultRepeatInterval is the delay between subsequent liveness checks.
	DefaultRepeatInterval = 3 * time.Second
)

// Options configures command execution.
type Options struct {
	// Logger is the slog logger for debug output.
	// If nil, logging is disabled (silent operation).
	Logger *slog.Logger

	// Shell is the interpreter invoked as "<Shell> -c <command>".
	// If empty, DefaultShell is used.
	Shell string

	// ReadBufferSize is the maximum chunk delivered to a callback.
	// If zero, DefaultReadBufferSize is used.
	ReadBufferSize int

	// FirstInterval is the delay before a timed execution's first
	// liveness check. If zero, DefaultFirstInterval is used.
	FirstInterval time.Duration

	// RepeatInterval is the delay between later liveness checks.
	// If zero, DefaultRepeatInterval is used.
	RepeatInterval time.Duration

	// Metrics receives execution metrics. Nil disables metrics.
	Metrics *metrics.Recorder
}

// WithDefaults returns a copy of o with every unset field filled in from
// the environment or the package defaults.
func (o *Options) WithDefaults() *Options {
	out := Options{}
	if o != nil {
		out = *o
	}

	if out.Logger == nil {
		out.Logger = slog.New(slog.DiscardHandler)
	}

	if out.Shell == "" {
		out.Shell = ShellFromEnv()
	}

	if out.ReadBufferSize <= 0 {
		out.ReadBufferSize = DefaultReadBufferSize
	}

	if out.FirstInterval == 0 {
		out.FirstInterval = DefaultFirstInterval
	}

	if out.RepeatInterval == 0 {
		out.RepeatInterval = RepeatIntervalFromEnv()
	}

	return &out
}

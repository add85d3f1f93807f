package qcmd

import (
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/wagiedev/qcmd-go/internal/config"
)

func TestApplyOptions_Defaults(t *testing.T) {
	t.Setenv(config.EnvShell, "")
	t.Setenv(config.EnvRepeatIntervalMs, "")

	o := applyRunnerDefaults(nil)

	require.NotNil(t, o.Logger)
	require.Equal(t, "/bin/sh", o.Shell)
	require.Equal(t, 8192, o.ReadBufferSize)
	require.Equal(t, 333*time.Millisecond, o.FirstInterval)
	require.Equal(t, 3*time.Second, o.RepeatInterval)
	require.Nil(t, o.Metrics)
	require.Same(t, DefaultRegistry, o.registry)
}

func TestApplyOptions_Overrides(t *testing.T) {
	log := slog.New(slog.DiscardHandler)
	reg := NewRegistry(log)
	m := NewMetrics(prometheus.NewRegistry())

	o := applyRunnerDefaults([]Option{
		WithLogger(log),
		WithShell("/bin/bash"),
		WithReadBufferSize(16),
		WithFirstInterval(time.Second),
		WithRepeatInterval(2 * time.Second),
		WithMetrics(m),
		WithRegistry(reg),
	})

	require.Same(t, log, o.Logger)
	require.Equal(t, "/bin/bash", o.Shell)
	require.Equal(t, 16, o.ReadBufferSize)
	require.Equal(t, time.Second, o.FirstInterval)
	require.Equal(t, 2*time.Second, o.RepeatInterval)
	require.Same(t, m, o.Metrics)
	require.Same(t, reg, o.registry)
}

func TestApplyOptions_Environment(t *testing.T) {
	t.Setenv(config.EnvShell, "/bin/dash")
	t.Setenv(config.EnvRepeatIntervalMs, "1500")

	o := applyRunnerDefaults(nil)

	require.Equal(t, "/bin/dash", o.Shell)
	require.Equal(t, 1500*time.Millisecond, o.RepeatInterval)

	o = applyRunnerDefaults([]Option{WithShell("/bin/sh")})
	require.Equal(t, "/bin/sh", o.Shell, "explicit options win over the environment")
}

func TestNew_UsesConfiguredRegistry(t *testing.T) {
	require.Same(t, DefaultRegistry, New().Registry())

	reg := NewRegistry(nil)
	require.Same(t, reg, New(WithRegistry(reg)).Registry())
}

func TestNopLogger(t *testing.T) {
	log := NopLogger()
	require.NotNil(t, log)
	require.False(t, log.Enabled(t.Context(), slog.LevelError))
}

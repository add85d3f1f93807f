package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestWithDefaults_Nil(t *testing.T) {
	t.Setenv(EnvShell, "")
	t.Setenv(EnvRepeatIntervalMs, "")

	var o *Options

	got := o.WithDefaults()
	require.NotNil(t, got.Logger)
	require.Equal(t, DefaultShell, got.Shell)
	require.Equal(t, DefaultReadBufferSize, got.ReadBufferSize)
	require.Equal(t, DefaultFirstInterval, got.FirstInterval)
	require.Equal(t, DefaultRepeatInterval, got.RepeatInterval)
	require.Nil(t, got.Metrics)
}

func TestWithDefaults_KeepsExplicitValues(t *testing.T) {
	log := slog.Default()
	o := &Options{
		Logger:         log,
		Shell:          "/bin/bash",
		ReadBufferSize: 16,
		FirstInterval:  10 * time.Millisecond,
		RepeatInterval: 20 * time.Millisecond,
	}

	got := o.WithDefaults()
	require.Same(t, log, got.Logger)
	require.Equal(t, "/bin/bash", got.Shell)
	require.Equal(t, 16, got.ReadBufferSize)
	require.Equal(t, 10*time.Millisecond, got.FirstInterval)
	require.Equal(t, 20*time.Millisecond, got.RepeatInterval)

	// The receiver is not modified.
	require.NotSame(t, o, got)
}

func TestRepeatIntervalFromEnv(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want time.Duration
	}{
		{name: "unset", in: "", want: DefaultRepeatInterval},
		{name: "valid", in: "250", want: 250 * time.Millisecond},
		{name: "zero ignored", in: "0", want: DefaultRepeatInterval},
		{name: "negative ignored", in: "-5", want: DefaultRepeatInterval},
		{name: "garbage ignored", in: "soon", want: DefaultRepeatInterval},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv(EnvRepeatIntervalMs, tc.in)
			require.Equal(t, tc.want, RepeatIntervalFromEnv())
		})
	}
}

func TestShellFromEnv(t *testing.T) {
	t.Setenv(EnvShell, "")
	require.Equal(t, DefaultShell, ShellFromEnv())

	t.Setenv(EnvShell, "/bin/dash")
	require.Equal(t, "/bin/dash", ShellFromEnv())
}

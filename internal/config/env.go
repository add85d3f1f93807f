package config

import (
	"os"
	"strconv"
	"time"
)

const (
	// EnvShell overrides DefaultShell.
	EnvShell = "QCMD_SHELL"

	// EnvRepeatIntervalMs overrides DefaultRepeatInterval, in milliseconds.
	EnvRepeatIntervalMs = "QCMD_REPEAT_INTERVAL_MS"
)

// ShellFromEnv returns the shell from QCMD_SHELL or DefaultShell.
func ShellFromEnv() string {
	if shell := os.Getenv(EnvShell); shell != "" {
		return shell
	}

	return DefaultShell
}

// RepeatIntervalFromEnv returns the repeat interval from
// QCMD_REPEAT_INTERVAL_MS or DefaultRepeatInterval. Invalid or
// non-positive values are ignored.
func RepeatIntervalFromEnv() time.Duration {
	if ms := os.Getenv(EnvRepeatIntervalMs); ms != "" {
		if n, err := strconv.Atoi(ms); err == nil && n > 0 {
			return time.Duration(n) * time.Millisecond
		}
	}

	return DefaultRepeatInterval
}

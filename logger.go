package qcmd

import "log/slog"

// NopLogger returns a logger that discards all output.
// This is the default when WithLogger is not used.
func NopLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

package cmd

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	qcmd "github.com/wagiedev/qcmd-go"
	"github.com/wagiedev/qcmd-go/internal/config"
)

var (
	shell       string
	debug       bool
	metricsAddr string
	bufferSize  int

	logger  *slog.Logger
	metrics *qcmd.Metrics
)

var rootCmd = &cobra.Command{
	Use:   "qcmd",
	Short: "qcmd - run commands and stream their output",
	Long: `qcmd runs commands through a shell pipe or a pseudo-terminal and streams
their output as it arrives.

The timed mode supervises the command with a liveness timer and reports
once its output has ended.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		level := slog.LevelWarn
		if debug {
			level = slog.LevelDebug
		}

		logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))

		if metricsAddr != "" {
			reg := prometheus.NewRegistry()
			metrics = qcmd.NewMetrics(reg)

			go serveMetrics(cmd.Context(), reg)
		}

		return nil
	},
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&shell, "shell", config.ShellFromEnv(), "Interpreter used as \"<shell> -c <command>\"")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address (e.g. :9090)")
	rootCmd.PersistentFlags().IntVar(&bufferSize, "buffer-size", config.DefaultReadBufferSize, "Largest chunk read from the child at once")
}

func runnerOptions() []qcmd.Option {
	return []qcmd.Option{
		qcmd.WithLogger(logger),
		qcmd.WithShell(shell),
		qcmd.WithReadBufferSize(bufferSize),
		qcmd.WithMetrics(metrics),
	}
}

func serveMetrics(ctx context.Context, reg *prometheus.Registry) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	srv := &http.Server{
		Addr:              metricsAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()

		_ = srv.Close()
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Metrics server failed", "addr", metricsAddr, "error", err)
	}
}

// withTimeout bounds ctx when d is positive.
func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d > 0 {
		return context.WithTimeout(ctx, d)
	}

	return context.WithCancel(ctx)
}

// writeOutput returns a callback that copies output chunks to the command's
// standard output.
func writeOutput(cmd *cobra.Command) qcmd.Callback {
	out := cmd.OutOrStdout()

	return func(buf []byte, n int, _ *qcmd.ChildProcess) {
		if n > 0 {
			if _, err := out.Write(buf); err != nil {
				logger.Debug("Failed to write output", "error", err)
			}
		}
	}
}

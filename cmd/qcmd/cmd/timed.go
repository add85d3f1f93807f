package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	qcmd "github.com/wagiedev/qcmd-go"
)

var (
	timedInterval time.Duration
	timedRepeat   time.Duration
	timedTimeout  time.Duration
)

var timedCmd = &cobra.Command{
	Use:   "timed <command> [args...]",
	Short: "Run a command under a supervision timer",
	Long: `Run a command line on a background worker while a timer checks whether its
output has ended. The first check comes after --interval, later ones every
--repeat. A summary line is printed to standard error once the command is
finalized.
Example: qcmd timed --interval 100ms "sleep 1; echo done"`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := withTimeout(cmd.Context(), timedTimeout)
		defer cancel()

		opts := append(runnerOptions(), qcmd.WithRepeatInterval(timedRepeat))
		errOut := cmd.ErrOrStderr()

		exec, err := qcmd.New(opts...).TCommandf(ctx, writeOutput(cmd),
			func(e *qcmd.Execution) {
				fmt.Fprintf(errOut, "finished %s: pid %d, %d bytes\n", e.ID(), e.Pid(), e.Total())
			},
			timedInterval,
			"%s", strings.Join(args, " "),
		)
		if err != nil {
			return err
		}

		logger.Debug("Timed execution started", "execution_id", exec.ID(), "pid", exec.Pid())

		if err := exec.Wait(); err != nil {
			return fmt.Errorf("execution %s: %w", exec.ID(), err)
		}

		if code := exec.ExitCode(); code != 0 {
			return fmt.Errorf("command exited with code %d", code)
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(timedCmd)

	timedCmd.Flags().DurationVar(&timedInterval, "interval", qcmd.DefaultInterval, "Delay before the first liveness check")
	timedCmd.Flags().DurationVar(&timedRepeat, "repeat", 3*time.Second, "Delay between later liveness checks")
	timedCmd.Flags().DurationVar(&timedTimeout, "timeout", 0, "Kill the command after this long (0 means no limit)")
	timedCmd.Flags().SetInterspersed(false)
}

package cmd

import (
	"strings"
	"time"

	"github.com/spf13/cobra"

	qcmd "github.com/wagiedev/qcmd-go"
)

var runTimeout time.Duration

var runCmd = &cobra.Command{
	Use:   "run <command> [args...]",
	Short: "Run a command through the shell and stream its output",
	Long: `Run a command line through the shell with piped standard input and output.
Arguments are joined with spaces.
Example: qcmd run "ls -l | head -5"`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := withTimeout(cmd.Context(), runTimeout)
		defer cancel()

		cmdline, err := qcmd.Format("%s", strings.Join(args, " "))
		if err != nil {
			return err
		}

		total, err := qcmd.New(runnerOptions()...).Command(ctx, cmdline, writeOutput(cmd))
		logger.Debug("Command finished", "total", total, "error", err)

		return err
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().DurationVar(&runTimeout, "timeout", 0, "Kill the command after this long (0 means no limit)")
	runCmd.Flags().SetInterspersed(false)
}

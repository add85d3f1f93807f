package cmd

import (
	"fmt"
	"io"
	"os"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	qcmd "github.com/wagiedev/qcmd-go"
)

var ptyTimeout time.Duration

var ptyCmd = &cobra.Command{
	Use:   "pty <program> [args...]",
	Short: "Run a program on a pseudo-terminal",
	Long: `Run a program in a new session on a pseudo-terminal and bridge it to this
terminal. The program is looked up in PATH. When standard input is a terminal
it is switched to raw mode for the duration of the session and its size is
passed on to the program.
Example: qcmd pty -- vi notes.txt`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := withTimeout(cmd.Context(), ptyTimeout)
		defer cancel()

		r := qcmd.New(runnerOptions()...)

		stopRestore := r.Registry().RestoreOnSignal(ctx, syscall.SIGTERM, syscall.SIGHUP)
		defer stopRestore()

		size := &qcmd.Winsize{Rows: 24, Cols: 80}

		stdinFd := int(os.Stdin.Fd())
		if term.IsTerminal(stdinFd) {
			if cols, rows, err := term.GetSize(stdinFd); err == nil {
				size = &qcmd.Winsize{Rows: uint16(rows), Cols: uint16(cols)} //nolint:gosec // terminal sizes fit
			}

			state, err := term.MakeRaw(stdinFd)
			if err != nil {
				return fmt.Errorf("failed to set raw mode: %w", err)
			}

			defer func() {
				if err := term.Restore(stdinFd, state); err != nil {
					logger.Warn("Failed to restore terminal", "error", err)
				}
			}()
		}

		master, err := qcmd.OpenPTY()
		if err != nil {
			return err
		}

		child, err := r.StartPTY(ctx, master, size, args)
		if err != nil {
			_ = master.Close()

			return err
		}

		go func() {
			if _, err := io.Copy(child.In, os.Stdin); err != nil {
				logger.Debug("Input bridge stopped", "error", err)
			}
		}()

		_, streamErr := r.Stream(ctx, child, writeOutput(cmd))

		if streamErr != nil {
			if err := child.Kill(); err != nil {
				logger.Warn("Failed to kill child", "pid", child.Pid, "error", err)
			}
		}

		if err := child.Wait(); err != nil && streamErr == nil {
			logger.Debug("Program exited with error", "pid", child.Pid, "error", err)
		}

		if streamErr != nil {
			return streamErr
		}

		if code := child.ExitCode(); code != 0 {
			return fmt.Errorf("program exited with code %d", code)
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(ptyCmd)

	ptyCmd.Flags().DurationVar(&ptyTimeout, "timeout", 0, "Kill the program after this long (0 means no limit)")
	ptyCmd.Flags().SetInterspersed(false)
}

package qcmd

import (
	"context"
	"fmt"
)

// WithPTY manages a pseudo-terminal session with automatic cleanup.
//
// It allocates a master, starts argv on its slave side and calls fn with the
// running child. When fn returns, the master is closed, a child that is
// still running is killed, and the child is reaped. fn's error is returned
// to the caller; cleanup failures are logged.
//
// Example usage:
//
//	err := qcmd.WithPTY(ctx, []string{"top", "-b", "-n", "1"}, func(c *qcmd.ChildProcess) error {
//	    _, err := qcmd.Stream(ctx, c, func(buf []byte, n int, _ *qcmd.ChildProcess) {
//	        if n > 0 {
//	            os.Stdout.Write(buf)
//	        }
//	    })
//	    return err
//	},
//	    qcmd.WithLogger(log),
//	)
func WithPTY(
	ctx context.Context,
	argv []string,
	fn func(*ChildProcess) error,
	opts ...Option,
) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	r := New(opts...)

	master, err := OpenPTY()
	if err != nil {
		return fmt.Errorf("failed to open pty: %w", err)
	}

	child, err := r.StartPTY(ctx, master, &Winsize{Rows: 24, Cols: 80}, argv)
	if err != nil {
		if closeErr := master.Close(); closeErr != nil {
			r.log.Warn("failed to close pty master", "error", closeErr)
		}

		return fmt.Errorf("failed to start pty session: %w", err)
	}

	defer func() {
		if closeErr := child.Close(); closeErr != nil {
			r.log.Warn("failed to close pty master", "error", closeErr)
		}

		if child.Alive() {
			if killErr := child.Kill(); killErr != nil {
				r.log.Warn("failed to kill pty child", "pid", child.Pid, "error", killErr)
			}
		}

		if waitErr := child.Wait(); waitErr != nil {
			r.log.Debug("pty child exited with error", "pid", child.Pid, "error", waitErr)
		}
	}()

	return fn(child)
}

package qcmd

import (
	"context"
	"os"
	"time"
)

// Launch starts cmdline with piped standard input and output.
// See Runner.Launch.
func Launch(ctx context.Context, cmdline string, opts ...Option) (*ChildProcess, error) {
	return New(opts...).Launch(ctx, cmdline)
}

// Stream delivers child's output to cb until EOF. See Runner.Stream.
func Stream(ctx context.Context, child *ChildProcess, cb Callback, opts ...Option) (int64, error) {
	return New(opts...).Stream(ctx, child, cb)
}

// Command runs cmdline and streams its output to cb. It returns the number
// of bytes delivered.
//
// Example:
//
//	total, err := qcmd.Command(ctx, "ls -l", func(buf []byte, n int, _ *qcmd.ChildProcess) {
//	    if n > 0 {
//	        os.Stdout.Write(buf)
//	    }
//	})
func Command(ctx context.Context, cmdline string, cb Callback, opts ...Option) (int64, error) {
	return New(opts...).Command(ctx, cmdline, cb)
}

// Commandf formats a command line and runs it with default options. The
// variadic arguments belong to format; to run with options, build a Runner
// and call Runner.Commandf:
//
//	qcmd.New(qcmd.WithShell("/bin/bash")).Commandf(ctx, cb, "ls %s", dir)
func Commandf(ctx context.Context, cb Callback, format string, args ...any) (int64, error) {
	return New().Commandf(ctx, cb, format, args...)
}

// TCommand runs cmdline under a supervision timer. See Runner.TCommand.
func TCommand(
	ctx context.Context,
	cmdline string,
	cb Callback,
	fin Finalizer,
	interval time.Duration,
	opts ...Option,
) (*Execution, error) {
	return New(opts...).TCommand(ctx, cmdline, cb, fin, interval)
}

// TCommandf formats a command line and runs it with TCommand and default
// options. Use Runner.TCommandf to run with options.
func TCommandf(
	ctx context.Context,
	cb Callback,
	fin Finalizer,
	interval time.Duration,
	format string,
	args ...any,
) (*Execution, error) {
	return New().TCommandf(ctx, cb, fin, interval, format, args...)
}

// ETCommand runs cmdline under a supervision timer and reports termination
// through cb. See Runner.ETCommand.
func ETCommand(ctx context.Context, cmdline string, cb Callback, opts ...Option) (*Execution, error) {
	return New(opts...).ETCommand(ctx, cmdline, cb)
}

// ETCommandf formats a command line and runs it with ETCommand and default
// options. Use Runner.ETCommandf to run with options.
func ETCommandf(ctx context.Context, cb Callback, format string, args ...any) (*Execution, error) {
	return New().ETCommandf(ctx, cb, format, args...)
}

// StartPTY runs argv on the slave side of master. See Runner.StartPTY.
func StartPTY(
	ctx context.Context,
	master *os.File,
	size *Winsize,
	argv []string,
	opts ...Option,
) (*ChildProcess, error) {
	return New(opts...).StartPTY(ctx, master, size, argv)
}

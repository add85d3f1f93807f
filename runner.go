package qcmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/wagiedev/qcmd-go/internal/launcher"
	"github.com/wagiedev/qcmd-go/internal/metrics"
	"github.com/wagiedev/qcmd-go/internal/ptysession"
	"github.com/wagiedev/qcmd-go/internal/stream"
	"github.com/wagiedev/qcmd-go/internal/timed"
)

// DefaultRegistry is the process-wide registry of raw-mode terminals used
// when WithRegistry is not given.
var DefaultRegistry = ptysession.NewRegistry(NopLogger())

// Runner executes commands with a fixed set of options. It is safe for
// concurrent use.
type Runner struct {
	log  *slog.Logger
	opts *runnerOptions
	pty  *ptysession.Manager
}

// New creates a Runner.
func New(opts ...Option) *Runner {
	o := applyRunnerDefaults(opts)

	return &Runner{
		log:  o.Logger.With("component", "runner"),
		opts: o,
		pty:  ptysession.NewManager(o.Logger, o.registry, o.Metrics),
	}
}

func applyRunnerDefaults(opts []Option) *runnerOptions {
	o := applyOptions(opts)
	if o.registry == nil {
		o.registry = DefaultRegistry
	}

	return o
}

// Format builds a command line with fmt.Sprintf and rejects results longer
// than MaxCommandLength.
func Format(format string, args ...any) (string, error) {
	cmdline := fmt.Sprintf(format, args...)
	if len(cmdline) > MaxCommandLength {
		return "", fmt.Errorf("%w: %d bytes, limit %d", ErrCommandTooLong, len(cmdline), MaxCommandLength)
	}

	return cmdline, nil
}

// Launch starts cmdline through the configured shell with piped standard
// input and output. The caller must close the child's descriptors (Stream
// does this) and reap it with Wait. ctx is only checked before launching;
// the child is not tied to it.
func (r *Runner) Launch(ctx context.Context, cmdline string) (*ChildProcess, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	child, err := launcher.Launch(r.opts.Logger, r.opts.Shell, cmdline)
	if err != nil {
		r.opts.Metrics.SpawnFailed(metrics.ModePipe)

		return nil, err
	}

	rec := r.opts.Metrics
	child.Mode = metrics.ModePipe
	child.OnDone(func() { rec.Finished(metrics.ModePipe) })
	rec.Started(metrics.ModePipe)

	return child, nil
}

// Stream reads child's output until EOF, delivering it to cb, and returns
// the number of bytes delivered. Both descriptors are closed on return; the
// child is not reaped.
func (r *Runner) Stream(ctx context.Context, child *ChildProcess, cb Callback) (int64, error) {
	start := time.Now()
	total, err := stream.Stream(ctx, r.opts.Logger, child, r.opts.ReadBufferSize, cb)

	mode := child.Mode
	if mode == "" {
		mode = metrics.ModePipe
	}

	r.opts.Metrics.Streamed(mode, total, time.Since(start))

	return total, err
}

// Command launches cmdline, streams its output to cb and reaps it.
//
// The callback sees the started framing first, then the output, then the
// EOF framing. Cancelling ctx kills the child and returns ctx.Err().
func (r *Runner) Command(ctx context.Context, cmdline string, cb Callback) (int64, error) {
	child, err := r.Launch(ctx, cmdline)
	if err != nil {
		return 0, err
	}

	total, err := r.Stream(ctx, child, cb)

	if err != nil {
		if kerr := child.Kill(); kerr != nil {
			r.log.Warn("Failed to kill child", "pid", child.Pid, "error", kerr)
		}
	}

	if werr := child.Wait(); werr != nil {
		r.log.Debug("Child exited with error", "pid", child.Pid, "error", werr)
	}

	return total, err
}

// Commandf formats a command line and runs it with Command.
func (r *Runner) Commandf(ctx context.Context, cb Callback, format string, args ...any) (int64, error) {
	cmdline, err := Format(format, args...)
	if err != nil {
		return 0, err
	}

	return r.Command(ctx, cmdline, cb)
}

// TCommand runs cmdline on a background worker. The supervision timer first
// fires after interval and then every repeat interval; fin is called once
// the output has ended. cb receives output chunks only.
func (r *Runner) TCommand(
	ctx context.Context,
	cmdline string,
	cb Callback,
	fin Finalizer,
	interval time.Duration,
) (*Execution, error) {
	cfg := r.opts.Options
	cfg.FirstInterval = interval

	return timed.Start(ctx, &cfg, cmdline, cb, fin)
}

// TCommandf formats a command line and runs it with TCommand.
func (r *Runner) TCommandf(
	ctx context.Context,
	cb Callback,
	fin Finalizer,
	interval time.Duration,
	format string,
	args ...any,
) (*Execution, error) {
	cmdline, err := Format(format, args...)
	if err != nil {
		return nil, err
	}

	return r.TCommand(ctx, cmdline, cb, fin, interval)
}

// ETCommand runs cmdline like TCommand with the configured first interval
// (DefaultInterval unless WithFirstInterval is used) and EasyFinalizer(cb).
func (r *Runner) ETCommand(ctx context.Context, cmdline string, cb Callback) (*Execution, error) {
	return r.TCommand(ctx, cmdline, cb, EasyFinalizer(cb), r.opts.FirstInterval)
}

// ETCommandf formats a command line and runs it with ETCommand.
func (r *Runner) ETCommandf(ctx context.Context, cb Callback, format string, args ...any) (*Execution, error) {
	cmdline, err := Format(format, args...)
	if err != nil {
		return nil, err
	}

	return r.ETCommand(ctx, cmdline, cb)
}

// StartPTY runs argv in a new session on the slave side of master. See
// OpenPTY for allocating a master.
func (r *Runner) StartPTY(ctx context.Context, master *os.File, size *Winsize, argv []string) (*ChildProcess, error) {
	return r.pty.Start(ctx, master, size, argv)
}

// Registry returns the registry tracking this runner's raw-mode terminals.
func (r *Runner) Registry() *Registry {
	return r.pty.Registry()
}

// OpenPTY allocates a pseudo-terminal and returns its master side.
func OpenPTY() (*os.File, error) {
	return ptysession.OpenMaster()
}

// NewRegistry creates an empty Registry for use with WithRegistry.
func NewRegistry(log *slog.Logger) *Registry {
	if log == nil {
		log = NopLogger()
	}

	return ptysession.NewRegistry(log)
}

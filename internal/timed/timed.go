package timed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/oklog/ulid/v2"
	"golang.org/x/sync/errgroup"

	"github.com/wagiedev/qcmd-go/internal/config"
	qerrors "github.com/wagiedev/qcmd-go/internal/errors"
	"github.com/wagiedev/qcmd-go/internal/launcher"
	"github.com/wagiedev/qcmd-go/internal/metrics"
	"github.com/wagiedev/qcmd-go/internal/stream"
)

// pidUnknown marks an execution whose start has not been observed yet.
// Zero is reserved for "output ended".
const pidUnknown = -1

// Finalizer is called once per Execution after its output has ended.
type Finalizer func(e *Execution)

// EasyFinalizer returns a Finalizer that tells cb the execution terminated
// by calling it with a negative length and no child.
func EasyFinalizer(cb stream.Callback) Finalizer {
	return func(*Execution) {
		cb(nil, stream.Started, nil)
	}
}

// request is the submitted work. The worker drops it when it finishes.
type request struct {
	cmdline  string
	callback stream.Callback
}

// Execution is a command running under supervision.
type Execution struct {
	id        string
	log       *slog.Logger
	cfg       *config.Options
	child     *launcher.ChildProcess
	finalizer Finalizer
	req       *request
	eg        *errgroup.Group

	mu      sync.Mutex
	livePid int

	total     atomic.Int64
	finalized chan struct{}
}

// Start launches cmdline and supervises it.
//
// cfg must have been filled with config.Options.WithDefaults. A nil
// callback or finalizer returns *errors.StateInitError; a non-positive
// interval returns *errors.TimerError. Launch failures are returned as is
// and no callback is invoked.
//
// cb receives only output chunks; the start and EOF framings are consumed
// by the supervisor. ctx bounds the whole execution: a command that never
// exits is only stopped by cancelling it. Cancelling after the output has
// ended still finalizes.
func Start(
	ctx context.Context,
	cfg *config.Options,
	cmdline string,
	cb stream.Callback,
	fin Finalizer,
) (*Execution, error) {
	if err := validate(cfg, cb, fin); err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	id := ulid.Make().String()
	log := cfg.Logger.With("component", "timed", "execution_id", id)

	child, err := launcher.Launch(log, cfg.Shell, cmdline)
	if err != nil {
		cfg.Metrics.SpawnFailed(metrics.ModeTimed)

		return nil, fmt.Errorf("launch: %w", err)
	}

	rec := cfg.Metrics
	child.Mode = metrics.ModeTimed
	child.OnDone(func() { rec.Finished(metrics.ModeTimed) })
	rec.Started(metrics.ModeTimed)

	e := &Execution{
		id:        id,
		log:       log,
		cfg:       cfg,
		child:     child,
		finalizer: fin,
		req:       &request{cmdline: cmdline, callback: cb},
		livePid:   pidUnknown,
		finalized: make(chan struct{}),
	}

	eg, gctx := errgroup.WithContext(ctx)
	e.eg = eg

	eg.Go(func() error { return e.work(gctx) })
	eg.Go(func() error { return e.supervise(gctx) })

	log.Debug("Timed execution submitted",
		"pid", child.Pid,
		"first_interval", cfg.FirstInterval,
		"repeat_interval", cfg.RepeatInterval,
	)

	return e, nil
}

func validate(cfg *config.Options, cb stream.Callback, fin Finalizer) error {
	switch {
	case cfg == nil:
		return &qerrors.StateInitError{Reason: "nil options"}
	case cb == nil:
		return &qerrors.StateInitError{Reason: "nil callback"}
	case fin == nil:
		return &qerrors.StateInitError{Reason: "nil finalizer"}
	case cfg.FirstInterval <= 0:
		return &qerrors.TimerError{
			Interval: "first",
			Err:      fmt.Errorf("non-positive interval %s", cfg.FirstInterval),
		}
	case cfg.RepeatInterval <= 0:
		return &qerrors.TimerError{
			Interval: "repeat",
			Err:      fmt.Errorf("non-positive interval %s", cfg.RepeatInterval),
		}
	}

	return nil
}

// work streams the child's output, then reaps the child.
func (e *Execution) work(ctx context.Context) error {
	start := time.Now()

	defer e.release()

	total, err := stream.Stream(ctx, e.log, e.child, e.cfg.ReadBufferSize, e.intercept)
	e.cfg.Metrics.Streamed(metrics.ModeTimed, total, time.Since(start))

	if err != nil && ctx.Err() == nil {
		// The reader gave up; stop the child so it can be reaped.
		if kerr := e.child.Kill(); kerr != nil {
			e.log.Warn("Failed to kill child after read error", "error", kerr)
		}
	}

	werr := e.child.Wait()
	e.log.Debug("Timed execution worker finished",
		"total", total,
		"exit_code", e.child.ExitCode(),
		"wait_error", werr,
	)

	return err
}

// release drops the submitted request once the worker is done with it.
func (e *Execution) release() {
	e.req = nil
}

// intercept consumes the start and EOF framings and forwards output.
func (e *Execution) intercept(buf []byte, n int, child *launcher.ChildProcess) {
	switch {
	case n < 0:
		e.mu.Lock()
		e.livePid = child.Pid
		e.mu.Unlock()

	case n == 0:
		e.mu.Lock()
		e.livePid = 0
		e.mu.Unlock()

	default:
		e.total.Add(int64(n))
		e.req.callback(buf, n, child)
	}
}

// supervise runs the liveness timer and fires the finalizer.
func (e *Execution) supervise(ctx context.Context) error {
	timer := time.NewTimer(e.cfg.FirstInterval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			// Output already ended: the command completed, so it still
			// gets its single finalization.
			if e.outputEnded() {
				e.finalize()

				return nil
			}

			e.log.Debug("Timed execution cancelled", "error", ctx.Err())

			if err := e.child.Kill(); err != nil && !errors.Is(err, qerrors.ErrNotStarted) {
				e.log.Warn("Failed to kill child on cancel", "error", err)
			}

			return ctx.Err()

		case <-timer.C:
			e.cfg.Metrics.TimerFired()

			if !e.outputEnded() {
				timer.Reset(e.cfg.RepeatInterval)

				continue
			}

			e.finalize()

			return nil
		}
	}
}

func (e *Execution) finalize() {
	e.log.Debug("Output ended, finalizing")
	e.cfg.Metrics.Finalized()
	e.finalizer(e)
	close(e.finalized)
}

func (e *Execution) outputEnded() bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.livePid == 0
}

// ID returns the execution's unique identifier.
func (e *Execution) ID() string {
	return e.id
}

// Pid returns the child's process id.
func (e *Execution) Pid() int {
	return e.child.Pid
}

// Running reports whether the execution's output has not ended yet.
func (e *Execution) Running() bool {
	return !e.outputEnded()
}

// Total returns the number of output bytes delivered so far.
func (e *Execution) Total() int64 {
	return e.total.Load()
}

// ExitCode returns the child's exit code once it has been reaped, or -1.
func (e *Execution) ExitCode() int {
	return e.child.ExitCode()
}

// Finalized is closed after the finalizer has returned.
func (e *Execution) Finalized() <-chan struct{} {
	return e.finalized
}

// Wait blocks until the worker and the supervisor have both stopped and
// returns the first error either reported.
func (e *Execution) Wait() error {
	return e.eg.Wait()
}

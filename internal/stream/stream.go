// Package stream drives the read loop over a child's output descriptor.
//
// Output is delivered through a Callback using length framing: a negative
// length announces that the process started, a zero length announces EOF,
// and a positive length carries that many bytes of output.
package stream

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"syscall"
	"time"

	"golang.org/x/sys/unix"

	qerrors "github.com/wagiedev/qcmd-go/internal/errors"
	"github.com/wagiedev/qcmd-go/internal/launcher"
)

// Framing values passed as the length argument of a Callback.
const (
	// Started is delivered once, before any output.
	Started = -1
	// EOF is delivered once, after the last output chunk.
	EOF = 0
)

// Callback receives child output. buf is only valid for the duration of
// the call. For the Started and EOF framings buf is empty; child is always
// the process being read.
type Callback func(buf []byte, n int, child *launcher.ChildProcess)

// Stream reads child.Out until EOF and delivers every chunk to cb.
//
// The descriptor is switched to non-blocking mode and each read waits on the
// runtime poller with no timeout. Transient EAGAIN results wait again
// silently. EIO, which a pty master returns once its slave hangs up, is
// treated as EOF. Any other failure returns *errors.ReadError.
//
// Cancelling ctx interrupts the wait: Stream then returns ctx.Err() and the
// EOF framing is not delivered.
//
// On return both of the child's descriptors are closed and the child is
// probed with signal 0. The child is never reaped here.
func Stream(
	ctx context.Context,
	log *slog.Logger,
	child *launcher.ChildProcess,
	bufSize int,
	cb Callback,
) (int64, error) {
	log = log.With("component", "stream", "pid", child.Pid)

	defer func() {
		if err := child.Close(); err != nil {
			log.Debug("Failed to close child descriptors", "error", err)
		}

		log.Debug("Liveness probe after stream end", "alive", child.Alive())
	}()

	rc, err := child.Out.SyscallConn()
	if err != nil {
		return 0, &qerrors.ReadError{Pid: child.Pid, Err: err}
	}

	if err := setNonblock(rc); err != nil {
		return 0, &qerrors.ReadError{Pid: child.Pid, Err: err}
	}

	cb(nil, Started, child)

	stop := context.AfterFunc(ctx, func() {
		_ = child.Out.SetReadDeadline(time.Now())
	})
	defer stop()

	buf := make([]byte, bufSize)

	var total int64

	for {
		n, err := readOnce(rc, buf)

		switch {
		case err == nil && n > 0:
			cb(buf[:n], n, child)
			total += int64(n)

		case err == nil, errors.Is(err, unix.EIO):
			log.Debug("Child output reached EOF", "total", total)
			cb(nil, EOF, child)

			return total, nil

		case errors.Is(err, unix.EINTR):
			continue

		case ctx.Err() != nil && errors.Is(err, os.ErrDeadlineExceeded):
			log.Debug("Stream cancelled", "total", total, "error", ctx.Err())

			return total, ctx.Err()

		default:
			log.Error("Failed to read child output", "total", total, "error", err)

			return total, &qerrors.ReadError{Pid: child.Pid, Total: total, Err: err}
		}
	}
}

func setNonblock(rc syscall.RawConn) error {
	var nbErr error

	if err := rc.Control(func(fd uintptr) {
		nbErr = unix.SetNonblock(int(fd), true)
	}); err != nil {
		return err
	}

	return nbErr
}

// readOnce performs one read, parking on the poller while the descriptor
// has nothing to offer.
func readOnce(rc syscall.RawConn, buf []byte) (int, error) {
	var (
		n    int
		rerr error
	)

	err := rc.Read(func(fd uintptr) bool {
		n, rerr = unix.Read(int(fd), buf)

		return !errors.Is(rerr, unix.EAGAIN)
	})
	if err != nil {
		return 0, err
	}

	if rerr != nil {
		return 0, rerr
	}

	return n, nil
}

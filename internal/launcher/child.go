package launcher

import (
	"errors"
	"os"
	"os/exec"
	"sync"
	"sync/atomic"

	"golang.org/x/sys/unix"

	qerrors "github.com/wagiedev/qcmd-go/internal/errors"
)

// ChildProcess is a running child and the parent's ends of its I/O.
// In and Out may be the same file (pty mode).
type ChildProcess struct {
	Pid int
	In  *os.File
	Out *os.File

	// Mode labels the child for metrics. It is set by whoever starts it.
	Mode string

	cmd *exec.Cmd

	waitOnce sync.Once
	waitErr  error
	state    atomic.Pointer[os.ProcessState]

	done func()

	closeOnce sync.Once
	closeErr  error
}

// New wraps a started command and its I/O files.
func New(cmd *exec.Cmd, in, out *os.File) *ChildProcess {
	c := &ChildProcess{
		In:  in,
		Out: out,
		cmd: cmd,
	}

	if cmd != nil && cmd.Process != nil {
		c.Pid = cmd.Process.Pid
	}

	return c
}

// Wait reaps the child. It is safe to call more than once and from
// several goroutines; every call returns the first result.
func (c *ChildProcess) Wait() error {
	c.waitOnce.Do(func() {
		if c.cmd == nil || c.cmd.Process == nil {
			c.waitErr = qerrors.ErrNotStarted

			return
		}

		c.waitErr = c.cmd.Wait()
		if c.cmd.ProcessState != nil {
			c.state.Store(c.cmd.ProcessState)
		}

		c.finish()
	})

	return c.waitErr
}

// ExitCode returns the exit code of a reaped child, or -1. It is safe to
// call while another goroutine is in Wait.
func (c *ChildProcess) ExitCode() int {
	if ps := c.state.Load(); ps != nil {
		return ps.ExitCode()
	}

	return -1
}

// OnDone registers fn to run once, the first time the child's descriptors
// are closed or the child is reaped. It must be called before the child is
// shared with other goroutines.
func (c *ChildProcess) OnDone(fn func()) {
	c.done = sync.OnceFunc(fn)
}

func (c *ChildProcess) finish() {
	if c.done != nil {
		c.done()
	}
}

// Kill sends SIGKILL to the child. Killing an already reaped child is not
// an error.
func (c *ChildProcess) Kill() error {
	if c.cmd == nil || c.cmd.Process == nil {
		return qerrors.ErrNotStarted
	}

	if err := c.cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return err
	}

	return nil
}

// Alive probes the child with signal 0. It never reaps, so an exited but
// unreaped child still reports true.
func (c *ChildProcess) Alive() bool {
	if c.Pid <= 0 {
		return false
	}

	err := unix.Kill(c.Pid, 0)

	return err == nil || errors.Is(err, unix.EPERM)
}

// Close closes the parent's descriptors once. A shared In/Out file is
// closed a single time.
func (c *ChildProcess) Close() error {
	c.closeOnce.Do(func() {
		var errs []error

		if c.In != nil {
			if err := c.In.Close(); err != nil {
				errs = append(errs, err)
			}
		}

		if c.Out != nil && c.Out != c.In {
			if err := c.Out.Close(); err != nil {
				errs = append(errs, err)
			}
		}

		c.closeErr = errors.Join(errs...)
		c.finish()
	})

	return c.closeErr
}

package ptysession

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"syscall"

	"github.com/creack/pty"
	"golang.org/x/sys/unix"

	qerrors "github.com/wagiedev/qcmd-go/internal/errors"
	"github.com/wagiedev/qcmd-go/internal/launcher"
	"github.com/wagiedev/qcmd-go/internal/metrics"
)

// slaveOpenFailureStatus is reported when the slave device cannot be opened.
const slaveOpenFailureStatus = 1

// Manager starts programs on pseudo-terminals.
type Manager struct {
	log      *slog.Logger
	registry *Registry
	metrics  *metrics.Recorder
}

// NewManager creates a Manager that records raw-mode terminals in registry.
// rec may be nil.
func NewManager(log *slog.Logger, registry *Registry, rec *metrics.Recorder) *Manager {
	return &Manager{
		log:      log.With("component", "pty_session"),
		registry: registry,
		metrics:  rec,
	}
}

// Registry returns the registry holding this manager's raw-mode terminals.
func (m *Manager) Registry() *Registry {
	return m.registry
}

// OpenMaster allocates a new pseudo-terminal and returns its master side.
func OpenMaster() (*os.File, error) {
	master, slave, err := pty.Open()
	if err != nil {
		return nil, &qerrors.SpawnError{Op: "open pty", Err: err}
	}

	// The pair stays allocated while the master is open.
	_ = slave.Close()

	return master, nil
}

// Start runs argv in a new session whose controlling terminal is the slave
// side of master. argv[0] is looked up in PATH. size, if non-nil, is
// applied to the slave before the program starts.
//
// The returned ChildProcess uses master for both input and output; the
// caller keeps ownership of master. ctx bounds the lifetime of the program.
//
// A slave that cannot be opened returns *errors.ExecError. Failures to set
// the window size or non-blocking mode are logged and do not abort.
func (m *Manager) Start(
	ctx context.Context,
	master *os.File,
	size *pty.Winsize,
	argv []string,
) (*launcher.ChildProcess, error) {
	if len(argv) == 0 {
		return nil, qerrors.ErrEmptyArgv
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	slave, err := m.openSlave(master)
	if err != nil {
		m.metrics.SpawnFailed(metrics.ModePTY)

		return nil, err
	}

	if size != nil {
		if err := pty.Setsize(slave, size); err != nil {
			m.log.Warn("Failed to set window size", "error", err)
		}
	}

	if err := m.registry.Register(slave); err != nil {
		m.log.Warn("Failed to switch terminal to raw mode", "error", err)
	}

	//nolint:gosec // G204: running caller-supplied programs is the purpose of this package
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Stdin = slave
	cmd.Stdout = slave
	cmd.Stderr = slave
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setsid:  true,
		Setctty: true,
	}

	if err := cmd.Start(); err != nil {
		m.log.Error("Failed to start pty program", "program", argv[0], "error", err)
		m.metrics.SpawnFailed(metrics.ModePTY)

		if rerr := m.registry.Restore(slave); rerr != nil {
			m.log.Warn("Failed to restore terminal", "error", rerr)
		}

		return nil, launcher.StartError(argv[0], err)
	}

	// Starting the command resets the slave to blocking mode, so the
	// flag is applied afterwards.
	if err := setNonblock(slave); err != nil {
		m.log.Warn("Failed to set slave non-blocking", "error", err)
	}

	rec := m.metrics
	child := launcher.New(cmd, master, master)
	child.Mode = metrics.ModePTY
	child.OnDone(func() { rec.Finished(metrics.ModePTY) })
	rec.Started(metrics.ModePTY)
	m.log.Debug("Started pty program", "pid", child.Pid, "program", argv[0], "slave", slave.Name())

	go m.watch(child, slave)

	return child, nil
}

// watch reaps child and then restores and closes its slave. Closing the
// last slave descriptor lets readers of the master observe EOF.
func (m *Manager) watch(child *launcher.ChildProcess, slave *os.File) {
	err := child.Wait()
	m.log.Debug("Pty program exited", "pid", child.Pid, "exit_code", child.ExitCode(), "error", err)

	if err := m.registry.Restore(slave); err != nil {
		m.log.Warn("Failed to restore terminal", "pid", child.Pid, "error", err)
	}
}

func (m *Manager) openSlave(master *os.File) (*os.File, error) {
	name, err := ptsname(master)
	if err != nil {
		m.log.Error("Failed to resolve slave pty", "error", err)

		return nil, &qerrors.ExecError{Path: master.Name(), ExitStatus: slaveOpenFailureStatus, Err: err}
	}

	slave, err := os.OpenFile(name, os.O_RDWR|unix.O_NOCTTY, 0)
	if err != nil {
		m.log.Error("Failed to open slave pty", "name", name, "error", err)

		return nil, &qerrors.ExecError{
			Path:       name,
			ExitStatus: slaveOpenFailureStatus,
			Err:        fmt.Errorf("open slave pty: %w", err),
		}
	}

	return slave, nil
}

func setNonblock(f *os.File) error {
	fd, err := fdOf(f)
	if err != nil {
		return err
	}

	return unix.SetNonblock(fd, true)
}

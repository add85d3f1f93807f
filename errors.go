package qcmd

import "github.com/wagiedev/qcmd-go/internal/errors"

// Re-export error types from internal package

// SpawnError indicates pipe or process creation failed.
type SpawnError = errors.SpawnError

// ExecError indicates the target program could not be executed.
type ExecError = errors.ExecError

// ReadError indicates a non-transient failure reading child output.
type ReadError = errors.ReadError

// StateInitError indicates a timed execution could not be set up.
type StateInitError = errors.StateInitError

// TimerError indicates the supervision timer could not be armed.
type TimerError = errors.TimerError

// QcmdError is the base interface for all qcmd errors.
type QcmdError = errors.QcmdError

// ExecFailureStatus is the status reported when a program cannot be executed.
const ExecFailureStatus = errors.ExecFailureStatus

// Re-export sentinel errors from internal package.
var (
	// ErrCommandTooLong indicates a formatted command exceeds MaxCommandLength.
	ErrCommandTooLong = errors.ErrCommandTooLong

	// ErrEmptyArgv indicates a pty session was requested without a program.
	ErrEmptyArgv = errors.ErrEmptyArgv

	// ErrNotStarted indicates the child process was never started.
	ErrNotStarted = errors.ErrNotStarted
)

package errors

import (
	"errors"
	"fmt"
)

// ExecFailureStatus is the exit status reported when the command interpreter
// could not be executed.
const ExecFailureStatus = 99

// QcmdError is the base interface for all qcmd errors.
type QcmdError interface {
	error
	IsQcmdError() bool
}

// Compile-time verification that all error types implement QcmdError.
var (
	_ QcmdError = (*SpawnError)(nil)
	_ QcmdError = (*ExecError)(nil)
	_ QcmdError = (*ReadError)(nil)
	_ QcmdError = (*StateInitError)(nil)
	_ QcmdError = (*TimerError)(nil)
)

// Sentinel errors for commonly checked conditions.
var (
	// ErrCommandTooLong indicates a formatted command exceeds MaxCommandLength.
	ErrCommandTooLong = errors.New("command too long")

	// ErrEmptyArgv indicates a pty session was requested without a program.
	ErrEmptyArgv = errors.New("empty argument vector")

	// ErrNotStarted indicates the child process was never started.
	ErrNotStarted = errors.New("process not started")
)

// SpawnError indicates pipe creation or process creation failed.
type SpawnError struct {
	Op  string
	Err error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("spawn failed (%s): %v", e.Op, e.Err)
}

func (e *SpawnError) Unwrap() error {
	return e.Err
}

// IsQcmdError implements QcmdError.
func (e *SpawnError) IsQcmdError() bool { return true }

// ExecError indicates the target program could not be executed.
type ExecError struct {
	Path       string
	ExitStatus int
	Err        error
}

func (e *ExecError) Error() string {
	return fmt.Sprintf("exec %s failed (status %d): %v", e.Path, e.ExitStatus, e.Err)
}

func (e *ExecError) Unwrap() error {
	return e.Err
}

// IsQcmdError implements QcmdError.
func (e *ExecError) IsQcmdError() bool { return true }

// ReadError indicates a non-transient failure reading child output.
// Total holds the bytes delivered before the failure.
type ReadError struct {
	Pid   int
	Total int64
	Err   error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("read from pid %d failed after %d bytes: %v", e.Pid, e.Total, e.Err)
}

func (e *ReadError) Unwrap() error {
	return e.Err
}

// IsQcmdError implements QcmdError.
func (e *ReadError) IsQcmdError() bool { return true }

// StateInitError indicates the shared state of a timed execution could not
// be initialized. The execution was not submitted.
type StateInitError struct {
	Reason string
}

func (e *StateInitError) Error() string {
	return "execution state init failed: " + e.Reason
}

// IsQcmdError implements QcmdError.
func (e *StateInitError) IsQcmdError() bool { return true }

// TimerError indicates the supervision timer could not be armed.
type TimerError struct {
	Interval string
	Err      error
}

func (e *TimerError) Error() string {
	return fmt.Sprintf("timer %s: %v", e.Interval, e.Err)
}

func (e *TimerError) Unwrap() error {
	return e.Err
}

// IsQcmdError implements QcmdError.
func (e *TimerError) IsQcmdError() bool { return true }

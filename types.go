package qcmd

import (
	"github.com/creack/pty"

	"github.com/wagiedev/qcmd-go/internal/config"
	"github.com/wagiedev/qcmd-go/internal/launcher"
	"github.com/wagiedev/qcmd-go/internal/ptysession"
	"github.com/wagiedev/qcmd-go/internal/stream"
	"github.com/wagiedev/qcmd-go/internal/timed"
)

// ChildProcess is a running child and the parent's ends of its standard
// input and output.
type ChildProcess = launcher.ChildProcess

// Callback receives child output using length framing. buf is only valid
// for the duration of the call.
type Callback = stream.Callback

// Execution is a command running under a supervision timer.
type Execution = timed.Execution

// Finalizer is called once per Execution after its output has ended.
type Finalizer = timed.Finalizer

// Registry tracks terminals placed in raw mode so they can be restored.
type Registry = ptysession.Registry

// Winsize is a terminal window size.
type Winsize = pty.Winsize

// Framing values passed as the length argument of a Callback.
const (
	// LenStarted announces that the process started.
	LenStarted = stream.Started
	// LenEOF announces that the output ended.
	LenEOF = stream.EOF
)

const (
	// MaxCommandLength bounds the length of a formatted command line.
	MaxCommandLength = config.MaxCommandLength

	// DefaultInterval is the first liveness check delay of ETCommand.
	DefaultInterval = config.DefaultFirstInterval
)

// EasyFinalizer returns a Finalizer that calls cb with a negative length
// and a nil child, meaning "terminated, no process handle".
func EasyFinalizer(cb Callback) Finalizer {
	return timed.EasyFinalizer(cb)
}

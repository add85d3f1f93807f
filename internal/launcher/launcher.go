package launcher

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"os/exec"

	"golang.org/x/sys/unix"

	qerrors "github.com/wagiedev/qcmd-go/internal/errors"
)

// osPipe is replaced in tests to simulate descriptor exhaustion.
var osPipe = os.Pipe

// Launch runs "<shell> -c <cmdline>" with its standard input and output
// connected to fresh pipes. Standard error and the environment are
// inherited.
//
// Pipe and process creation failures return *errors.SpawnError. A shell
// that cannot be executed returns *errors.ExecError with
// ExitStatus == errors.ExecFailureStatus.
func Launch(log *slog.Logger, shell, cmdline string) (*ChildProcess, error) {
	log = log.With("component", "launcher")

	inR, inW, err := osPipe()
	if err != nil {
		log.Error("Failed to create stdin pipe", "error", err)

		return nil, &qerrors.SpawnError{Op: "stdin pipe", Err: err}
	}

	outR, outW, err := osPipe()
	if err != nil {
		log.Error("Failed to create stdout pipe", "error", err)
		closeFiles(inR, inW)

		return nil, &qerrors.SpawnError{Op: "stdout pipe", Err: err}
	}

	//nolint:gosec // G204: running caller-supplied command lines is the purpose of this package
	cmd := exec.Command(shell, "-c", cmdline)
	cmd.Stdin = inR
	cmd.Stdout = outW
	cmd.Stderr = os.Stderr

	if err := cmd.Start(); err != nil {
		closeFiles(inR, inW, outR, outW)
		log.Error("Failed to start process", "shell", shell, "error", err)

		return nil, StartError(shell, err)
	}

	// The child holds its own copies; the parent keeps only its ends.
	closeFiles(inR, outW)

	child := New(cmd, inW, outR)
	log.Debug("Launched child process", "pid", child.Pid, "shell", shell)

	return child, nil
}

// StartError classifies an exec.Cmd Start failure. A program that could
// not be executed yields *errors.ExecError; anything else, such as a failed
// fork, yields *errors.SpawnError.
func StartError(path string, err error) error {
	if isExecFailure(err) {
		return &qerrors.ExecError{
			Path:       path,
			ExitStatus: qerrors.ExecFailureStatus,
			Err:        err,
		}
	}

	return &qerrors.SpawnError{Op: "start", Err: err}
}

func isExecFailure(err error) bool {
	if errors.Is(err, exec.ErrNotFound) {
		return true
	}

	if _, ok := errors.AsType[*fs.PathError](err); !ok {
		return false
	}

	for _, errno := range []unix.Errno{
		unix.ENOENT, unix.EACCES, unix.ENOEXEC, unix.ENOTDIR, unix.ELOOP, unix.EISDIR,
	} {
		if errors.Is(err, errno) {
			return true
		}
	}

	return false
}

func closeFiles(files ...*os.File) {
	for _, f := range files {
		_ = f.Close()
	}
}

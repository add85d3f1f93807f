package qcmd_test

import (
	"context"
	"errors"
	"io"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	qcmd "github.com/wagiedev/qcmd-go"
)

type event struct {
	n        int
	data     string
	hasChild bool
}

// recorder collects callback invocations.
type recorder struct {
	mu     sync.Mutex
	events []event
}

func (r *recorder) callback(buf []byte, n int, child *qcmd.ChildProcess) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.events = append(r.events, event{n: n, data: string(buf), hasChild: child != nil})
}

func (r *recorder) snapshot() []event {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]event(nil), r.events...)
}

func (r *recorder) output() string {
	var sb strings.Builder

	for _, e := range r.snapshot() {
		if e.n > 0 {
			sb.WriteString(e.data)
		}
	}

	return sb.String()
}

func TestCommand_EchoHello(t *testing.T) {
	rec := &recorder{}

	total, err := qcmd.Command(context.Background(), "echo hello", rec.callback)
	require.NoError(t, err)
	require.Equal(t, int64(6), total)

	events := rec.snapshot()
	require.Len(t, events, 3)

	require.Equal(t, qcmd.LenStarted, events[0].n)
	require.Empty(t, events[0].data)
	require.True(t, events[0].hasChild)

	require.Equal(t, 6, events[1].n)
	require.Equal(t, "hello\n", events[1].data)

	require.Equal(t, qcmd.LenEOF, events[2].n)
	require.Empty(t, events[2].data)
	require.True(t, events[2].hasChild)
}

func TestCommand_SilentCommand(t *testing.T) {
	rec := &recorder{}

	total, err := qcmd.Command(context.Background(), "true", rec.callback)
	require.NoError(t, err)
	require.Zero(t, total)

	events := rec.snapshot()
	require.Len(t, events, 2)
	require.Negative(t, events[0].n)
	require.Zero(t, events[1].n)
}

func TestCommand_TotalMatchesOutput(t *testing.T) {
	rec := &recorder{}

	total, err := qcmd.Command(context.Background(),
		"for i in 1 2 3 4 5; do echo line$i; done", rec.callback,
		qcmd.WithReadBufferSize(4),
	)
	require.NoError(t, err)

	out := rec.output()
	require.Equal(t, "line1\nline2\nline3\nline4\nline5\n", out)
	require.Equal(t, int64(len(out)), total)

	for _, e := range rec.snapshot() {
		require.LessOrEqual(t, e.n, 4)
	}
}

func TestCommand_MissingShell(t *testing.T) {
	rec := &recorder{}

	total, err := qcmd.Command(context.Background(), "echo hello", rec.callback,
		qcmd.WithShell("/nonexistent/qcmd-shell"),
	)
	require.Error(t, err)
	require.Zero(t, total)
	require.Empty(t, rec.snapshot(), "no callback may run when the launch fails")

	execErr, ok := errors.AsType[*qcmd.ExecError](err)
	require.True(t, ok, "expected *ExecError, got %T", err)
	require.Equal(t, qcmd.ExecFailureStatus, execErr.ExitStatus)

	_, ok = errors.AsType[qcmd.QcmdError](err)
	require.True(t, ok)
}

func TestCommand_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rec := &recorder{}

	_, err := qcmd.Command(ctx, "echo hello", rec.callback)
	require.ErrorIs(t, err, context.Canceled)
	require.Empty(t, rec.snapshot())
}

func TestCommand_DeadlineKillsChild(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	rec := &recorder{}
	start := time.Now()

	_, err := qcmd.Command(ctx, "exec sleep 10", rec.callback)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.Less(t, time.Since(start), 5*time.Second)

	events := rec.snapshot()
	require.Len(t, events, 1, "only the started framing is delivered")
	require.Negative(t, events[0].n)
}

func TestCommandf(t *testing.T) {
	rec := &recorder{}

	total, err := qcmd.Commandf(context.Background(), rec.callback, "printf '%s-%d'", "abc", 42)
	require.NoError(t, err)
	require.Equal(t, "abc-42", rec.output())
	require.Equal(t, int64(6), total)
}

func TestCommandf_TooLong(t *testing.T) {
	rec := &recorder{}

	_, err := qcmd.Commandf(context.Background(), rec.callback, "echo %s",
		strings.Repeat("x", qcmd.MaxCommandLength))
	require.ErrorIs(t, err, qcmd.ErrCommandTooLong)
	require.Empty(t, rec.snapshot())
}

func TestFormat(t *testing.T) {
	t.Run("within limit", func(t *testing.T) {
		cmdline, err := qcmd.Format("ls %s", "/tmp")
		require.NoError(t, err)
		require.Equal(t, "ls /tmp", cmdline)
	})

	t.Run("exactly at limit", func(t *testing.T) {
		cmdline, err := qcmd.Format("%s", strings.Repeat("y", qcmd.MaxCommandLength))
		require.NoError(t, err)
		require.Len(t, cmdline, qcmd.MaxCommandLength)
	})

	t.Run("over limit", func(t *testing.T) {
		_, err := qcmd.Format("%s!", strings.Repeat("y", qcmd.MaxCommandLength))
		require.ErrorIs(t, err, qcmd.ErrCommandTooLong)
	})
}

func TestLaunchAndStream(t *testing.T) {
	ctx := context.Background()

	child, err := qcmd.Launch(ctx, "cat")
	require.NoError(t, err)
	require.Positive(t, child.Pid)

	_, err = io.WriteString(child.In, "ping\n")
	require.NoError(t, err)
	require.NoError(t, child.In.Close())

	rec := &recorder{}

	total, err := qcmd.Stream(ctx, child, rec.callback)
	require.NoError(t, err)
	require.Equal(t, int64(5), total)
	require.Equal(t, "ping\n", rec.output())

	require.NoError(t, child.Wait())
	require.Equal(t, 0, child.ExitCode())
}

func TestCommand_SharedRunnerConcurrent(t *testing.T) {
	r := qcmd.New()

	var wg sync.WaitGroup

	results := make([]string, 8)

	for i := range results {
		wg.Go(func() {
			rec := &recorder{}

			_, err := r.Commandf(context.Background(), rec.callback, "echo %d", i)
			if err == nil {
				results[i] = rec.output()
			}
		})
	}

	wg.Wait()

	for i, out := range results {
		require.Equal(t, strconv.Itoa(i)+"\n", out)
	}
}

func TestRunnerFormattedVariants_UseOptions(t *testing.T) {
	r := qcmd.New(
		qcmd.WithShell("/nonexistent/qcmd-shell"),
		qcmd.WithFirstInterval(10*time.Millisecond),
	)
	rec := &recorder{}

	assertExecError := func(t *testing.T, err error) {
		t.Helper()

		execErr, ok := errors.AsType[*qcmd.ExecError](err)
		require.True(t, ok, "expected *ExecError, got %T", err)
		require.Equal(t, "/nonexistent/qcmd-shell", execErr.Path)
	}

	t.Run("Commandf", func(t *testing.T) {
		_, err := r.Commandf(context.Background(), rec.callback, "echo %d", 1)
		assertExecError(t, err)
	})

	t.Run("TCommandf", func(t *testing.T) {
		_, err := r.TCommandf(context.Background(), rec.callback,
			qcmd.EasyFinalizer(rec.callback), 10*time.Millisecond, "echo %d", 2)
		assertExecError(t, err)
	})

	t.Run("ETCommandf", func(t *testing.T) {
		_, err := r.ETCommandf(context.Background(), rec.callback, "echo %d", 3)
		assertExecError(t, err)
	})

	require.Empty(t, rec.snapshot())
}

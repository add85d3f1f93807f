// Package qcmd runs shell commands and pseudo-terminal programs and streams
// their output to a callback.
//
// Output is delivered through a Callback using length framing:
//
//   - n < 0: the process just started; buf is empty and child is valid
//   - n == 0: the output reached EOF; buf is empty
//   - n > 0: buf holds n bytes of output
//
// # Synchronous Commands
//
// Command runs a command line through /bin/sh and blocks until its output
// ends:
//
//	total, err := qcmd.Command(ctx, "ls -la", func(buf []byte, n int, child *qcmd.ChildProcess) {
//	    if n > 0 {
//	        os.Stdout.Write(buf)
//	    }
//	})
//
// # Timed Commands
//
// TCommand runs a command on a background worker and supervises it with a
// timer. The finalizer fires exactly once, after the output has ended:
//
//	ctx, cancel := context.WithTimeout(ctx, time.Minute)
//	defer cancel()
//
//	exec, err := qcmd.TCommand(ctx, "make test", onOutput, func(*qcmd.Execution) {
//	    log.Println("tests finished")
//	}, 100*time.Millisecond)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	err = exec.Wait()
//
// The context bounds the execution: a command that never exits is killed
// when it is cancelled.
//
// # Pseudo-terminals
//
// StartPTY runs a program in a new session on the slave side of a pty. The
// slave is put in raw mode and restored when the program exits:
//
//	err := qcmd.WithPTY(ctx, []string{"top", "-b", "-n", "1"}, func(child *qcmd.ChildProcess) error {
//	    _, err := qcmd.Stream(ctx, child, onOutput)
//	    return err
//	})
//
// # Logging
//
// For detailed operation tracking, use WithLogger:
//
//	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
//	total, err := qcmd.Command(ctx, "uptime", onOutput, qcmd.WithLogger(logger))
//
// # Error Handling
//
// The package provides typed errors for different failure scenarios:
//
//	_, err := qcmd.Command(ctx, cmdline, onOutput)
//	if err != nil {
//	    if spawnErr, ok := errors.AsType[*qcmd.SpawnError](err); ok {
//	        log.Fatalf("could not spawn (%s): %v", spawnErr.Op, spawnErr.Err)
//	    }
//	    if readErr, ok := errors.AsType[*qcmd.ReadError](err); ok {
//	        log.Fatalf("lost output after %d bytes", readErr.Total)
//	    }
//	    log.Fatal(err)
//	}
package qcmd

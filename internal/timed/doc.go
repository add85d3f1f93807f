// Package timed runs a command on a background worker under a supervision
// timer and fires a finalization callback exactly once after the command's
// output has ended.
//
// Each Execution has two goroutines managed by an errgroup:
//
//   - the worker streams the child's output, recording the child's pid when
//     the stream starts and zeroing it at EOF;
//   - the supervisor wakes after FirstInterval and then every
//     RepeatInterval, checks the recorded pid, and once it reads zero stops
//     its timer and calls the Finalizer.
//
// The recorded pid is the only state the two goroutines share and it is
// guarded by a single mutex. Cancelling the context passed to Start kills
// the child and stops both goroutines without finalizing.
//
// Example usage:
//
//	e, err := timed.Start(ctx, cfg, "make test", onOutput, func(*timed.Execution) {
//	    log.Info("tests finished")
//	})
//	if err != nil {
//	    return err
//	}
//
//	err = e.Wait()
package timed

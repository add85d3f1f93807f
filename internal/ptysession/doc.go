// Package ptysession runs programs inside a new session on a pseudo-terminal.
//
// The Manager opens the slave side of a caller-supplied master, records the
// slave's terminal attributes in a Registry and switches it to raw mode
// before starting the program with the slave as its controlling terminal.
// When the program exits the saved attributes are restored and the slave is
// closed, so a terminal is never left in raw mode by a terminated session.
//
// Example usage:
//
//	master, err := ptysession.OpenMaster()
//	if err != nil {
//	    return err
//	}
//
//	m := ptysession.NewManager(log, ptysession.NewRegistry(log), nil)
//	child, err := m.Start(ctx, master, &pty.Winsize{Rows: 24, Cols: 80}, []string{"top", "-b"})
package ptysession

package ptysession

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"golang.org/x/term"
)

type client struct {
	saved *term.State
	slave *os.File
}

// Registry maps terminal descriptors to the attributes they had before being
// put into raw mode. At most one entry exists per descriptor.
type Registry struct {
	log     *slog.Logger
	mu      sync.Mutex
	clients map[int]*client
}

// NewRegistry creates an empty registry.
func NewRegistry(log *slog.Logger) *Registry {
	return &Registry{
		log:     log.With("component", "pty_registry"),
		clients: make(map[int]*client),
	}
}

// Register saves the current attributes of slave and then switches it to
// raw mode: no canonical processing, no echo, no signal generation.
func (r *Registry) Register(slave *os.File) error {
	fd, err := fdOf(slave)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.clients[fd]; ok {
		return fmt.Errorf("descriptor %d already in raw mode", fd)
	}

	saved, err := term.GetState(fd)
	if err != nil {
		return fmt.Errorf("get terminal state: %w", err)
	}

	r.clients[fd] = &client{saved: saved, slave: slave}

	if _, err := term.MakeRaw(fd); err != nil {
		delete(r.clients, fd)

		return fmt.Errorf("make raw: %w", err)
	}

	r.log.Debug("Terminal switched to raw mode", "fd", fd, "name", slave.Name())

	return nil
}

// Restore puts back the saved attributes of slave, closes it and removes
// its entry. An unregistered slave is only closed. Closing a slave that is
// already closed is not an error.
func (r *Registry) Restore(slave *os.File) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for fd, c := range r.clients {
		if c.slave == slave {
			return r.restoreLocked(fd, c)
		}
	}

	if err := slave.Close(); err != nil && !errors.Is(err, os.ErrClosed) {
		return err
	}

	return nil
}

// RestoreAll restores and closes every registered descriptor.
func (r *Registry) RestoreAll() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var errs []error

	for fd, c := range r.clients {
		if err := r.restoreLocked(fd, c); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

// Len returns the number of descriptors currently in raw mode.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.clients)
}

func (r *Registry) restoreLocked(fd int, c *client) error {
	delete(r.clients, fd)

	var errs []error

	if err := term.Restore(fd, c.saved); err != nil {
		errs = append(errs, fmt.Errorf("restore fd %d: %w", fd, err))
	}

	if err := c.slave.Close(); err != nil && !errors.Is(err, os.ErrClosed) {
		errs = append(errs, err)
	}

	r.log.Debug("Terminal attributes restored", "fd", fd)

	return errors.Join(errs...)
}

// RestoreOnSignal restores every registered descriptor when one of sigs is
// delivered to the process. SIGTERM is used when sigs is empty. Catching a
// signal replaces its default action, so the process keeps running; callers
// that want to exit must do so themselves.
//
// The watcher stops when ctx is done or the returned function is called.
func (r *Registry) RestoreOnSignal(ctx context.Context, sigs ...os.Signal) (stop func()) {
	if len(sigs) == 0 {
		sigs = []os.Signal{syscall.SIGTERM}
	}

	ch := make(chan os.Signal, 1)
	signal.Notify(ch, sigs...)

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	go func() {
		defer close(done)
		defer signal.Stop(ch)

		for {
			select {
			case sig := <-ch:
				r.log.Info("Restoring terminals on signal", "signal", sig.String())

				if err := r.RestoreAll(); err != nil {
					r.log.Warn("Failed to restore terminals", "error", err)
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	return func() {
		cancel()
		<-done
	}
}

// fdOf returns the descriptor of f without changing its blocking mode.
func fdOf(f *os.File) (int, error) {
	rc, err := f.SyscallConn()
	if err != nil {
		return -1, err
	}

	fd := -1

	if err := rc.Control(func(u uintptr) { fd = int(u) }); err != nil {
		return -1, err
	}

	return fd, nil
}

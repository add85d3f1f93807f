//go:build integration

package integration

import (
	"strings"
	"sync"
	"testing"

	qcmd "github.com/wagiedev/qcmd-go"
)

// skipIfNoPTY skips the test if pseudo-terminals cannot be allocated.
func skipIfNoPTY(t *testing.T) {
	t.Helper()

	master, err := qcmd.OpenPTY()
	if err != nil {
		t.Skipf("pseudo-terminals unavailable: %v", err)
	}

	_ = master.Close()
}

// collector gathers output chunks from any goroutine.
type collector struct {
	mu  sync.Mutex
	sb  strings.Builder
	eof bool
}

func (c *collector) callback(buf []byte, n int, _ *qcmd.ChildProcess) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch {
	case n > 0:
		c.sb.Write(buf)
	case n == 0:
		c.eof = true
	}
}

func (c *collector) String() string {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.sb.String()
}

func (c *collector) sawEOF() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.eof
}

package pool

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"kvpool/wire"
)

// fakeDialer and fakeConn stand in for a real backend across the pool test
// suite, playing the role spec.md's "assumed existing library" plays for
// the original: controllable reachability per host, and connections that
// can be made to simulate a transport failure on demand.
type fakeDialer struct {
	mu    sync.Mutex
	up    map[string]bool
	dials []string
}

func newFakeDialer(up ...string) *fakeDialer {
	set := make(map[string]bool, len(up))
	for _, h := range up {
		set[h] = true
	}
	return &fakeDialer{up: set}
}

func (d *fakeDialer) Dial(ctx context.Context, host string, port int, timeout time.Duration) (wire.Conn, error) {
	d.mu.Lock()
	d.dials = append(d.dials, host)
	ok := d.up[host]
	d.mu.Unlock()

	if !ok {
		return nil, fmt.Errorf("fakeDialer: %s refused connection", host)
	}
	return &fakeConn{host: host}, nil
}

func (d *fakeDialer) dialCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.dials)
}

type fakeConn struct {
	host string

	mu       sync.Mutex
	broken   bool
	lastErr  error
	commands []string
}

func (c *fakeConn) Command(format string, args ...any) (*wire.Reply, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.commands = append(c.commands, fmt.Sprintf(format, args...))
	if c.broken {
		c.lastErr = errors.New("fakeConn: simulated transport failure")
		return nil, c.lastErr
	}
	return &wire.Reply{Type: '+', Bulk: []byte("OK")}, nil
}

func (c *fakeConn) SetTimeout(time.Duration) error { return nil }
func (c *fakeConn) EnableKeepAlive() error         { return nil }

func (c *fakeConn) LastErr() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

func (c *fakeConn) Close() error { return nil }

// Break makes the next Command call on this connection fail as a transport
// error, simulating the backend closing the connection mid-command (S5).
func (c *fakeConn) Break() {
	c.mu.Lock()
	c.broken = true
	c.mu.Unlock()
}

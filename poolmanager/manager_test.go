package poolmanager

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"kvpool/discovery"
	"kvpool/endpoint"
	"kvpool/pool"
	"kvpool/wire"
)

// fakeDialer always connects successfully; poolmanager's own behavior
// (swap, quiescence check) is what these tests target, not slot/pool
// connect semantics, which are covered in package pool.
type fakeDialer struct {
	mu    sync.Mutex
	dials []string
}

func (d *fakeDialer) Dial(ctx context.Context, host string, port int, timeout time.Duration) (wire.Conn, error) {
	d.mu.Lock()
	d.dials = append(d.dials, fmt.Sprintf("%s:%d", host, port))
	d.mu.Unlock()
	return &fakeConn{}, nil
}

type fakeConn struct{}

func (c *fakeConn) Command(format string, args ...any) (*wire.Reply, error) {
	return &wire.Reply{Type: '+', Bulk: []byte("OK")}, nil
}
func (c *fakeConn) SetTimeout(time.Duration) error { return nil }
func (c *fakeConn) EnableKeepAlive() error         { return nil }
func (c *fakeConn) LastErr() error                 { return nil }
func (c *fakeConn) Close() error                   { return nil }

// chanSource is an EndpointSource whose Watch channel is driven by hand,
// letting a test control exactly when a membership change is reported.
type chanSource struct {
	initial []endpoint.Endpoint
	ch      chan []endpoint.Endpoint
}

func newChanSource(initial []endpoint.Endpoint) *chanSource {
	return &chanSource{initial: initial, ch: make(chan []endpoint.Endpoint, 1)}
}

func (s *chanSource) Resolve(ctx context.Context) ([]endpoint.Endpoint, error) {
	return s.initial, nil
}

// Watch forwards hand-driven changes and, per the EndpointSource contract,
// closes its channel once ctx is done.
func (s *chanSource) Watch(ctx context.Context) <-chan []endpoint.Endpoint {
	out := make(chan []endpoint.Endpoint)
	go func() {
		defer close(out)
		for {
			select {
			case eps := <-s.ch:
				select {
				case out <- eps:
				case <-ctx.Done():
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

func testTemplate(d *fakeDialer) pool.Config {
	return pool.Config{
		ConnectTimeout: time.Second,
		IOTimeout:      time.Second,
		InitialSize:    1,
		MaxSize:        2,
		Dialer:         d,
	}
}

func TestManagerDelegatesToCurrentPool(t *testing.T) {
	src := discovery.NewStaticSource([]endpoint.Endpoint{{Host: "h1", Port: 6379}})
	m, err := NewManager(context.Background(), testTemplate(&fakeDialer{}), src)
	if err != nil {
		t.Fatal(err)
	}
	defer m.Close()

	s, err := m.Acquire()
	if err != nil {
		t.Fatal(err)
	}
	reply, err := m.Command(s, "PING")
	if err != nil {
		t.Fatal(err)
	}
	if string(reply.Bulk) != "OK" {
		t.Fatalf("unexpected reply: %+v", reply)
	}
	m.Release(reply, s)
}

func TestManagerHotSwapsOnDiscoveryChange(t *testing.T) {
	src := newChanSource([]endpoint.Endpoint{{Host: "h1", Port: 6379}})
	m, err := NewManager(context.Background(), testTemplate(&fakeDialer{}), src)
	if err != nil {
		t.Fatal(err)
	}
	defer m.Close()

	before := m.current.Load()

	src.ch <- []endpoint.Endpoint{{Host: "h2", Port: 6380}, {Host: "h3", Port: 6381}}

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if m.current.Load() != before {
			break
		}
		time.Sleep(time.Millisecond)
	}

	after := m.current.Load()
	if after == before {
		t.Fatal("expected pool to be swapped after a discovery change")
	}
}

func TestManagerDoesNotCloseSupersededPoolWithOutstandingLeases(t *testing.T) {
	src := newChanSource([]endpoint.Endpoint{{Host: "h1", Port: 6379}})
	m, err := NewManager(context.Background(), testTemplate(&fakeDialer{}), src)
	if err != nil {
		t.Fatal(err)
	}
	defer m.Close()

	s, err := m.Acquire()
	if err != nil {
		t.Fatal(err)
	}
	oldPool := m.current.Load()

	src.ch <- []endpoint.Endpoint{{Host: "h2", Port: 6380}}

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if m.current.Load() != oldPool {
			break
		}
		time.Sleep(time.Millisecond)
	}
	if m.current.Load() == oldPool {
		t.Fatal("expected pool to be swapped")
	}

	// The old pool must not have been torn down while s is still leased
	// from it: its slot must still be usable for release.
	if _, err := oldPool.Command(s, "PING"); err != nil {
		t.Fatalf("superseded pool was closed while a lease was outstanding: %v", err)
	}
	oldPool.Release(nil, s)
}

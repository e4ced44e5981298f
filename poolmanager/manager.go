// Package poolmanager hot-swaps a *pool.Pool when a discovery.EndpointSource
// reports a changed backend membership, the way mini-rpc's Client lazily
// builds and caches a transport per address — generalized here from "one
// transport per address, selected round-robin" to "one whole pool per
// endpoint-set generation, swapped atomically".
//
// This does not reopen OQ-1: each individual *pool.Pool is still the
// array-of-cells design in package pool; Manager only ever swaps a whole
// pool pointer, never reaches into one pool's cells from outside the pool's
// own locking.
package poolmanager

import (
	"context"
	"fmt"
	"log"
	"sync"
	"sync/atomic"

	"kvpool/discovery"
	"kvpool/endpoint"
	"kvpool/pool"
	"kvpool/slot"
	"kvpool/wire"
)

// Manager owns the currently active pool and rebuilds it on discovery
// change notifications.
type Manager struct {
	template pool.Config // everything but Endpoints
	source   discovery.EndpointSource
	logger   *log.Logger

	current atomic.Pointer[pool.Pool]

	// pending holds superseded pools that could not be retired yet because
	// they still had outstanding leases (I3). Only touched from watchLoop
	// and Close, which never run concurrently with each other.
	pending []*pool.Pool

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewManager resolves source once, builds the initial pool from template
// (template.Endpoints is ignored and overwritten), and — if source.Watch
// returns a non-nil channel — starts a background goroutine that rebuilds
// the pool on every reported change.
func NewManager(ctx context.Context, template pool.Config, source discovery.EndpointSource) (*Manager, error) {
	logger := template.Logger
	if logger == nil {
		logger = log.Default()
	}

	eps, err := source.Resolve(ctx)
	if err != nil {
		return nil, fmt.Errorf("poolmanager: initial resolve: %w", err)
	}
	p, err := buildPool(template, eps)
	if err != nil {
		return nil, err
	}

	watchCtx, cancel := context.WithCancel(ctx)
	m := &Manager{
		template: template,
		source:   source,
		logger:   logger,
		cancel:   cancel,
	}
	m.current.Store(p)

	if ch := source.Watch(watchCtx); ch != nil {
		m.wg.Add(1)
		go m.watchLoop(ch)
	} else {
		cancel()
	}

	return m, nil
}

func buildPool(template pool.Config, eps []endpoint.Endpoint) (*pool.Pool, error) {
	list, err := endpoint.NewList(eps)
	if err != nil {
		return nil, fmt.Errorf("poolmanager: %w", err)
	}
	cfg := template
	cfg.Endpoints = list
	return pool.New(cfg)
}

func (m *Manager) watchLoop(ch <-chan []endpoint.Endpoint) {
	defer m.wg.Done()
	for eps := range ch {
		newPool, err := buildPool(m.template, eps)
		if err != nil {
			m.logger.Printf("poolmanager: rebuild failed, keeping current pool: %v", err)
			continue
		}

		if old := m.current.Swap(newPool); old != nil {
			m.pending = append(m.pending, old)
		}
		m.retirePending()
	}
}

// retirePending attempts to close every superseded pool still awaiting
// retirement (I3: never destroy a pool some caller might still be holding a
// lease against). A pool that still has outstanding leases stays in pending
// and is retried on the next call — which happens on every subsequent
// discovery event, and once more from Close.
func (m *Manager) retirePending() {
	remaining := m.pending[:0]
	for _, p := range m.pending {
		if p.Outstanding() == 0 {
			p.Close()
			continue
		}
		m.logger.Printf("poolmanager: superseded pool still has %d outstanding leases, deferring retirement", p.Outstanding())
		remaining = append(remaining, p)
	}
	m.pending = remaining
}

// Acquire delegates to the currently active pool.
func (m *Manager) Acquire() (*slot.Slot, error) {
	return m.current.Load().Acquire()
}

// Release delegates to the currently active pool.
//
// Note: a slot leased from one pool generation must be released to that
// same generation; since Release only needs the Slot (not the Pool) to
// find its mutex, and pool.Pool.Release only touches fields reachable from
// the Slot and its own cells (never the Manager's current pointer), this
// is safe even if a swap happened mid-lease — the caller's slot still
// belongs to the pool it was acquired from, which is kept alive by this
// delegation for as long as the lease is outstanding.
func (m *Manager) Release(reply *wire.Reply, s *slot.Slot) {
	m.current.Load().Release(reply, s)
}

// Command delegates to the currently active pool.
func (m *Manager) Command(s *slot.Slot, format string, args ...any) (*wire.Reply, error) {
	return m.current.Load().Command(s, format, args...)
}

// Close stops the watch loop, makes one final attempt to retire any
// still-pending superseded pools, and closes the currently active pool. Any
// pending pool that still has outstanding leases at this point is left
// unclosed rather than force-closed out from under a caller.
func (m *Manager) Close() error {
	m.cancel()
	m.wg.Wait()
	m.retirePending()
	return m.current.Load().Close()
}

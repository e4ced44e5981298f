// Package pool implements spec.md's core: the Pool lifecycle and lease
// protocol (C3/C4) and the Command wrapper (C5), composed from package slot
// (C2) and package endpoint (C1).
//
// OQ-1 resolution: rather than a singly-linked list of slots spliced in
// place on replace-on-error (the original's design, and a known race — see
// spec.md §9), the pool is a fixed-capacity array of cells, each an
// atomic.Pointer[slot.Slot], addressed by id == index. Growth activates the
// next unused index; replace-on-error is a single atomic pointer store at a
// fixed index. Neither operation ever needs to walk or mutate a shared
// list, which is what made the original's approach racy.
package pool

import (
	"context"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"kvpool/slot"
)

// Pool is spec.md's Pool (C3): a bounded set of connection slots plus the
// cursor, growth lock, and retry-grace-period clock.
type Pool struct {
	cfg    Config
	logger *log.Logger

	cells       []atomic.Pointer[slot.Slot] // len == cfg.MaxSize, preallocated
	activeCount atomic.Int32                // number of cells currently populated
	growMu      sync.Mutex                  // serializes growth (spec.md's size_lock)

	cursor       atomic.Uint64 // round-robin hint; relaxed, intentionally racy (OQ-4)
	connectAfter atomic.Int64  // unix nanoseconds; relaxed (OQ-3)

	outstanding atomic.Int32 // leases currently held, consulted by poolmanager (I3)
}

// New validates cfg, builds the array of cells, and eagerly connects
// cfg.InitialSize of them (spec.md §4.3 Init). A pool that fails to connect
// any slot is still returned, with a warning logged — acquire may later
// succeed once the backend recovers.
func New(cfg Config) (*Pool, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	cfg.Dialer = cfg.dialer()

	p := &Pool{
		cfg:    cfg,
		logger: cfg.logger(),
		cells:  make([]atomic.Pointer[slot.Slot], cfg.MaxSize),
	}

	n := cfg.Endpoints.Len()
	anyConnected := false
	for i := 0; i < cfg.InitialSize; i++ {
		s := slot.New(i, i%n)
		if time.Now().UnixNano() > p.connectAfter.Load() {
			if err := slot.Connect(context.Background(), s, p.connectParams()); err == nil {
				anyConnected = true
			} else {
				p.logger.Printf("pool: %v", &ConnectError{SlotID: i, Err: err})
			}
		}
		p.cells[i].Store(s)
	}
	p.activeCount.Store(int32(cfg.InitialSize))

	if cfg.InitialSize > 0 && !anyConnected {
		p.logger.Printf("pool: failed to connect to any redis server during init")
	}

	return p, nil
}

// Close tears down the pool: every connected slot's connection is closed.
// Destroying a slot that is still leased is a programming bug (the caller
// must guarantee quiescence, per I3) and is logged loudly rather than
// silently ignored or allowed to panic the process.
func (p *Pool) Close() error {
	active := int(p.activeCount.Load())
	for i := 0; i < active; i++ {
		s := p.cells[i].Load()
		if s == nil {
			continue
		}
		if !s.Mu.TryLock() {
			p.logger.Printf("INVARIANT pool: slot %d: mutex held during Close, bug in caller", s.ID)
			s.Close()
			continue
		}
		if s.InUse {
			p.logger.Printf("INVARIANT pool: slot %d: still in use during Close, bug in caller", s.ID)
		}
		s.Close()
		s.Mu.Unlock()
	}
	return nil
}

// Size reports the number of activated cells (spec.md's pool.size).
func (p *Pool) Size() int {
	return int(p.activeCount.Load())
}

// Outstanding reports the number of leases currently held. poolmanager uses
// this to decide whether a superseded pool can be safely retired (I3).
func (p *Pool) Outstanding() int {
	return int(p.outstanding.Load())
}

func (p *Pool) connectParams() slot.Params {
	return slot.Params{
		Endpoints:      p.cfg.Endpoints,
		Dialer:         p.cfg.Dialer,
		ConnectTimeout: p.cfg.ConnectTimeout,
		IOTimeout:      p.cfg.IOTimeout,
		Password:       p.cfg.Password,
		RetryDelay:     p.cfg.RetryDelay,
		Logger:         p.logger,
		OnConnectFailure: func() {
			if p.cfg.RetryDelay > 0 {
				p.connectAfter.Store(time.Now().Add(p.cfg.RetryDelay).UnixNano())
			}
		},
	}
}

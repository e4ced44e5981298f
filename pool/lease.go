package pool

import (
	"context"
	"time"

	"kvpool/slot"
	"kvpool/wire"
)

// Acquire implements spec.md §4.4: scan the ring of active cells starting
// at the cursor hint, try-locking each; on an unconnected cell whose grace
// period has expired, attempt an opportunistic reconnect. If the whole ring
// is scanned without success, grow the pool by one cell. Returns a slot
// locked and marked in-use, or ErrExhausted if nothing is serviceable and
// growth failed.
//
// Cancellation is not supported, per spec.md §5 — this mirrors the
// original's contract exactly (the only bound on a stuck caller is the
// configured I/O timeout on the connection itself).
func (p *Pool) Acquire() (*slot.Slot, error) {
	active := int(p.activeCount.Load())
	if active == 0 {
		return p.growAndAcquire()
	}

	start := int(p.cursor.Load() % uint64(active))
	cur := start

	for {
		cell := &p.cells[cur]
		s := cell.Load()
		if s != nil && s.Mu.TryLock() {
			if !s.InUse {
				s.InUse = true

				if s.State == slot.Unconnected && time.Now().UnixNano() > p.connectAfter.Load() {
					slot.Connect(context.Background(), s, p.connectParams())
				}

				if s.State == slot.Unconnected {
					s.InUse = false
					s.Mu.Unlock()
				} else {
					p.cursor.Store(uint64((cur + 1) % active))
					p.outstanding.Add(1)
					return s, nil
				}
			} else {
				s.Mu.Unlock()
			}
		}

		cur = (cur + 1) % active
		if cur == start {
			return p.growAndAcquire()
		}
	}
}

// growAndAcquire grows the pool by one cell (spec.md §4.3 Growth) and
// returns it locked and in-use, or ErrExhausted if growth failed (because
// another goroutine holds growMu, because size == max_size, or because the
// new slot could not connect).
func (p *Pool) growAndAcquire() (*slot.Slot, error) {
	if !p.growMu.TryLock() {
		return nil, ErrExhausted
	}
	defer p.growMu.Unlock()

	active := int(p.activeCount.Load())
	if active >= p.cfg.MaxSize {
		return nil, ErrExhausted
	}

	n := p.cfg.Endpoints.Len()
	id := active
	s := slot.New(id, id%n)
	s.Mu.Lock()
	s.InUse = true

	if err := slot.Connect(context.Background(), s, p.connectParams()); err != nil {
		// Growth fails this cycle, per spec.md §4.3; the new slot is discarded.
		// The connect failure is logged as a ConnectError; the caller only
		// sees ErrExhausted.
		p.logger.Printf("pool: %v", &ConnectError{SlotID: id, Err: err})
		return nil, ErrExhausted
	}

	p.cells[id].Store(s)
	p.activeCount.Store(int32(id + 1))
	p.cursor.Store(uint64(id + 1))
	p.outstanding.Add(1)
	return s, nil
}

// Release implements spec.md §4.4's release operation. If the caller's last
// reply was nil, or the slot's connection reports a transport error,
// release-on-error (§4.5) runs instead of a plain unlock; replace-on-error
// always leaves the slot unlocked and not in-use by the time it returns.
func (p *Pool) Release(reply *wire.Reply, s *slot.Slot) {
	p.outstanding.Add(-1)

	if reply == nil || (s.Conn != nil && s.Conn.LastErr() != nil) {
		p.replaceOnError(s)
		return
	}

	if !s.InUse {
		p.logger.Printf("INVARIANT pool: slot %d: Release called but not in-use", s.ID)
	}
	s.InUse = false
	s.Mu.Unlock()
}

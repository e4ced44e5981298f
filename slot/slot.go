// Package slot implements one pooled backend connection: its state machine
// (Unconnected <-> Connected), the connect/reconnect algorithm, and the
// per-slot mutex that makes it safe to lease exclusively to one caller.
//
// This is spec.md's ConnectionSlot (C2). package pool composes many Slots
// into the array-of-cells Pool; slot itself knows nothing about the pool.
package slot

import (
	"sync"

	"kvpool/wire"
)

// State is a slot's connectedness.
type State int32

const (
	Unconnected State = iota
	Connected
)

func (s State) String() string {
	if s == Connected {
		return "connected"
	}
	return "unconnected"
}

// Slot is one pooled connection record (spec.md §3's ConnectionSlot).
//
// Invariant I1: InUse == true implies the calling goroutine holds Mu.
// Invariant I2: State == Connected implies Conn != nil and Conn has
// completed authentication and has timeouts/keepalive applied.
//
// EndpointIndex is mutated only by Connect, which is only ever called while
// the caller already holds Mu (either as the lessee doing an opportunistic
// reconnect, or as the replace-on-error path owning a brand new Slot that
// no other goroutine can yet observe).
type Slot struct {
	ID            int
	EndpointIndex int
	State         State
	Conn          wire.Conn
	InUse         bool
	Mu            sync.Mutex
}

// New creates a fresh, unconnected slot with the given id and starting
// endpoint index. Callers (pool.New, pool's growAndAcquire, pool's replace-on-error)
// decide id/endpointIndex per spec.md §4.3/§4.5.
func New(id, endpointIndex int) *Slot {
	return &Slot{
		ID:            id,
		EndpointIndex: endpointIndex,
		State:         Unconnected,
	}
}

// Close releases the slot's connection, if any. Close does not check InUse:
// during pool teardown a slot still in use is a caller bug (spec.md §4.3
// teardown rule) that the pool logs, while replace-on-error calls Close on
// the leased slot it is retiring.
func (s *Slot) Close() error {
	if s.State == Connected && s.Conn != nil {
		err := s.Conn.Close()
		s.Conn = nil
		s.State = Unconnected
		return err
	}
	return nil
}

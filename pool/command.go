package pool

import (
	"context"

	"kvpool/slot"
	"kvpool/wire"
)

// Command implements spec.md §4.6: forward one command to the leased
// slot's connection; on a transport error, reconnect in place and retry
// exactly once. No further retries happen here or anywhere else in this
// package (see DESIGN.md on why a generic retry middleware was not carried
// over from the teacher).
//
// s must already be leased (obtained from Acquire and not yet Released).
func (p *Pool) Command(s *slot.Slot, format string, args ...any) (*wire.Reply, error) {
	reply, err := s.Conn.Command(format, args...)
	if err == nil {
		return reply, nil
	}

	s.Conn.Close()
	if cerr := slot.Connect(context.Background(), s, p.connectParams()); cerr != nil {
		return nil, &TransportError{SlotID: s.ID, Err: cerr}
	}

	reply, err = s.Conn.Command(format, args...)
	if err != nil {
		return nil, &TransportError{SlotID: s.ID, Err: err}
	}
	return reply, nil
}

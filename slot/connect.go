package slot

import (
	"context"
	"log"
	"time"

	"kvpool/endpoint"
	"kvpool/wire"
)

// Params bundles everything Connect needs that belongs to the pool rather
// than to one slot: the endpoint list, the dialer, timeouts, and the
// grace-period clock. Passed by value from package pool on every call.
type Params struct {
	Endpoints      endpoint.List
	Dialer         wire.Dialer
	ConnectTimeout time.Duration
	IOTimeout      time.Duration
	Password       string
	RetryDelay     time.Duration
	Logger         *log.Logger

	// OnConnectFailure is invoked once, after all N endpoints have been
	// tried and all failed, so the caller can advance its grace-period
	// clock (spec.md §4.2 step 4). Nil is fine (no-op).
	OnConnectFailure func()
}

func (p Params) logger() *log.Logger {
	if p.Logger != nil {
		return p.Logger
	}
	return log.Default()
}

// Connect implements spec.md §4.2's connect algorithm: up to N = number of
// endpoints attempts, starting at s.EndpointIndex, trying each endpoint
// exactly once in strictly increasing order modulo N before giving up.
//
// OQ-2 resolution: an AUTH error aborts the attempt for that endpoint
// exactly like a dial failure — it does not mark the slot Connected. This
// is a deliberate change from the original hiredispool.c behavior; see
// DESIGN.md.
func Connect(ctx context.Context, s *Slot, p Params) error {
	n := p.Endpoints.Len()
	log := p.logger()

	var lastErr error
	for i := 0; i < n; i++ {
		ep := p.Endpoints.At(s.EndpointIndex)

		conn, err := p.Dialer.Dial(ctx, ep.Host, ep.Port, p.ConnectTimeout)
		if err != nil {
			log.Printf("slot %d: connect to %s failed: %v", s.ID, ep, err)
			lastErr = err
			s.EndpointIndex = p.Endpoints.NextAfter(s.EndpointIndex)
			continue
		}

		if p.Password != "" {
			reply, authErr := conn.Command("AUTH %s", p.Password)
			if authErr != nil || reply.IsError() {
				if authErr == nil {
					authErr = errAuthFailed(reply.Err)
				}
				log.Printf("slot %d: AUTH to %s failed: %v", s.ID, ep, authErr)
				conn.Close()
				lastErr = authErr
				s.EndpointIndex = p.Endpoints.NextAfter(s.EndpointIndex)
				continue
			}
		}

		if err := conn.SetTimeout(p.IOTimeout); err != nil {
			log.Printf("slot %d: set timeout on %s failed (non-fatal): %v", s.ID, ep, err)
		}
		if err := conn.EnableKeepAlive(); err != nil {
			log.Printf("slot %d: enable keepalive on %s failed (non-fatal): %v", s.ID, ep, err)
		}

		s.Conn = conn
		s.State = Connected
		return nil
	}

	// All N endpoints failed (dial or AUTH).
	s.Conn = nil
	s.State = Unconnected
	s.EndpointIndex = p.Endpoints.NextAfter(s.EndpointIndex)
	if p.OnConnectFailure != nil {
		p.OnConnectFailure()
	}
	log.Printf("slot %d: failed to connect to any of %d endpoints: %v", s.ID, n, lastErr)
	return lastErr
}

type authError struct{ msg string }

func (e *authError) Error() string { return "auth failed: " + e.msg }

func errAuthFailed(msg string) error { return &authError{msg: msg} }

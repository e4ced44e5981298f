// Package endpoint holds the immutable, ordered list of backend targets a
// pool may connect to, and the round-robin index arithmetic used to walk it.
//
// The list never changes after a pool is built from it. Dynamic membership
// (e.g. sourced from etcd) lives one layer up, in package discovery — a new
// List is built and a whole new pool is swapped in, rather than this list
// being mutated in place.
package endpoint

import "fmt"

// Endpoint is one (host, port) a pool may dial.
type Endpoint struct {
	Host string // non-empty, <= 255 bytes
	Port int    // 1..65535
}

func (e Endpoint) String() string {
	return fmt.Sprintf("%s:%d", e.Host, e.Port)
}

func (e Endpoint) validate() error {
	if e.Host == "" {
		return fmt.Errorf("endpoint: empty host")
	}
	if len(e.Host) > 255 {
		return fmt.Errorf("endpoint: host %q exceeds 255 bytes", e.Host)
	}
	if e.Port < 1 || e.Port > 65535 {
		return fmt.Errorf("endpoint: port %d out of range 1..65535", e.Port)
	}
	return nil
}

// List is the validated, ordered, immutable set of endpoints for one pool.
type List struct {
	items []Endpoint
}

// NewList validates and copies eps into an immutable List. At least one
// endpoint is required.
func NewList(eps []Endpoint) (List, error) {
	if len(eps) == 0 {
		return List{}, fmt.Errorf("endpoint: at least one endpoint is required")
	}
	items := make([]Endpoint, len(eps))
	for i, e := range eps {
		if err := e.validate(); err != nil {
			return List{}, fmt.Errorf("endpoint: @%d: %w", i, err)
		}
		items[i] = e
	}
	return List{items: items}, nil
}

// Len returns the number of endpoints, N.
func (l List) Len() int {
	return len(l.items)
}

// At returns the endpoint at index i (0 <= i < Len()).
func (l List) At(i int) Endpoint {
	return l.items[i]
}

// NextAfter returns (i+1) mod N, the next index to try in strictly
// increasing, wrapping order. No randomization, per spec.
func (l List) NextAfter(i int) int {
	n := len(l.items)
	return (i + 1) % n
}

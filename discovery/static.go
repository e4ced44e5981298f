package discovery

import (
	"context"

	"kvpool/endpoint"
)

// StaticSource wraps a fixed endpoint set that never changes. It is the
// default source poolmanager uses when no discovery backend is configured.
type StaticSource struct {
	endpoints []endpoint.Endpoint
}

// NewStaticSource copies eps into a StaticSource.
func NewStaticSource(eps []endpoint.Endpoint) StaticSource {
	cp := make([]endpoint.Endpoint, len(eps))
	copy(cp, eps)
	return StaticSource{endpoints: cp}
}

func (s StaticSource) Resolve(ctx context.Context) ([]endpoint.Endpoint, error) {
	return s.endpoints, nil
}

// Watch never emits: a StaticSource's membership never changes.
func (s StaticSource) Watch(ctx context.Context) <-chan []endpoint.Endpoint {
	return nil
}

// Package discovery resolves the set of backend endpoints a pool should
// use, optionally watching for changes. It is the one place dynamic
// membership is allowed to exist in this module — package pool's own
// endpoint.List stays immutable once a Pool is built, exactly as spec.md
// requires; package poolmanager is what turns a discovery change into a
// freshly built pool.
package discovery

import (
	"context"

	"kvpool/endpoint"
)

// EndpointSource is the contract poolmanager consumes. It is the read-only
// half of mini-rpc's registry.Registry: this module is never a service
// announcing itself, only a client resolving where a backend cluster's
// members currently are.
type EndpointSource interface {
	// Resolve returns the current endpoint set, one-shot.
	Resolve(ctx context.Context) ([]endpoint.Endpoint, error)

	// Watch returns a channel that emits an updated endpoint set whenever
	// membership changes. Implementations close the channel when ctx is
	// done. A nil return means this source never changes (e.g. StaticSource).
	Watch(ctx context.Context) <-chan []endpoint.Endpoint
}

// Package commandmw implements the onion-model middleware chain for
// kvpool, wrapping one backend command the way mini-rpc's middleware
// package wraps one RPC call: pre-processing, call next, post-processing,
// or short-circuit without calling next at all (e.g. rate limiting).
//
// Middleware never touches slot state — it only observes, bounds, or
// rejects the call; pool.Pool.Command remains the only thing that mutates
// a Slot.
package commandmw

import (
	"context"

	"kvpool/wire"
)

// Request is the one backend command a HandlerFunc forwards or rejects.
type Request struct {
	Format string
	Args   []any
}

// HandlerFunc performs (or continues wrapping) one command call.
type HandlerFunc func(ctx context.Context, req *Request) (*wire.Reply, error)

// Middleware takes a handler and returns a new handler that wraps it.
type Middleware func(next HandlerFunc) HandlerFunc

// Chain composes middlewares so the first in the list is the outermost
// layer: Chain(A, B, C)(handler) == A(B(C(handler))).
func Chain(middlewares ...Middleware) Middleware {
	return func(next HandlerFunc) HandlerFunc {
		for i := len(middlewares) - 1; i >= 0; i-- {
			next = middlewares[i](next)
		}
		return next
	}
}

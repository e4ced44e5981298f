package commandmw

import (
	"context"
	"errors"

	"golang.org/x/time/rate"

	"kvpool/wire"
)

// ErrRateLimited is returned when a command is rejected by RateLimit
// without ever reaching the backend (P9).
var ErrRateLimited = errors.New("commandmw: rate limit exceeded")

// RateLimit builds a token-bucket limiter shared across every call through
// this middleware, the same construction-site-matters caveat as mini-rpc's
// RateLimitMiddleware: limiter must be created once in the outer closure,
// not per request, or every call would see a fresh full bucket.
func RateLimit(r float64, burst int) Middleware {
	limiter := rate.NewLimiter(rate.Limit(r), burst)
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, req *Request) (*wire.Reply, error) {
			if !limiter.Allow() {
				return nil, ErrRateLimited
			}
			return next(ctx, req)
		}
	}
}

package commandmw

import (
	"context"
	"fmt"
	"time"

	"kvpool/wire"
)

// Timeout bounds how long the caller waits for one command, independent of
// whatever IOTimeout is configured on the underlying socket. Same shape as
// mini-rpc's TimeOutMiddleware: the in-flight call is not cancelled, only
// abandoned — the goroutine running next keeps running in the background,
// since package wire's synchronous Conn has no cancellable read.
func Timeout(d time.Duration) Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, req *Request) (*wire.Reply, error) {
			ctx, cancel := context.WithTimeout(ctx, d)
			defer cancel()

			type result struct {
				reply *wire.Reply
				err   error
			}
			done := make(chan result, 1)
			go func() {
				reply, err := next(ctx, req)
				done <- result{reply, err}
			}()

			select {
			case r := <-done:
				return r.reply, r.err
			case <-ctx.Done():
				return nil, fmt.Errorf("commandmw: command %q timed out after %s", req.Format, d)
			}
		}
	}
}

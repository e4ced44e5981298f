package commandmw

import (
	"context"
	"log"
	"time"

	"kvpool/wire"
)

// Logging records the format string and duration of each command, and any
// error, the same shape as mini-rpc's LoggingMiddleware.
func Logging(logger *log.Logger) Middleware {
	if logger == nil {
		logger = log.Default()
	}
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, req *Request) (*wire.Reply, error) {
			start := time.Now()
			reply, err := next(ctx, req)
			duration := time.Since(start)

			logger.Printf("command: %s, duration: %s", req.Format, duration)
			if err != nil {
				logger.Printf("command error: %v", err)
			} else if reply.IsError() {
				logger.Printf("command backend error: %s", reply.Err)
			}
			return reply, err
		}
	}
}

package pool

import (
	"fmt"
	"log"
	"time"

	"kvpool/endpoint"
	"kvpool/wire"
)

// MaxSlots is the hard compile-time ceiling on Config.MaxSize (spec.md §6).
const MaxSlots = 1000

// Config is spec.md's PoolConfig.
type Config struct {
	Endpoints endpoint.List

	ConnectTimeout time.Duration // 0 means no timeout
	IOTimeout      time.Duration // 0 means no timeout

	InitialSize int // slots created eagerly at startup
	MaxSize     int // hard ceiling; InitialSize <= MaxSize <= MaxSlots

	RetryDelay time.Duration // grace period after a connect failure; <=0 disables it

	Password string // empty means no authentication

	// Dialer opens backend connections. Defaults to wire.RESPDialer{}.
	Dialer wire.Dialer

	// Logger receives the pool's diagnostic output. Defaults to log.Default().
	Logger *log.Logger
}

func (c Config) validate() error {
	if c.Endpoints.Len() == 0 {
		return fmt.Errorf("%w: at least one endpoint is required", ErrConfigInvalid)
	}
	if c.InitialSize < 0 {
		return fmt.Errorf("%w: initial size must be >= 0", ErrConfigInvalid)
	}
	if c.MaxSize < c.InitialSize {
		return fmt.Errorf("%w: max size (%d) must be >= initial size (%d)", ErrConfigInvalid, c.MaxSize, c.InitialSize)
	}
	if c.MaxSize > MaxSlots {
		return fmt.Errorf("%w: max size (%d) exceeds MaxSlots (%d)", ErrConfigInvalid, c.MaxSize, MaxSlots)
	}
	if c.ConnectTimeout < 0 || c.IOTimeout < 0 {
		return fmt.Errorf("%w: timeouts must be >= 0", ErrConfigInvalid)
	}
	return nil
}

func (c Config) logger() *log.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return log.Default()
}

func (c Config) dialer() wire.Dialer {
	if c.Dialer != nil {
		return c.Dialer
	}
	return wire.RESPDialer{}
}

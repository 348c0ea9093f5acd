package health

import (
	"context"
	"fmt"
)

// Pinger is implemented by altdetect.Store.
type Pinger interface {
	Ping(ctx context.Context) error
}

// DatabaseCheck reports the store unhealthy when it cannot be reached.
func DatabaseCheck(store Pinger) CheckFunc {
	return func(ctx context.Context) error {
		return store.Ping(ctx)
	}
}

// QueueDepth is implemented by dispatch.Pool.
type QueueDepth interface {
	Pending() int
}

// WorkerCheck reports the pool unhealthy once its queue holds capacity or
// more waiting tasks. Joins submitted then are rejected.
func WorkerCheck(pool QueueDepth, capacity int) CheckFunc {
	return func(context.Context) error {
		if capacity > 0 {
			if n := pool.Pending(); n >= capacity {
				return fmt.Errorf("worker queue saturated: %d of %d", n, capacity)
			}
		}
		return nil
	}
}

package state

import (
	"context"
	"time"
)

// RunJanitor sweeps the store at the given interval until the context is
// canceled. Creation already sweeps opportunistically; the janitor bounds
// how long expired entries of an idle store linger.
func RunJanitor[T any](ctx context.Context, s Store[T], interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.SweepExpired(ctx)
		}
	}
}

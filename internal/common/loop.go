package common

import (
	"context"
	"time"
)

// Repeat runs fn once immediately and then on every interval tick until
// ctx is cancelled. It standardizes the poll-loop boilerplate (ticker
// lifecycle, immediate first run, cancellation) so call sites cannot leak
// a ticker past their owning scope.
//
// The returned channel is closed after the loop has fully stopped; callers
// that need to know the loop is gone (not merely cancelled) wait on it.
func Repeat(ctx context.Context, interval time.Duration, fn func(context.Context)) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)

		fn(ctx)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				fn(ctx)
			}
		}
	}()
	return done
}

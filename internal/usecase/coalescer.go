package usecase

import (
	"context"

	"golang.org/x/sync/singleflight"
)

// flightKey is the only key used: a Coalescer guards a single operation.
const flightKey = "current-user"

// Coalescer runs at most one instance of an operation at a time. Callers that
// arrive while it is in flight attach to it and receive the same value.
type Coalescer[T any] struct {
	group singleflight.Group
}

// Do runs work, or joins the run already in flight. The bool reports whether
// the value was delivered to more than one caller.
//
// work runs on a context detached from ctx's cancellation, so a caller that
// gives up does not abort the shared run.
func (c *Coalescer[T]) Do(ctx context.Context, work func(context.Context) T) (T, bool) {
	detached := context.WithoutCancel(ctx)
	v, _, shared := c.group.Do(flightKey, func() (any, error) {
		return work(detached), nil
	})
	return v.(T), shared
}

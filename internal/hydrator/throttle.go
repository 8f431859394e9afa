package hydrator

import (
	"context"
	"time"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// Throttle bounds outbound lookups: at most maxInFlight run at once and
// consecutive dispatches are at least minDelay apart. One Throttle is built
// per process and shared by every request.
type Throttle struct {
	slots    *semaphore.Weighted
	spacing  *rate.Limiter
	capacity int
}

func NewThrottle(maxInFlight int, minDelay time.Duration) *Throttle {
	if maxInFlight < 1 {
		maxInFlight = 1
	}
	limit := rate.Inf
	if minDelay > 0 {
		limit = rate.Every(minDelay)
	}
	return &Throttle{
		slots:    semaphore.NewWeighted(int64(maxInFlight)),
		spacing:  rate.NewLimiter(limit, 1),
		capacity: maxInFlight,
	}
}

func (t *Throttle) Capacity() int {
	return t.capacity
}

// Acquire blocks until a slot is free and the spacing gate opens. The
// returned func must be called once the lookup finished.
func (t *Throttle) Acquire(ctx context.Context) (func(), error) {
	if err := t.slots.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	if err := t.spacing.Wait(ctx); err != nil {
		t.slots.Release(1)
		return nil, err
	}
	return func() { t.slots.Release(1) }, nil
}

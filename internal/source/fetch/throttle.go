package fetch

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Throttle spaces consecutive requests at least delay apart.
// The first Wait returns immediately.
type Throttle struct {
	limiter *rate.Limiter
}

func NewThrottle(delay time.Duration) *Throttle {
	limit := rate.Inf
	if delay > 0 {
		limit = rate.Every(delay)
	}
	return &Throttle{limiter: rate.NewLimiter(limit, 1)}
}

func (t *Throttle) Wait(ctx context.Context) error {
	return t.limiter.Wait(ctx)
}

package rate

import (
	"context"
	"time"
)

// Limiter bounds login attempts per client key within a sliding window.
type Limiter interface {
	Allow(ctx context.Context, key string, now time.Time) (allowed bool, retryAfter time.Duration, err error)
}

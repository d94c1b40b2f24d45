package util

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Limiter is a token bucket shared by every outbound request to one host.
type Limiter struct {
	inner *rate.Limiter
}

func NewLimiter(perSecond float64, burst int) *Limiter {
	if burst < 1 {
		burst = 1
	}
	return &Limiter{inner: rate.NewLimiter(rate.Limit(perSecond), burst)}
}

// Wait blocks until a token is available and reports how long the caller
// was held back. It fails at once when ctx's deadline would pass first.
func (l *Limiter) Wait(ctx context.Context) (time.Duration, error) {
	start := time.Now()
	err := l.inner.Wait(ctx)
	return time.Since(start), err
}

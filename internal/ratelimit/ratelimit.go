package ratelimit

import (
	"context"

	"golang.org/x/time/rate"
)

// Limiter throttles document processing in stream mode.
type Limiter struct {
	limiter *rate.Limiter
}

// New uses 0 or negative limit for no throttling.
func New(documentsPerSecond float64) *Limiter {
	if documentsPerSecond <= 0 {
		return &Limiter{
			limiter: rate.NewLimiter(rate.Inf, 1),
		}
	}

	// Burst of 1: the first document goes through immediately, the rest
	// pace out according to the limit
	return &Limiter{
		limiter: rate.NewLimiter(rate.Limit(documentsPerSecond), 1),
	}
}

func (l *Limiter) Wait(ctx context.Context) error {
	return l.limiter.Wait(ctx)
}

// Allow is non-blocking and useful for checking throttling.
func (l *Limiter) Allow() bool {
	return l.limiter.Allow()
}

// Limit returns the configured rate, 0 meaning unlimited.
func (l *Limiter) Limit() float64 {
	limit := l.limiter.Limit()
	if limit == rate.Inf {
		return 0
	}
	return float64(limit)
}

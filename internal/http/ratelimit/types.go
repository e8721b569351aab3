package ratelimit

import (
	"context"

	"golang.org/x/time/rate"
)

// Config holds rate limiting and retry configuration
type Config struct {
	RequestsPerSecond float64 `json:"requestsPerSecond"`
	MaxRetries        int     `json:"maxRetries"`
	InitialBackoffMs  int     `json:"initialBackoffMs"`
	MaxBackoffMs      int     `json:"maxBackoffMs"`
}

// DefaultConfig returns the default rate limit configuration. The central
// bank page is fetched at most once per second.
func DefaultConfig() Config {
	return Config{
		RequestsPerSecond: 1,
		MaxRetries:        2,
		InitialBackoffMs:  500,
		MaxBackoffMs:      10000,
	}
}

// RateLimiter spaces outgoing requests with a token bucket
type RateLimiter struct {
	limiter *rate.Limiter
}

// NewRateLimiter creates a limiter allowing one request per interval and
// no bursts. A non-positive rate disables limiting.
func NewRateLimiter(config Config) *RateLimiter {
	limit := rate.Inf
	if config.RequestsPerSecond > 0 {
		limit = rate.Limit(config.RequestsPerSecond)
	}
	return &RateLimiter{limiter: rate.NewLimiter(limit, 1)}
}

// Throttle blocks until the next request may be sent or ctx is done
func (r *RateLimiter) Throttle(ctx context.Context) error {
	return r.limiter.Wait(ctx)
}

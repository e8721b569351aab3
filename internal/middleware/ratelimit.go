package middleware

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// RateLimiterConfig holds configuration for rate limiting
type RateLimiterConfig struct {
	RequestsPerSecond float64
	BurstSize         int
	// IdleTTL is how long an unused client limiter is kept
	IdleTTL time.Duration
}

// DefaultRateLimiterConfig returns default rate limiting settings
func DefaultRateLimiterConfig() RateLimiterConfig {
	return RateLimiterConfig{
		RequestsPerSecond: 10,
		BurstSize:         20,
		IdleTTL:           10 * time.Minute,
	}
}

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// IPRateLimiter tracks rate limiters per client IP address
type IPRateLimiter struct {
	limiters map[string]*clientLimiter
	mu       sync.Mutex
	config   RateLimiterConfig
	now      func() time.Time
}

// NewIPRateLimiter creates a new IP-based rate limiter
func NewIPRateLimiter(config RateLimiterConfig) *IPRateLimiter {
	if config.IdleTTL <= 0 {
		config.IdleTTL = DefaultRateLimiterConfig().IdleTTL
	}
	return &IPRateLimiter{
		limiters: make(map[string]*clientLimiter),
		config:   config,
		now:      time.Now,
	}
}

// GetLimiter returns the rate limiter for the given IP address
func (rl *IPRateLimiter) GetLimiter(ip string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cl, exists := rl.limiters[ip]
	if !exists {
		cl = &clientLimiter{
			limiter: rate.NewLimiter(rate.Limit(rl.config.RequestsPerSecond), rl.config.BurstSize),
		}
		rl.limiters[ip] = cl
	}
	cl.lastSeen = rl.now()
	return cl.limiter
}

// CleanupOldLimiters removes limiters idle for longer than IdleTTL
func (rl *IPRateLimiter) CleanupOldLimiters() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := rl.now().Add(-rl.config.IdleTTL)
	for ip, cl := range rl.limiters {
		if cl.lastSeen.Before(cutoff) {
			delete(rl.limiters, ip)
		}
	}
}

// Len returns the number of tracked clients
func (rl *IPRateLimiter) Len() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.limiters)
}

// RateLimitMiddleware applies rate limiting per client IP. Cleanup of idle
// limiters stops when ctx is done.
func RateLimitMiddleware(ctx context.Context, config RateLimiterConfig) gin.HandlerFunc {
	limiter := NewIPRateLimiter(config)

	go func() {
		ticker := time.NewTicker(limiter.config.IdleTTL / 2)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				limiter.CleanupOldLimiters()
			}
		}
	}()

	return func(c *gin.Context) {
		// ClientIP honours X-Forwarded-For only from trusted proxies
		if !limiter.GetLimiter(c.ClientIP()).Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "Rate limit exceeded",
			})
			return
		}
		c.Next()
	}
}

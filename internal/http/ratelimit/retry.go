package ratelimit

import (
	"context"
	"math"
	"math/rand/v2"
	"strconv"
	"time"
)

// FetchRetryError is returned when every retry attempt failed
type FetchRetryError struct {
	URL        string
	Attempts   int
	LastStatus int
	LastError  error
}

func (e *FetchRetryError) Error() string {
	msg := "failed to fetch " + e.URL + " after " + strconv.Itoa(e.Attempts) + " attempts"
	if e.LastStatus != 0 {
		msg += " (HTTP " + strconv.Itoa(e.LastStatus) + ")"
	}
	if e.LastError != nil {
		msg += ": " + e.LastError.Error()
	}
	return msg
}

func (e *FetchRetryError) Unwrap() error {
	return e.LastError
}

// IsRetryableStatus checks if an HTTP status code is retryable: 429 and 5xx
func IsRetryableStatus(status int) bool {
	return status == 429 || (status >= 500 && status < 600)
}

// CalculateBackoff returns an exponential backoff with 0-25% jitter
func CalculateBackoff(attempt int, config Config) time.Duration {
	exponentialDelay := float64(config.InitialBackoffMs) * math.Pow(2.0, float64(attempt))
	cappedDelay := math.Min(exponentialDelay, float64(config.MaxBackoffMs))
	jitter := rand.Float64() * 0.25 * cappedDelay
	return time.Duration(cappedDelay+jitter) * time.Millisecond
}

// CalculateRateLimitBackoff returns the delay after an HTTP 429, honouring a
// Retry-After header given in seconds
func CalculateRateLimitBackoff(attempt int, config Config, retryAfter string) time.Duration {
	if seconds, err := strconv.Atoi(retryAfter); err == nil && seconds > 0 {
		return time.Duration(seconds)*time.Second + time.Duration(rand.IntN(1000))*time.Millisecond
	}

	exponentialDelay := float64(config.InitialBackoffMs) * math.Pow(3.0, float64(attempt))
	cappedDelay := math.Min(exponentialDelay, float64(config.MaxBackoffMs))
	jitter := rand.Float64() * 0.25 * cappedDelay
	return time.Duration(cappedDelay+jitter) * time.Millisecond
}

// Sleep waits for d or until ctx is done
func Sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

package http

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/farmaintel/price-service/internal/http/ratelimit"
	"github.com/rs/zerolog/log"
)

// DefaultUserAgent is a browser user agent; the central bank site rejects
// unknown clients
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36"

// Client is an HTTP client with rate limiting and retry logic
type Client struct {
	httpClient  *http.Client
	rateLimiter *ratelimit.RateLimiter
	config      ratelimit.Config
	userAgent   string
}

// NewClient creates a new HTTP client with rate limiting
func NewClient(config ratelimit.Config, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		httpClient:  &http.Client{Timeout: timeout},
		rateLimiter: ratelimit.NewRateLimiter(config),
		config:      config,
		userAgent:   DefaultUserAgent,
	}
}

// Get performs a GET request with rate limiting and retry logic
func (c *Client) Get(ctx context.Context, url string) (*http.Response, error) {
	var lastStatus int
	var lastErr error

	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		if err := c.rateLimiter.Throttle(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter error: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to build request for %s: %w", url, err)
		}
		req.Header.Set("User-Agent", c.userAgent)
		req.Header.Set("Accept", "text/html,application/xhtml+xml,*/*")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			if attempt < c.config.MaxRetries {
				if err := ratelimit.Sleep(ctx, ratelimit.CalculateBackoff(attempt, c.config)); err != nil {
					return nil, err
				}
				continue
			}
			break
		}

		lastStatus = resp.StatusCode
		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return resp, nil
		}
		resp.Body.Close()

		if !ratelimit.IsRetryableStatus(resp.StatusCode) || attempt == c.config.MaxRetries {
			return nil, &ratelimit.FetchRetryError{
				URL:        url,
				Attempts:   attempt + 1,
				LastStatus: resp.StatusCode,
			}
		}

		backoff := ratelimit.CalculateBackoff(attempt, c.config)
		if resp.StatusCode == http.StatusTooManyRequests {
			backoff = ratelimit.CalculateRateLimitBackoff(attempt, c.config, resp.Header.Get("Retry-After"))
		}
		log.Debug().Str("url", url).Int("status", resp.StatusCode).Dur("backoff", backoff).Msg("Retrying request")
		if err := ratelimit.Sleep(ctx, backoff); err != nil {
			return nil, err
		}
	}

	return nil, &ratelimit.FetchRetryError{
		URL:        url,
		Attempts:   c.config.MaxRetries + 1,
		LastStatus: lastStatus,
		LastError:  lastErr,
	}
}

// GetBytes performs a GET request and returns the response body
func (c *Client) GetBytes(ctx context.Context, url string) ([]byte, error) {
	resp, err := c.Get(ctx, url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	return data, nil
}

// SetTransport replaces the underlying round tripper
func (c *Client) SetTransport(rt http.RoundTripper) {
	c.httpClient.Transport = rt
}

// SetUserAgent overrides the User-Agent header
func (c *Client) SetUserAgent(ua string) {
	if ua != "" {
		c.userAgent = ua
	}
}

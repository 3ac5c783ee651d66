// internal/common/http/client.go
package http

import (
	"context"
	"net/http"
	"time"

	"golang.org/x/sync/semaphore"
)

// Client is an outbound HTTP client with a per-request timeout and a bound
// on the number of requests in flight.
type Client struct {
	httpClient *http.Client
	sem        *semaphore.Weighted
}

// NewClient builds a client. maxConcurrent <= 0 leaves concurrency unbounded.
func NewClient(timeout time.Duration, maxConcurrent int) *Client {
	c := &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
	if maxConcurrent > 0 {
		c.sem = semaphore.NewWeighted(int64(maxConcurrent))
	}
	return c
}

// DoWithContext waits for a free slot, then sends req bound to ctx.
// The slot is held until the response headers arrive.
func (c *Client) DoWithContext(ctx context.Context, req *http.Request) (*http.Response, error) {
	if c.sem != nil {
		if err := c.sem.Acquire(ctx, 1); err != nil {
			return nil, err
		}
		defer c.sem.Release(1)
	}
	return c.httpClient.Do(req.WithContext(ctx))
}

// Get issues a GET for url.
func (c *Client) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "gov-dash/1.0")
	return c.DoWithContext(ctx, req)
}

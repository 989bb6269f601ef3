// Package marketdata fetches macro indicators used to seed forecast
// scenarios, memoizing responses behind an expiring cache.
package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	// DefaultBaseURL points at the hosted macro indicator service.
	DefaultBaseURL = "https://macro.venturelab.dev/v1"

	// DefaultTTL is how long a fetched snapshot is served from cache.
	DefaultTTL = 15 * time.Minute

	indicatorsKey = "indicators:latest"

	maxResponseBytes = 1 << 20
)

// Client fetches macro indicators over HTTP. Responses are memoized in
// a Cache for the configured TTL, so repeated calls within the window
// cost no network round trip.
type Client struct {
	baseURL    string
	httpClient *http.Client
	cache      Cache
	ttl        time.Duration
	now        func() time.Time
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL points the client at a different indicator service.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.httpClient = h }
}

// WithCache replaces the in-process cache, e.g. with a RedisCache.
func WithCache(cache Cache) Option {
	return func(c *Client) { c.cache = cache }
}

// WithTTL overrides how long fetched indicators stay cached.
func WithTTL(ttl time.Duration) Option {
	return func(c *Client) { c.ttl = ttl }
}

// New returns a Client backed by an in-process cache.
func New(opts ...Option) *Client {
	c := &Client{
		baseURL:    DefaultBaseURL,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		cache:      NewMemoryCache(),
		ttl:        DefaultTTL,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Indicators returns the latest macro snapshot, fetching only when the
// cached copy is missing or expired.
func (c *Client) Indicators(ctx context.Context) (Indicators, error) {
	if e, ok := c.cache.Get(ctx, indicatorsKey); ok {
		return e.Indicators, nil
	}

	ind, err := c.fetch(ctx)
	if err != nil {
		return Indicators{}, err
	}

	now := c.now()
	// A failed cache write only loses the memoization.
	_ = c.cache.Set(ctx, indicatorsKey, Entry{
		Indicators: ind,
		FetchedAt:  now,
		ExpiresAt:  now.Add(c.ttl),
	})
	return ind, nil
}

func (c *Client) fetch(ctx context.Context) (Indicators, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/indicators", nil)
	if err != nil {
		return Indicators{}, fmt.Errorf("marketdata: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Indicators{}, fmt.Errorf("marketdata: fetch indicators: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return Indicators{}, fmt.Errorf("marketdata: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return Indicators{}, &APIError{
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(body)),
		}
	}

	var ind Indicators
	if err := json.Unmarshal(body, &ind); err != nil {
		return Indicators{}, fmt.Errorf("marketdata: decode indicators: %w", err)
	}
	if ind.AsOf.IsZero() {
		ind.AsOf = c.now()
	}
	return ind, nil
}

// APIError is a non-2xx response from the indicator service.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("marketdata api error (status %d): %s", e.StatusCode, e.Body)
}

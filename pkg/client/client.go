// Package client provides the core HTTP client for paginated intra API
// resources, with rate gating, retry with backoff, and optional
// response caching.
package client

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/ft-tools/intra-client/pkg/cache"
	"github.com/ft-tools/intra-client/pkg/ratelimit"
)

// Prometheus metrics for API requests.
var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "intra_requests_total",
		Help: "Total API requests by resource and status",
	}, []string{"resource", "status"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "intra_request_duration_seconds",
		Help:    "API request duration in seconds by resource",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10},
	}, []string{"resource"})

	errorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "intra_errors_total",
		Help: "Total API errors by class",
	}, []string{"class"})
)

// Config holds the client configuration.
type Config struct {
	// BaseURL is the API endpoint, e.g. "https://api.intra.42.fr/v2".
	BaseURL string

	// Token is the bearer token for the Authorization header.
	Token string

	// UserAgent identifies this client to the API.
	UserAgent string

	// PageSize is the page[size] query parameter value.
	PageSize int

	// Gate bounds the aggregate request rate. Every attempt, retries
	// included, takes one permit. Required.
	Gate *ratelimit.Gate

	// Cache is the optional page cache; nil disables caching.
	Cache *cache.Manager

	// Retry configures backoff behavior; the zero value means defaults.
	Retry RetryConfig

	// Clock drives backoff waits; nil means the system clock.
	Clock ratelimit.Clock

	// HTTPClient overrides the transport (for testing).
	HTTPClient *http.Client
}

// DefaultPageSize is used when Config.PageSize is unset.
const DefaultPageSize = 100

// Client fetches single pages of paginated API resources.
type Client struct {
	httpClient *http.Client
	gate       *ratelimit.Gate
	cache      *cache.Manager
	config     Config
	clock      ratelimit.Clock
	logger     zerolog.Logger
}

// New creates a new API client.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	if cfg.Token == "" {
		return nil, fmt.Errorf("bearer token is required")
	}
	if cfg.Gate == nil {
		return nil, fmt.Errorf("rate gate is required")
	}

	if cfg.PageSize <= 0 {
		cfg.PageSize = DefaultPageSize
	}
	if cfg.Retry.MaxAttempts <= 0 {
		cfg.Retry = DefaultRetryConfig()
	}

	clock := cfg.Clock
	if clock == nil {
		clock = ratelimit.SystemClock{}
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout: 30 * time.Second,
		}
	}

	return &Client{
		httpClient: httpClient,
		gate:       cfg.Gate,
		cache:      cfg.Cache,
		config:     cfg,
		clock:      clock,
		logger:     log.With().Str("component", "intra-client").Logger(),
	}, nil
}

// PageSize returns the configured page size.
func (c *Client) PageSize() int {
	return c.config.PageSize
}

// FetchPage fetches one page of a resource and returns its payload and
// the collection's total page count. Transient failures (429, 5xx,
// network) are retried with backoff behind the rate gate; other 4xx
// responses fail immediately.
func (c *Client) FetchPage(ctx context.Context, resource string, page int) ([]byte, int, error) {
	if page < 1 {
		return nil, 0, fmt.Errorf("page number must be >= 1 (got %d)", page)
	}

	pageURL, err := c.pageURL(resource, page)
	if err != nil {
		return nil, 0, fmt.Errorf("build page URL: %w", err)
	}

	startTime := time.Now()
	defer func() {
		requestDuration.WithLabelValues(resource).Observe(time.Since(startTime).Seconds())
	}()

	// A cached entry turns this fetch into a conditional request; a 304
	// answer is then served from cache.
	key := cache.Key{Resource: resource, Page: page, PageSize: c.config.PageSize}
	var cached *cache.Entry
	if c.cache != nil {
		entry, err := c.cache.Get(ctx, key)
		if err != nil && err != cache.ErrCacheMiss {
			c.logger.Warn().Err(err).Str("resource", resource).Int("page", page).Msg("Cache get error")
		}
		cached = entry
	}

	var (
		data  []byte
		total int
	)

	err = retryWithBackoff(ctx, c.clock, c.config.Retry, c.logger, func() error {
		// One permit per attempt, retries included.
		if err := c.gate.Acquire(ctx); err != nil {
			return err
		}
		return c.attempt(ctx, pageURL, resource, page, key, cached, &data, &total)
	})
	if err != nil {
		return nil, 0, err
	}

	return data, total, nil
}

// attempt performs a single HTTP attempt for one page.
func (c *Client) attempt(ctx context.Context, pageURL, resource string, page int, key cache.Key, cached *cache.Entry, data *[]byte, total *int) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.config.Token)
	req.Header.Set("Accept", "application/json")
	if c.config.UserAgent != "" {
		req.Header.Set("User-Agent", c.config.UserAgent)
	}
	if cached != nil && cached.ETag != "" {
		req.Header.Set("If-None-Match", cached.ETag)
	}

	c.logger.Debug().
		Str("resource", resource).
		Int("page", page).
		Msg("Executing API request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		errorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
		requestsTotal.WithLabelValues(resource, "network_error").Inc()
		return &APIError{
			Class:    ErrorClassNetwork,
			Resource: resource,
			Page:     page,
			Message:  "request failed",
			Err:      err,
		}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotModified && cached != nil:
		requestsTotal.WithLabelValues(resource, "304").Inc()
		cache.NotModifiedResponses.Inc()

		c.logger.Debug().
			Str("resource", resource).
			Int("page", page).
			Msg("304 Not Modified - using cache")

		if expiresStr := resp.Header.Get("Expires"); expiresStr != "" {
			if newExpires, err := http.ParseTime(expiresStr); err == nil {
				if err := c.cache.UpdateTTL(ctx, key, newExpires); err != nil {
					c.logger.Warn().Err(err).Msg("Failed to update cache TTL")
				}
			}
		}

		*data = cached.Data
		*total = cached.TotalPages
		return nil

	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			errorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
			return &APIError{
				Class:    ErrorClassNetwork,
				Resource: resource,
				Page:     page,
				Message:  "read response body",
				Err:      err,
			}
		}

		requestsTotal.WithLabelValues(resource, strconv.Itoa(resp.StatusCode)).Inc()

		*data = body
		*total = totalPages(resp.Header, c.config.PageSize)

		if c.cache != nil {
			entry := cache.NewEntry(body, resp.Header, *total)
			if entry.TTL() > 0 {
				if err := c.cache.Set(ctx, key, entry); err != nil {
					c.logger.Warn().Err(err).Msg("Failed to cache response")
				}
			}
		}
		return nil

	default:
		class := classifyStatus(resp.StatusCode)
		errorsTotal.WithLabelValues(string(class)).Inc()
		requestsTotal.WithLabelValues(resource, strconv.Itoa(resp.StatusCode)).Inc()

		c.logger.Warn().
			Str("resource", resource).
			Int("page", page).
			Int("status", resp.StatusCode).
			Str("error_class", string(class)).
			Msg("API request error")

		apiErr := &APIError{
			StatusCode: resp.StatusCode,
			Class:      class,
			Resource:   resource,
			Page:       page,
			Message:    resp.Status,
		}
		if class == ErrorClassRateLimit {
			apiErr.RetryAfter = parseRetryAfter(resp.Header)
		}
		return apiErr
	}
}

// pageURL builds the request URL for one page of a resource. The
// resource may already carry filter query parameters.
func (c *Client) pageURL(resource string, page int) (string, error) {
	raw := strings.TrimRight(c.config.BaseURL, "/") + "/" + strings.TrimLeft(resource, "/")

	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}

	q := u.Query()
	q.Set("page[number]", strconv.Itoa(page))
	q.Set("page[size]", strconv.Itoa(c.config.PageSize))
	u.RawQuery = q.Encode()

	return u.String(), nil
}

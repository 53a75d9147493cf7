package client

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"

	"github.com/ft-tools/intra-client/pkg/ratelimit"
)

// Prometheus metrics for retry operations.
var (
	retriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "intra_retries_total",
		Help: "Total number of retry attempts by error class",
	}, []string{"error_class"})

	retryBackoffSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "intra_retry_backoff_seconds",
		Help:    "Backoff duration for retries by error class",
		Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60},
	}, []string{"error_class"})

	retryExhaustedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "intra_retry_exhausted_total",
		Help: "Total number of times retry attempts were exhausted by error class",
	}, []string{"error_class"})
)

// RetryConfig holds the configuration for retry logic.
type RetryConfig struct {
	// MaxAttempts is the maximum number of attempts (including the initial request).
	MaxAttempts int

	// InitialBackoff is the delay before the first retry.
	InitialBackoff time.Duration

	// MaxBackoff caps the exponential backoff.
	MaxBackoff time.Duration
}

// DefaultRetryConfig returns the default retry configuration.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:    3,
		InitialBackoff: 1 * time.Second,
		MaxBackoff:     30 * time.Second,
	}
}

// BackoffDelay returns the backoff delay before retry number attempt
// (counted from 0): InitialBackoff doubled per attempt, capped at
// MaxBackoff. Pure so the schedule is testable without a clock.
func BackoffDelay(cfg RetryConfig, attempt int) time.Duration {
	delay := cfg.InitialBackoff
	for i := 0; i < attempt; i++ {
		delay *= 2
		if delay >= cfg.MaxBackoff {
			return cfg.MaxBackoff
		}
	}
	if delay > cfg.MaxBackoff {
		return cfg.MaxBackoff
	}
	return delay
}

// retryWithBackoff executes fn until it succeeds, fails with a
// non-retryable error, or exhausts the configured attempts. Retryable
// failures (rate limit, server, network) back off exponentially between
// attempts; each wait is the largest of the computed schedule, a 429
// Retry-After hint, and the previous wait, so waits never decrease
// within a run. Waiting goes through the injected clock and respects
// context cancellation.
func retryWithBackoff(ctx context.Context, clock ratelimit.Clock, cfg RetryConfig, logger zerolog.Logger, fn func() error) error {
	var (
		lastErr   error
		prevDelay time.Duration
	)

	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		err := fn()
		if err == nil {
			if attempt > 1 {
				logger.Info().
					Int("attempt", attempt).
					Msg("Request succeeded after retry")
			}
			return nil
		}

		lastErr = err

		var apiErr *APIError
		if !errors.As(err, &apiErr) || !shouldRetry(apiErr.Class) {
			// Fatal client errors and plain context errors surface
			// immediately, with no backoff spent on them.
			return lastErr
		}

		if attempt >= cfg.MaxAttempts {
			break
		}

		delay := BackoffDelay(cfg, attempt-1)
		if apiErr.RetryAfter > delay {
			delay = apiErr.RetryAfter
		}
		// Waits never shrink across a run: a large Retry-After hint
		// floors every later wait even when the next response carries
		// no hint.
		if delay < prevDelay {
			delay = prevDelay
		}
		prevDelay = delay

		retriesTotal.WithLabelValues(string(apiErr.Class)).Inc()
		retryBackoffSeconds.WithLabelValues(string(apiErr.Class)).Observe(delay.Seconds())

		logger.Debug().
			Str("error_class", string(apiErr.Class)).
			Int("attempt", attempt).
			Dur("backoff", delay).
			Msg("Retrying request after backoff")

		select {
		case <-ctx.Done():
			logger.Warn().
				Str("error_class", string(apiErr.Class)).
				Int("attempt", attempt).
				Msg("Context cancelled during retry backoff")
			return fmt.Errorf("retry backoff: %w", ctx.Err())
		case <-clock.After(delay):
		}
	}

	var apiErr *APIError
	if errors.As(lastErr, &apiErr) {
		retryExhaustedTotal.WithLabelValues(string(apiErr.Class)).Inc()
	}
	logger.Warn().
		Int("max_attempts", cfg.MaxAttempts).
		Msg("Retry attempts exhausted")

	return fmt.Errorf("%w after %d attempts: %w", ErrRetryExhausted, cfg.MaxAttempts, lastErr)
}

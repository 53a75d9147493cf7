// Package metrics provides the central Prometheus registry reference
// for the intra client. Metrics are defined in their respective
// packages (client, cache, ratelimit) to maintain modularity and avoid
// circular dependencies.
//
// This package provides documentation and reference for all available
// metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry is the default Prometheus registry used by the intra client.
// All metrics are automatically registered via promauto in their
// respective packages.
var Registry = prometheus.DefaultRegisterer

// Metrics Documentation
//
// Rate Gate Metrics (pkg/ratelimit):
//   - intra_rate_permits_granted_total (Counter): Permits granted by the gate
//   - intra_rate_permit_waiters (Gauge): Callers currently waiting for a permit
//   - intra_rate_permit_wait_seconds (Histogram): Time spent waiting for a permit
//
// Request Metrics (pkg/client):
//   - intra_requests_total{resource, status} (Counter): Requests by resource and HTTP status
//   - intra_request_duration_seconds{resource} (Histogram): Request duration by resource
//   - intra_errors_total{class} (Counter): Errors by class (client, server, rate_limit, network)
//
// Retry Metrics (pkg/client):
//   - intra_retries_total{error_class} (Counter): Retry attempts by error class
//   - intra_retry_backoff_seconds{error_class} (Histogram): Backoff duration by error class
//   - intra_retry_exhausted_total{error_class} (Counter): Requests that exhausted max retries
//
// Cache Metrics (pkg/cache):
//   - intra_cache_hits_total (Counter): Page cache hits
//   - intra_cache_misses_total (Counter): Page cache misses
//   - intra_cache_size_bytes (Gauge): Bytes written to the cache
//   - intra_cache_errors_total{operation} (Counter): Cache operation errors
//   - intra_304_responses_total (Counter): 304 Not Modified responses served from cache
//
// Example Prometheus Queries:
//
//   # Effective request rate
//   rate(intra_rate_permits_granted_total[1m])
//
//   # Share of time spent gated
//   histogram_quantile(0.95, rate(intra_rate_permit_wait_seconds_bucket[5m]))
//
//   # Retry pressure by class
//   rate(intra_retries_total[5m])
//
//   # Cache hit rate
//   rate(intra_cache_hits_total[5m]) /
//   (rate(intra_cache_hits_total[5m]) + rate(intra_cache_misses_total[5m]))

package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// cacheHits tracks page cache hits.
	cacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "intra_cache_hits_total",
			Help: "Total number of page cache hits",
		},
	)

	// cacheMisses tracks page cache misses.
	cacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "intra_cache_misses_total",
			Help: "Total number of page cache misses",
		},
	)

	// cacheSizeBytes tracks bytes written to the cache.
	cacheSizeBytes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "intra_cache_size_bytes",
			Help: "Bytes written to the page cache",
		},
	)

	// cacheErrors tracks cache operation errors.
	cacheErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "intra_cache_errors_total",
			Help: "Total number of cache operation errors",
		},
		[]string{"operation"}, // "get", "set", "delete"
	)

	// NotModifiedResponses tracks 304 responses served from cache.
	NotModifiedResponses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "intra_304_responses_total",
			Help: "Total number of 304 Not Modified responses served from cache",
		},
	)
)

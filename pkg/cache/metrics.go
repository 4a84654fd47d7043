package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// cacheHits tracks entity cache hits.
	cacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "busadmin_cache_hits_total",
			Help: "Total number of entity cache hits",
		},
	)

	// cacheMisses tracks entity cache misses.
	cacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "busadmin_cache_misses_total",
			Help: "Total number of entity cache misses",
		},
	)

	// NotModifiedResponses tracks 304 revalidations served from cache.
	NotModifiedResponses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "busadmin_304_responses_total",
			Help: "Total number of 304 Not Modified responses served from cache",
		},
	)

	// ConditionalRequestsSent tracks conditional requests sent.
	ConditionalRequestsSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "busadmin_conditional_requests_total",
			Help: "Total number of conditional requests sent with cached validators",
		},
	)

	// cacheErrors tracks cache operation errors.
	cacheErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "busadmin_cache_errors_total",
			Help: "Total number of cache operation errors",
		},
		[]string{"operation"}, // "get", "set", "delete"
	)
)

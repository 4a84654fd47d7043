// Package metrics provides the centralized Prometheus metrics reference for
// the admin client. All metrics are defined in their respective packages
// (admin, cache, throttle) to maintain modularity and avoid circular
// dependencies.
//
// This package provides documentation and reference for all available metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry is the default Prometheus registry used by the admin client.
// All metrics are automatically registered via promauto in their respective packages.
var Registry = prometheus.DefaultRegisterer

// Metrics Documentation
//
// Request Metrics (pkg/admin):
//   - busadmin_requests_total{resource, status} (Counter): Requests by resource kind and HTTP status
//   - busadmin_request_duration_seconds{resource} (Histogram): Request duration by resource kind
//   - busadmin_errors_total{class} (Counter): Errors by class (client, server, throttled, network)
//   - busadmin_pages_fetched_total{resource} (Counter): List pages fetched by resource kind
//   - busadmin_entries_dropped_total{resource} (Counter): Feed entries dropped by the per-record decoder
//
// Search Metrics (pkg/search):
//   - busadmin_search_requests_total{resource, status} (Counter): Search-service requests
//   - busadmin_search_pages_fetched_total{resource} (Counter): Search listing pages fetched
//
// Retry Metrics (pkg/admin):
//   - busadmin_retries_total{error_class} (Counter): Retry attempts by error class
//   - busadmin_retry_backoff_seconds{error_class} (Histogram): Backoff duration by error class
//   - busadmin_retry_exhausted_total{error_class} (Counter): Requests that exhausted max retries
//
// Cache Metrics (pkg/cache):
//   - busadmin_cache_hits_total (Counter): Entity cache hits
//   - busadmin_cache_misses_total (Counter): Entity cache misses
//   - busadmin_304_responses_total (Counter): 304 Not Modified responses served from cache
//   - busadmin_conditional_requests_total (Counter): Conditional requests sent
//   - busadmin_cache_errors_total{operation} (Counter): Cache operation errors
//
// Throttle Metrics (pkg/throttle):
//   - busadmin_throttle_blocks_total (Counter): Requests blocked by the shared window
//   - busadmin_throttled_responses_total (Counter): 429 responses observed
//   - busadmin_throttle_blocked_seconds (Gauge): Remaining backoff window
//
// Example Prometheus Queries:
//
//	# Cache Hit Rate
//	rate(busadmin_cache_hits_total[5m]) /
//	(rate(busadmin_cache_hits_total[5m]) + rate(busadmin_cache_misses_total[5m]))
//
//	# Request Error Rate
//	rate(busadmin_errors_total[5m])
//
//	# P95 Request Latency
//	histogram_quantile(0.95, rate(busadmin_request_duration_seconds_bucket[5m]))
//
//	# Dropped Entry Rate (per-record decode failures)
//	rate(busadmin_entries_dropped_total[5m])

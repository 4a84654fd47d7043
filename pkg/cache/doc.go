// Package cache provides a Redis-backed response cache for single-entity
// reads against the management API.
//
// Entity descriptions change rarely and reads dominate admin workloads, so
// GET responses are cached and revalidated with conditional requests:
//
//   - ETag support (If-None-Match)
//   - Last-Modified support (If-Modified-Since)
//   - Fixed TTL per manager; a 304 refreshes the entry's window
//   - Deterministic cache key generation (path + api-version)
//   - Prometheus metrics for observability
//
// Listing responses are never cached: their continuation tokens are offsets
// into a collection that may shift between fetches.
//
// # Basic Usage
//
//	manager := cache.NewManager(redisClient, 5*time.Minute)
//
//	key := cache.Key{Path: "/orders", APIVersion: "2021-05"}
//	entry, err := manager.Get(ctx, key)
//	if err == cache.ErrCacheMiss {
//		// fetch from the API
//	}
//
// # Conditional Requests
//
//	if cache.CanRevalidate(entry) {
//		cache.AddConditionalHeaders(req, entry)
//		// server answers 304 when the entity is unchanged
//	}
package cache

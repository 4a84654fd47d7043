package cache

import (
	"net/http"
	"time"
)

// Entry is a cached single-entity response.
type Entry struct {
	// Data is the response body.
	Data []byte `json:"data"`

	// ETag for conditional requests (If-None-Match).
	ETag string `json:"etag"`

	// LastModified from the response, for If-Modified-Since.
	LastModified time.Time `json:"last_modified"`

	// StatusCode of the cached response.
	StatusCode int `json:"status_code"`

	// Headers of the cached response.
	Headers http.Header `json:"headers"`

	// CachedAt is when the entry was stored.
	CachedAt time.Time `json:"cached_at"`

	// ExpiresAt is when the entry becomes stale.
	ExpiresAt time.Time `json:"expires_at"`
}

// IsExpired returns true once the entry is past its window.
func (e *Entry) IsExpired() bool {
	return time.Now().After(e.ExpiresAt)
}

// TTL returns the remaining time in the window, or 0 if expired.
func (e *Entry) TTL() time.Duration {
	ttl := time.Until(e.ExpiresAt)
	if ttl < 0 {
		return 0
	}
	return ttl
}

// CanRevalidate reports whether the entry carries a validator usable for a
// conditional request.
func CanRevalidate(entry *Entry) bool {
	if entry == nil {
		return false
	}
	return entry.ETag != "" || !entry.LastModified.IsZero()
}

// AddConditionalHeaders sets If-None-Match or If-Modified-Since on header
// from the entry's validators. ETag wins when both are present.
func AddConditionalHeaders(header http.Header, entry *Entry) {
	if entry == nil || header == nil {
		return
	}

	if entry.ETag != "" {
		header.Set("If-None-Match", entry.ETag)
	} else if !entry.LastModified.IsZero() {
		header.Set("If-Modified-Since", entry.LastModified.Format(http.TimeFormat))
	}
}

// Package throttle implements management-API throttle tracking and request
// gating. The API answers 429 with a Retry-After header when a namespace is
// being throttled; the tracker shares the backoff window across client
// instances via Redis so that one process hitting the limit quiets the rest.
package throttle

import (
	"time"
)

// Redis keys for throttle state storage.
const (
	RedisKeyBlockedUntil = "busadmin:throttle:blocked_until"
	RedisKeyLastStatus   = "busadmin:throttle:last_status"
	RedisKeyLastUpdate   = "busadmin:throttle:last_update"
)

// DefaultRetryAfter is applied when a throttled response carries no usable
// Retry-After header.
const DefaultRetryAfter = 10 * time.Second

// State is the current shared throttle state.
type State struct {
	// BlockedUntil is the end of the server-imposed backoff window. Zero when
	// the namespace is not throttled.
	BlockedUntil time.Time `json:"blocked_until"`

	// LastStatus is the HTTP status that last updated the state.
	LastStatus int `json:"last_status"`

	// LastUpdate is when this state was written.
	LastUpdate time.Time `json:"last_update"`
}

// IsBlocked reports whether requests should currently be held back.
func (s *State) IsBlocked() bool {
	return time.Now().Before(s.BlockedUntil)
}

// TimeUntilUnblocked returns the remaining backoff window, or 0 when clear.
func (s *State) TimeUntilUnblocked() time.Duration {
	d := time.Until(s.BlockedUntil)
	if d < 0 {
		return 0
	}
	return d
}

// IsStale returns true if the state is older than maxAge.
func (s *State) IsStale(maxAge time.Duration) bool {
	return time.Since(s.LastUpdate) > maxAge
}

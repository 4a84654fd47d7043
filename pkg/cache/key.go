package cache

import (
	"strings"
)

// Key identifies a cached single-entity response.
type Key struct {
	// Path is the entity path, e.g. "/orders" or "/mytopic/Subscriptions/billing".
	Path string

	// APIVersion the response was requested with; different versions can
	// shape the same entity differently.
	APIVersion string
}

// String generates a deterministic cache key string.
// Format: busadmin:entity:<path>:<api-version>
func (k Key) String() string {
	parts := []string{"busadmin", "entity"}

	path := strings.Trim(k.Path, "/")
	if path != "" {
		parts = append(parts, path)
	}
	if k.APIVersion != "" {
		parts = append(parts, k.APIVersion)
	}

	return strings.Join(parts, ":")
}

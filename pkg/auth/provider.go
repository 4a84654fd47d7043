// Package auth supplies per-request credentials for the management API.
// The client invokes the provider at most once per outbound request.
package auth

import "context"

// TokenProvider yields an Authorization header value for a target resource
// URI. Implementations must be safe for concurrent use.
type TokenProvider interface {
	GetToken(ctx context.Context, audience string) (string, error)
}

// StaticTokenProvider wraps a pre-acquired bearer token.
type StaticTokenProvider struct {
	Token string
}

// GetToken implements TokenProvider.
func (p StaticTokenProvider) GetToken(_ context.Context, _ string) (string, error) {
	return "Bearer " + p.Token, nil
}

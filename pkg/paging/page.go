package paging

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
)

// ErrInvalidContinuationToken is returned when a caller-supplied continuation
// token is not a base-10 integer >= 0. It is raised before any network call.
var ErrInvalidContinuationToken = errors.New("invalid continuation token")

// Page is one window of a listed collection. Items are in server-returned
// order. ContinuationToken is empty on the last page.
type Page[T any] struct {
	Items             []T
	ContinuationToken string
}

// FetchFunc performs exactly one list round trip for the window starting at
// skip. top is the caller's page-size hint; the server may cap it, and top <= 0
// means no hint. Transport errors must be returned unchanged.
type FetchFunc[T any] func(ctx context.Context, skip, top int) (Page[T], error)

// ParseContinuationToken decodes a continuation token into a skip offset.
// The empty token means "start" (offset 0).
func ParseContinuationToken(token string) (int, error) {
	if token == "" {
		return 0, nil
	}
	skip, err := strconv.Atoi(token)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not an integer", ErrInvalidContinuationToken, token)
	}
	if skip < 0 {
		return 0, fmt.Errorf("%w: %q is negative", ErrInvalidContinuationToken, token)
	}
	return skip, nil
}

// FormatContinuationToken encodes a skip offset as a continuation token.
func FormatContinuationToken(skip int) string {
	return strconv.Itoa(skip)
}

// TokenFromNextLink extracts the continuation token from a next-link URL by
// reading its $skip query parameter. A missing or unparseable link yields the
// empty token (no more pages).
func TokenFromNextLink(href string) string {
	if href == "" {
		return ""
	}
	u, err := url.Parse(href)
	if err != nil {
		return ""
	}
	return u.Query().Get("$skip")
}

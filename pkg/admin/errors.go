package admin

import (
	"errors"
	"fmt"
)

// ErrNotFound is wrapped by errors returned when a single-entity fetch finds
// nothing, whether the server answered 404 or an empty feed. Listing never
// produces it; an empty collection is a valid result.
var ErrNotFound = errors.New("entity not found")

// ErrorClass represents a classification of request errors.
type ErrorClass string

const (
	// ErrorClassClient represents 4xx client errors.
	ErrorClassClient ErrorClass = "client"

	// ErrorClassServer represents 5xx server errors.
	ErrorClassServer ErrorClass = "server"

	// ErrorClassThrottled represents 429 throttled responses.
	ErrorClassThrottled ErrorClass = "throttled"

	// ErrorClassNetwork represents network/timeout errors.
	ErrorClassNetwork ErrorClass = "network"
)

// AdminError represents a management-API error with additional context.
type AdminError struct {
	StatusCode int
	ErrorClass ErrorClass
	Message    string
	Err        error
}

// Error implements the error interface.
func (e *AdminError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("admin %s error (status %d): %s: %v",
			e.ErrorClass, e.StatusCode, e.Message, e.Err)
	}
	return fmt.Sprintf("admin %s error (status %d): %s",
		e.ErrorClass, e.StatusCode, e.Message)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *AdminError) Unwrap() error {
	return e.Err
}

// notFound builds the not-found error for an entity path.
func notFound(path string) error {
	return &AdminError{
		StatusCode: 404,
		ErrorClass: ErrorClassClient,
		Message:    fmt.Sprintf("entity %q does not exist", path),
		Err:        ErrNotFound,
	}
}

// classifyStatus categorizes an HTTP status for handling and observability.
func classifyStatus(status int) ErrorClass {
	switch {
	case status == 429:
		return ErrorClassThrottled
	case status >= 400 && status < 500:
		return ErrorClassClient
	case status >= 500:
		return ErrorClassServer
	default:
		return ""
	}
}

// shouldRetry determines if an error class should be retried.
func shouldRetry(errorClass ErrorClass) bool {
	switch errorClass {
	case ErrorClassClient:
		// 4xx errors are deterministic, retrying wastes the throttle budget
		return false
	case ErrorClassServer:
		return true
	case ErrorClassThrottled:
		return true
	case ErrorClassNetwork:
		return true
	default:
		return false
	}
}

package atom

import (
	"errors"
	"fmt"
)

// ErrNoEntry indicates a single-resource response carried no entry. Callers
// at single-item fetch sites promote it to their own not-found error; listing
// call sites never see it because an empty feed is a valid page.
var ErrNoEntry = errors.New("response contains no entry")

// maxSnippet bounds how much of a bad body a ParseError keeps for diagnostics.
const maxSnippet = 256

// ParseError reports a top-level shape mismatch: the response body was not
// the envelope the call expected. It carries the original HTTP status and a
// truncated body snippet.
type ParseError struct {
	Status  int
	Message string
	Snippet string
	Err     error
}

func newParseError(status int, message string, body []byte, err error) *ParseError {
	snippet := string(body)
	if len(snippet) > maxSnippet {
		snippet = snippet[:maxSnippet]
	}
	return &ParseError{
		Status:  status,
		Message: message,
		Snippet: snippet,
		Err:     err,
	}
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("atom parse error (status %d): %s: %v", e.Status, e.Message, e.Err)
	}
	return fmt.Sprintf("atom parse error (status %d): %s", e.Status, e.Message)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *ParseError) Unwrap() error {
	return e.Err
}

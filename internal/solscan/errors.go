package solscan

import (
	"errors"
	"fmt"
)

// ErrMissingAPIKey is returned by live calls when no API key is configured.
// It is raised before any HTTP request is made.
var ErrMissingAPIKey = errors.New("solscan api key is not set")

// ErrEmptyResponse is returned when the provider answers 200 with no body.
var ErrEmptyResponse = errors.New("empty response from solscan")

// AuthError means the provider rejected the API key. Never retried.
type AuthError struct {
	StatusCode int
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("solscan rejected credentials (status %d)", e.StatusCode)
}

// FetchError means a page request exhausted the retry budget. It carries
// the page at which the fetch failed and wraps the last underlying cause.
type FetchError struct {
	Page int
	Err  error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch page %d: retries exhausted: %v", e.Page, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

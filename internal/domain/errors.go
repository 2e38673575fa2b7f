package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidQuery signals a query that cannot be compiled.
	ErrInvalidQuery = errors.New("invalid query")
	// ErrSourceNotFound signals an unknown corpus source name.
	ErrSourceNotFound = errors.New("source not found")
	// ErrInvalidURL signals a URL that is not an absolute http(s) URL.
	ErrInvalidURL = errors.New("invalid url")
	// ErrFetchFailed signals a failed remote fetch (transport error or non-200 status).
	ErrFetchFailed = errors.New("fetch failed")
	// ErrDocumentTooLarge signals a remote document above the configured size limit.
	ErrDocumentTooLarge = errors.New("document too large")
	// ErrInvalidJSON signals a fetched document that is not valid JSON.
	ErrInvalidJSON = errors.New("invalid json")
)

// FetchError wraps ErrFetchFailed with the upstream status code.
type FetchError struct {
	URL        string
	StatusCode int
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("%s: %s returned status %d", ErrFetchFailed.Error(), e.URL, e.StatusCode)
}

func (e *FetchError) Unwrap() error { return ErrFetchFailed }

// NewFetchError creates a fetch error for a non-200 upstream response.
func NewFetchError(url string, statusCode int) error {
	return &FetchError{URL: url, StatusCode: statusCode}
}

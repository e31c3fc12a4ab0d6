package kiwix

import (
	"errors"
	"fmt"
)

var (
	// ErrUnexpectedStatus is returned when the server answers with a non-2xx status.
	ErrUnexpectedStatus = errors.New("unexpected HTTP status")

	// ErrBodyTooLarge is returned when a response body exceeds the configured limit.
	ErrBodyTooLarge = errors.New("response body too large")

	// ErrInvalidProxyAddress is returned when the proxy address is not in "host:port" format.
	ErrInvalidProxyAddress = errors.New("invalid proxy address: must be host:port")
)

// FetchError wraps any failure that happened while fetching a page.
// Use errors.Is on it to inspect the cause, e.g. context.DeadlineExceeded.
type FetchError struct {
	// Title is the requested page title.
	Title string

	// URL is the page URL built from Title.
	URL string

	// Err is the underlying cause.
	Err error
}

// Error implements the error interface.
func (e *FetchError) Error() string {
	return fmt.Sprintf("failed to fetch %q from %s: %v", e.Title, e.URL, e.Err)
}

// Unwrap returns the underlying cause.
func (e *FetchError) Unwrap() error {
	return e.Err
}

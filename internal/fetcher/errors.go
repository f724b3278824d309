package fetcher

import (
	"errors"
	"fmt"
)

var (
	// ErrProxyAuth is returned when the proxy rejects the credentials (HTTP 407).
	// Unlike other fetch failures it is not transient: every later request would fail the same way.
	ErrProxyAuth = errors.New("proxy authentication failed")
	// ErrStatus marks a response with a non-2xx status code.
	ErrStatus = errors.New("unexpected status code")
)

// FetchError describes a failed fetch of a single URL.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: status code error: [%d] %v", e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

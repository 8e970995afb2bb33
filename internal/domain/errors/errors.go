package errors

import (
	"errors"
	"fmt"
)

var (
	// ErrConnection is a transport failure (DNS, TLS, timeout, reset). Always safe to retry.
	ErrConnection = errors.New("upstream connection failed")

	// ErrUpstreamHTTP is any upstream response with status >= 400.
	ErrUpstreamHTTP = errors.New("upstream http error")

	// ErrUpstreamBlocked means the upstream served an abuse-detection page.
	// Retrying only extends the block.
	ErrUpstreamBlocked = errors.New("upstream blocked the request")

	// ErrUpstreamFault means the upstream served its generic error page or an unreadable payload.
	ErrUpstreamFault = errors.New("upstream error page")

	// ErrInitializationFailed means no token extractor matched any candidate page.
	ErrInitializationFailed = errors.New("session initialization failed")

	// ErrInvalidTarget is a URL outside the upstream allowlist.
	ErrInvalidTarget = errors.New("invalid upstream target")

	// ErrInvalidInput is a malformed date, time or argument.
	ErrInvalidInput = errors.New("invalid input")
)

// HTTPError carries the status of a failed upstream response.
type HTTPError struct {
	StatusCode int
	URL        string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("upstream returned HTTP %d for %s", e.StatusCode, e.URL)
}

func (e *HTTPError) Unwrap() error {
	return ErrUpstreamHTTP
}

// Retryable reports whether the caller may retry the failed operation as is.
func Retryable(err error) bool {
	return errors.Is(err, ErrConnection)
}

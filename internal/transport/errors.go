package transport

import (
	"errors"
	"fmt"
	"io"
	"net/http"
)

var (
	// ErrNetwork is returned when a connection or read fails.
	ErrNetwork = errors.New("network error")
	// ErrTimeout is returned when an operation exceeded the configured timeout.
	ErrTimeout = errors.New("operation timed out")
	// ErrBadStatus is returned for non-2xx responses. See StatusError.
	ErrBadStatus = errors.New("unexpected http status")
	// ErrRangeNotSupported is returned when a resume request was not answered
	// with the requested byte range.
	ErrRangeNotSupported = errors.New("server did not honour the byte range")
	// ErrTooManyRedirects is returned after more than maxRedirects hops.
	ErrTooManyRedirects = errors.New("too many redirects")
)

// StatusError carries the status code of a failed response.
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: %d %s", e.URL, e.Code, http.StatusText(e.Code))
}

// Is makes errors.Is(err, ErrBadStatus) hold for every StatusError.
func (e *StatusError) Is(target error) bool {
	return target == ErrBadStatus
}

// Unwrap exposes ErrBadStatus for %w chains and error dialogs.
func (e *StatusError) Unwrap() error {
	return ErrBadStatus
}

// IsRetryable reports whether an operation failing with err may succeed
// when repeated.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		switch {
		case statusErr.Code >= http.StatusInternalServerError,
			statusErr.Code == http.StatusRequestTimeout,
			statusErr.Code == http.StatusTooManyRequests:
			return true
		default:
			return false
		}
	}

	if errors.Is(err, ErrRangeNotSupported) || errors.Is(err, ErrTooManyRedirects) {
		return false
	}

	return errors.Is(err, ErrNetwork) ||
		errors.Is(err, ErrTimeout) ||
		errors.Is(err, io.ErrUnexpectedEOF)
}

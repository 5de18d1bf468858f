package api

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidURL       = errors.New("invalid url")
	ErrUnsupportedHost  = errors.New("unsupported host")
	ErrUnexpectedStatus = errors.New("unexpected status code")
)

var (
	_ error = &ValidationError{}
	_ error = &TransportError{}
)

// ValidationError is returned for thread URLs that can not be downloaded from.
// Nothing is requested before it is reported.
type ValidationError struct {
	err error
	url string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s (url=%s)", e.err, e.url)
}

func (e *ValidationError) Unwrap() error {
	return e.err
}

// TransportError describes a failed request: either a connection level failure
// or a response with a non-200 status.
type TransportError struct {
	Err        error
	URL        string
	StatusCode int
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: HTTP %d (url=%s)", ErrUnexpectedStatus, e.StatusCode, e.URL)
	}
	return fmt.Sprintf("request failed (url=%s): %s", e.URL, e.Err)
}

func (e *TransportError) Unwrap() error {
	if e.StatusCode != 0 {
		return ErrUnexpectedStatus
	}
	return e.Err
}

// StatusError builds a TransportError for a response that was not 200 OK.
func StatusError(url string, code int) *TransportError {
	return &TransportError{URL: url, StatusCode: code}
}

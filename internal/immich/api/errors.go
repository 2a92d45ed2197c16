package api

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrDownloadTimeout is returned when an asset download does not complete
// within its deadline.
var ErrDownloadTimeout = errors.New("asset download timed out")

// StatusError is returned when the immich server responds with a non-2xx
// status code.
type StatusError struct {
	StatusCode int
	Status     string
	// Body holds the start of the response body, if any, for diagnostics.
	Body string
}

func (e *StatusError) Error() string {
	if e.StatusCode == http.StatusUnauthorized {
		return "invalid immich api key"
	}
	if e.Body == "" {
		return fmt.Sprintf("unexpected status code %d", e.StatusCode)
	}
	return fmt.Sprintf("unexpected status code %d: %s", e.StatusCode, e.Body)
}

// ConnectivityError is returned when a request could not complete, such as
// DNS failures, refused connections or timeouts.
type ConnectivityError struct {
	Op  string
	Err error
}

func (e *ConnectivityError) Error() string {
	return fmt.Sprintf("%s: immich server unreachable: %v", e.Op, e.Err)
}

func (e *ConnectivityError) Unwrap() error { return e.Err }

package pipeline

import (
	"errors"
	"net/http"
)

// Sentinel errors for pipeline operations.
var (
	ErrRunNotFound = errors.New("pipeline run not found")
	ErrNotRunning  = errors.New("pipeline run is not running")
	ErrCanceled    = errors.New("pipeline run canceled")
)

// MapHTTPStatus translates pipeline errors to HTTP status codes.
// Unrecognized errors map to 500 Internal Server Error.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrRunNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrNotRunning):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

package ratings

import (
	"errors"
	"net/http"
)

// Domain errors for rating operations.
var (
	ErrNotFound        = errors.New("rating not found")
	ErrDuplicate       = errors.New("rating already exists")
	ErrModelNotFound   = errors.New("model not found")
	ErrAlreadyRated    = errors.New("model is already rated")
	ErrScoreOutOfRange = errors.New("score must be between 1 and 10")
	ErrNonePending     = errors.New("no models pending review")
)

// MapHTTPStatus maps rating domain errors to appropriate HTTP status codes.
func MapHTTPStatus(err error) int {
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrModelNotFound) {
		return http.StatusNotFound
	}
	if errors.Is(err, ErrAlreadyRated) || errors.Is(err, ErrDuplicate) {
		return http.StatusConflict
	}
	if errors.Is(err, ErrScoreOutOfRange) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

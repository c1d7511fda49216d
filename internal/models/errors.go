package models

import (
	"errors"
	"net/http"
)

// Domain errors for model operations.
var (
	ErrNotFound     = errors.New("model not found")
	ErrDuplicate    = errors.New("model already exists")
	ErrEmptyContent = errors.New("model XML content must not be empty")
	ErrInvalidID    = errors.New("invalid model id")
)

// MapHTTPStatus maps model domain errors to appropriate HTTP status codes.
func MapHTTPStatus(err error) int {
	if errors.Is(err, ErrNotFound) {
		return http.StatusNotFound
	}
	if errors.Is(err, ErrDuplicate) {
		return http.StatusConflict
	}
	if errors.Is(err, ErrEmptyContent) || errors.Is(err, ErrInvalidID) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

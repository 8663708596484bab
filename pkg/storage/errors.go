package storage

import (
	"errors"
	"net/http"
)

var (
	// ErrNotFound indicates the requested blob does not exist.
	ErrNotFound = errors.New("blob not found")
	// ErrEmptyKey indicates an empty storage key was provided.
	ErrEmptyKey = errors.New("storage key must not be empty")
	// ErrInvalidKey indicates the storage key contains a path traversal segment.
	ErrInvalidKey = errors.New("storage key contains invalid path segment")
	// ErrWriteFailed indicates a blob write did not complete. Callers may retry
	// with a fresh key; the system never retries internally.
	ErrWriteFailed = errors.New("blob write failed")
	// ErrAccessDenied indicates the storage credential rejected the operation.
	// This is a configuration problem, not a transient failure.
	ErrAccessDenied = errors.New("blob storage access denied")
	// ErrTimeout indicates a storage operation exceeded its deadline.
	ErrTimeout = errors.New("blob storage operation timed out")
)

// MapHTTPStatus maps storage errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	if errors.Is(err, ErrNotFound) {
		return http.StatusNotFound
	}
	if errors.Is(err, ErrEmptyKey) || errors.Is(err, ErrInvalidKey) {
		return http.StatusBadRequest
	}
	if errors.Is(err, ErrTimeout) {
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

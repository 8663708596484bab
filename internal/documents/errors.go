package documents

import (
	"errors"
	"net/http"
)

// Validation errors. Never retried; the caller must correct the request.
var (
	ErrMissingFile     = errors.New("no file provided")
	ErrFileTooLarge    = errors.New("file exceeds maximum upload size")
	ErrInvalidFileType = errors.New("file type not allowed")
	ErrMissingSlotType = errors.New("slot type not provided")
)

// Catalog errors.
var (
	// ErrSlotConflict indicates a concurrent transition won the slot. The
	// coordinator retries the transition exactly once before surfacing it.
	ErrSlotConflict = errors.New("slot modified concurrently")
	// ErrCatalogWrite indicates the catalog transaction failed to commit.
	ErrCatalogWrite = errors.New("catalog write failed")
	// ErrCatalogTimeout indicates the catalog transaction exceeded its deadline.
	ErrCatalogTimeout = errors.New("catalog operation timed out")
)

// ErrNotFound indicates no Active record exists for the requested slot.
var ErrNotFound = errors.New("document not found")

// MapHTTPStatus maps document domain errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrSlotConflict):
		return http.StatusConflict
	case errors.Is(err, ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, ErrMissingFile),
		errors.Is(err, ErrInvalidFileType),
		errors.Is(err, ErrMissingSlotType):
		return http.StatusBadRequest
	case errors.Is(err, ErrCatalogTimeout):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

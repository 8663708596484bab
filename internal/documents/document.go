// Package documents implements the identity document vault domain.
// It provides types, validation, catalog access, and the replacement
// coordination that keeps the catalog and blob store consistent under
// concurrent mutation.
package documents

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// SlotType identifies the document category a record occupies. An owner
// holds at most one Active record per slot.
type SlotType string

const (
	SlotPrimaryID     SlotType = "primary_id"
	SlotEducationCert SlotType = "education_cert"
	SlotPortrait      SlotType = "portrait"
)

// SlotTypes lists all valid slots in a stable order.
var SlotTypes = []SlotType{SlotPrimaryID, SlotEducationCert, SlotPortrait}

// ParseSlotType validates a wire-format slot discriminator.
func ParseSlotType(s string) (SlotType, error) {
	switch SlotType(s) {
	case SlotPrimaryID, SlotEducationCert, SlotPortrait:
		return SlotType(s), nil
	case "":
		return "", ErrMissingSlotType
	default:
		return "", fmt.Errorf("%w: unknown slot type %q", ErrMissingSlotType, s)
	}
}

// State is the lifecycle state of a catalog record. Records are never
// hard-deleted; superseded and deleted rows remain for audit.
type State string

const (
	StateActive     State = "active"
	StateSuperseded State = "superseded"
	StateDeleted    State = "deleted"
)

// Document is a catalog record referencing one blob in the store.
type Document struct {
	ID               uuid.UUID `json:"id"`
	OwnerID          string    `json:"owner_id"`
	SlotType         SlotType  `json:"slot_type"`
	FileName         string    `json:"file_name"`
	FileSizeBytes    int64     `json:"file_size_bytes"`
	MimeType         string    `json:"mime_type"`
	PageCount        *int      `json:"page_count"`
	StorageKey       string    `json:"storage_key"`
	StorageContainer string    `json:"storage_container"`
	State            State     `json:"state"`
	UploadedAt       time.Time `json:"uploaded_at"`
}

// Upload carries an incoming file and its declared metadata.
// Data holds the raw bytes; PageCount is extracted by the handler for
// PDF uploads and stored as NULL otherwise.
type Upload struct {
	Data      []byte
	FileName  string
	MimeType  string
	SlotType  SlotType
	PageCount *int
}

// Grant is a time-limited read capability for an Active record.
type Grant struct {
	Document  *Document `json:"document"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Retrieval is the caller-facing projection of an Active record.
// It exposes no storage keys or container names.
type Retrieval struct {
	DocumentID    uuid.UUID `json:"document_id"`
	SlotType      SlotType  `json:"slot_type"`
	FileName      string    `json:"file_name"`
	FileSizeBytes int64     `json:"file_size_bytes"`
	MimeType      string    `json:"mime_type"`
	DownloadURL   string    `json:"download_url"`
	UploadedAt    time.Time `json:"uploaded_at"`
}

// NewRetrieval projects a record and its signed URL into the wire shape.
func NewRetrieval(d *Document, url string) Retrieval {
	return Retrieval{
		DocumentID:    d.ID,
		SlotType:      d.SlotType,
		FileName:      d.FileName,
		FileSizeBytes: d.FileSizeBytes,
		MimeType:      d.MimeType,
		DownloadURL:   url,
		UploadedAt:    d.UploadedAt,
	}
}

package documents

import (
	"fmt"
	"net/url"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// BuildStorageKey constructs the blob key for an upload:
// {ownerId}/{slotType}/{unixTimestamp}-{suffix}-{sanitizedFileName}.
// It is pure so key shapes can be tested in isolation; NewStorageKey
// supplies the clock and randomness.
func BuildStorageKey(ownerID string, slot SlotType, fileName string, at time.Time, suffix string) string {
	return fmt.Sprintf(
		"%s/%s/%d-%s-%s",
		ownerID, slot, at.Unix(), suffix, SanitizeFileName(fileName),
	)
}

// NewStorageKey generates a fresh key for an upload. Every call produces
// a distinct key, so existing blobs are never overwritten and a
// superseded blob stays addressable until explicitly deleted.
func NewStorageKey(ownerID string, slot SlotType, fileName string) string {
	return BuildStorageKey(ownerID, slot, fileName, time.Now().UTC(), uuid.NewString()[:8])
}

// SanitizeFileName strips directory components and escapes the remainder
// for safe use inside a storage key.
func SanitizeFileName(name string) string {
	name = filepath.Base(name)
	if name == "." || name == "/" || name == "" {
		name = "document"
	}
	return url.PathEscape(name)
}

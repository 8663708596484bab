package documents

import (
	"context"
	"io"
)

// System defines the public contract for document vault operations. Every
// ownerID is the verified identity supplied by the auth middleware; the
// system itself performs no permission checks.
type System interface {
	Handler() *Handler

	// Upload places a document in the owner's slot, superseding any prior
	// Active record for it.
	Upload(ctx context.Context, ownerID string, up Upload) (*Retrieval, error)
	// Replace is Upload under a replace intent; the audit trail records it
	// as a replacement.
	Replace(ctx context.Context, ownerID string, up Upload) (*Retrieval, error)
	// Get returns the slot's Active record with a freshly minted download
	// URL. The TTL restarts on every call.
	Get(ctx context.Context, ownerID string, slot SlotType) (*Retrieval, error)
	// List returns one Retrieval per slot the owner currently occupies.
	List(ctx context.Context, ownerID string) ([]Retrieval, error)
	// Delete demotes the slot's Active record to Deleted. An empty slot
	// deterministically returns ErrNotFound.
	Delete(ctx context.Context, ownerID string, slot SlotType) error
	// Download streams the Active record's blob for callers that cannot
	// follow signed URLs. The caller must close the reader.
	Download(ctx context.Context, ownerID string, slot SlotType) (*Document, io.ReadCloser, error)
}

package documents

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/docvault/docvault/pkg/storage"
)

// Timeouts bounds the network suspension points of a document operation.
type Timeouts struct {
	BlobPut    time.Duration
	SignedURL  time.Duration
	Transition time.Duration
}

// DefaultTimeouts returns the standard operation deadlines.
func DefaultTimeouts() Timeouts {
	return Timeouts{
		BlobPut:    30 * time.Second,
		SignedURL:  5 * time.Second,
		Transition: 10 * time.Second,
	}
}

// Coordinator executes the blob-write-then-catalog-transition sequence for
// upload, replace, and delete. It holds no locks; all cross-request
// coordination is delegated to the catalog's uniqueness constraint.
type Coordinator struct {
	validator *Validator
	store     storage.System
	catalog   Catalog
	timeouts  Timeouts
	logger    *slog.Logger
}

// NewCoordinator creates a Coordinator over the given collaborators.
func NewCoordinator(
	validator *Validator,
	store storage.System,
	catalog Catalog,
	timeouts Timeouts,
	logger *slog.Logger,
) *Coordinator {
	return &Coordinator{
		validator: validator,
		store:     store,
		catalog:   catalog,
		timeouts:  timeouts,
		logger:    logger.With("system", "coordinator"),
	}
}

// Place validates the upload, writes its blob under a fresh key, and
// commits the slot transition. It returns the new Active record and the
// record it demoted, if any.
//
// A validation or blob-write failure aborts with zero catalog mutation.
// Losing the transition race retries the transition exactly once, reusing
// the already-written blob; a second conflict surfaces ErrSlotConflict.
// A definite commit failure deletes the just-written blob before
// surfacing, so no blob is ever referenced by an uncommitted record. A
// transition timeout is ambiguous: the commit may have landed server-side,
// so the blob is left in place for the orphan sweep rather than risking a
// committed record pointing at a destroyed blob.
func (c *Coordinator) Place(ctx context.Context, ownerID string, up Upload) (*Document, *Document, error) {
	if err := c.validator.Validate(ctx, up); err != nil {
		return nil, nil, err
	}

	key := NewStorageKey(ownerID, up.SlotType, up.FileName)

	putCtx, cancel := context.WithTimeout(ctx, c.timeouts.BlobPut)
	defer cancel()

	if err := c.store.Upload(putCtx, key, bytes.NewReader(up.Data), up.MimeType); err != nil {
		return nil, nil, err
	}

	record := &Document{
		ID:               uuid.New(),
		OwnerID:          ownerID,
		SlotType:         up.SlotType,
		FileName:         up.FileName,
		FileSizeBytes:    int64(len(up.Data)),
		MimeType:         up.MimeType,
		PageCount:        up.PageCount,
		StorageKey:       key,
		StorageContainer: c.store.Container(),
	}

	demoted, err := c.transition(ctx, ownerID, up.SlotType, record, StateSuperseded)
	if err != nil {
		if !errors.Is(err, ErrSlotConflict) && !errors.Is(err, ErrCatalogTimeout) {
			c.compensate(ctx, key)
		}
		return nil, nil, err
	}

	if demoted != nil {
		c.reapBlob(ctx, demoted.StorageKey)
	}

	return record, demoted, nil
}

// Remove demotes the slot's Active record to Deleted and reaps its blob.
// An empty slot returns ErrNotFound without opening a transaction.
func (c *Coordinator) Remove(ctx context.Context, ownerID string, slot SlotType) (*Document, error) {
	if _, err := c.catalog.FindActive(ctx, ownerID, slot); err != nil {
		return nil, err
	}

	demoted, err := c.transition(ctx, ownerID, slot, nil, StateDeleted)
	if err != nil {
		return nil, err
	}
	if demoted == nil {
		// lost a race to a concurrent delete on the same slot
		return nil, ErrNotFound
	}

	c.reapBlob(ctx, demoted.StorageKey)
	return demoted, nil
}

// transition runs the catalog transition under its deadline, retrying a
// slot conflict exactly once. The blob written before the first attempt is
// reused; it is never re-uploaded.
func (c *Coordinator) transition(
	ctx context.Context,
	ownerID string,
	slot SlotType,
	record *Document,
	demoteTo State,
) (*Document, error) {
	attempt := func() (*Document, error) {
		txCtx, cancel := context.WithTimeout(ctx, c.timeouts.Transition)
		defer cancel()
		return c.catalog.TransitionSlot(txCtx, ownerID, slot, record, demoteTo)
	}

	demoted, err := attempt()
	if errors.Is(err, ErrSlotConflict) {
		c.logger.Warn("slot conflict, retrying transition once", "owner", ownerID, "slot", slot)
		demoted, err = attempt()
	}
	return demoted, err
}

// compensate removes a blob whose catalog transition definitely did not
// commit. Never called on a transition timeout, where the commit outcome
// is unknown. A delete failure leaves an orphaned blob for the periodic
// sweep; it is never referenced by an Active record.
func (c *Coordinator) compensate(ctx context.Context, key string) {
	delCtx, cancel := context.WithTimeout(ctx, c.timeouts.BlobPut)
	defer cancel()

	if err := c.store.Delete(delCtx, key); err != nil {
		c.logger.Warn("compensating blob delete failed", "key", key, "error", err)
	}
}

// reapBlob best-effort deletes the blob of a record that has committed to
// a non-Active state. A failure is logged and swallowed: the blob is
// unreachable from any Active record and harmless until swept.
func (c *Coordinator) reapBlob(ctx context.Context, key string) {
	delCtx, cancel := context.WithTimeout(ctx, c.timeouts.BlobPut)
	defer cancel()

	if err := c.store.Delete(delCtx, key); err != nil {
		c.logger.Warn("superseded blob delete failed", "key", key, "error", err)
	}
}

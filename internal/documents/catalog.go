package documents

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/docvault/docvault/pkg/query"
	"github.com/docvault/docvault/pkg/repository"
)

// Catalog is the metadata store for document records. It exclusively owns
// state transitions; the blob store is never consulted for consistency.
type Catalog interface {
	// FindActive returns the Active record for the slot, or ErrNotFound.
	FindActive(ctx context.Context, ownerID string, slot SlotType) (*Document, error)
	// FindAllActive returns the owner's Active records, one per occupied
	// slot, fully materialized.
	FindAllActive(ctx context.Context, ownerID string) ([]Document, error)
	// TransitionSlot atomically demotes the current Active record for the
	// slot (if any) to demoteTo and, when newDoc is non-nil, inserts it as
	// Active. It returns the demoted record, or nil if the slot was empty.
	// A concurrent transition on the same slot surfaces as ErrSlotConflict.
	TransitionSlot(ctx context.Context, ownerID string, slot SlotType, newDoc *Document, demoteTo State) (*Document, error)
}

type catalog struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewCatalog creates a Postgres-backed Catalog.
func NewCatalog(db *sql.DB, logger *slog.Logger) Catalog {
	return &catalog{
		db:     db,
		logger: logger.With("system", "catalog"),
	}
}

func (c *catalog) FindActive(ctx context.Context, ownerID string, slot SlotType) (*Document, error) {
	q, args := query.NewBuilder(projection).
		WhereEquals("OwnerID", ownerID).
		WhereEquals("SlotType", string(slot)).
		WhereEquals("State", string(StateActive)).
		BuildSingleOrNull()

	d, err := repository.QueryOne(ctx, c.db, q, args, scanDocument)
	if err != nil {
		return nil, mapCatalogError(err)
	}
	return &d, nil
}

func (c *catalog) FindAllActive(ctx context.Context, ownerID string) ([]Document, error) {
	q, args := query.NewBuilder(projection, defaultSort).
		WhereEquals("OwnerID", ownerID).
		WhereEquals("State", string(StateActive)).
		Build()

	docs, err := repository.QueryMany(ctx, c.db, q, args, scanDocument)
	if err != nil {
		return nil, mapCatalogError(err)
	}
	return docs, nil
}

const demoteSQL = `
	UPDATE documents
	SET state = $1
	WHERE owner_id = $2 AND slot_type = $3 AND state = $4
	RETURNING id, owner_id, slot_type, file_name, file_size_bytes, mime_type, page_count, storage_key, storage_container, state, uploaded_at`

const insertSQL = `
	INSERT INTO documents(id, owner_id, slot_type, file_name, file_size_bytes, mime_type, page_count, storage_key, storage_container, state)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	RETURNING id, owner_id, slot_type, file_name, file_size_bytes, mime_type, page_count, storage_key, storage_container, state, uploaded_at`

func (c *catalog) TransitionSlot(
	ctx context.Context,
	ownerID string,
	slot SlotType,
	newDoc *Document,
	demoteTo State,
) (*Document, error) {
	demoted, err := repository.WithTx(ctx, c.db, func(tx *sql.Tx) (*Document, error) {
		var demoted *Document

		prior, err := repository.QueryOne(
			ctx, tx, demoteSQL,
			[]any{string(demoteTo), ownerID, string(slot), string(StateActive)},
			scanDocument,
		)
		switch {
		case err == nil:
			demoted = &prior
		case errors.Is(err, sql.ErrNoRows):
			// slot was empty
		default:
			return nil, err
		}

		if newDoc != nil {
			inserted, err := repository.QueryOne(
				ctx, tx, insertSQL,
				[]any{
					newDoc.ID,
					newDoc.OwnerID,
					string(newDoc.SlotType),
					newDoc.FileName,
					newDoc.FileSizeBytes,
					newDoc.MimeType,
					newDoc.PageCount,
					newDoc.StorageKey,
					newDoc.StorageContainer,
					string(StateActive),
				},
				scanDocument,
			)
			if err != nil {
				return nil, err
			}
			*newDoc = inserted
		}

		return demoted, nil
	})

	if err != nil {
		return nil, mapCatalogError(err)
	}

	c.logger.Info(
		"slot transitioned",
		"owner", ownerID,
		"slot", slot,
		"demoted", demoted != nil,
		"inserted", newDoc != nil,
	)
	return demoted, nil
}

// mapCatalogError translates driver errors into the domain taxonomy.
// The partial unique index on (owner_id, slot_type) WHERE state='active'
// turns a lost race into a unique violation, which surfaces here as
// ErrSlotConflict.
func mapCatalogError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrCatalogTimeout, err)
	}

	mapped := repository.MapError(err, ErrNotFound, ErrSlotConflict)
	if errors.Is(mapped, ErrNotFound) || errors.Is(mapped, ErrSlotConflict) {
		return mapped
	}

	return fmt.Errorf("%w: %v", ErrCatalogWrite, err)
}

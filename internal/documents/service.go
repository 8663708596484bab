package documents

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"time"

	"github.com/docvault/docvault/internal/audit"
	"github.com/docvault/docvault/pkg/storage"
)

// Audit action names for document mutations.
const (
	ActionUpload  = "document.upload"
	ActionReplace = "document.replace"
	ActionDelete  = "document.delete"
)

// Options tunes the document service.
type Options struct {
	// MaxFileSize caps uploads; zero falls back to DefaultMaxFileSize.
	MaxFileSize int64
	// GrantTTL is the signed URL lifetime; zero falls back to the storage default.
	GrantTTL time.Duration
	// Timeouts bounds blob and catalog calls; zero fields fall back to DefaultTimeouts.
	Timeouts Timeouts
	// Scanner optionally inspects upload content; nil means no scanning.
	Scanner Scanner
}

func (o *Options) normalize() {
	def := DefaultTimeouts()
	if o.Timeouts.BlobPut <= 0 {
		o.Timeouts.BlobPut = def.BlobPut
	}
	if o.Timeouts.SignedURL <= 0 {
		o.Timeouts.SignedURL = def.SignedURL
	}
	if o.Timeouts.Transition <= 0 {
		o.Timeouts.Transition = def.Transition
	}
}

type service struct {
	coordinator *Coordinator
	grants      *GrantIssuer
	catalog     Catalog
	store       storage.System
	recorder    audit.Recorder
	maxFileSize int64
	logger      *slog.Logger
}

// New creates the document system over its collaborators.
func New(
	db *sql.DB,
	store storage.System,
	recorder audit.Recorder,
	opts Options,
	logger *slog.Logger,
) System {
	opts.normalize()
	logger = logger.With("system", "documents")

	validator := NewValidator(opts.MaxFileSize, opts.Scanner)
	catalog := NewCatalog(db, logger)

	return &service{
		coordinator: NewCoordinator(validator, store, catalog, opts.Timeouts, logger),
		grants:      NewGrantIssuer(store, catalog, opts.GrantTTL, opts.Timeouts.SignedURL, logger),
		catalog:     catalog,
		store:       store,
		recorder:    recorder,
		maxFileSize: validator.MaxFileSize,
		logger:      logger,
	}
}

func (s *service) Handler() *Handler {
	return NewHandler(s, s.logger, s.maxFileSize)
}

func (s *service) Upload(ctx context.Context, ownerID string, up Upload) (*Retrieval, error) {
	return s.place(ctx, ownerID, up, ActionUpload)
}

func (s *service) Replace(ctx context.Context, ownerID string, up Upload) (*Retrieval, error) {
	return s.place(ctx, ownerID, up, ActionReplace)
}

func (s *service) place(ctx context.Context, ownerID string, up Upload, action string) (*Retrieval, error) {
	record, demoted, err := s.coordinator.Place(ctx, ownerID, up)
	if err != nil {
		return nil, err
	}

	event := audit.Event{
		Action:   action,
		OwnerID:  ownerID,
		SlotType: string(up.SlotType),
		NewKey:   record.StorageKey,
	}
	if demoted != nil {
		event.OldKey = demoted.StorageKey
	}
	s.recorder.Record(ctx, event)

	s.logger.Info("document placed", "id", record.ID, "owner", ownerID, "slot", up.SlotType)

	grant, err := s.grants.GrantFor(ctx, record)
	if err != nil {
		// the mutation committed; surface the record without a URL rather
		// than failing the request
		s.logger.Warn("post-commit grant failed", "id", record.ID, "error", err)
		r := NewRetrieval(record, "")
		return &r, nil
	}

	r := NewRetrieval(record, grant.URL)
	return &r, nil
}

func (s *service) Get(ctx context.Context, ownerID string, slot SlotType) (*Retrieval, error) {
	grant, err := s.grants.Grant(ctx, ownerID, slot)
	if err != nil {
		return nil, err
	}

	r := NewRetrieval(grant.Document, grant.URL)
	return &r, nil
}

func (s *service) List(ctx context.Context, ownerID string) ([]Retrieval, error) {
	records, err := s.catalog.FindAllActive(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	results := make([]Retrieval, 0, len(records))
	for i := range records {
		grant, err := s.grants.GrantFor(ctx, &records[i])
		if err != nil {
			return nil, err
		}
		results = append(results, NewRetrieval(&records[i], grant.URL))
	}

	return results, nil
}

func (s *service) Delete(ctx context.Context, ownerID string, slot SlotType) error {
	demoted, err := s.coordinator.Remove(ctx, ownerID, slot)
	if err != nil {
		return err
	}

	s.recorder.Record(ctx, audit.Event{
		Action:   ActionDelete,
		OwnerID:  ownerID,
		SlotType: string(slot),
		OldKey:   demoted.StorageKey,
	})

	s.logger.Info("document deleted", "id", demoted.ID, "owner", ownerID, "slot", slot)
	return nil
}

func (s *service) Download(ctx context.Context, ownerID string, slot SlotType) (*Document, io.ReadCloser, error) {
	record, err := s.catalog.FindActive(ctx, ownerID, slot)
	if err != nil {
		return nil, nil, err
	}

	body, err := s.store.Download(ctx, record.StorageKey)
	if err != nil {
		return nil, nil, err
	}

	return record, body, nil
}

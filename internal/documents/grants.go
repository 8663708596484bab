package documents

import (
	"context"
	"log/slog"
	"time"

	"github.com/docvault/docvault/pkg/storage"
)

// GrantIssuer mints short-lived signed URLs for Active records. It never
// caches: every grant is a fresh URL with a full TTL.
type GrantIssuer struct {
	store    storage.System
	catalog  Catalog
	ttl      time.Duration
	mintWait time.Duration
	logger   *slog.Logger
}

// NewGrantIssuer creates a GrantIssuer with the given URL lifetime and
// mint deadline.
func NewGrantIssuer(
	store storage.System,
	catalog Catalog,
	ttl time.Duration,
	mintWait time.Duration,
	logger *slog.Logger,
) *GrantIssuer {
	if ttl <= 0 {
		ttl = storage.DefaultSignedURLTTL
	}
	return &GrantIssuer{
		store:    store,
		catalog:  catalog,
		ttl:      ttl,
		mintWait: mintWait,
		logger:   logger.With("system", "grants"),
	}
}

// Grant looks up the slot's Active record and mints a signed URL for its
// blob. No catalog mutation occurs.
func (g *GrantIssuer) Grant(ctx context.Context, ownerID string, slot SlotType) (*Grant, error) {
	record, err := g.catalog.FindActive(ctx, ownerID, slot)
	if err != nil {
		return nil, err
	}

	return g.mint(ctx, record)
}

// GrantFor mints a signed URL for an already-resolved record.
func (g *GrantIssuer) GrantFor(ctx context.Context, record *Document) (*Grant, error) {
	return g.mint(ctx, record)
}

func (g *GrantIssuer) mint(ctx context.Context, record *Document) (*Grant, error) {
	mintCtx, cancel := context.WithTimeout(ctx, g.mintWait)
	defer cancel()

	url, err := g.store.SignedURL(mintCtx, record.StorageKey, g.ttl)
	if err != nil {
		return nil, err
	}

	return &Grant{
		Document:  record,
		URL:       url,
		ExpiresAt: time.Now().UTC().Add(g.ttl),
	}, nil
}

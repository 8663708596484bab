package api

import (
	"github.com/docvault/docvault/internal/config"
	"github.com/docvault/docvault/internal/documents"
)

// Domain holds all domain systems that comprise the API.
type Domain struct {
	Documents documents.System
}

// NewDomain creates all domain systems from the API runtime.
func NewDomain(runtime *Runtime, cfg *config.Config) *Domain {
	docsSystem := documents.New(
		runtime.Database.Connection(),
		runtime.Storage,
		runtime.Audit,
		documents.Options{
			MaxFileSize: cfg.API.MaxUploadSizeBytes(),
			GrantTTL:    cfg.Storage.SignedURLTTLDuration(),
			Timeouts:    cfg.API.Timeouts(),
		},
		runtime.Logger,
	)

	return &Domain{
		Documents: docsSystem,
	}
}

package config

import (
	"fmt"
	"os"
	"time"

	"github.com/docvault/docvault/internal/documents"
	"github.com/docvault/docvault/pkg/formatting"
	"github.com/docvault/docvault/pkg/middleware"
	"github.com/docvault/docvault/pkg/openapi"
)

var corsEnv = &middleware.CORSEnv{
	Enabled:          "DOCVAULT_CORS_ENABLED",
	Origins:          "DOCVAULT_CORS_ORIGINS",
	AllowedMethods:   "DOCVAULT_CORS_ALLOWED_METHODS",
	AllowedHeaders:   "DOCVAULT_CORS_ALLOWED_HEADERS",
	AllowCredentials: "DOCVAULT_CORS_ALLOW_CREDENTIALS",
	MaxAge:           "DOCVAULT_CORS_MAX_AGE",
}

var openapiEnv = &openapi.ConfigEnv{
	Title:       "DOCVAULT_OPENAPI_TITLE",
	Description: "DOCVAULT_OPENAPI_DESCRIPTION",
}

// APIConfig holds API routing, upload limit, operation timeout, CORS, and
// OpenAPI settings.
type APIConfig struct {
	BasePath          string                `toml:"base_path"`
	MaxUploadSize     string                `toml:"max_upload_size"`
	BlobPutTimeout    string                `toml:"blob_put_timeout"`
	SignedURLTimeout  string                `toml:"signed_url_timeout"`
	TransitionTimeout string                `toml:"transition_timeout"`
	AuditBuffer       int                   `toml:"audit_buffer"`
	CORS              middleware.CORSConfig `toml:"cors"`
	OpenAPI           openapi.Config        `toml:"openapi"`
}

// MaxUploadSizeBytes returns the upload limit as a byte count.
func (c *APIConfig) MaxUploadSizeBytes() int64 {
	size, err := formatting.ParseBytes(c.MaxUploadSize)
	if err != nil {
		return documents.DefaultMaxFileSize
	}
	return size
}

// Timeouts returns the per-operation deadlines as a documents.Timeouts.
func (c *APIConfig) Timeouts() documents.Timeouts {
	t := documents.DefaultTimeouts()
	if d, err := time.ParseDuration(c.BlobPutTimeout); err == nil && d > 0 {
		t.BlobPut = d
	}
	if d, err := time.ParseDuration(c.SignedURLTimeout); err == nil && d > 0 {
		t.SignedURL = d
	}
	if d, err := time.ParseDuration(c.TransitionTimeout); err == nil && d > 0 {
		t.Transition = d
	}
	return t
}

// Finalize applies defaults, environment variable overrides, and validation
// for the API config and its nested CORS and OpenAPI configs.
func (c *APIConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()

	if err := c.validate(); err != nil {
		return err
	}
	if err := c.CORS.Finalize(corsEnv); err != nil {
		return fmt.Errorf("cors: %w", err)
	}
	if err := c.OpenAPI.Finalize(openapiEnv); err != nil {
		return fmt.Errorf("openapi: %w", err)
	}
	return nil
}

// Merge overwrites non-zero fields from overlay across nested configs.
func (c *APIConfig) Merge(overlay *APIConfig) {
	if overlay.BasePath != "" {
		c.BasePath = overlay.BasePath
	}
	if overlay.MaxUploadSize != "" {
		c.MaxUploadSize = overlay.MaxUploadSize
	}
	if overlay.BlobPutTimeout != "" {
		c.BlobPutTimeout = overlay.BlobPutTimeout
	}
	if overlay.SignedURLTimeout != "" {
		c.SignedURLTimeout = overlay.SignedURLTimeout
	}
	if overlay.TransitionTimeout != "" {
		c.TransitionTimeout = overlay.TransitionTimeout
	}
	if overlay.AuditBuffer != 0 {
		c.AuditBuffer = overlay.AuditBuffer
	}

	c.CORS.Merge(&overlay.CORS)
	c.OpenAPI.Merge(&overlay.OpenAPI)
}

func (c *APIConfig) loadDefaults() {
	if c.BasePath == "" {
		c.BasePath = "/api"
	}
	if c.MaxUploadSize == "" {
		c.MaxUploadSize = "2MB"
	}
	if c.BlobPutTimeout == "" {
		c.BlobPutTimeout = "30s"
	}
	if c.SignedURLTimeout == "" {
		c.SignedURLTimeout = "5s"
	}
	if c.TransitionTimeout == "" {
		c.TransitionTimeout = "10s"
	}
	if c.AuditBuffer == 0 {
		c.AuditBuffer = 256
	}
}

func (c *APIConfig) loadEnv() {
	if v := os.Getenv("DOCVAULT_API_BASE_PATH"); v != "" {
		c.BasePath = v
	}
	if v := os.Getenv("DOCVAULT_API_MAX_UPLOAD_SIZE"); v != "" {
		c.MaxUploadSize = v
	}
}

func (c *APIConfig) validate() error {
	if _, err := formatting.ParseBytes(c.MaxUploadSize); err != nil {
		return fmt.Errorf("invalid max_upload_size: %w", err)
	}
	for name, v := range map[string]string{
		"blob_put_timeout":   c.BlobPutTimeout,
		"signed_url_timeout": c.SignedURLTimeout,
		"transition_timeout": c.TransitionTimeout,
	} {
		if _, err := time.ParseDuration(v); err != nil {
			return fmt.Errorf("invalid %s: %w", name, err)
		}
	}
	return nil
}

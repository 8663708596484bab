// Package api assembles the API module with all domain systems and route registration.
package api

import (
	"net/http"

	"github.com/docvault/docvault/internal/config"
	"github.com/docvault/docvault/internal/infrastructure"
	"github.com/docvault/docvault/pkg/middleware"
	"github.com/docvault/docvault/pkg/module"
)

// NewModule creates the API module with all domain handlers and middleware.
// Every route in the module sits behind the auth middleware; the OpenAPI
// spec is served unauthenticated on the native router instead.
func NewModule(cfg *config.Config, infra *infrastructure.Infrastructure) (*module.Module, error) {
	runtime := NewRuntime(cfg, infra)
	domain := NewDomain(runtime, cfg)

	mux := http.NewServeMux()
	registerRoutes(mux, domain)

	m := module.New(cfg.API.BasePath, mux)
	m.Use(middleware.CORS(&cfg.API.CORS))
	m.Use(middleware.Logger(runtime.Logger))
	m.Use(runtime.Auth.Middleware())

	return m, nil
}

package api

import (
	"net/http"

	"github.com/docvault/docvault/pkg/routes"
)

func registerRoutes(mux *http.ServeMux, domain *Domain) {
	routes.Register(
		mux,
		domain.Documents.Handler().Routes(),
	)
}

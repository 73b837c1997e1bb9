package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/folio/internal/docservice"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(svc *docservice.Service, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Table of contents.
	r.Get("/toc", h.TOC)
	r.Get("/validate", h.Validate)

	// Documents (read-only).
	r.Get("/documents", h.ListDocuments)
	r.Get("/documents/*", h.GetDocument)
	r.Get("/backlinks/*", h.Backlinks)

	// Search.
	r.Get("/search", h.Search)

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}

// NewSiteRouter serves the rendered site: the TOC page at / and one HTML
// page per document at its output path.
func NewSiteRouter(svc *docservice.Service) chi.Router {
	p := NewPageHandler(svc)

	r := chi.NewRouter()
	r.Get("/", p.Index)
	r.Get("/*", p.Page)
	return r
}

package api

import (
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/starford/folio/internal/docservice"
)

// Handler holds API route handlers.
type Handler struct {
	svc *docservice.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *docservice.Service) *Handler {
	return &Handler{svc: svc}
}

// docPath extracts the document path from the wildcard part of the URL.
// Supports encoded slashes from OpenAPI clients (e.g. React%2F02_hooks.md).
func docPath(r *http.Request) string {
	raw := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
	if raw == "" {
		return ""
	}
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}

// TOC handles GET /api/toc.
//
//	@Summary		Get the table of contents
//	@Tags			toc
//	@Produce		json
//	@Success		200	{object}	TOCResponse
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/toc [get]
func (h *Handler) TOC(w http.ResponseWriter, r *http.Request) {
	t, err := h.svc.TOC(r.Context())
	if err != nil {
		writeStoreError(w, "load toc", h.svc.IndexPath(), err)
		return
	}
	writeJSON(w, http.StatusOK, newTOCResponse(t))
}

// Validate handles GET /api/validate.
//
//	@Summary		Check that every TOC entry resolves to a document
//	@Tags			toc
//	@Produce		json
//	@Success		200	{object}	ValidationResponse
//	@Failure		422	{object}	ValidationResponse
//	@Security		BearerAuth
//	@Router			/validate [get]
func (h *Handler) Validate(w http.ResponseWriter, r *http.Request) {
	v, err := h.svc.Validate(r.Context())
	if err != nil {
		writeStoreError(w, "validate toc", h.svc.IndexPath(), err)
		return
	}
	status := http.StatusOK
	if !v.OK {
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, status, v)
}

// ListDocuments handles GET /api/documents.
//
//	@Summary		List catalogued documents with optional pagination
//	@Tags			documents
//	@Produce		json
//	@Param			limit	query		int	false	"Page size"
//	@Param			offset	query		int	false	"Page offset"
//	@Success		200		{object}	DocumentListResponse
//	@Security		BearerAuth
//	@Router			/documents [get]
func (h *Handler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))

	items, total, err := h.svc.ListDocuments(r.Context(), limit, offset)
	if err != nil {
		slog.Error("list documents failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, DocumentListResponse{Documents: items, Total: total})
}

// GetDocument handles GET /api/documents/*.
//
//	@Summary		Get a single document by path
//	@Tags			documents
//	@Produce		json
//	@Param			path			path		string	true	"Document path"
//	@Param			If-None-Match	header		string	false	"ETag from a previous response"
//	@Success		200				{object}	DocumentDetail
//	@Success		304				"Not modified"
//	@Failure		400				{object}	errResponse
//	@Failure		404				{object}	errResponse
//	@Security		BearerAuth
//	@Router			/documents/{path} [get]
func (h *Handler) GetDocument(w http.ResponseWriter, r *http.Request) {
	path := docPath(r)
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	etag, err := h.svc.ETag(r.Context(), path)
	if err != nil {
		writeStoreError(w, "get document", path, err)
		return
	}
	w.Header().Set("ETag", etag)
	if r.Header.Get("If-None-Match") == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	doc, err := h.svc.GetDocument(r.Context(), path)
	if err != nil {
		writeStoreError(w, "get document", path, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// Backlinks handles GET /api/backlinks/*.
//
//	@Summary		List documents linking to a path
//	@Tags			documents
//	@Produce		json
//	@Param			path	path		string	true	"Document path"
//	@Success		200		{object}	BacklinksResponse
//	@Security		BearerAuth
//	@Router			/backlinks/{path} [get]
func (h *Handler) Backlinks(w http.ResponseWriter, r *http.Request) {
	path := docPath(r)
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	bl, err := h.svc.Backlinks(r.Context(), path)
	if err != nil {
		slog.Error("backlinks failed", slog.String("path", path), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, BacklinksResponse{Path: path, Backlinks: bl})
}

// Search handles GET /api/search.
//
//	@Summary		Full-text search across documents
//	@Tags			search
//	@Produce		json
//	@Param			q		query		string	true	"Search query"
//	@Param			limit	query		int		false	"Max results"
//	@Success		200		{object}	SearchResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/search [get]
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'q' is required"))
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	results, err := h.svc.Search(r.Context(), q, limit)
	if err != nil {
		slog.Error("search failed", slog.String("query", q), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, SearchResponse{Results: results})
}

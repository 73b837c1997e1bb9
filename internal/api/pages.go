package api

import (
	"bytes"
	"net/http"
	"path"
	"strings"

	"github.com/starford/folio/internal/docservice"
	"github.com/starford/folio/internal/render"
)

// PageHandler serves rendered HTML pages.
type PageHandler struct {
	svc *docservice.Service
}

// NewPageHandler creates a new PageHandler.
func NewPageHandler(svc *docservice.Service) *PageHandler {
	return &PageHandler{svc: svc}
}

// sourcePath maps an output page path back to its markdown source.
// It returns false for anything that is not a page.
func sourcePath(page string) (string, bool) {
	page = strings.TrimPrefix(page, "/")
	switch path.Ext(page) {
	case ".html":
		return strings.TrimSuffix(page, ".html") + ".md", true
	case ".md":
		return page, true
	}
	return "", false
}

// Index handles GET / and GET /index.html.
func (p *PageHandler) Index(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := p.svc.RenderIndex(r.Context(), &buf); err != nil {
		writeStoreError(w, "render index", p.svc.IndexPath(), err)
		return
	}
	writeHTML(w, buf.Bytes())
}

// Page handles GET /*.html.
func (p *PageHandler) Page(w http.ResponseWriter, r *http.Request) {
	page := docPath(r)
	if page == render.IndexOutput {
		p.Index(w, r)
		return
	}
	src, ok := sourcePath(page)
	if !ok {
		http.NotFound(w, r)
		return
	}
	// Buffer the page so a render error never follows a partial body.
	var buf bytes.Buffer
	if err := p.svc.RenderDocument(r.Context(), &buf, src); err != nil {
		writeStoreError(w, "render page", src, err)
		return
	}
	writeHTML(w, buf.Bytes())
}

func writeHTML(w http.ResponseWriter, body []byte) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

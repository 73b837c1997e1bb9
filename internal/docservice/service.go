// Package docservice coordinates the document store, the table of contents,
// the catalog, and the renderer for the HTTP and MCP surfaces.
package docservice

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/starford/folio/internal/apperr"
	"github.com/starford/folio/internal/catalog"
	"github.com/starford/folio/internal/checksum"
	"github.com/starford/folio/internal/models"
	"github.com/starford/folio/internal/parser"
	"github.com/starford/folio/internal/render"
	"github.com/starford/folio/internal/storage"
	"github.com/starford/folio/internal/toc"
)

// DocumentDetail is the full representation of a document.
type DocumentDetail struct {
	Path        string           `json:"path"`
	Title       string           `json:"title"`
	Layout      string           `json:"layout"`
	Content     string           `json:"content"`
	Checksum    string           `json:"checksum"`
	Frontmatter map[string]any   `json:"frontmatter,omitempty"`
	Headings    []models.Heading `json:"headings"`
	Links       []string         `json:"links"`
	Backlinks   []string         `json:"backlinks"`
	InTOC       bool             `json:"in_toc"`
}

// DocumentListItem is a lightweight item in a list response.
type DocumentListItem struct {
	Path      string    `json:"path"`
	Title     string    `json:"title"`
	Layout    string    `json:"layout"`
	Checksum  string    `json:"checksum"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Validation is the outcome of checking the table of contents.
type Validation struct {
	OK      bool              `json:"ok"`
	Entries int               `json:"entries"`
	Broken  []models.TOCEntry `json:"broken"`
}

// Service is read-only: it never writes to the document tree.
type Service struct {
	store     storage.Provider
	db        catalog.Catalog
	renderer  *render.Renderer
	indexPath string
}

// NewService creates a document service. indexPath names the TOC file
// relative to the store root.
func NewService(store storage.Provider, db catalog.Catalog, renderer *render.Renderer, indexPath string) *Service {
	return &Service{store: store, db: db, renderer: renderer, indexPath: indexPath}
}

// IndexPath returns the TOC file path.
func (s *Service) IndexPath() string { return s.indexPath }

// TOC loads the table of contents from the index file.
func (s *Service) TOC(_ context.Context) (*toc.TOC, error) {
	return toc.Load(s.store, s.indexPath)
}

// Validate loads the table of contents and checks every entry. A broken TOC
// is reported in the returned Validation, not as an error.
func (s *Service) Validate(ctx context.Context) (*Validation, error) {
	t, err := s.TOC(ctx)
	if err != nil {
		return nil, err
	}
	v := &Validation{OK: true, Entries: t.Len(), Broken: []models.TOCEntry{}}
	err = t.Validate(s.store)
	var ble *apperr.BrokenLinkError
	switch {
	case err == nil:
	case errors.As(err, &ble):
		v.OK = false
		v.Broken = ble.Entries
	default:
		return nil, err
	}
	return v, nil
}

// GetDocument reads a document, parses it, and adds backlinks from the catalog.
func (s *Service) GetDocument(ctx context.Context, path string) (*DocumentDetail, error) {
	doc, err := s.readDocument(path)
	if err != nil {
		return nil, err
	}
	bl, err := s.db.Backlinks(path)
	if err != nil {
		return nil, err
	}
	inTOC := false
	if t, err := s.TOC(ctx); err == nil {
		for _, e := range t.Entries() {
			if e.Path == path {
				inTOC = true
				break
			}
		}
	}
	return &DocumentDetail{
		Path:        doc.Path,
		Title:       doc.Title,
		Layout:      doc.Layout,
		Content:     string(doc.Content),
		Checksum:    doc.Checksum,
		Frontmatter: doc.Frontmatter,
		Headings:    nonNilSlice(doc.Headings),
		Links:       nonNilSlice(doc.Links),
		Backlinks:   nonNilSlice(bl),
		InTOC:       inTOC,
	}, nil
}

// ListDocuments returns a page of catalogued documents.
func (s *Service) ListDocuments(_ context.Context, limit, offset int) ([]DocumentListItem, int, error) {
	rows, total, err := s.db.ListDocuments(limit, offset)
	if err != nil {
		return nil, 0, err
	}
	items := make([]DocumentListItem, len(rows))
	for i, r := range rows {
		items[i] = DocumentListItem{
			Path:      r.Path,
			Title:     r.Title,
			Layout:    r.Layout,
			Checksum:  r.Checksum,
			UpdatedAt: r.UpdatedAt,
		}
	}
	return items, total, nil
}

// ListFolder lists the markdown files below folder straight from the store,
// so it sees files the catalog has not picked up yet.
func (s *Service) ListFolder(_ context.Context, folder string) ([]models.DocumentMetadata, error) {
	metas, err := s.store.List(folder)
	return nonNilSlice(metas), err
}

// Search delegates full-text search to the catalog.
func (s *Service) Search(_ context.Context, query string, limit int) ([]catalog.SearchResult, error) {
	res, err := s.db.Search(query, limit)
	return nonNilSlice(res), err
}

// Backlinks returns all document paths that link to target.
func (s *Service) Backlinks(_ context.Context, target string) ([]string, error) {
	bl, err := s.db.Backlinks(target)
	return nonNilSlice(bl), err
}

// RenderDocument writes the HTML page for path. The index file renders as the
// TOC page.
func (s *Service) RenderDocument(ctx context.Context, w io.Writer, path string) error {
	if path == s.indexPath {
		return s.RenderIndex(ctx, w)
	}
	doc, err := s.readDocument(path)
	if err != nil {
		return err
	}
	t, err := s.TOC(ctx)
	if err != nil && !errors.Is(err, apperr.ErrNotFound) {
		return err
	}
	return s.renderer.Document(w, doc, t)
}

// RenderIndex writes the TOC page.
func (s *Service) RenderIndex(ctx context.Context, w io.Writer) error {
	t, err := s.TOC(ctx)
	if err != nil {
		return err
	}
	return s.renderer.Index(w, t)
}

// ETag returns the entity tag of the document at path.
func (s *Service) ETag(_ context.Context, path string) (string, error) {
	data, err := s.store.Read(path)
	if err != nil {
		return "", err
	}
	return checksum.ETag(data), nil
}

func (s *Service) readDocument(path string) (*models.Document, error) {
	data, err := s.store.Read(path)
	if err != nil {
		return nil, err
	}
	return parser.Document(path, data)
}

func nonNilSlice[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

package api

import (
	"github.com/starford/folio/internal/catalog"
	"github.com/starford/folio/internal/docservice"
	"github.com/starford/folio/internal/models"
	"github.com/starford/folio/internal/toc"
)

// DocumentDetail is the full document response type (aliased from the domain layer).
type DocumentDetail = docservice.DocumentDetail

// DocumentListItem is a lightweight item in a list response (aliased from the domain layer).
type DocumentListItem = docservice.DocumentListItem

// ValidationResponse reports the outcome of a TOC check.
type ValidationResponse = docservice.Validation

// DocumentListResponse wraps paginated document listings.
type DocumentListResponse struct {
	Documents []DocumentListItem `json:"documents" validate:"required"`
	Total     int                `json:"total" example:"21" validate:"required"`
}

// SearchResponse wraps search results.
type SearchResponse struct {
	Results []catalog.SearchResult `json:"results" validate:"required"`
}

// BacklinksResponse lists the documents linking to one path.
type BacklinksResponse struct {
	Path      string   `json:"path" example:"05_closures.md" validate:"required"`
	Backlinks []string `json:"backlinks" validate:"required"`
}

// TOCSection is one heading of the table of contents with its entries.
type TOCSection struct {
	Title   string            `json:"title" example:"JavaScript"`
	Entries []models.TOCEntry `json:"entries" validate:"required"`
}

// TOCResponse is the table of contents as read from the index file.
type TOCResponse struct {
	Index    string       `json:"index" example:"index.md" validate:"required"`
	Title    string       `json:"title" example:"JavaScript Interview Questions"`
	Count    int          `json:"count" example:"20" validate:"required"`
	Sections []TOCSection `json:"sections" validate:"required"`
}

func newTOCResponse(t *toc.TOC) TOCResponse {
	resp := TOCResponse{
		Index:    t.IndexPath(),
		Title:    t.Title(),
		Count:    t.Len(),
		Sections: []TOCSection{},
	}
	for _, s := range t.Sections() {
		resp.Sections = append(resp.Sections, TOCSection{Title: s.Title, Entries: s.Entries})
	}
	return resp
}

// Package apperr holds the error kinds shared across folio packages.
package apperr

import (
	"errors"
	"fmt"
	"strings"

	"github.com/starford/folio/internal/models"
)

var (
	ErrNotFound    = errors.New("not found")
	ErrInvalidPath = errors.New("invalid path")
	ErrBrokenLink  = errors.New("broken link")

	// ErrOutputOverlap means the output directory is the site root or one of
	// its ancestors, so cleaning it would delete source documents.
	ErrOutputOverlap = errors.New("output directory overlaps site root")
)

// BrokenLinkError reports the table-of-contents entries that do not resolve
// to a document. Entries keep their TOC order.
type BrokenLinkError struct {
	Entries []models.TOCEntry
}

func (e *BrokenLinkError) Error() string {
	return fmt.Sprintf("broken link: %d unresolved toc entries: %s", len(e.Entries), strings.Join(e.Paths(), ", "))
}

// Unwrap lets errors.Is(err, ErrBrokenLink) match.
func (e *BrokenLinkError) Unwrap() error { return ErrBrokenLink }

// Paths returns the resolved paths of the broken entries.
func (e *BrokenLinkError) Paths() []string {
	out := make([]string, len(e.Entries))
	for i, entry := range e.Entries {
		out[i] = entry.Path
	}
	return out
}

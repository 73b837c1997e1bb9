// Package storage defines read access to the document tree and atomic
// writes into a build output directory.
package storage

import "github.com/starford/folio/internal/models"

// Provider is the read-only interface over the document tree.
type Provider interface {
	// List returns metadata for every .md file under dir (relative to the site root),
	// sorted by path.
	List(dir string) ([]models.DocumentMetadata, error)
	// Read returns the raw bytes of the document at path (relative to the site root).
	// Missing documents yield an error matching apperr.ErrNotFound.
	Read(path string) ([]byte, error)
	// Root returns the absolute site root.
	Root() string
}

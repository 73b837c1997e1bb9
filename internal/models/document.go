// Package models defines the domain types for folio.
package models

import "time"

// DefaultLayout is used when a document does not name one in its front matter.
const DefaultLayout = "default"

// Document is a parsed markdown file under the site root.
type Document struct {
	Path        string         `json:"path"`
	Title       string         `json:"title"`
	Layout      string         `json:"layout"`
	Content     []byte         `json:"-"`
	Body        string         `json:"body"`
	Frontmatter map[string]any `json:"frontmatter,omitempty"`
	Links       []string       `json:"links,omitempty"`
	Headings    []Heading      `json:"headings,omitempty"`
	Checksum    string         `json:"checksum"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// Heading is one section heading inside a document.
type Heading struct {
	Level int    `json:"level"`
	Text  string `json:"text"`
	ID    string `json:"id,omitempty"`
}

// DocumentMetadata is the lightweight form returned by list operations.
type DocumentMetadata struct {
	Path      string    `json:"path"`
	Checksum  string    `json:"checksum"`
	Size      int64     `json:"size"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TOCEntry is one link of the curated table of contents.
type TOCEntry struct {
	Position int    `json:"position"`
	Section  string `json:"section,omitempty"`
	Label    string `json:"label"`
	Target   string `json:"target"` // destination as written in the index file
	Path     string `json:"path"`   // resolved document path
}

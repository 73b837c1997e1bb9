// Package toc reads the curated table of contents out of the site's index
// file and checks it against the document store.
package toc

import (
	"errors"
	"fmt"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"

	"github.com/starford/folio/internal/apperr"
	"github.com/starford/folio/internal/models"
	"github.com/starford/folio/internal/parser"
	"github.com/starford/folio/internal/storage"
)

// DefaultIndex is the conventional index file at the site root.
const DefaultIndex = "index.md"

var engine = goldmark.New(goldmark.WithExtensions(extension.GFM))

// Section groups consecutive entries under the heading that precedes them.
type Section struct {
	Title   string
	Entries []models.TOCEntry
}

// TOC is the ordered table of contents of a site.
type TOC struct {
	indexPath string
	title     string
	entries   []models.TOCEntry
}

// Load reads indexPath from store and parses it.
func Load(store storage.Provider, indexPath string) (*TOC, error) {
	data, err := store.Read(indexPath)
	if err != nil {
		return nil, fmt.Errorf("toc: load %s: %w", indexPath, err)
	}
	return Parse(indexPath, data), nil
}

// Parse builds a TOC from the contents of the index file at indexPath. Every
// link to a local document becomes an entry, in document order; headings
// above the first entry of a group name its section. The top-level heading
// (or front matter title) names the TOC itself.
func Parse(indexPath string, data []byte) *TOC {
	meta, _ := parser.Parse(indexPath, data)
	src := []byte(meta.Body)
	doc := engine.Parser().Parse(text.NewReader(src))

	t := &TOC{indexPath: indexPath, title: meta.Title}
	section := ""
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *ast.Heading:
			if node.Level > 1 {
				section = parser.NodeText(node, src)
			}
		case *ast.Link:
			target := string(node.Destination)
			resolved, ok := parser.ResolveTarget(indexPath, target)
			if !ok {
				return ast.WalkSkipChildren, nil
			}
			label := parser.NodeText(node, src)
			if label == "" {
				label = parser.TitleFromPath(resolved)
			}
			t.entries = append(t.entries, models.TOCEntry{
				Position: len(t.entries),
				Section:  section,
				Label:    label,
				Target:   target,
				Path:     resolved,
			})
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
	return t
}

// IndexPath returns the path of the index file this TOC was read from.
func (t *TOC) IndexPath() string { return t.indexPath }

// Title returns the title of the index document.
func (t *TOC) Title() string { return t.title }

// Len returns the number of entries.
func (t *TOC) Len() int { return len(t.entries) }

// Entries returns a copy of the entries in TOC order. Each call starts afresh.
func (t *TOC) Entries() []models.TOCEntry {
	out := make([]models.TOCEntry, len(t.entries))
	copy(out, t.entries)
	return out
}

// Sections groups the entries by section, keeping TOC order.
func (t *TOC) Sections() []Section {
	var out []Section
	for _, e := range t.entries {
		if len(out) == 0 || out[len(out)-1].Title != e.Section {
			out = append(out, Section{Title: e.Section})
		}
		last := &out[len(out)-1]
		last.Entries = append(last.Entries, e)
	}
	return out
}

// Validate checks that every entry resolves to a document in store. It
// returns a *apperr.BrokenLinkError listing exactly the unresolved entries.
// Storage failures other than a missing or invalid path abort validation.
func (t *TOC) Validate(store storage.Provider) error {
	var broken []models.TOCEntry
	for _, e := range t.entries {
		_, err := store.Read(e.Path)
		switch {
		case err == nil:
		case errors.Is(err, apperr.ErrNotFound), errors.Is(err, apperr.ErrInvalidPath):
			broken = append(broken, e)
		default:
			return fmt.Errorf("toc: validate %s: %w", e.Path, err)
		}
	}
	if len(broken) > 0 {
		return &apperr.BrokenLinkError{Entries: broken}
	}
	return nil
}

// Package parser extracts front matter, title, headings, and document links
// from markdown content.
package parser

import (
	"bytes"
	"fmt"
	"path"
	"strings"

	"github.com/adrg/frontmatter"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	gmparser "github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/starford/folio/internal/checksum"
	"github.com/starford/folio/internal/models"
)

var engine = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithParserOptions(gmparser.WithAutoHeadingID()),
)

// Result holds the output of parsing a markdown file.
type Result struct {
	Frontmatter map[string]any
	Body        string
	Title       string
	Layout      string
	Links       []string
	Headings    []models.Heading
}

// Parse extracts front matter, body, title, headings, and links from the raw
// bytes of the document at docPath (slash-separated, relative to the site root).
func Parse(docPath string, data []byte) (*Result, error) {
	fm, body := splitFrontmatter(data)

	doc := engine.Parser().Parse(text.NewReader(body))
	headings := collectHeadings(doc, body)

	return &Result{
		Frontmatter: fm,
		Body:        string(body),
		Title:       deriveTitle(docPath, fm, headings),
		Layout:      stringField(fm, "layout", models.DefaultLayout),
		Links:       collectLinks(docPath, doc),
		Headings:    headings,
	}, nil
}

// splitFrontmatter separates YAML front matter from the markdown body.
// Without front matter, or when it does not parse, the whole content is body.
func splitFrontmatter(data []byte) (map[string]any, []byte) {
	var fm map[string]any
	body, err := frontmatter.Parse(bytes.NewReader(data), &fm)
	if err != nil {
		return nil, data
	}
	if len(fm) == 0 {
		fm = nil
	}
	return fm, body
}

func collectHeadings(doc ast.Node, src []byte) []models.Heading {
	var out []models.Heading
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		h, ok := n.(*ast.Heading)
		if !ok {
			return ast.WalkContinue, nil
		}
		heading := models.Heading{
			Level: h.Level,
			Text:  NodeText(h, src),
		}
		if v, ok := h.AttributeString("id"); ok {
			if id, ok := v.([]byte); ok {
				heading.ID = string(id)
			}
		}
		out = append(out, heading)
		return ast.WalkSkipChildren, nil
	})
	return out
}

// NodeText concatenates the text segments below n, so inline markup such as
// emphasis or code spans contributes only its text.
func NodeText(n ast.Node, src []byte) string {
	var b strings.Builder
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch t := c.(type) {
		case *ast.Text:
			b.Write(t.Segment.Value(src))
			if t.SoftLineBreak() || t.HardLineBreak() {
				b.WriteByte(' ')
			}
		case *ast.String:
			b.Write(t.Value)
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(b.String())
}

// collectLinks returns the deduplicated document paths the body links to.
func collectLinks(docPath string, doc ast.Node) []string {
	seen := make(map[string]struct{})
	var out []string
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		link, ok := n.(*ast.Link)
		if !ok {
			return ast.WalkContinue, nil
		}
		target, ok := ResolveTarget(docPath, string(link.Destination))
		if !ok {
			return ast.WalkContinue, nil
		}
		if _, dup := seen[target]; !dup {
			seen[target] = struct{}{}
			out = append(out, target)
		}
		return ast.WalkContinue, nil
	})
	return out
}

// deriveTitle returns the front matter "title" if present, otherwise the first
// H1 heading, otherwise a title-cased file stem.
func deriveTitle(docPath string, fm map[string]any, headings []models.Heading) string {
	if t := stringField(fm, "title", ""); t != "" {
		return t
	}
	for _, h := range headings {
		if h.Level == 1 && h.Text != "" {
			return h.Text
		}
	}
	return TitleFromPath(docPath)
}

// TitleFromPath turns "02_closures-and_scope.md" into "02 Closures And Scope".
func TitleFromPath(docPath string) string {
	stem := strings.TrimSuffix(path.Base(docPath), path.Ext(docPath))
	stem = strings.NewReplacer("-", " ", "_", " ").Replace(stem)
	return cases.Title(language.English).String(strings.TrimSpace(stem))
}

func stringField(fm map[string]any, key, fallback string) string {
	if fm == nil {
		return fallback
	}
	if s, ok := fm[key].(string); ok {
		if s = strings.TrimSpace(s); s != "" {
			return s
		}
	}
	return fallback
}

// Document parses raw file content into a models.Document.
func Document(docPath string, data []byte) (*models.Document, error) {
	res, err := Parse(docPath, data)
	if err != nil {
		return nil, fmt.Errorf("parser: %s: %w", docPath, err)
	}
	return &models.Document{
		Path:        docPath,
		Title:       res.Title,
		Layout:      res.Layout,
		Content:     data,
		Body:        res.Body,
		Frontmatter: res.Frontmatter,
		Links:       res.Links,
		Headings:    res.Headings,
		Checksum:    checksum.Sum(data),
	}, nil
}

// Package render turns documents and the table of contents into HTML pages.
// Markdown conversion is goldmark's; page chrome comes from the embedded
// html/template layouts.
package render

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"path"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	gmparser "github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/util"

	"github.com/starford/folio/internal/models"
	"github.com/starford/folio/internal/toc"
)

//go:embed templates/*.html
var templateFS embed.FS

const indexLayout = "index"

// IndexOutput is the page the table of contents is rendered to.
const IndexOutput = "index.html"

// Options configures a Renderer.
type Options struct {
	SiteTitle string
	BaseURL   string
}

// Renderer converts markdown into full HTML pages. It is safe for concurrent use.
type Renderer struct {
	md      goldmark.Markdown
	layouts *template.Template
	opts    Options
}

// Page is the data handed to a layout template.
type Page struct {
	SiteTitle string
	BaseURL   string
	Title     string
	Path      string
	Output    string // page path relative to the output root
	Root      string // relative prefix from this page back to the site root
	Content   template.HTML
	Headings  []models.Heading
	Sections  []toc.Section
	Current   string
}

// New builds a Renderer with GFM, heading ids, and document link rewriting.
func New(opts Options) (*Renderer, error) {
	layouts, err := template.New("").Funcs(template.FuncMap{
		"outputPath": OutputPath,
	}).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("render: parse layouts: %w", err)
	}
	md := goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithParserOptions(
			gmparser.WithAutoHeadingID(),
			gmparser.WithASTTransformers(util.Prioritized(linkRewriter{}, 100)),
		),
		goldmark.WithRendererOptions(html.WithUnsafe()),
	)
	return &Renderer{md: md, layouts: layouts, opts: opts}, nil
}

// Markdown converts a markdown body to an HTML fragment.
func (r *Renderer) Markdown(body []byte) (template.HTML, error) {
	var buf bytes.Buffer
	if err := r.md.Convert(body, &buf); err != nil {
		return "", fmt.Errorf("render: convert markdown: %w", err)
	}
	return template.HTML(buf.String()), nil //nolint:gosec // corpus is trusted authored content
}

// Document writes the page for doc using its layout. Unknown layouts fall
// back to the default one. t may be nil when no table of contents is available.
func (r *Renderer) Document(w io.Writer, doc *models.Document, t *toc.TOC) error {
	content, err := r.Markdown([]byte(doc.Body))
	if err != nil {
		return err
	}
	page := r.page(doc.Title, doc.Path, t)
	page.Output = OutputPath(doc.Path)
	page.Root = rootPrefix(doc.Path)
	page.Content = content
	page.Headings = doc.Headings
	return r.execute(w, doc.Layout, page)
}

// Index writes the table-of-contents page. It is always index.html at the
// output root, wherever the index file itself lives.
func (r *Renderer) Index(w io.Writer, t *toc.TOC) error {
	return r.execute(w, indexLayout, r.indexPage(t))
}

func (r *Renderer) indexPage(t *toc.TOC) Page {
	title := t.Title()
	if title == "" {
		title = r.opts.SiteTitle
	}
	page := r.page(title, t.IndexPath(), t)
	page.Output = IndexOutput
	page.Root = ""
	return page
}

func (r *Renderer) page(title, docPath string, t *toc.TOC) Page {
	p := Page{
		SiteTitle: r.opts.SiteTitle,
		BaseURL:   r.opts.BaseURL,
		Title:     title,
		Path:      docPath,
		Current:   docPath,
	}
	if t != nil {
		p.Sections = t.Sections()
	}
	if p.SiteTitle == "" && t != nil {
		p.SiteTitle = t.Title()
	}
	return p
}

func (r *Renderer) execute(w io.Writer, layout string, page Page) error {
	tmpl := r.layouts.Lookup(layout + ".html")
	if tmpl == nil {
		tmpl = r.layouts.Lookup(models.DefaultLayout + ".html")
	}
	if err := tmpl.Execute(w, page); err != nil {
		return fmt.Errorf("render: execute layout %s: %w", tmpl.Name(), err)
	}
	return nil
}

// OutputPath maps a document path to its page path: "React/hooks.md" → "React/hooks.html".
func OutputPath(docPath string) string {
	return strings.TrimSuffix(docPath, path.Ext(docPath)) + ".html"
}

// rootPrefix returns "../" once per directory level of docPath.
func rootPrefix(docPath string) string {
	dir := path.Dir(docPath)
	if dir == "." || dir == "" {
		return ""
	}
	return strings.Repeat("../", strings.Count(dir, "/")+1)
}

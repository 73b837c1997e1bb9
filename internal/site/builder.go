// Package site builds the static HTML reference from the document store.
package site

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/starford/folio/internal/apperr"
	"github.com/starford/folio/internal/parser"
	"github.com/starford/folio/internal/render"
	"github.com/starford/folio/internal/storage"
	"github.com/starford/folio/internal/toc"
)

// ManifestFile is written next to index.html after every build.
const ManifestFile = "manifest.json"

// Manifest describes one build.
type Manifest struct {
	BuildID     string         `json:"build_id"`
	GeneratedAt time.Time      `json:"generated_at"`
	Index       string         `json:"index"`
	TOCEntries  int            `json:"toc_entries"`
	Pages       []ManifestPage `json:"pages"`
}

// ManifestPage is one rendered page.
type ManifestPage struct {
	Source   string `json:"source"`
	Output   string `json:"output"`
	Title    string `json:"title"`
	Checksum string `json:"checksum"`
}

// Builder renders a document store into an output directory.
type Builder struct {
	store     storage.Provider
	out       *storage.Writer
	renderer  *render.Renderer
	indexPath string
	workers   int
	logger    *slog.Logger
}

// NewBuilder returns a Builder. workers bounds the number of documents
// rendered concurrently.
func NewBuilder(store storage.Provider, out *storage.Writer, renderer *render.Renderer, indexPath string, workers int, logger *slog.Logger) *Builder {
	if workers <= 0 {
		workers = 1
	}
	return &Builder{
		store:     store,
		out:       out,
		renderer:  renderer,
		indexPath: indexPath,
		workers:   workers,
		logger:    logger,
	}
}

// Build validates the table of contents and, when every entry resolves,
// renders all documents, the index page, and the manifest. A broken table of
// contents aborts the build before anything is written.
func (b *Builder) Build(ctx context.Context) (*Manifest, error) {
	start := time.Now()

	// Clean would otherwise remove the source documents.
	if storage.IsWithin(b.store.Root(), b.out.Root()) {
		return nil, fmt.Errorf("site: output %s contains %s: %w", b.out.Root(), b.store.Root(), apperr.ErrOutputOverlap)
	}

	t, err := toc.Load(b.store, b.indexPath)
	if err != nil {
		return nil, fmt.Errorf("site: %w", err)
	}
	if err := t.Validate(b.store); err != nil {
		return nil, fmt.Errorf("site: validate toc: %w", err)
	}

	metas, err := b.store.List("")
	if err != nil {
		return nil, fmt.Errorf("site: %w", err)
	}

	if err := b.out.Clean(); err != nil {
		return nil, fmt.Errorf("site: %w", err)
	}

	manifest := &Manifest{
		BuildID:     uuid.NewString(),
		GeneratedAt: start.UTC(),
		Index:       b.indexPath,
		TOCEntries:  t.Len(),
	}

	var mu sync.Mutex
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(b.workers)
	for _, m := range metas {
		if m.Path == b.indexPath {
			continue
		}
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			page, err := b.renderDocument(m.Path, t)
			if err != nil {
				return err
			}
			mu.Lock()
			manifest.Pages = append(manifest.Pages, page)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("site: render: %w", err)
	}
	sort.Slice(manifest.Pages, func(i, j int) bool { return manifest.Pages[i].Source < manifest.Pages[j].Source })

	var buf bytes.Buffer
	if err := b.renderer.Index(&buf, t); err != nil {
		return nil, fmt.Errorf("site: %w", err)
	}
	if err := b.out.Write(render.IndexOutput, buf.Bytes()); err != nil {
		return nil, fmt.Errorf("site: %w", err)
	}

	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("site: encode manifest: %w", err)
	}
	if err := b.out.Write(ManifestFile, data); err != nil {
		return nil, fmt.Errorf("site: %w", err)
	}

	b.logger.Info("site: build complete",
		slog.String("build_id", manifest.BuildID),
		slog.Int("pages", len(manifest.Pages)),
		slog.Int("toc_entries", manifest.TOCEntries),
		slog.String("output", b.out.Root()),
		slog.Duration("elapsed", time.Since(start)))
	return manifest, nil
}

func (b *Builder) renderDocument(docPath string, t *toc.TOC) (ManifestPage, error) {
	data, err := b.store.Read(docPath)
	if err != nil {
		return ManifestPage{}, err
	}
	doc, err := parser.Document(docPath, data)
	if err != nil {
		return ManifestPage{}, err
	}
	var buf bytes.Buffer
	if err := b.renderer.Document(&buf, doc, t); err != nil {
		return ManifestPage{}, fmt.Errorf("%s: %w", docPath, err)
	}
	output := render.OutputPath(docPath)
	if err := b.out.Write(output, buf.Bytes()); err != nil {
		return ManifestPage{}, err
	}
	b.logger.Debug("site: rendered", slog.String("path", docPath), slog.String("output", output))
	return ManifestPage{
		Source:   docPath,
		Output:   output,
		Title:    doc.Title,
		Checksum: doc.Checksum,
	}, nil
}

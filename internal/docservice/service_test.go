package docservice

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/starford/folio/internal/apperr"
	"github.com/starford/folio/internal/catalog"
	"github.com/starford/folio/internal/render"
	"github.com/starford/folio/internal/testutil"
	"github.com/starford/folio/internal/toc"
)

func testService(t *testing.T) (*Service, string) {
	t.Helper()
	dir, store := testutil.TestSite(t)
	db := testutil.TestDB(t)
	if _, err := catalog.Sync(db, store, slog.New(slog.NewJSONHandler(io.Discard, nil))); err != nil {
		t.Fatalf("Sync: %v", err)
	}
	r, err := render.New(render.Options{SiteTitle: "JS Prep"})
	if err != nil {
		t.Fatal(err)
	}
	return NewService(store, db, r, toc.DefaultIndex), dir
}

func TestGetDocument(t *testing.T) {
	svc, _ := testService(t)
	doc, err := svc.GetDocument(context.Background(), "02_operators.md")
	if err != nil {
		t.Fatalf("GetDocument: %v", err)
	}
	if doc.Title != "Operators" {
		t.Errorf("title = %q", doc.Title)
	}
	if !doc.InTOC {
		t.Error("expected document to be in toc")
	}
	// 01 links to 02; the index links to every document.
	if len(doc.Backlinks) != 2 || doc.Backlinks[0] != "01_variable&Datatypes.md" || doc.Backlinks[1] != "index.md" {
		t.Errorf("backlinks = %v", doc.Backlinks)
	}
	if len(doc.Links) != 1 || doc.Links[0] != "03_functions.md" {
		t.Errorf("links = %v", doc.Links)
	}
}

func TestGetDocument_NotFound(t *testing.T) {
	svc, _ := testService(t)
	_, err := svc.GetDocument(context.Background(), "99_missing.md")
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestValidate(t *testing.T) {
	svc, dir := testService(t)
	v, err := svc.Validate(context.Background())
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if !v.OK || v.Entries != 20 || len(v.Broken) != 0 {
		t.Errorf("validation = %+v", v)
	}

	_ = os.Remove(filepath.Join(dir, "13_events.md"))
	v, err = svc.Validate(context.Background())
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if v.OK || len(v.Broken) != 1 || v.Broken[0].Path != "13_events.md" {
		t.Errorf("validation = %+v", v)
	}
}

func TestListAndSearch(t *testing.T) {
	svc, _ := testService(t)
	items, total, err := svc.ListDocuments(context.Background(), 5, 0)
	if err != nil {
		t.Fatalf("ListDocuments: %v", err)
	}
	if total != 21 || len(items) != 5 {
		t.Errorf("total = %d, items = %d", total, len(items))
	}

	res, err := svc.Search(context.Background(), "Event Loop", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	found := false
	for _, r := range res {
		if r.Path == "16_event_loop.md" {
			found = true
		}
	}
	if !found {
		t.Errorf("search results = %+v", res)
	}
}

func TestRenderDocumentAndIndex(t *testing.T) {
	svc, _ := testService(t)
	var buf bytes.Buffer
	if err := svc.RenderDocument(context.Background(), &buf, "React/01_react_basics.md"); err != nil {
		t.Fatalf("RenderDocument: %v", err)
	}
	if !strings.Contains(buf.String(), `href="02_hooks.html"`) {
		t.Errorf("rendered page missing rewritten link: %s", buf.String())
	}

	buf.Reset()
	if err := svc.RenderDocument(context.Background(), &buf, toc.DefaultIndex); err != nil {
		t.Fatalf("RenderDocument(index): %v", err)
	}
	if !strings.Contains(buf.String(), "<h2>React</h2>") {
		t.Error("index page missing React section")
	}
}

func TestETag_Stable(t *testing.T) {
	svc, _ := testService(t)
	a, err := svc.ETag(context.Background(), "05_closures.md")
	if err != nil {
		t.Fatalf("ETag: %v", err)
	}
	b, _ := svc.ETag(context.Background(), "05_closures.md")
	if a != b {
		t.Errorf("etag changed between reads: %q vs %q", a, b)
	}
}

func TestListFolder(t *testing.T) {
	svc, _ := testService(t)
	metas, err := svc.ListFolder(context.Background(), "React")
	if err != nil {
		t.Fatalf("ListFolder: %v", err)
	}
	if len(metas) != 2 || metas[0].Path != "React/01_react_basics.md" {
		t.Errorf("metas = %+v", metas)
	}
	if _, err := svc.ListFolder(context.Background(), "../elsewhere"); !errors.Is(err, apperr.ErrInvalidPath) {
		t.Errorf("err = %v, want ErrInvalidPath", err)
	}
}

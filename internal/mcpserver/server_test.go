package mcpserver

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/folio/internal/catalog"
	"github.com/starford/folio/internal/docservice"
	"github.com/starford/folio/internal/models"
	"github.com/starford/folio/internal/render"
	"github.com/starford/folio/internal/testutil"
	"github.com/starford/folio/internal/toc"
)

func testServer(t *testing.T) (*Server, string) {
	t.Helper()

	dir, store := testutil.TestSite(t)
	db := testutil.TestDB(t)
	if _, err := catalog.Sync(db, store, slog.New(slog.NewJSONHandler(io.Discard, nil))); err != nil {
		t.Fatalf("Sync: %v", err)
	}
	r, err := render.New(render.Options{})
	if err != nil {
		t.Fatal(err)
	}

	srv := New(docservice.NewService(store, db, r, toc.DefaultIndex), "test")
	return srv, dir
}

func callTool(t *testing.T, srv *Server, name string, args map[string]interface{}) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	// mcp-go has no in-process call helper; dispatch to the handlers directly.
	var result *mcp.CallToolResult
	var err error

	switch name {
	case "get_toc":
		result, err = srv.getTOC(ctx, req)
	case "validate_toc":
		result, err = srv.validateTOC(ctx, req)
	case "read_document":
		result, err = srv.readDocument(ctx, req)
	case "list_documents":
		result, err = srv.listDocuments(ctx, req)
	case "search_documents":
		result, err = srv.searchDocuments(ctx, req)
	case "get_backlinks":
		result, err = srv.getBacklinks(ctx, req)
	default:
		t.Fatalf("unknown tool: %s", name)
	}

	if err != nil {
		t.Fatalf("tool %s error: %v", name, err)
	}
	return result
}

func resultText(r *mcp.CallToolResult) string {
	if len(r.Content) > 0 {
		if tc, ok := r.Content[0].(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func TestGetTOC(t *testing.T) {
	srv, _ := testServer(t)

	r := callTool(t, srv, "get_toc", nil)
	if r.IsError {
		t.Fatalf("get_toc error: %s", resultText(r))
	}
	var entries []models.TOCEntry
	if err := json.Unmarshal([]byte(resultText(r)), &entries); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(entries) != 20 {
		t.Fatalf("entries = %d, want 20", len(entries))
	}
	if entries[19].Path != "React/02_hooks.md" || entries[19].Section != "React" {
		t.Errorf("last entry = %+v", entries[19])
	}
}

func TestValidateTOC(t *testing.T) {
	srv, dir := testServer(t)

	r := callTool(t, srv, "validate_toc", nil)
	if text := resultText(r); text != "ok: all 20 entries resolve" {
		t.Errorf("validate = %q", text)
	}

	if err := os.Remove(filepath.Join(dir, "React", "02_hooks.md")); err != nil {
		t.Fatal(err)
	}
	r = callTool(t, srv, "validate_toc", nil)
	text := resultText(r)
	if !strings.HasPrefix(text, "broken: 1 of 20") {
		t.Errorf("validate = %q", text)
	}
	if !strings.Contains(text, "- Hooks -> React/02_hooks.md") {
		t.Errorf("broken entry missing from %q", text)
	}
}

func TestReadDocument(t *testing.T) {
	srv, _ := testServer(t)

	r := callTool(t, srv, "read_document", map[string]interface{}{"path": "16_event_loop.md"})
	if text := resultText(r); text != testutil.DocContent(15) {
		t.Errorf("read result = %q", text)
	}
}

func TestReadDocumentMissing(t *testing.T) {
	srv, _ := testServer(t)

	r := callTool(t, srv, "read_document", map[string]interface{}{"path": "nope.md"})
	if !r.IsError {
		t.Error("expected error for missing document")
	}
	r = callTool(t, srv, "read_document", map[string]interface{}{})
	if !r.IsError {
		t.Error("expected error for missing path argument")
	}
}

func TestListDocuments(t *testing.T) {
	srv, _ := testServer(t)

	r := callTool(t, srv, "list_documents", map[string]interface{}{})
	if n := len(strings.Split(resultText(r), "\n")); n != 21 {
		t.Errorf("listed %d documents, want 21", n)
	}

	r = callTool(t, srv, "list_documents", map[string]interface{}{"folder": "React"})
	if text := resultText(r); text != "React/01_react_basics.md\nReact/02_hooks.md" {
		t.Errorf("folder list = %q", text)
	}
}

func TestSearchDocuments(t *testing.T) {
	srv, _ := testServer(t)

	r := callTool(t, srv, "search_documents", map[string]interface{}{"query": "Hooks"})
	if !strings.Contains(resultText(r), "React/02_hooks.md") {
		t.Errorf("search = %q", resultText(r))
	}
}

func TestGetBacklinks(t *testing.T) {
	srv, _ := testServer(t)

	r := callTool(t, srv, "get_backlinks", map[string]interface{}{"path": "React/02_hooks.md"})
	if text := resultText(r); text != "React/01_react_basics.md\nindex.md" {
		t.Errorf("backlinks = %q", text)
	}

	r = callTool(t, srv, "get_backlinks", map[string]interface{}{"path": "unlinked.md"})
	if text := resultText(r); text != "no backlinks found" {
		t.Errorf("backlinks = %q", text)
	}
}

func TestTOCResource(t *testing.T) {
	srv, _ := testServer(t)

	contents, err := srv.readTOCResource(context.Background(), mcp.ReadResourceRequest{})
	if err != nil {
		t.Fatal(err)
	}
	tc, ok := contents[0].(mcp.TextResourceContents)
	if !ok {
		t.Fatalf("content is %T", contents[0])
	}
	if tc.URI != TOCResourceURI {
		t.Errorf("uri = %q", tc.URI)
	}
	for _, want := range []string{"# JavaScript Interview Questions", "## React", "- [Closures](05_closures.md)"} {
		if !strings.Contains(tc.Text, want) {
			t.Errorf("resource missing %q", want)
		}
	}
}

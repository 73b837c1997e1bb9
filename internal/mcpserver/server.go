// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes read-only folio tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/folio/internal/apperr"
	"github.com/starford/folio/internal/docservice"
	"github.com/starford/folio/internal/toc"
)

// Resource URIs.
const (
	TOCResourceURI       = "folio://toc"
	LinkRulesResourceURI = "folio://link-rules"
)

// Server wraps the MCP server with folio tools.
type Server struct {
	mcp *server.MCPServer
	svc *docservice.Service
}

// New creates a new MCP server with all folio tools registered.
func New(svc *docservice.Service, version string) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"folio",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("get_toc",
		mcp.WithDescription("Return the table of contents of the site: every entry with its section, label and document path."),
	), s.getTOC)

	s.mcp.AddTool(mcp.NewTool("validate_toc",
		mcp.WithDescription("Check that every table-of-contents entry resolves to an existing document. "+
			"Lists the broken entries, if any."),
	), s.validateTOC)

	s.mcp.AddTool(mcp.NewTool("read_document",
		mcp.WithDescription("Read the full content of a Markdown document."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Relative path to the document (e.g. React/02_hooks.md)")),
	), s.readDocument)

	s.mcp.AddTool(mcp.NewTool("list_documents",
		mcp.WithDescription("List all documents or the documents in a specific folder."),
		mcp.WithString("folder", mcp.Description("Optional folder to list (empty for all)")),
	), s.listDocuments)

	s.mcp.AddTool(mcp.NewTool("search_documents",
		mcp.WithDescription("Full-text search through document content and titles."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
	), s.searchDocuments)

	s.mcp.AddTool(mcp.NewTool("get_backlinks",
		mcp.WithDescription("Find all documents, including the index, that link to the specified document."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Path of the document to find backlinks for")),
	), s.getBacklinks)

	s.mcp.AddResource(
		mcp.NewResource(TOCResourceURI, "Table of Contents",
			mcp.WithResourceDescription("The site's table of contents as a Markdown list grouped by section."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readTOCResource,
	)

	s.mcp.AddResource(
		mcp.NewResource(LinkRulesResourceURI, "Link Rules",
			mcp.WithResourceDescription("How TOC entries and document links are resolved and validated."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readLinkRulesResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func (s *Server) getTOC(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	t, err := s.svc.TOC(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(t.Entries(), "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) validateTOC(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	v, err := s.svc.Validate(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if v.OK {
		return mcp.NewToolResultText(fmt.Sprintf("ok: all %d entries resolve", v.Entries)), nil
	}
	var b strings.Builder
	fmt.Fprintf(&b, "broken: %d of %d entries do not resolve\n", len(v.Broken), v.Entries)
	for _, e := range v.Broken {
		fmt.Fprintf(&b, "- %s -> %s\n", e.Label, e.Path)
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (s *Server) readDocument(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	doc, err := s.svc.GetDocument(ctx, path)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) || errors.Is(err, apperr.ErrInvalidPath) {
			return mcp.NewToolResultError(fmt.Sprintf("not found: %s", path)), nil
		}
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(doc.Content), nil
}

func (s *Server) listDocuments(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	folder := ""
	if f, err := req.RequireString("folder"); err == nil {
		folder = f
	}

	metas, err := s.svc.ListFolder(ctx, folder)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var paths []string
	for _, m := range metas {
		paths = append(paths, m.Path)
	}
	if len(paths) == 0 {
		return mcp.NewToolResultText("no documents found"), nil
	}
	return mcp.NewToolResultText(strings.Join(paths, "\n")), nil
}

func (s *Server) searchDocuments(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	results, err := s.svc.Search(ctx, query, 20)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(results, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) getBacklinks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	bl, err := s.svc.Backlinks(ctx, path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(bl) == 0 {
		return mcp.NewToolResultText("no backlinks found"), nil
	}
	return mcp.NewToolResultText(strings.Join(bl, "\n")), nil
}

func (s *Server) readTOCResource(ctx context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	t, err := s.svc.TOC(ctx)
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      TOCResourceURI,
			MIMEType: "text/markdown",
			Text:     tocMarkdown(t),
		},
	}, nil
}

func (s *Server) readLinkRulesResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      LinkRulesResourceURI,
			MIMEType: "text/markdown",
			Text:     LinkRules,
		},
	}, nil
}

// tocMarkdown lists the entries grouped by section, one link per line.
func tocMarkdown(t *toc.TOC) string {
	var b strings.Builder
	if t.Title() != "" {
		fmt.Fprintf(&b, "# %s\n", t.Title())
	}
	for _, sec := range t.Sections() {
		if sec.Title != "" {
			fmt.Fprintf(&b, "\n## %s\n\n", sec.Title)
		} else {
			b.WriteString("\n")
		}
		for _, e := range sec.Entries {
			fmt.Fprintf(&b, "- [%s](%s)\n", e.Label, e.Path)
		}
	}
	return b.String()
}

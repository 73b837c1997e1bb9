package render

import (
	"strings"

	"github.com/yuin/goldmark/ast"
	gmparser "github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"

	"github.com/starford/folio/internal/parser"
)

// linkRewriter points links at markdown documents to their rendered pages,
// keeping the relative form and any fragment.
type linkRewriter struct{}

func (linkRewriter) Transform(doc *ast.Document, _ text.Reader, _ gmparser.Context) {
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if link, ok := n.(*ast.Link); ok {
			link.Destination = []byte(rewriteDestination(string(link.Destination)))
		}
		return ast.WalkContinue, nil
	})
}

func rewriteDestination(dest string) string {
	if _, ok := parser.ResolveTarget("", dest); !ok {
		return dest
	}
	base, suffix := dest, ""
	if i := strings.IndexAny(dest, "#?"); i >= 0 {
		base, suffix = dest[:i], dest[i:]
	}
	lower := strings.ToLower(base)
	switch {
	case strings.HasSuffix(base, "/"), strings.HasSuffix(lower, ".html"), strings.HasSuffix(lower, ".htm"):
		return dest
	case strings.HasSuffix(lower, ".md"):
		return base[:len(base)-len(".md")] + ".html" + suffix
	default:
		return base + ".html" + suffix
	}
}

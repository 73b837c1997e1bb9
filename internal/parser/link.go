package parser

import (
	"net/url"
	"path"
	"strings"
)

// ResolveTarget resolves a link destination written inside the document at
// from into a document path relative to the site root. It reports false for
// links that do not point at a document: external URLs, pure fragments, and
// assets such as images.
//
// Resolution rules: a leading "/" is site-root relative, anything else is
// relative to from's directory; fragments and queries are dropped;
// percent-escapes are decoded; ".html" maps to ".md"; an extensionless
// target gains ".md"; a trailing "/" means the directory's index.md.
func ResolveTarget(from, dest string) (string, bool) {
	dest = strings.TrimSpace(dest)
	if dest == "" || strings.HasPrefix(dest, "#") || strings.HasPrefix(dest, "//") {
		return "", false
	}

	p := dest
	if u, err := url.Parse(dest); err == nil {
		if u.Scheme != "" || u.Host != "" || u.Opaque != "" {
			return "", false
		}
		p = u.Path
	} else {
		// Unparseable escapes; use the raw destination minus fragment and query.
		if i := strings.IndexAny(p, "#?"); i >= 0 {
			p = p[:i]
		}
	}
	if p == "" {
		return "", false
	}

	dirIndex := strings.HasSuffix(p, "/")
	if strings.HasPrefix(p, "/") {
		p = strings.TrimLeft(p, "/")
	} else {
		p = path.Join(path.Dir(from), p)
	}
	p = path.Clean(p)
	if dirIndex || p == "." {
		return path.Join(p, "index.md"), true
	}

	switch strings.ToLower(path.Ext(p)) {
	case ".md":
	case ".html", ".htm":
		p = strings.TrimSuffix(p, path.Ext(p)) + ".md"
	case "":
		p += ".md"
	default:
		return "", false
	}
	return p, true
}

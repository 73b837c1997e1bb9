// Package testutil provides shared test helpers for fixture sites and catalog databases.
package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/starford/folio/internal/catalog"
	"github.com/starford/folio/internal/storage"
)

// CorpusDoc is one document of the fixture corpus.
type CorpusDoc struct {
	Section string
	Label   string
	Path    string
}

// CorpusDocs lists the documents linked from CorpusIndex, in TOC order.
var CorpusDocs = []CorpusDoc{
	{"JavaScript", "Variables & Datatypes", "01_variable&Datatypes.md"},
	{"JavaScript", "Operators", "02_operators.md"},
	{"JavaScript", "Functions", "03_functions.md"},
	{"JavaScript", "Scope & Hoisting", "04_scope&hoisting.md"},
	{"JavaScript", "Closures", "05_closures.md"},
	{"JavaScript", "The this Keyword", "06_this_keyword.md"},
	{"JavaScript", "Objects", "07_objects.md"},
	{"JavaScript", "Prototypes & Inheritance", "08_prototypes&inheritance.md"},
	{"JavaScript", "Classes", "09_classes.md"},
	{"JavaScript", "Arrays", "10_arrays.md"},
	{"JavaScript", "Strings", "11_strings.md"},
	{"JavaScript", "The DOM", "12_dom.md"},
	{"JavaScript", "Events", "13_events.md"},
	{"JavaScript", "Asynchronous Programming", "14_async_programming.md"},
	{"JavaScript", "Promises & Async/Await", "15_promises.md"},
	{"JavaScript", "The Event Loop", "16_event_loop.md"},
	{"JavaScript", "Modules", "17_modules.md"},
	{"JavaScript", "Error Handling", "18_error_handling.md"},
	{"React", "React Basics", "React/01_react_basics.md"},
	{"React", "Hooks", "React/02_hooks.md"},
}

// CorpusIndex is the fixture index.md. It mixes link styles on purpose and
// carries links that are not TOC entries (external, fragment, image).
const CorpusIndex = `---
layout: default
title: JavaScript Interview Questions
---

# JavaScript Interview Questions

Prepared answers for frontend interviews. See also [MDN](https://developer.mozilla.org) and [the React docs](https://react.dev).

![banner](./images/banner.png)

## JavaScript

1. [Variables & Datatypes](./01_variable&Datatypes.md)
2. [Operators](./02_operators.md)
3. [Functions](03_functions.md)
4. [Scope & Hoisting](./04_scope%26hoisting.md)
5. [Closures](./05_closures.md)
6. [The this Keyword](./06_this_keyword.md)
7. [Objects](./07_objects.md)
8. [Prototypes & Inheritance](./08_prototypes&inheritance.md)
9. [Classes](./09_classes.md)
10. [Arrays](./10_arrays.md)
11. [Strings](./11_strings.md)
12. [The DOM](./12_dom.md)
13. [Events](./13_events.md)
14. [Asynchronous Programming](./14_async_programming.md)
15. [Promises & Async/Await](./15_promises.md)
16. [The Event Loop](./16_event_loop.md)
17. [Modules](./17_modules)
18. [Error Handling](./18_error_handling.md)

## React

1. [React Basics](./React/01_react_basics.md)
2. [Hooks](./React/02_hooks.html)

[Back to top](#javascript-interview-questions)
`

// WriteFile writes content to rel under dir, creating parent directories.
func WriteFile(t *testing.T, dir, rel, content string) {
	t.Helper()
	p := filepath.Join(dir, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

// DocContent returns the fixture body for the i-th corpus document. Each
// document links to the next one.
func DocContent(i int) string {
	d := CorpusDocs[i]
	body := fmt.Sprintf("---\ntitle: %s\nlayout: default\n---\n\n# %s\n\n## Question %d\n\nAnswer for %s.\n", d.Label, d.Label, i+1, d.Label)
	if i+1 < len(CorpusDocs) {
		next := CorpusDocs[i+1].Path
		if filepath.Dir(d.Path) == "React" {
			next = filepath.Base(next)
		}
		body += fmt.Sprintf("\nNext: [%s](%s)\n", CorpusDocs[i+1].Label, next)
	}
	return body
}

// WriteCorpus writes the fixture index and all of its documents into a
// temporary directory and returns the directory.
func WriteCorpus(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	WriteFile(t, dir, "index.md", CorpusIndex)
	for i, d := range CorpusDocs {
		WriteFile(t, dir, d.Path, DocContent(i))
	}
	return dir
}

// TestSite writes the fixture corpus and returns its root with a storage.Provider.
func TestSite(t *testing.T) (string, storage.Provider) {
	t.Helper()
	dir := WriteCorpus(t)
	store, err := storage.NewFS(dir)
	if err != nil {
		t.Fatal(err)
	}
	return dir, store
}

// TestDB creates a temporary catalog database that is automatically cleaned up.
func TestDB(t *testing.T) *catalog.DB {
	t.Helper()
	db, err := catalog.Open(filepath.Join(t.TempDir(), "folio-test.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

package parser

import (
	"testing"
)

func TestParse_FrontmatterAndBody(t *testing.T) {
	input := []byte("---\ntitle: Closures\nlayout: default\n---\n# What is a closure?\nA function bundled with its lexical scope.\n")
	r, err := Parse("03_closures.md", input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Title != "Closures" {
		t.Errorf("title = %q, want %q", r.Title, "Closures")
	}
	if r.Layout != "default" {
		t.Errorf("layout = %q", r.Layout)
	}
	if r.Body != "# What is a closure?\nA function bundled with its lexical scope.\n" {
		t.Errorf("body = %q", r.Body)
	}
	if r.Frontmatter["title"] != "Closures" {
		t.Errorf("frontmatter = %v", r.Frontmatter)
	}
}

func TestParse_NoFrontmatter(t *testing.T) {
	input := []byte("# Hoisting\nvar declarations move up.\n")
	r, err := Parse("hoisting.md", input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Frontmatter != nil {
		t.Errorf("expected nil frontmatter, got %v", r.Frontmatter)
	}
	if r.Title != "Hoisting" {
		t.Errorf("title = %q, want %q", r.Title, "Hoisting")
	}
	if r.Layout != "default" {
		t.Errorf("layout = %q, want default", r.Layout)
	}
}

func TestParse_InvalidYAMLFallback(t *testing.T) {
	input := []byte("---\ntitle: [unclosed\n---\nBody\n")
	r, err := Parse("broken.md", input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Frontmatter != nil {
		t.Errorf("expected nil frontmatter on invalid YAML")
	}
	if r.Body != string(input) {
		t.Errorf("body = %q, want whole input", r.Body)
	}
}

func TestParse_CodeFenceIsNotHeading(t *testing.T) {
	input := []byte("```bash\n# install deps\nnpm i\n```\n\n## Promises\n")
	r, err := Parse("09_promises.md", input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(r.Headings) != 1 || r.Headings[0].Text != "Promises" || r.Headings[0].Level != 2 {
		t.Errorf("headings = %+v", r.Headings)
	}
	if r.Headings[0].ID != "promises" {
		t.Errorf("heading id = %q, want promises", r.Headings[0].ID)
	}
	// No H1: falls back to file stem.
	if r.Title != "09 Promises" {
		t.Errorf("title = %q", r.Title)
	}
}

func TestParse_Links(t *testing.T) {
	input := []byte(`See [scope](./02_scope.md#lexical), [again](02_scope.md),
[events](../events.html), [MDN](https://developer.mozilla.org), [top](#top),
and ![diagram](./img/loop.png).
`)
	r, err := Parse("js/03_closures.md", input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"js/02_scope.md", "events.md"}
	if len(r.Links) != len(want) {
		t.Fatalf("links = %v, want %v", r.Links, want)
	}
	for i := range want {
		if r.Links[i] != want[i] {
			t.Errorf("links[%d] = %q, want %q", i, r.Links[i], want[i])
		}
	}
}

func TestTitleFromPath(t *testing.T) {
	cases := map[string]string{
		"React/01_react-basics.md": "01 React Basics",
		"event_loop.md":            "Event Loop",
	}
	for in, want := range cases {
		if got := TitleFromPath(in); got != want {
			t.Errorf("TitleFromPath(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestParse_HeadingTextDropsInlineMarkup(t *testing.T) {
	input := []byte("# The *this* keyword and `bind`\n\n## Arrow **functions**\n")
	r, err := Parse("06_this_keyword.md", input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Title != "The this keyword and bind" {
		t.Errorf("title = %q", r.Title)
	}
	if len(r.Headings) != 2 || r.Headings[1].Text != "Arrow functions" {
		t.Errorf("headings = %+v", r.Headings)
	}
}

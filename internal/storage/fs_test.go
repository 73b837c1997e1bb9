package storage

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/starford/folio/internal/apperr"
)

func tempSite(t *testing.T, files map[string]string) *FS {
	t.Helper()
	dir := t.TempDir()
	for rel, content := range files {
		p := filepath.Join(dir, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	fs, err := NewFS(dir)
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	return fs
}

func TestRead(t *testing.T) {
	s := tempSite(t, map[string]string{"closures.md": "# Closures\n"})
	got, err := s.Read("closures.md")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(got) != "# Closures\n" {
		t.Errorf("content = %q", got)
	}
}

func TestRead_Idempotent(t *testing.T) {
	s := tempSite(t, map[string]string{"React/hooks.md": "---\ntitle: Hooks\n---\nuseState\n"})
	first, err := s.Read("React/hooks.md")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	second, err := s.Read("React/hooks.md")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Errorf("reads differ: %q vs %q", first, second)
	}
}

func TestRead_NotFound(t *testing.T) {
	s := tempSite(t, map[string]string{"a.md": "a", "notes.txt": "x", "dir/b.md": "b"})
	for _, p := range []string{"missing.md", "notes.txt", "dir", "dir/missing.md"} {
		_, err := s.Read(p)
		if !errors.Is(err, apperr.ErrNotFound) {
			t.Errorf("Read(%q) err = %v, want ErrNotFound", p, err)
		}
	}
}

func TestList(t *testing.T) {
	s := tempSite(t, map[string]string{
		"b.md":             "b",
		"a.md":             "a",
		"sub/c.md":         "c",
		"readme.txt":       "not md",
		".git/HEAD.md":     "hidden",
		"sub/.drafts/x.md": "hidden",
	})

	items, err := s.List("")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	want := []string{"a.md", "b.md", "sub/c.md"}
	if len(items) != len(want) {
		t.Fatalf("len = %d, want %d (%v)", len(items), len(want), items)
	}
	for i, p := range want {
		if items[i].Path != p {
			t.Errorf("items[%d].Path = %q, want %q", i, items[i].Path, p)
		}
		if items[i].Checksum == "" {
			t.Errorf("items[%d] has empty checksum", i)
		}
	}
}

func TestList_Subdir(t *testing.T) {
	s := tempSite(t, map[string]string{"a.md": "a", "React/x.md": "x", "React/y.md": "y"})
	items, err := s.List("React")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(items) != 2 || items[0].Path != "React/x.md" {
		t.Errorf("items = %+v", items)
	}
}

func TestTraversalBlocked(t *testing.T) {
	s := tempSite(t, nil)

	cases := []string{
		"../../etc/passwd.md",
		"../outside.md",
		"/etc/shadow.md",
	}
	for _, p := range cases {
		_, err := s.Read(p)
		if !errors.Is(err, apperr.ErrInvalidPath) {
			t.Errorf("Read(%q) err = %v, want ErrInvalidPath", p, err)
		}
	}
	if _, err := s.List("../"); err == nil {
		t.Error("expected error listing outside root")
	}
}

func TestNewFS_NonExistentDir(t *testing.T) {
	_, err := NewFS(filepath.Join(t.TempDir(), "does-not-exist"))
	if err == nil {
		t.Error("expected error for non-existent dir")
	}
}

func TestNewFS_FileNotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.md")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := NewFS(f); err == nil {
		t.Error("expected error when root is a file")
	}
}

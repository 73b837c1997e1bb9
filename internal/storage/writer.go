package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Writer writes build output under a fixed directory.
type Writer struct {
	root string
}

// NewWriter creates the output directory if needed and returns a Writer for it.
func NewWriter(root string) (*Writer, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("storage: mkdir output: %w", err)
	}
	abs, err := resolveRoot(root)
	if err != nil {
		return nil, err
	}
	return &Writer{root: abs}, nil
}

// Root returns the absolute output directory.
func (w *Writer) Root() string { return w.root }

// Clean removes everything inside the output directory, keeping the directory itself.
func (w *Writer) Clean() error {
	entries, err := os.ReadDir(w.root)
	if err != nil {
		return fmt.Errorf("storage: clean: %w", err)
	}
	for _, e := range entries {
		if err := os.RemoveAll(filepath.Join(w.root, e.Name())); err != nil {
			return fmt.Errorf("storage: clean %s: %w", e.Name(), err)
		}
	}
	return nil
}

// Write atomically writes content: tmp file → fsync → rename.
func (w *Writer) Write(path string, content []byte) error {
	abs, err := safePath(w.root, path)
	if err != nil {
		return err
	}
	if abs == w.root {
		return fmt.Errorf("storage: empty output path")
	}
	dir := filepath.Dir(abs)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("storage: mkdir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".folio-tmp-*")
	if err != nil {
		return fmt.Errorf("storage: create temp: %w", err)
	}
	tmpName := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(content); err != nil {
		return fmt.Errorf("storage: write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("storage: fsync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("storage: close temp: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("storage: chmod: %w", err)
	}
	if err := os.Rename(tmpName, abs); err != nil {
		return fmt.Errorf("storage: rename: %w", err)
	}
	success = true
	return nil
}

// IsWithin reports whether p is dir itself or lies below it. Both paths are
// made absolute, and symlinks are resolved where the path exists.
func IsWithin(p, dir string) bool {
	rel, err := filepath.Rel(resolvedPath(dir), resolvedPath(p))
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}

func resolvedPath(p string) string {
	abs, err := filepath.Abs(p)
	if err != nil {
		return filepath.Clean(p)
	}
	if real, err := filepath.EvalSymlinks(abs); err == nil {
		return real
	}
	return abs
}

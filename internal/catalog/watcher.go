package catalog

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/folio/internal/storage"
)

// Event kinds passed to EventCallback.
const (
	EventCreated = "created"
	EventUpdated = "updated"
	EventDeleted = "deleted"
	EventTOC     = "toc"
)

// EventCallback is called after a watcher-driven catalog change.
type EventCallback func(kind string, path string)

const reconcileDelay = 200 * time.Millisecond

// Watcher keeps the catalog in step with the document tree.
type Watcher struct {
	db        Catalog
	store     storage.Provider
	indexPath string
	logger    *slog.Logger
	cb        EventCallback
}

// NewWatcher returns a Watcher. indexPath is the TOC file; changes to it are
// additionally reported with kind EventTOC.
func NewWatcher(db Catalog, store storage.Provider, indexPath string, logger *slog.Logger, cb EventCallback) *Watcher {
	return &Watcher{db: db, store: store, indexPath: indexPath, logger: logger, cb: cb}
}

// Run watches the store root until ctx is cancelled.
//
// New directories created at runtime are added to the watch list. Rename
// events trigger a short debounced reconciliation that removes catalog
// entries whose files no longer exist and picks up the new names.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fw.Close()

	root := w.store.Root()
	if err := addDirsRecursive(fw, root); err != nil {
		return err
	}
	w.logger.Info("watcher: started", slog.String("root", root))

	var reconcileTimer *time.Timer
	var reconcileCh <-chan time.Time
	scheduleReconcile := func() {
		if reconcileTimer == nil {
			reconcileTimer = time.NewTimer(reconcileDelay)
			reconcileCh = reconcileTimer.C
		} else {
			reconcileTimer.Reset(reconcileDelay)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if reconcileTimer != nil {
				reconcileTimer.Stop()
			}
			w.logger.Info("watcher: stopped")
			return nil

		case <-reconcileCh:
			w.reconcile()

		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			w.handle(fw, ev, scheduleReconcile)

		case watchErr, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

func (w *Watcher) handle(fw *fsnotify.Watcher, ev fsnotify.Event, scheduleReconcile func()) {
	root := w.store.Root()
	absPath := ev.Name

	if ev.Has(fsnotify.Create) {
		if info, statErr := os.Stat(absPath); statErr == nil && info.IsDir() {
			if addErr := addDirsRecursive(fw, absPath); addErr != nil {
				w.logger.Warn("watcher: add new dir failed",
					slog.String("path", absPath),
					slog.String("error", addErr.Error()))
			}
			w.indexDir(absPath)
			return
		}
	}

	if !strings.EqualFold(filepath.Ext(absPath), ".md") {
		return
	}
	abs, relErr := filepath.Rel(root, absPath)
	if relErr != nil {
		return
	}
	rel := filepath.ToSlash(abs)

	switch {
	case ev.Has(fsnotify.Create) || ev.Has(fsnotify.Write):
		data, readErr := w.store.Read(rel)
		if readErr != nil {
			w.logger.Warn("watcher: read failed", slog.String("path", rel), slog.String("error", readErr.Error()))
			return
		}
		if idxErr := IndexDocument(w.db, rel, data); idxErr != nil {
			w.logger.Warn("watcher: index failed", slog.String("path", rel), slog.String("error", idxErr.Error()))
			return
		}
		kind := EventUpdated
		if ev.Has(fsnotify.Create) {
			kind = EventCreated
		}
		w.logger.Debug("watcher: indexed", slog.String("path", rel), slog.String("op", kind))
		w.emit(kind, rel)

	case ev.Has(fsnotify.Remove):
		if delErr := w.db.DeleteDocument(rel); delErr != nil {
			w.logger.Warn("watcher: delete failed", slog.String("path", rel), slog.String("error", delErr.Error()))
			return
		}
		w.logger.Debug("watcher: deleted", slog.String("path", rel))
		w.emit(EventDeleted, rel)

	case ev.Has(fsnotify.Rename):
		// fsnotify reports Rename on the old path only; the new name arrives
		// as a Create if it stays inside a watched directory.
		if delErr := w.db.DeleteDocument(rel); delErr != nil {
			w.logger.Warn("watcher: rename delete failed", slog.String("path", rel), slog.String("error", delErr.Error()))
		} else {
			w.emit(EventDeleted, rel)
		}
		scheduleReconcile()
	}
}

func (w *Watcher) emit(kind, rel string) {
	if w.cb == nil {
		return
	}
	w.cb(kind, rel)
	if rel == w.indexPath {
		w.cb(EventTOC, rel)
	}
}

// reconcile removes catalog entries without a file on disk and indexes
// on-disk files whose checksum differs from the catalog.
func (w *Watcher) reconcile() {
	checksums, err := w.db.AllChecksums()
	if err != nil {
		w.logger.Warn("reconcile: all checksums failed", slog.String("error", err.Error()))
		return
	}
	metas, err := w.store.List("")
	if err != nil {
		w.logger.Warn("reconcile: list failed", slog.String("error", err.Error()))
		return
	}

	disk := make(map[string]string, len(metas))
	for _, m := range metas {
		disk[m.Path] = m.Checksum
	}

	for p := range checksums {
		if _, ok := disk[p]; ok {
			continue
		}
		if delErr := w.db.DeleteDocument(p); delErr == nil {
			w.logger.Debug("reconcile: removed stale", slog.String("path", p))
			w.emit(EventDeleted, p)
		}
	}

	for p, cs := range disk {
		old, known := checksums[p]
		if old == cs {
			continue
		}
		data, readErr := w.store.Read(p)
		if readErr != nil {
			continue
		}
		if idxErr := IndexDocument(w.db, p, data); idxErr == nil {
			kind := EventUpdated
			if !known {
				kind = EventCreated
			}
			w.emit(kind, p)
		}
	}
}

// indexDir indexes any .md files found in a newly created directory.
func (w *Watcher) indexDir(dirPath string) {
	root := w.store.Root()
	_ = filepath.WalkDir(dirPath, func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || !strings.EqualFold(filepath.Ext(p), ".md") {
			return nil
		}
		rel, relErr := filepath.Rel(root, p)
		if relErr != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)
		data, readErr := w.store.Read(rel)
		if readErr != nil {
			return nil
		}
		if idxErr := IndexDocument(w.db, rel, data); idxErr == nil {
			w.logger.Debug("watcher: indexed from new dir", slog.String("path", rel))
			w.emit(EventCreated, rel)
		}
		return nil
	})
}

// addDirsRecursive adds root and all its non-hidden subdirectories to the watcher.
func addDirsRecursive(fw *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if p != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		return fw.Add(p)
	})
}

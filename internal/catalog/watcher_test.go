package catalog

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/starford/folio/internal/storage"
)

// watcherTestEnv sets up a site dir, storage, and DB for watcher tests.
func watcherTestEnv(t *testing.T) (string, storage.Provider, *DB) {
	t.Helper()
	siteDir := t.TempDir()
	store, err := storage.NewFS(siteDir)
	if err != nil {
		t.Fatal(err)
	}
	return store.Root(), store, testDB(t)
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// eventually polls fn every tick until it returns true or timeout elapses.
func eventually(t *testing.T, timeout, tick time.Duration, fn func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if fn() {
			return
		}
		time.Sleep(tick)
	}
	t.Error(msg)
}

type recorder struct {
	mu     sync.Mutex
	events []string
}

func (r *recorder) record(kind, path string) {
	r.mu.Lock()
	r.events = append(r.events, kind+":"+path)
	r.mu.Unlock()
}

func (r *recorder) has(event string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.events {
		if e == event {
			return true
		}
	}
	return false
}

func startWatcher(t *testing.T, db *DB, store storage.Provider, cb EventCallback) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = NewWatcher(db, store, "index.md", quietLogger(), cb).Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	time.Sleep(100 * time.Millisecond)
}

func TestWatcher_NewFileIndexed(t *testing.T) {
	siteDir, store, db := watcherTestEnv(t)
	rec := &recorder{}
	startWatcher(t, db, store, rec.record)

	_ = os.WriteFile(filepath.Join(siteDir, "new.md"), []byte("# New"), 0o644)

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		cs, _ := db.GetChecksum("new.md")
		return cs != ""
	}, "new file not indexed by watcher")

	eventually(t, 2*time.Second, 50*time.Millisecond, func() bool {
		return rec.has("created:new.md")
	}, "expected created:new.md callback")
}

func TestWatcher_IndexChangeReportsTOC(t *testing.T) {
	siteDir, store, db := watcherTestEnv(t)
	rec := &recorder{}
	startWatcher(t, db, store, rec.record)

	_ = os.WriteFile(filepath.Join(siteDir, "index.md"), []byte("- [A](a.md)\n"), 0o644)

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		return rec.has("toc:index.md")
	}, "expected toc:index.md callback")
}

func TestWatcher_NewDirWatched(t *testing.T) {
	siteDir, store, db := watcherTestEnv(t)
	startWatcher(t, db, store, nil)

	subDir := filepath.Join(siteDir, "React")
	_ = os.MkdirAll(subDir, 0o755)
	time.Sleep(200 * time.Millisecond)

	_ = os.WriteFile(filepath.Join(subDir, "hooks.md"), []byte("# Hooks"), 0o644)

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		cs, _ := db.GetChecksum("React/hooks.md")
		return cs != ""
	}, "file in new subdir not indexed by watcher")
}

func TestWatcher_DeleteRemovesFromCatalog(t *testing.T) {
	siteDir, store, db := watcherTestEnv(t)

	_ = os.WriteFile(filepath.Join(siteDir, "del.md"), []byte("# Delete Me"), 0o644)
	if _, err := Sync(db, store, quietLogger()); err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if cs, _ := db.GetChecksum("del.md"); cs == "" {
		t.Fatal("precondition: file should be indexed")
	}

	startWatcher(t, db, store, nil)
	_ = os.Remove(filepath.Join(siteDir, "del.md"))

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		cs, _ := db.GetChecksum("del.md")
		return cs == ""
	}, "deleted file still in catalog")
}

func TestWatcher_RenameReconciles(t *testing.T) {
	siteDir, store, db := watcherTestEnv(t)

	_ = os.WriteFile(filepath.Join(siteDir, "old.md"), []byte("# Rename"), 0o644)
	if _, err := Sync(db, store, quietLogger()); err != nil {
		t.Fatalf("Sync: %v", err)
	}

	startWatcher(t, db, store, nil)
	_ = os.Rename(filepath.Join(siteDir, "old.md"), filepath.Join(siteDir, "renamed.md"))

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		oldCS, _ := db.GetChecksum("old.md")
		newCS, _ := db.GetChecksum("renamed.md")
		return oldCS == "" && newCS != ""
	}, "rename reconciliation failed: old path should be removed and new path indexed")
}

// Package testutil provides shared test helpers for setting up scan
// directories and lookup caches.
package testutil

import (
	"io"
	"log/slog"
	"os"
	"testing"

	"github.com/starford/comicshelf/internal/resolver"
	"github.com/starford/comicshelf/internal/storage"
)

// TestLogger returns a logger that discards everything.
func TestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// TestCache creates a temporary SQLite lookup cache that is automatically
// cleaned up.
func TestCache(t *testing.T) *resolver.Cache {
	t.Helper()
	dbFile, err := os.CreateTemp("", "comicshelf-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	cache, err := resolver.OpenCache(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { cache.Close() })
	return cache
}

// TestScanDir creates a temporary scan directory with a storage.Provider.
func TestScanDir(t *testing.T) (string, storage.Provider) {
	t.Helper()
	dir := t.TempDir()
	store, err := storage.NewFS(dir)
	if err != nil {
		t.Fatal(err)
	}
	return dir, store
}

// WriteScan drops a file with placeholder content into the scan directory.
func WriteScan(t *testing.T, store storage.Provider, name string) {
	t.Helper()
	if err := store.Write(name, []byte("jpeg-bytes")); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

// Package archive packs a completed comic into a zip under the store
// directory, laid out as <storeDir>/<author>/<title>.zip.
package archive

import (
	"archive/zip"
	"fmt"
	"os"
	"path/filepath"

	"github.com/starford/comicshelf/internal/comic"
	"github.com/starford/comicshelf/internal/storage"
)

// Archiver writes comic zips below a fixed store directory.
type Archiver struct {
	storeDir string
}

// New creates an archiver rooted at storeDir. The directory is created
// on first use, not here.
func New(storeDir string) *Archiver {
	return &Archiver{storeDir: storeDir}
}

// entry pairs a scan filename with its name inside the archive. Cover
// slots keep their role name without a counter; pages are renumbered
// from 001 in reading order regardless of their scan numbering.
type entry struct {
	source string
	target string
}

func archiveEntries(c *comic.Comic) []entry {
	var entries []entry
	if f := c.CoverAlbum(); f != "" {
		entries = append(entries, entry{f, comic.CoverAlbumPrefix + comic.Ext})
	}
	if f := c.CoverFull(); f != "" {
		entries = append(entries, entry{f, comic.CoverFullPrefix + comic.Ext})
	}
	if f := c.CoverStrip(); f != "" {
		entries = append(entries, entry{f, comic.CoverStripPrefix + comic.Ext})
	}
	for i, f := range c.Pages() {
		entries = append(entries, entry{f, fmt.Sprintf("%s_%03d%s", comic.PagePrefix, i+1, comic.Ext)})
	}
	return entries
}

// Archive zips every file of c, reading the scans through fs, and
// returns the path of the written zip. The zip is written to a temp file
// first and renamed into place, so a failed run leaves no partial
// archive behind. Files are not deleted here; the caller decides when
// the unit is disposable.
func (a *Archiver) Archive(fs storage.Provider, c *comic.Comic) (string, error) {
	entries := archiveEntries(c)
	if len(entries) == 0 {
		return "", fmt.Errorf("archive: comic %s has no files", c.ID())
	}

	dir := filepath.Join(a.storeDir, c.Author())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("archive: create author dir: %w", err)
	}
	dest := filepath.Join(dir, c.Title()+".zip")

	tmp, err := os.CreateTemp(dir, ".comicshelf-zip-*")
	if err != nil {
		return "", fmt.Errorf("archive: create temp: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := func() {
		tmp.Close()
		os.Remove(tmpName)
	}

	zw := zip.NewWriter(tmp)
	for _, e := range entries {
		data, err := fs.Read(e.source)
		if err != nil {
			cleanup()
			return "", fmt.Errorf("archive: read %s: %w", e.source, err)
		}
		w, err := zw.Create(e.target)
		if err != nil {
			cleanup()
			return "", fmt.Errorf("archive: add %s: %w", e.target, err)
		}
		if _, err := w.Write(data); err != nil {
			cleanup()
			return "", fmt.Errorf("archive: write %s: %w", e.target, err)
		}
	}
	if err := zw.Close(); err != nil {
		cleanup()
		return "", fmt.Errorf("archive: finalize zip: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("archive: close temp: %w", err)
	}
	if err := os.Rename(tmpName, dest); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("archive: move into place: %w", err)
	}
	return dest, nil
}

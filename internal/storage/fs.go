package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/starford/comicshelf/internal/comic"
)

// FS implements Provider backed by the local work directory.
type FS struct {
	root string // absolute path to the work directory
}

// NewFS creates a new FS provider rooted at the given directory.
// The directory must already exist.
func NewFS(root string) (*FS, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("storage: resolve root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("storage: stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("storage: root is not a directory: %s", abs)
	}
	return &FS{root: abs}, nil
}

// Root returns the absolute work directory path.
func (f *FS) Root() string { return f.root }

// Abs resolves a work-directory filename to an absolute path and rejects
// anything that escapes the root (directory traversal).
func (f *FS) Abs(name string) (string, error) {
	cleaned := filepath.Clean(name)
	if cleaned == "." || filepath.IsAbs(cleaned) || strings.Contains(cleaned, string(os.PathSeparator)) {
		return "", fmt.Errorf("storage: invalid work filename: %s", name)
	}
	return filepath.Join(f.root, cleaned), nil
}

// List returns the recognized scan filenames in the work directory,
// sorted. Subdirectories and unclassifiable files are ignored.
func (f *FS) List() ([]string, error) {
	entries, err := os.ReadDir(f.root)
	if err != nil {
		return nil, fmt.Errorf("storage: list: %w", err)
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() || !comic.Recognized(e.Name()) {
			continue
		}
		out = append(out, e.Name())
	}
	sort.Strings(out)
	return out, nil
}

// Exists reports whether the named file is present in the work directory.
func (f *FS) Exists(name string) bool {
	abs, err := f.Abs(name)
	if err != nil {
		return false
	}
	info, err := os.Stat(abs)
	return err == nil && !info.IsDir()
}

// Read returns the raw bytes of a work-directory file.
func (f *FS) Read(name string) ([]byte, error) {
	abs, err := f.Abs(name)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("storage: read %s: %w", name, err)
	}
	return data, nil
}

// Write atomically writes content: tmp file → fsync → rename.
func (f *FS) Write(name string, content []byte) error {
	abs, err := f.Abs(name)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(f.root, ".comicshelf-tmp-*")
	if err != nil {
		return fmt.Errorf("storage: create temp: %w", err)
	}
	tmpName := tmp.Name()

	// Clean up on any failure path.
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
	if err := os.Rename(tmpName, abs); err != nil {
		return fmt.Errorf("storage: rename: %w", err)
	}
	success = true
	return nil
}

// Delete removes a file from the work directory. Missing files are not
// an error.
func (f *FS) Delete(name string) error {
	abs, err := f.Abs(name)
	if err != nil {
		return err
	}
	if err := os.Remove(abs); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("storage: delete %s: %w", name, err)
	}
	return nil
}

var filenameNumber = regexp.MustCompile(`\d+`)

// NextFilename returns the next free numbered filename for prefix:
// "<prefix>_000.jpg" when none exist, "<prefix>_124.jpg" after
// "<prefix>_123.jpg".
func (f *FS) NextFilename(prefix string) (string, error) {
	entries, err := os.ReadDir(f.root)
	if err != nil {
		return "", fmt.Errorf("storage: next filename: %w", err)
	}
	num := 0
	var last string
	for _, e := range entries {
		if !e.IsDir() && strings.HasPrefix(e.Name(), prefix) && e.Name() > last {
			last = e.Name()
		}
	}
	if last != "" {
		if m := filenameNumber.FindString(last); m != "" {
			if n, err := strconv.Atoi(m); err == nil {
				num = n + 1
			}
		}
	}
	return fmt.Sprintf("%s_%03d%s", prefix, num, comic.Ext), nil
}

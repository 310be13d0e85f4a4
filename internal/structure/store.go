// Package structure persists the catalog as a flat key-value snapshot in
// the work directory and reconciles it against the filesystem on load.
package structure

import (
	"bytes"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/starford/comicshelf/internal/catalog"
	"github.com/starford/comicshelf/internal/comic"
	"github.com/starford/comicshelf/internal/storage"
)

// SnapshotFilename is the structure file kept inside the work directory.
const SnapshotFilename = ".comicshelf"

// Store serializes the catalog to a snapshot with two key families:
//
//	_<id>=<order-index>\t<author>\t<title>   one per comic
//	<filename>=<id>                          one per member file
//
// Backslashes, tabs and line breaks inside author/title are escaped so a
// hostile field cannot break the line framing.
//
// The snapshot is rewritten wholesale on every save; it is small (one
// line per file) and the write is atomic via the storage layer.
type Store struct {
	fs storage.Provider
}

// NewStore creates a store persisting through fs.
func NewStore(fs storage.Provider) *Store {
	return &Store{fs: fs}
}

// fieldEscaper protects the line- and tab-delimited snapshot from
// author/title values carrying those delimiters. The metadata comes from
// OCR output and free-form rename requests, so anything can be in there.
var fieldEscaper = strings.NewReplacer(
	`\`, `\\`,
	"\n", `\n`,
	"\r", `\r`,
	"\t", `\t`,
)

func unescapeField(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] != '\\' || i+1 == len(s) {
			b.WriteByte(s[i])
			continue
		}
		i++
		switch s[i] {
		case 'n':
			b.WriteByte('\n')
		case 'r':
			b.WriteByte('\r')
		case 't':
			b.WriteByte('\t')
		case '\\':
			b.WriteByte('\\')
		default:
			b.WriteByte('\\')
			b.WriteByte(s[i])
		}
	}
	return b.String()
}

// Save writes the whole catalog to the snapshot file.
func (s *Store) Save(cat *catalog.Catalog) error {
	var buf bytes.Buffer
	for i, c := range cat.All() {
		fmt.Fprintf(&buf, "_%s=%d\t%s\t%s\n", c.ID(), i,
			fieldEscaper.Replace(c.Author()), fieldEscaper.Replace(c.Title()))
		for _, f := range c.Files() {
			fmt.Fprintf(&buf, "%s=%s\n", f, c.ID())
		}
	}
	if err := s.fs.Write(SnapshotFilename, buf.Bytes()); err != nil {
		return fmt.Errorf("structure: save: %w", err)
	}
	return nil
}

// Load rebuilds the catalog from the snapshot, reconciling against the
// filesystem: filename entries whose file no longer exists are dropped,
// files pointing at an unknown id spawn an ad-hoc unit, and units left
// with no files are removed. Returns false when no snapshot exists or it
// cannot be parsed; the catalog is then left untouched.
//
// The snapshot is written on a timer, not on every mutation, so this
// path tolerates stale or partially written snapshots. A full rescan is
// expected to run right after a successful load.
func (s *Store) Load(cat *catalog.Catalog) bool {
	data, err := s.fs.Read(SnapshotFilename)
	if err != nil {
		return false
	}

	type unitEntry struct {
		order  int
		author string
		title  string
	}
	units := make(map[string]unitEntry)
	var unitIDs []string
	files := make(map[string]string)
	var fileNames []string

	for _, line := range strings.Split(string(data), "\n") {
		if line == "" {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			return false
		}
		if strings.HasPrefix(key, "_") {
			parts := strings.SplitN(value, "\t", 3)
			if len(parts) != 3 {
				return false
			}
			order, err := strconv.Atoi(parts[0])
			if err != nil {
				return false
			}
			id := strings.TrimPrefix(key, "_")
			units[id] = unitEntry{order: order, author: unescapeField(parts[1]), title: unescapeField(parts[2])}
			unitIDs = append(unitIDs, id)
		} else {
			files[key] = value
			fileNames = append(fileNames, key)
		}
	}

	// Rebuild units in their stored order.
	sort.SliceStable(unitIDs, func(i, j int) bool {
		return units[unitIDs[i]].order < units[unitIDs[j]].order
	})
	for _, id := range unitIDs {
		e := units[id]
		cat.Add(comic.Restore(id, e.author, e.title))
	}

	// Re-attach surviving files. A file naming an id whose unit entry
	// was lost spawns its own unit.
	sort.Strings(fileNames)
	for _, name := range fileNames {
		if !s.fs.Exists(name) {
			continue
		}
		owner := cat.Get(files[name])
		if owner == nil {
			cat.Add(comic.New(name))
			continue
		}
		if evicted := owner.AddFile(name); evicted != "" {
			cat.Add(comic.New(evicted))
		}
	}

	cat.RemoveEmpty()
	return true
}

package comic

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// Comic groups the scan files (covers + pages) of one physical book.
//
// A comic owns three single-filename cover slots and an unordered page
// set. The files view is always derived from those, never stored on its
// own. Filename-level exclusivity (one owner per file) is enforced by
// the catalog, not here.
//
// Comics are not safe for concurrent use; all mutations are expected to
// happen on the single writer that owns the catalog.
type Comic struct {
	id     string
	author string
	title  string

	coverAlbum string
	coverFull  string
	coverStrip string
	pages      []string

	listeners []func()
	muted     bool
}

// New creates a comic seeded with filename. Author and title default to
// the filename without its extension.
func New(filename string) *Comic {
	base := strings.TrimSuffix(filename, Ext)
	c := &Comic{
		id:     uuid.NewString(),
		author: base,
		title:  base,
	}
	c.muted = true
	c.AddFile(filename)
	c.muted = false
	return c
}

// Restore rebuilds a comic from persisted identity and metadata, with no
// files attached yet.
func Restore(id, author, title string) *Comic {
	return &Comic{id: id, author: author, title: title}
}

// ID returns the stable opaque identifier of the comic.
func (c *Comic) ID() string { return c.id }

// Author returns the author metadata.
func (c *Comic) Author() string { return c.author }

// Title returns the title metadata.
func (c *Comic) Title() string { return c.title }

// SetAuthor updates the author and notifies listeners.
func (c *Comic) SetAuthor(author string) {
	c.author = author
	c.notify()
}

// SetTitle updates the title and notifies listeners.
func (c *Comic) SetTitle(title string) {
	c.title = title
	c.notify()
}

// CoverAlbum returns the front-cover filename, or "" when the slot is empty.
func (c *Comic) CoverAlbum() string { return c.coverAlbum }

// CoverFull returns the full-cover filename, or "" when the slot is empty.
func (c *Comic) CoverFull() string { return c.coverFull }

// CoverStrip returns the belt-strip filename, or "" when the slot is empty.
func (c *Comic) CoverStrip() string { return c.coverStrip }

// Subscribe registers a callback invoked once per mutating operation.
// Bulk operations (Merge) invoke it once at the end.
func (c *Comic) Subscribe(fn func()) {
	c.listeners = append(c.listeners, fn)
}

func (c *Comic) notify() {
	if c.muted {
		return
	}
	for _, fn := range c.listeners {
		fn()
	}
}

// AddFile classifies filename and attaches it to the comic. Pages are
// appended (duplicates ignored); assigning to an occupied cover slot
// evicts the previous filename and returns it, so the caller can
// re-admit it to the catalog as its own unit. Unclassifiable filenames
// are a no-op.
func (c *Comic) AddFile(filename string) (evicted string) {
	switch Classify(filename) {
	case RoleCoverAlbum:
		evicted = c.setSlot(&c.coverAlbum, filename)
	case RoleCoverFull:
		evicted = c.setSlot(&c.coverFull, filename)
	case RoleCoverStrip:
		evicted = c.setSlot(&c.coverStrip, filename)
	case RolePage:
		for _, p := range c.pages {
			if p == filename {
				return ""
			}
		}
		c.pages = append(c.pages, filename)
		c.notify()
	default:
		return ""
	}
	return evicted
}

func (c *Comic) setSlot(slot *string, filename string) (evicted string) {
	if *slot == filename {
		return ""
	}
	evicted = *slot
	*slot = filename
	c.notify()
	return evicted
}

// RemoveFile detaches filename from whichever slot or page holds it.
// Absent filenames are a no-op and do not notify.
func (c *Comic) RemoveFile(filename string) {
	switch filename {
	case "":
		return
	case c.coverAlbum:
		c.coverAlbum = ""
	case c.coverFull:
		c.coverFull = ""
	case c.coverStrip:
		c.coverStrip = ""
	default:
		for i, p := range c.pages {
			if p == filename {
				c.pages = append(c.pages[:i], c.pages[i+1:]...)
				c.notify()
				return
			}
		}
		return
	}
	c.notify()
}

// RemoveFiles detaches every named file, notifying once at the end when
// anything changed.
func (c *Comic) RemoveFiles(filenames []string) {
	before := len(c.Files())
	c.muted = true
	for _, f := range filenames {
		c.RemoveFile(f)
	}
	c.muted = false
	if len(c.Files()) != before {
		c.notify()
	}
}

// Has reports whether filename is a member of the comic.
func (c *Comic) Has(filename string) bool {
	if filename == "" {
		return false
	}
	if filename == c.coverAlbum || filename == c.coverFull || filename == c.coverStrip {
		return true
	}
	for _, p := range c.pages {
		if p == filename {
			return true
		}
	}
	return false
}

// Files returns the derived member view: occupied cover slots in role
// order, then pages in numeric order.
func (c *Comic) Files() []string {
	out := make([]string, 0, 3+len(c.pages))
	for _, slot := range []string{c.coverAlbum, c.coverFull, c.coverStrip} {
		if slot != "" {
			out = append(out, slot)
		}
	}
	return append(out, c.Pages()...)
}

// Pages returns the page filenames sorted by (prefix, zero-padded
// numeric component). Filenames without a parseable number sort by raw
// name, after the numbered ones with the same prefix.
func (c *Comic) Pages() []string {
	out := make([]string, len(c.pages))
	copy(out, c.pages)
	sort.SliceStable(out, func(i, j int) bool {
		return pageSortKey(out[i]) < pageSortKey(out[j])
	})
	return out
}

var numericSuffix = regexp.MustCompile(`^(\D*)(\d+)`)

// pageSortKey zero-pads the embedded numeric component so that page_9
// sorts before page_10.
func pageSortKey(filename string) string {
	m := numericSuffix.FindStringSubmatch(filename)
	if m == nil {
		return filename
	}
	n, err := strconv.Atoi(m[2])
	if err != nil {
		return filename
	}
	return fmt.Sprintf("%s%010d", m[1], n)
}

// MergeConflict reports whether merging other into c would force a
// choice for some single-slot role, i.e. both comics hold a value in the
// same cover slot. It is symmetric.
func (c *Comic) MergeConflict(other *Comic) bool {
	return (c.coverAlbum != "" && other.coverAlbum != "") ||
		(c.coverFull != "" && other.coverFull != "") ||
		(c.coverStrip != "" && other.coverStrip != "")
}

// Merge transfers all of other's files into c and empties other. Each
// side notifies at most once, and only when its file set changed.
// Filenames evicted from c's cover slots during the transfer are
// returned so the caller can re-admit them; the emptied other is
// expected to be dropped from the catalog.
func (c *Comic) Merge(other *Comic) (evicted []string) {
	files := other.Files()
	before := len(c.Files())
	c.muted = true
	for _, f := range files {
		if ev := c.AddFile(f); ev != "" {
			evicted = append(evicted, ev)
		}
	}
	c.muted = false
	if len(c.Files()) != before || len(evicted) > 0 {
		c.notify()
	}
	other.RemoveFiles(files)
	return evicted
}

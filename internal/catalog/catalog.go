// Package catalog holds the in-memory collection of comic units. It is
// the single structure the rest of the system reads and writes through.
package catalog

import "github.com/starford/comicshelf/internal/comic"

// EventKind describes a catalog-level delta.
type EventKind string

const (
	// Added means a comic entered the catalog.
	Added EventKind = "added"
	// Removed means a comic left the catalog.
	Removed EventKind = "removed"
)

// Event is delivered to catalog observers on add/remove deltas.
type Event struct {
	Kind  EventKind
	Comic *comic.Comic
}

// Catalog is an ordered collection of comics keyed by id. Insertion
// order is meaningful: it drives default ordering and persists across
// restarts. The id index is derived and never the primary store.
//
// The catalog is not safe for concurrent use; callers serialize access
// (see library.Service).
type Catalog struct {
	order     []*comic.Comic
	byID      map[string]*comic.Comic
	targetID  string
	observers []func(Event)
}

// New creates an empty catalog.
func New() *Catalog {
	return &Catalog{byID: make(map[string]*comic.Comic)}
}

// Subscribe registers an observer for add/remove deltas.
func (g *Catalog) Subscribe(fn func(Event)) {
	g.observers = append(g.observers, fn)
}

func (g *Catalog) publish(ev Event) {
	for _, fn := range g.observers {
		fn(ev)
	}
}

// Add appends comics to the catalog and notifies observers.
func (g *Catalog) Add(comics ...*comic.Comic) {
	for _, c := range comics {
		if c == nil {
			continue
		}
		if _, dup := g.byID[c.ID()]; dup {
			continue
		}
		g.order = append(g.order, c)
		g.byID[c.ID()] = c
		g.publish(Event{Kind: Added, Comic: c})
	}
}

// Remove drops comics from the catalog and notifies observers. The
// target selection is cleared when it pointed at a removed comic.
func (g *Catalog) Remove(comics ...*comic.Comic) {
	for _, c := range comics {
		if c == nil {
			continue
		}
		if _, ok := g.byID[c.ID()]; !ok {
			continue
		}
		delete(g.byID, c.ID())
		for i, o := range g.order {
			if o.ID() == c.ID() {
				g.order = append(g.order[:i], g.order[i+1:]...)
				break
			}
		}
		if g.targetID == c.ID() {
			g.targetID = ""
		}
		g.publish(Event{Kind: Removed, Comic: c})
	}
}

// RemoveEmpty sweeps out every comic whose file view is empty, so units
// never linger with zero members after a bulk removal pass.
func (g *Catalog) RemoveEmpty() {
	var empty []*comic.Comic
	for _, c := range g.order {
		if len(c.Files()) == 0 {
			empty = append(empty, c)
		}
	}
	g.Remove(empty...)
}

// Get returns the comic with the given id, or nil.
func (g *Catalog) Get(id string) *comic.Comic {
	return g.byID[id]
}

// All returns the comics in insertion order. The returned slice is a copy.
func (g *Catalog) All() []*comic.Comic {
	out := make([]*comic.Comic, len(g.order))
	copy(out, g.order)
	return out
}

// Len returns the number of comics.
func (g *Catalog) Len() int { return len(g.order) }

// Files returns the union of every comic's member filenames mapped to
// the owning id. It is recomputed on demand; it is only consulted during
// reconciliation passes, not on a hot path.
func (g *Catalog) Files() map[string]string {
	out := make(map[string]string)
	for _, c := range g.order {
		for _, f := range c.Files() {
			out[f] = c.ID()
		}
	}
	return out
}

// Owner returns the comic currently holding filename, or nil.
func (g *Catalog) Owner(filename string) *comic.Comic {
	for _, c := range g.order {
		if c.Has(filename) {
			return c
		}
	}
	return nil
}

// SetTarget selects the comic new files attach to. An unknown id clears
// the selection.
func (g *Catalog) SetTarget(id string) {
	if id == "" || g.byID[id] == nil {
		g.targetID = ""
		return
	}
	g.targetID = id
}

// TargetID returns the selected id, or "".
func (g *Catalog) TargetID() string { return g.targetID }

// Target returns the selected comic, or nil.
func (g *Catalog) Target() *comic.Comic {
	if g.targetID == "" {
		return nil
	}
	return g.byID[g.targetID]
}

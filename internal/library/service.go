// Package library is the single mutation point of the catalog. Every
// caller (ingestion, HTTP API, MCP tools, timers) goes through the
// Service, which serializes access with one mutex so the comic and
// catalog types can stay lock-free.
package library

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/starford/comicshelf/internal/apperr"
	"github.com/starford/comicshelf/internal/archive"
	"github.com/starford/comicshelf/internal/catalog"
	"github.com/starford/comicshelf/internal/comic"
	"github.com/starford/comicshelf/internal/storage"
	"github.com/starford/comicshelf/internal/structure"
)

// MetadataResolver resolves a cover image to a displayable (author,
// title) pair. Satisfied by resolver.Resolver.
type MetadataResolver interface {
	ResolveCover(ctx context.Context, imagePath string) (author, title string)
}

// Archiver packs a comic into a zip. Satisfied by archive.Archiver.
type Archiver interface {
	Archive(fs storage.Provider, c *comic.Comic) (string, error)
}

var _ Archiver = (*archive.Archiver)(nil)

// Event kinds delivered to OnChange subscribers.
const (
	EventAdded    = "comic.added"
	EventRemoved  = "comic.removed"
	EventUpdated  = "comic.updated"
	EventResolved = "metadata.resolved"
)

// Summary is the read-model snapshot of one comic, safe to hand across
// the service boundary.
type Summary struct {
	ID         string   `json:"id"`
	Author     string   `json:"author"`
	Title      string   `json:"title"`
	CoverAlbum string   `json:"coverAlbum,omitempty"`
	CoverFull  string   `json:"coverFull,omitempty"`
	CoverStrip string   `json:"coverStrip,omitempty"`
	Pages      []string `json:"pages"`
	Selected   bool     `json:"selected"`
}

// Service owns the catalog and coordinates filesystem, persistence,
// resolution and archiving around it.
type Service struct {
	mu sync.Mutex

	fs       storage.Provider
	cat      *catalog.Catalog
	store    *structure.Store
	resolver MetadataResolver
	archiver Archiver
	logger   *slog.Logger

	observers []func(kind, id string)
}

// New wires a service around cat. The catalog must not be mutated by
// anyone else afterwards.
func New(fs storage.Provider, cat *catalog.Catalog, store *structure.Store, res MetadataResolver, arch Archiver, logger *slog.Logger) *Service {
	s := &Service{
		fs:       fs,
		cat:      cat,
		store:    store,
		resolver: res,
		archiver: arch,
		logger:   logger,
	}
	cat.Subscribe(func(ev catalog.Event) {
		switch ev.Kind {
		case catalog.Added:
			c := ev.Comic
			c.Subscribe(func() { s.emit(EventUpdated, c.ID()) })
			s.emit(EventAdded, c.ID())
		case catalog.Removed:
			s.emit(EventRemoved, ev.Comic.ID())
		}
	})
	return s
}

// OnChange registers an observer for catalog and comic change events.
// Observers run on the mutating goroutine and must not call back into
// the service.
func (s *Service) OnChange(fn func(kind, id string)) {
	s.observers = append(s.observers, fn)
}

func (s *Service) emit(kind, id string) {
	for _, fn := range s.observers {
		fn(kind, id)
	}
}

// LoadOrScan restores the catalog from the snapshot, then reconciles
// against the directory: the snapshot is a cache, the filesystem is
// authoritative.
func (s *Service) LoadOrScan() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.store.Load(s.cat) {
		s.logger.Info("library: snapshot loaded", slog.Int("comics", s.cat.Len()))
	} else {
		s.logger.Info("library: no usable snapshot, starting from directory scan")
	}
	return s.rescanLocked(nil)
}

// Persist writes the current catalog snapshot.
func (s *Service) Persist() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Save(s.cat)
}

// AddScans admits newly appeared files. Covers always start their own
// comic, a full cover additionally becoming the target; pages attach to
// the current target when one is selected. Files already owned by some
// comic are skipped.
func (s *Service) AddScans(names []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, name := range names {
		s.addScanLocked(name)
	}
}

func (s *Service) addScanLocked(name string) {
	role := comic.Classify(name)
	if role == comic.RoleNone || s.cat.Owner(name) != nil {
		return
	}
	if role.SingleSlot() {
		c := comic.New(name)
		s.cat.Add(c)
		if role == comic.RoleCoverFull {
			s.cat.SetTarget(c.ID())
		}
		s.logger.Debug("library: admitted scan",
			slog.String("file", name), slog.String("role", role.String()))
		return
	}
	if target := s.cat.Target(); target != nil {
		target.AddFile(name)
		return
	}
	s.cat.Add(comic.New(name))
}

// RemoveScans detaches disappeared files from whichever comics hold them
// and sweeps emptied comics.
func (s *Service) RemoveScans(names []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, name := range names {
		if owner := s.cat.Owner(name); owner != nil {
			owner.RemoveFile(name)
		}
	}
	s.cat.RemoveEmpty()
}

// Rescan reconciles the catalog against a full directory listing. Files
// on disk but unknown to the catalog are merged into the comic named by
// targetID when that causes no cover conflict, else admitted standalone;
// files known to the catalog but gone from disk are detached. targetID
// may be empty.
func (s *Service) Rescan(targetID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var target *comic.Comic
	if targetID != "" {
		if target = s.cat.Get(targetID); target == nil {
			return fmt.Errorf("rescan target %s: %w", targetID, apperr.ErrNotFound)
		}
	}
	return s.rescanLocked(target)
}

func (s *Service) rescanLocked(target *comic.Comic) error {
	names, err := s.fs.List()
	if err != nil {
		return fmt.Errorf("library: list scans: %w", err)
	}

	known := s.cat.Files()
	for _, name := range names {
		if _, ok := known[name]; ok {
			continue
		}
		c := comic.New(name)
		if target != nil && !target.MergeConflict(c) {
			target.Merge(c)
		} else {
			s.cat.Add(c)
		}
	}

	onDisk := make(map[string]struct{}, len(names))
	for _, name := range names {
		onDisk[name] = struct{}{}
	}
	for _, c := range s.cat.All() {
		var gone []string
		for _, f := range c.Files() {
			if _, ok := onDisk[f]; !ok {
				gone = append(gone, f)
			}
		}
		if len(gone) > 0 {
			c.RemoveFiles(gone)
		}
	}
	s.cat.RemoveEmpty()
	return nil
}

// List returns summaries of every comic in catalog order.
func (s *Service) List() []Summary {
	s.mu.Lock()
	defer s.mu.Unlock()
	comics := s.cat.All()
	out := make([]Summary, 0, len(comics))
	for _, c := range comics {
		out = append(out, s.summaryLocked(c))
	}
	return out
}

// Get returns the summary of one comic.
func (s *Service) Get(id string) (Summary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.cat.Get(id)
	if c == nil {
		return Summary{}, fmt.Errorf("comic %s: %w", id, apperr.ErrNotFound)
	}
	return s.summaryLocked(c), nil
}

func (s *Service) summaryLocked(c *comic.Comic) Summary {
	return Summary{
		ID:         c.ID(),
		Author:     c.Author(),
		Title:      c.Title(),
		CoverAlbum: c.CoverAlbum(),
		CoverFull:  c.CoverFull(),
		CoverStrip: c.CoverStrip(),
		Pages:      c.Pages(),
		Selected:   c.ID() == s.cat.TargetID(),
	}
}

// SelectTarget marks the comic as the target for subsequent page
// attachment. An empty id clears the selection.
func (s *Service) SelectTarget(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id != "" && s.cat.Get(id) == nil {
		return fmt.Errorf("comic %s: %w", id, apperr.ErrNotFound)
	}
	s.cat.SetTarget(id)
	return nil
}

// TargetID returns the currently selected comic id, or "".
func (s *Service) TargetID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cat.TargetID()
}

// Merge transfers every file of srcID into dstID and drops the emptied
// source. Unless force is set, a cover collision on either side aborts
// with apperr.ErrMergeConflict so the caller can confirm. Covers
// displaced by a forced merge are re-admitted standalone.
func (s *Service) Merge(dstID, srcID string, force bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if dstID == srcID {
		return fmt.Errorf("merge %s into itself: %w", dstID, apperr.ErrMergeConflict)
	}
	dst := s.cat.Get(dstID)
	if dst == nil {
		return fmt.Errorf("comic %s: %w", dstID, apperr.ErrNotFound)
	}
	src := s.cat.Get(srcID)
	if src == nil {
		return fmt.Errorf("comic %s: %w", srcID, apperr.ErrNotFound)
	}
	if !force && dst.MergeConflict(src) {
		return fmt.Errorf("merge %s into %s: %w", srcID, dstID, apperr.ErrMergeConflict)
	}
	for _, evicted := range dst.Merge(src) {
		s.cat.Add(comic.New(evicted))
	}
	s.cat.Remove(src)
	return nil
}

// ReleaseFile detaches filename from the comic and re-admits it as a
// standalone comic, without touching the file on disk.
func (s *Service) ReleaseFile(id, filename string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.cat.Get(id)
	if c == nil {
		return fmt.Errorf("comic %s: %w", id, apperr.ErrNotFound)
	}
	if !c.Has(filename) {
		return fmt.Errorf("file %s in comic %s: %w", filename, id, apperr.ErrNotFound)
	}
	c.RemoveFile(filename)
	s.cat.Add(comic.New(filename))
	s.cat.RemoveEmpty()
	return nil
}

// CollectPages merges every single-page comic into the named comic. This
// is the bulk cleanup after a stack of loose page scans arrived each as
// its own unit.
func (s *Service) CollectPages(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	dst := s.cat.Get(id)
	if dst == nil {
		return fmt.Errorf("comic %s: %w", id, apperr.ErrNotFound)
	}
	for _, c := range s.cat.All() {
		if c == dst {
			continue
		}
		files := c.Files()
		if len(files) != 1 || comic.Classify(files[0]) != comic.RolePage {
			continue
		}
		dst.Merge(c)
		s.cat.Remove(c)
	}
	return nil
}

// Rename updates the author/title metadata of a comic.
func (s *Service) Rename(id, author, title string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.cat.Get(id)
	if c == nil {
		return fmt.Errorf("comic %s: %w", id, apperr.ErrNotFound)
	}
	c.SetAuthor(author)
	c.SetTitle(title)
	return nil
}

// Resolve runs OCR + bibliographic lookup for the comic's full cover and
// writes the resulting (author, title) back. The lock is released for
// the duration of the OCR and network round-trips; the comic is looked
// up again before the write in case it was removed meanwhile.
func (s *Service) Resolve(ctx context.Context, id string) (author, title string, err error) {
	s.mu.Lock()
	c := s.cat.Get(id)
	if c == nil {
		s.mu.Unlock()
		return "", "", fmt.Errorf("comic %s: %w", id, apperr.ErrNotFound)
	}
	coverFull := c.CoverFull()
	if coverFull == "" {
		s.mu.Unlock()
		return "", "", fmt.Errorf("comic %s: %w", id, apperr.ErrNoCover)
	}
	imagePath, err := s.fs.Abs(coverFull)
	s.mu.Unlock()
	if err != nil {
		return "", "", err
	}

	author, title = s.resolver.ResolveCover(ctx, imagePath)

	s.mu.Lock()
	defer s.mu.Unlock()
	c = s.cat.Get(id)
	if c == nil {
		return "", "", fmt.Errorf("comic %s removed during resolution: %w", id, apperr.ErrNotFound)
	}
	c.SetAuthor(author)
	c.SetTitle(title)
	s.emit(EventResolved, id)
	return author, title, nil
}

// Archive zips the comic into the store directory, then removes it from
// the catalog and deletes its scan files. The zip is written before
// anything is destroyed, so a failed archive leaves the comic intact.
func (s *Service) Archive(id string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.cat.Get(id)
	if c == nil {
		return "", fmt.Errorf("comic %s: %w", id, apperr.ErrNotFound)
	}
	path, err := s.archiver.Archive(s.fs, c)
	if err != nil {
		return "", err
	}
	files := c.Files()
	s.cat.Remove(c)
	for _, f := range files {
		if err := s.fs.Delete(f); err != nil {
			s.logger.Warn("library: delete archived scan failed",
				slog.String("file", f), slog.String("error", err.Error()))
		}
	}
	s.logger.Info("library: archived",
		slog.String("id", id), slog.String("zip", path), slog.Int("files", len(files)))
	return path, nil
}

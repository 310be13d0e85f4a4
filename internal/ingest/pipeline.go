// Package ingest turns filesystem change notifications into batched
// catalog updates. Two modes exist: push (OS file watch, debounced) and
// poll (periodic full rescan). Push is the default and degrades to poll
// when the platform watch cannot be established.
package ingest

import (
	"context"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/starford/comicshelf/internal/comic"
	"github.com/starford/comicshelf/internal/library"
	"github.com/starford/comicshelf/internal/storage"
)

// Mode selects the ingestion strategy.
type Mode string

const (
	ModePush Mode = "push"
	ModePoll Mode = "poll"
)

// Config tunes the pipeline. Zero values get sensible defaults.
type Config struct {
	Mode         Mode
	Debounce     time.Duration // push-mode batch interval
	PollInterval time.Duration // poll-mode rescan interval
}

func (c *Config) defaults() {
	if c.Mode == "" {
		c.Mode = ModePush
	}
	if c.Debounce <= 0 {
		c.Debounce = 200 * time.Millisecond
	}
	if c.PollInterval <= 0 {
		c.PollInterval = 5 * time.Second
	}
}

// Pipeline feeds filesystem changes into the library service.
type Pipeline struct {
	cfg    Config
	svc    *library.Service
	fs     storage.Provider
	logger *slog.Logger

	// newWatcher is swapped out in tests to force the poll fallback.
	newWatcher func() (*fsnotify.Watcher, error)

	// Watch events land in these queues from the watcher goroutine; the
	// debounce loop drains them as one batch per tick.
	mu      sync.Mutex
	created []string
	deleted []string
}

// New creates a pipeline over the scan directory served by fs.
func New(cfg Config, svc *library.Service, fs storage.Provider, logger *slog.Logger) *Pipeline {
	cfg.defaults()
	return &Pipeline{cfg: cfg, svc: svc, fs: fs, logger: logger, newWatcher: fsnotify.NewWatcher}
}

// Run blocks until ctx is cancelled. In push mode a failed watcher setup
// falls back to polling instead of failing startup; scans keep flowing,
// just with higher latency.
func (p *Pipeline) Run(ctx context.Context) error {
	if p.cfg.Mode == ModePoll {
		return p.runPoll(ctx)
	}
	if err := p.runPush(ctx); err != nil {
		p.logger.Warn("ingest: file watch unavailable, falling back to poll",
			slog.String("error", err.Error()))
		return p.runPoll(ctx)
	}
	return nil
}

func (p *Pipeline) runPush(ctx context.Context) error {
	w, err := p.newWatcher()
	if err != nil {
		return err
	}
	defer w.Close()
	if err := w.Add(p.fs.Root()); err != nil {
		return err
	}
	p.logger.Info("ingest: watching", slog.String("root", p.fs.Root()))

	go p.intake(ctx, w)

	ticker := time.NewTicker(p.cfg.Debounce)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			p.flush()
			p.logger.Info("ingest: stopped")
			return nil
		case <-ticker.C:
			p.flush()
		}
	}
}

// intake moves watcher events into the queues. The scan directory is
// flat, so only the base name matters.
func (p *Pipeline) intake(ctx context.Context, w *fsnotify.Watcher) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-w.Events:
			if !ok {
				return
			}
			name := filepath.Base(ev.Name)
			if !comic.Recognized(name) {
				continue
			}
			switch {
			case ev.Op&fsnotify.Create != 0:
				p.enqueue(&p.created, name)
			case ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
				// Rename fires on the old path; the new path arrives as
				// its own Create event.
				p.enqueue(&p.deleted, name)
			}
		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			p.logger.Error("ingest: watch error", slog.String("error", err.Error()))
		}
	}
}

func (p *Pipeline) enqueue(queue *[]string, name string) {
	p.mu.Lock()
	*queue = append(*queue, name)
	p.mu.Unlock()
}

// flush drains both queues and applies them as one batch, deletions
// before creations so that a rapid delete+recreate of the same filename
// nets out to the file being present.
func (p *Pipeline) flush() {
	p.mu.Lock()
	created, deleted := p.created, p.deleted
	p.created, p.deleted = nil, nil
	p.mu.Unlock()

	if len(deleted) > 0 {
		p.svc.RemoveScans(deleted)
		p.logger.Debug("ingest: removed batch", slog.Int("files", len(deleted)))
	}
	if len(created) > 0 {
		p.svc.AddScans(created)
		p.logger.Debug("ingest: added batch", slog.Int("files", len(created)))
	}
}

func (p *Pipeline) runPoll(ctx context.Context) error {
	p.logger.Info("ingest: polling", slog.String("root", p.fs.Root()),
		slog.Duration("interval", p.cfg.PollInterval))
	ticker := time.NewTicker(p.cfg.PollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("ingest: stopped")
			return nil
		case <-ticker.C:
			if err := p.svc.Rescan(p.svc.TargetID()); err != nil {
				p.logger.Warn("ingest: rescan failed", slog.String("error", err.Error()))
			}
		}
	}
}

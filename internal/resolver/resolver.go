// Package resolver extracts an ISBN from a cover image via OCR and
// resolves it to (author, title) against an ordered chain of
// bibliographic sources.
package resolver

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"
)

// Fallback values. Resolution always completes with a displayable pair,
// so callers never branch on "no result".
const (
	AuthorError    = "エラー"
	AuthorUnknown  = "作者不明"
	TitleNoISBN    = "ISBN不明"
	TitleNoOCR     = "cant find Tesseract"
	AuthorFallback = "ISBN"
)

// Config holds the external endpoints and the OCR binary.
type Config struct {
	TesseractPath      string
	AmazonSearchURL    string
	YodobashiSearchURL string
	GoogleBooksURL     string
	Timeout            time.Duration
}

func (c *Config) defaults() {
	if c.TesseractPath == "" {
		c.TesseractPath = "tesseract"
	}
	if c.AmazonSearchURL == "" {
		c.AmazonSearchURL = "https://www.amazon.co.jp/s?k=isbn+"
	}
	if c.YodobashiSearchURL == "" {
		c.YodobashiSearchURL = "https://www.yodobashi.com/?word=ISBN-13%3A"
	}
	if c.GoogleBooksURL == "" {
		c.GoogleBooksURL = "https://www.googleapis.com/books/v1/volumes?q=isbn:"
	}
	if c.Timeout <= 0 {
		c.Timeout = 10 * time.Second
	}
}

// Resolver runs the OCR → ISBN → source-chain → normalization pipeline.
type Resolver struct {
	cfg    Config
	client *http.Client
	cache  *Cache // optional; nil disables memoization
	tmpDir string // OCR temp artifacts live here
	logger *slog.Logger
}

// New creates a resolver. cache may be nil.
func New(cfg Config, tmpDir string, cache *Cache, logger *slog.Logger) *Resolver {
	cfg.defaults()
	return &Resolver{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		cache:  cache,
		tmpDir: tmpDir,
		logger: logger,
	}
}

// ResolveCover OCRs the image at imagePath, extracts an ISBN, and looks
// it up. Every failure mode maps to a displayable (author, title) pair:
// a missing OCR binary, OCR text without an ISBN, and exhausted sources
// each get their own sentinel values.
func (r *Resolver) ResolveCover(ctx context.Context, imagePath string) (author, title string) {
	text, err := r.runOCR(ctx, imagePath)
	if err != nil {
		if errors.Is(err, ErrOCRUnavailable) {
			r.logger.Warn("resolver: ocr binary unavailable", slog.String("path", r.cfg.TesseractPath))
			return AuthorError, TitleNoOCR
		}
		r.logger.Warn("resolver: ocr failed", slog.String("image", imagePath), slog.String("error", err.Error()))
		return AuthorError, TitleNoISBN
	}
	isbn := ExtractISBN(text)
	if isbn == "" {
		r.logger.Info("resolver: no isbn in ocr text", slog.String("image", imagePath))
		return AuthorError, TitleNoISBN
	}
	return r.Search(ctx, isbn)
}

type source struct {
	name string
	fn   func(context.Context, string) ([]string, string, error)
}

// Search resolves an ISBN through the source chain, first success wins.
// A 10-digit ISBN is upgraded to 13 digits with the 978 prefix. Any
// single source failing is swallowed and the chain proceeds; total
// exhaustion returns the ISBN itself as the title.
func (r *Resolver) Search(ctx context.Context, isbn string) (author, title string) {
	if len(isbn) != 13 {
		isbn = "978" + isbn
	}

	if r.cache != nil {
		if a, t, ok := r.cache.Get(isbn); ok {
			r.logger.Debug("resolver: cache hit", slog.String("isbn", isbn))
			return a, t
		}
	}

	chain := []source{
		{"amazon", r.searchAmazon},
		{"yodobashi", r.searchYodobashi},
		{"google", r.searchGoogle},
	}
	for _, src := range chain {
		authors, rawTitle, err := src.fn(ctx, isbn)
		if err != nil {
			r.logger.Warn("resolver: source failed",
				slog.String("source", src.name),
				slog.String("isbn", isbn),
				slog.String("error", err.Error()))
			continue
		}
		a, t := Normalize(authors, rawTitle)
		r.logger.Info("resolver: resolved",
			slog.String("source", src.name),
			slog.String("isbn", isbn),
			slog.String("title", t))
		if r.cache != nil {
			if err := r.cache.Put(isbn, a, t, src.name); err != nil {
				r.logger.Warn("resolver: cache put failed", slog.String("error", err.Error()))
			}
		}
		return a, t
	}

	return AuthorFallback, isbn
}

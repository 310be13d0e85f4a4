package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/starford/comicshelf/internal/library"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(svc *library.Service, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Catalog reads.
	r.Get("/comics", h.ListComics)
	r.Get("/comics/{id}", h.GetComic)

	// Per-comic operations.
	r.Put("/comics/{id}", h.RenameComic)
	r.Post("/comics/{id}/select", h.SelectComic)
	r.Post("/comics/{id}/merge", h.MergeComic)
	r.Post("/comics/{id}/release", h.ReleaseFile)
	r.Post("/comics/{id}/collect-pages", h.CollectPages)
	r.Post("/comics/{id}/resolve", h.ResolveComic)
	r.Post("/comics/{id}/archive", h.ArchiveComic)

	// Catalog-wide operations.
	r.Delete("/selection", h.ClearSelection)
	r.Post("/rescan", h.Rescan)

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}

package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/starford/comicshelf/internal/apperr"
	"github.com/starford/comicshelf/internal/library"
)

// Handler holds API route handlers.
type Handler struct {
	svc *library.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *library.Service) *Handler {
	return &Handler{svc: svc}
}

// writeServiceError maps library sentinel errors onto HTTP statuses.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody(err.Error()))
	case errors.Is(err, apperr.ErrMergeConflict):
		writeJSON(w, http.StatusConflict, errorBody(err.Error()))
	case errors.Is(err, apperr.ErrNoCover):
		writeJSON(w, http.StatusUnprocessableEntity, errorBody(err.Error()))
	default:
		slog.Error("request failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
	}
}

// ListComics handles GET /api/comics.
func (h *Handler) ListComics(w http.ResponseWriter, r *http.Request) {
	comics := h.svc.List()
	writeJSON(w, http.StatusOK, map[string]any{
		"comics": comics,
		"total":  len(comics),
	})
}

// GetComic handles GET /api/comics/{id}.
func (h *Handler) GetComic(w http.ResponseWriter, r *http.Request) {
	summary, err := h.svc.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// RenameComic handles PUT /api/comics/{id}.
func (h *Handler) RenameComic(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Author string `json:"author"`
		Title  string `json:"title"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid json body"))
		return
	}
	id := chi.URLParam(r, "id")
	if err := h.svc.Rename(id, req.Author, req.Title); err != nil {
		writeServiceError(w, err)
		return
	}
	summary, err := h.svc.Get(id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// SelectComic handles POST /api/comics/{id}/select. The selected comic
// becomes the attachment target for incoming page scans.
func (h *Handler) SelectComic(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.SelectTarget(chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"selected": h.svc.TargetID()})
}

// ClearSelection handles DELETE /api/selection.
func (h *Handler) ClearSelection(w http.ResponseWriter, r *http.Request) {
	_ = h.svc.SelectTarget("")
	writeJSON(w, http.StatusOK, map[string]string{"selected": ""})
}

// MergeComic handles POST /api/comics/{id}/merge. Without force a cover
// collision aborts with 409 so the client can confirm.
func (h *Handler) MergeComic(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SourceID string `json:"sourceId"`
		Force    bool   `json:"force"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid json body"))
		return
	}
	id := chi.URLParam(r, "id")
	if err := h.svc.Merge(id, req.SourceID, req.Force); err != nil {
		writeServiceError(w, err)
		return
	}
	summary, err := h.svc.Get(id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// ReleaseFile handles POST /api/comics/{id}/release.
func (h *Handler) ReleaseFile(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Filename string `json:"filename"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid json body"))
		return
	}
	if err := h.svc.ReleaseFile(chi.URLParam(r, "id"), req.Filename); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CollectPages handles POST /api/comics/{id}/collect-pages.
func (h *Handler) CollectPages(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.svc.CollectPages(id); err != nil {
		writeServiceError(w, err)
		return
	}
	summary, err := h.svc.Get(id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// ResolveComic handles POST /api/comics/{id}/resolve. Runs OCR and the
// bibliographic lookup chain; always returns a displayable pair on
// success, even when every source failed.
func (h *Handler) ResolveComic(w http.ResponseWriter, r *http.Request) {
	author, title, err := h.svc.Resolve(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"author": author,
		"title":  title,
	})
}

// ArchiveComic handles POST /api/comics/{id}/archive. Destructive: on
// success the comic is gone from the catalog and its scans are deleted.
func (h *Handler) ArchiveComic(w http.ResponseWriter, r *http.Request) {
	path, err := h.svc.Archive(chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"archive": path})
}

// Rescan handles POST /api/rescan.
func (h *Handler) Rescan(w http.ResponseWriter, r *http.Request) {
	var req struct {
		TargetID string `json:"targetId"`
	}
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody("invalid json body"))
			return
		}
	}
	if err := h.svc.Rescan(req.TargetID); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"comics": len(h.svc.List())})
}

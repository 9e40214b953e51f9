package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/starford/ansuz/internal/apperr"
	"github.com/starford/ansuz/internal/checksum"
	"github.com/starford/ansuz/internal/search"
	"github.com/starford/ansuz/internal/stats"
	"github.com/starford/ansuz/internal/wiki"
)

// Handler holds the read-only viewer route handlers.
type Handler struct {
	store    *wiki.Store
	counters *stats.Counters
}

// NewHandler creates a new Handler.
func NewHandler(store *wiki.Store, counters *stats.Counters) *Handler {
	return &Handler{store: store, counters: counters}
}

// pageTitle extracts the page title from a wildcard URL segment. Titles may
// contain slashes (e.g. "revenue/q1"), and clients may encode them.
func pageTitle(r *http.Request) string {
	raw := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
	if raw == "" {
		return ""
	}
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}

// GetWiki handles GET /api/wiki.
//
//	@Summary		Export a consistent snapshot of the whole wiki
//	@Tags			wiki
//	@Produce		json
//	@Success		200	{object}	wiki.Snapshot
//	@Success		304	"Snapshot unchanged since If-None-Match"
//	@Router			/wiki [get]
func (h *Handler) GetWiki(w http.ResponseWriter, r *http.Request) {
	snap := h.store.Export()
	body, err := json.Marshal(snap)
	if err != nil {
		slog.Error("snapshot encode failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	etag := checksum.ETag(body)
	if r.Header.Get("If-None-Match") == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("ETag", etag)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

// GetStats handles GET /api/stats.
//
//	@Summary		Process counters owned by the reasoning loop
//	@Tags			wiki
//	@Produce		json
//	@Success		200	{object}	stats.View
//	@Router			/stats [get]
func (h *Handler) GetStats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.counters.Snapshot())
}

// GetPage handles GET /api/pages/*.
//
//	@Summary		Get a single page by title
//	@Tags			pages
//	@Produce		json
//	@Param			title	path		string	true	"Page title"
//	@Success		200		{object}	wiki.Page
//	@Failure		404		{object}	errResponse
//	@Router			/pages/{title} [get]
func (h *Handler) GetPage(w http.ResponseWriter, r *http.Request) {
	title := pageTitle(r)
	if title == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("title is required"))
		return
	}
	pg, err := h.store.Get(title)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
		} else {
			slog.Error("get page failed", slog.String("title", title), slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}
	writeJSON(w, http.StatusOK, pg)
}

// Search handles GET /api/search.
//
//	@Summary		BM25 full-text search across page content
//	@Tags			search
//	@Produce		json
//	@Param			q		query		string	true	"Search query"
//	@Param			limit	query		int		false	"Max results"
//	@Success		200		{object}	SearchResponse
//	@Failure		400		{object}	errResponse
//	@Router			/search [get]
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'q' is required"))
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	results := h.store.Search(q, limit)
	if results == nil {
		results = []search.Result{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"results": results,
	})
}

// SearchTags handles GET /api/tags/{tag}.
//
//	@Summary		List pages carrying a tag
//	@Tags			search
//	@Produce		json
//	@Param			tag	path		string	true	"Tag"
//	@Success		200	{object}	TitlesResponse
//	@Router			/tags/{tag} [get]
func (h *Handler) SearchTags(w http.ResponseWriter, r *http.Request) {
	tag := chi.URLParam(r, "tag")
	writeJSON(w, http.StatusOK, map[string]any{
		"titles": h.store.SearchTags(tag),
	})
}

// Backlinks handles GET /api/backlinks/*.
//
//	@Summary		List pages that link to the given page
//	@Tags			pages
//	@Produce		json
//	@Param			title	path		string	true	"Page title"
//	@Success		200		{object}	TitlesResponse
//	@Failure		404		{object}	errResponse
//	@Router			/backlinks/{title} [get]
func (h *Handler) Backlinks(w http.ResponseWriter, r *http.Request) {
	title := pageTitle(r)
	if title == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("title is required"))
		return
	}
	bl, err := h.store.Backlinks(title)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
		} else {
			slog.Error("backlinks failed", slog.String("title", title), slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"titles": bl,
	})
}

// TOC handles GET /api/toc.
//
//	@Summary		Plain-text table of contents
//	@Tags			wiki
//	@Produce		plain
//	@Success		200	{string}	string
//	@Router			/toc [get]
func (h *Handler) TOC(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(h.store.TOC()))
}

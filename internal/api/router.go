package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/starford/ansuz/internal/stats"
	"github.com/starford/ansuz/internal/wiki"
)

// NewRouter creates a chi router with all viewer routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(store *wiki.Store, counters *stats.Counters, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(store, counters)

	r := chi.NewRouter()
	// The viewer is a browser page polling from another origin.
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet},
		AllowedHeaders: []string{"Authorization", "If-None-Match"},
	}))
	r.Use(AuthMiddleware(authEnabled, token))

	// Snapshot and process counters.
	r.Get("/wiki", h.GetWiki)
	r.Get("/stats", h.GetStats)

	// Read-only page access.
	r.Get("/pages/*", h.GetPage)
	r.Get("/backlinks/*", h.Backlinks)
	r.Get("/toc", h.TOC)

	// Search.
	r.Get("/search", h.Search)
	r.Get("/tags/{tag}", h.SearchTags)

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}

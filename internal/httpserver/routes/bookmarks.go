package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/zakhap/bookmarks-with-friends/internal/httpserver/deps"
	"github.com/zakhap/bookmarks-with-friends/internal/httpserver/handlers"
	"github.com/zakhap/bookmarks-with-friends/internal/httpserver/mw"
)

func init() { Register(registerBookmarks) }

// The browser extension posts from its own origin, so the API subrouter
// answers preflight requests before routing.
func registerBookmarks(r chi.Router, d deps.Deps) {
	r.Route("/api/bookmarks", func(r chi.Router) {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Content-Type", handlers.APIKeyHeader},
			MaxAge:         600,
		}))

		r.Get("/", handlers.ListBookmarks(d))
		r.With(mw.RateLimit(mw.RateLimitConfig{
			Burst:             d.WriteBurst,
			RefillPerIPPerMin: d.WriteRefillPerMin,
			MaxEntries:        10_000,
			TrustProxy:        d.TrustProxy,
		})).Post("/", handlers.CreateBookmark(d))
	})
}

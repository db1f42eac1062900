package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/zakhap/bookmarks-with-friends/internal/httpserver/deps"
	"github.com/zakhap/bookmarks-with-friends/internal/httpserver/handlers"
)

func init() { Register(registerFeed) }

// The feed is served at both paths: /api/feed.xml is what existing readers subscribed to.
func registerFeed(r chi.Router, d deps.Deps) {
	h := handlers.Feed(d)
	r.Get("/feed.xml", h)
	r.Get("/api/feed.xml", h)
}

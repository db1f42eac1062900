package handlers

import (
	"bytes"
	"net/http"

	"github.com/zakhap/bookmarks-with-friends/internal/feed"
	"github.com/zakhap/bookmarks-with-friends/internal/httpserver/deps"
	"github.com/zakhap/bookmarks-with-friends/internal/logger"
)

// Page renders the public bookmark page from the cache.
func Page(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		bookmarks := d.Feed.Get(r.Context(), d.CacheKey)

		// Render into a buffer so a template error never leaves a half-written 200.
		var buf bytes.Buffer
		if err := d.Page.Render(&buf, bookmarks, d.Now()); err != nil {
			d.Logger.Error("failed to render page", logger.Error(err))
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Cache-Control", feed.CacheControl)
		if _, err := w.Write(buf.Bytes()); err != nil {
			d.Logger.Debug("failed to write response", logger.Error(err))
		}
	}
}

// Feed serves the RSS mirror of the page.
func Feed(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		bookmarks := d.Feed.Get(r.Context(), d.CacheKey)

		body, err := feed.BuildRSS(bookmarks, d.Channel, d.Now())
		if err != nil {
			d.Logger.Error("failed to build rss feed", logger.Error(err))
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", feed.ContentTypeRSS)
		w.Header().Set("Cache-Control", feed.CacheControl)
		if _, err := w.Write(body); err != nil {
			d.Logger.Debug("failed to write response", logger.Error(err))
		}
	}
}

package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/zakhap/bookmarks-with-friends/internal/feedcache"
	"github.com/zakhap/bookmarks-with-friends/internal/httpserver/deps"
)

type componentStatus struct {
	OK     bool   `json:"ok"`
	Mode   string `json:"mode,omitempty"`
	Impact string `json:"impact,omitempty"`
	Error  string `json:"error,omitempty"`
}

type infraResponse struct {
	ServingMode string                     `json:"serving_mode"`
	Source      string                     `json:"source"`
	Components  map[string]componentStatus `json:"components"`
	Cache       []feedcache.EntryStatus    `json:"cache"`
}

func Infra(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entries := d.Feed.Status()

		components := map[string]componentStatus{
			"cache": checkCache(d.CacheKey, entries),
			"store": checkPinger(r.Context(), d.Store, "writes-disabled"),
			"redis": checkRedis(r.Context(), d),
		}

		response := infraResponse{
			ServingMode: determineServingMode(components),
			Source:      d.Source,
			Components:  components,
			Cache:       entries,
		}

		writeJSON(w, d, http.StatusOK, response)
	}
}

func determineServingMode(components map[string]componentStatus) string {
	// Nothing cached = every reader pays for a synchronous fetch
	if cache, exists := components["cache"]; exists && !cache.OK {
		return "critical"
	}

	for _, name := range []string{"store", "redis"} {
		if c, exists := components[name]; exists && !c.OK && c.Mode != "disabled" {
			return "degraded"
		}
	}

	return "optimal"
}

func checkCache(key string, entries []feedcache.EntryStatus) componentStatus {
	for _, e := range entries {
		if e.Key != key {
			continue
		}
		switch {
		case !e.Cached:
			return componentStatus{OK: false, Mode: "cold", Impact: "synchronous-fetch", Error: e.LastError}
		case e.Fresh:
			return componentStatus{OK: true, Mode: "fresh", Error: e.LastError}
		default:
			return componentStatus{OK: true, Mode: "stale", Impact: "serving-stale", Error: e.LastError}
		}
	}
	return componentStatus{OK: false, Mode: "cold", Impact: "synchronous-fetch"}
}

func checkPinger(parent context.Context, p deps.Pinger, impact string) componentStatus {
	ctx, cancel := context.WithTimeout(parent, 2*time.Second)
	defer cancel()

	if err := p.Ping(ctx); err != nil {
		return componentStatus{
			OK:     false,
			Mode:   "degraded",
			Impact: impact,
			Error:  err.Error(),
		}
	}
	return componentStatus{OK: true, Mode: "optimal"}
}

func checkRedis(ctx context.Context, d deps.Deps) componentStatus {
	if d.Redis == nil {
		return componentStatus{
			OK:     false,
			Mode:   "disabled",
			Impact: "snapshots-not-persisted",
		}
	}
	return checkPinger(ctx, d.Redis, "snapshots-not-persisted")
}

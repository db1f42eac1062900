package handlers

import (
	"net/http"

	"github.com/zakhap/bookmarks-with-friends/internal/httpserver/deps"
)

// Liveness only: the process is up and serving. Upstream trouble shows in
// /infra, never here, since a stale page is still a working page.
type healthzResponse struct {
	Status        string  `json:"status"`
	UptimeSeconds float64 `json:"uptime_seconds"`
	Source        string  `json:"source"`
	Build         build   `json:"build"`
}

type build struct {
	Version   string `json:"version,omitempty"`
	Commit    string `json:"commit,omitempty"`
	Date      string `json:"date,omitempty"`
	GoVersion string `json:"go_version,omitempty"`
}

func Healthz(d deps.Deps) http.HandlerFunc {
	b := build{Version: d.Version, Commit: d.Commit, Date: d.BuildDate, GoVersion: d.GoVersion}
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, d, http.StatusOK, healthzResponse{
			Status:        "ok",
			UptimeSeconds: d.Now().Sub(d.StartTime).Seconds(),
			Source:        d.Source,
			Build:         b,
		})
	}
}

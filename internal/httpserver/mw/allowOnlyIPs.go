package mw

import (
	"net/http"

	"github.com/zakhap/bookmarks-with-friends/internal/logger"
	"github.com/zakhap/bookmarks-with-friends/internal/utils"
)

// AllowOnlyCIDRS guards the ops endpoints (/infra, /readyz, /reload).
// An empty list means no filtering. Rejected clients get a bare 403 so the
// endpoint's existence is not advertised.
func AllowOnlyCIDRS(allowed []string, trustProxy bool, log logger.Logger) func(http.Handler) http.Handler {
	m := utils.NewIPMatcher(allowed)
	if m.IsEmpty() {
		return func(next http.Handler) http.Handler { return next }
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := utils.ClientIP(r, trustProxy)
			if !m.Allow(ip) {
				log.Warn("ops endpoint refused",
					logger.String("client_ip", ip),
					logger.String("path", r.URL.Path),
					logger.Bool("trust_proxy", trustProxy))
				w.WriteHeader(http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

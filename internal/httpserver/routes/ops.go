package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/zakhap/bookmarks-with-friends/internal/httpserver/deps"
	"github.com/zakhap/bookmarks-with-friends/internal/httpserver/handlers"
	"github.com/zakhap/bookmarks-with-friends/internal/httpserver/mw"
)

func init() { Register(registerOps) }

// Operator endpoints share the CIDR allow-list. /reload also checks the Host
// header because it is the only one that changes state.
func registerOps(r chi.Router, d deps.Deps) {
	r.Group(func(r chi.Router) {
		r.Use(mw.AllowOnlyCIDRS(d.AllowedCIDRS, d.TrustProxy, d.Logger))

		r.Get("/infra", handlers.Infra(d))
		r.Get("/readyz", handlers.Readyz(d))
		r.With(mw.EnforceHost(d.AllowedHosts, d.Logger)).Post("/reload", handlers.Reload(d))
	})
}

// Package server wires handlers and middleware into the chi router.
package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/atinyakov/clickshort/internal/app/handler"
	"github.com/atinyakov/clickshort/internal/app/service"
	"github.com/atinyakov/clickshort/internal/metrics"
	"github.com/atinyakov/clickshort/internal/middleware"
)

// Init builds the router. trustedSubnet may be empty; otherwise it must be a
// valid CIDR.
func Init(urlService service.URLServiceIface, auth service.AuthIface, logger *zap.Logger, trustedSubnet string) (*chi.Mux, error) {
	links := handler.NewLink(urlService, logger)
	admin := handler.NewAdmin(urlService, auth, logger)

	withSubnet, err := middleware.WithSubnet(trustedSubnet, logger)
	if err != nil {
		return nil, err
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(middleware.WithRequestLogging(logger))
	r.Use(chimw.Recoverer)
	r.Use(middleware.WithGzipRequest)

	r.Get("/ping", links.Ping)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Post("/api/shorten", links.Shorten)
	r.Get("/{shortCode}", links.Redirect)

	r.Route("/api/admin", func(r chi.Router) {
		r.Post("/login", admin.Login)

		r.Group(func(r chi.Router) {
			r.Use(withSubnet)
			r.Use(middleware.WithAdmin(auth, logger))
			r.Use(middleware.WithGzipResponse)
			r.Get("/urls", admin.URLs)
		})
	})

	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		handler.WriteError(w, http.StatusMethodNotAllowed, "Method Not Allowed")
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		handler.WriteError(w, http.StatusNotFound, "Route not found")
	})

	return r, nil
}

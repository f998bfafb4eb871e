package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		r.Route("/devices", func(r chi.Router) {
			r.Get("/", s.handleListDevices)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetDevice)
				r.Get("/ports", s.handleGetDevicePorts)
				r.Get("/secret", s.handleGetDeviceSecret)
				r.Put("/secret", s.handleSetDeviceSecret)
				r.Post("/command", s.handleDispatchCommand)
			})
		})

		r.Route("/routing", func(r chi.Router) {
			r.Route("/connections", func(r chi.Router) {
				r.Get("/", s.handleListConnections)
				r.Post("/", s.handleCreateConnection)
				r.Delete("/", s.handleDisconnectByEndpoints)

				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", s.handleGetConnection)
					r.Patch("/", s.handleUpdateConnection)
					r.Delete("/", s.handleDeleteConnection)
				})
			})
			r.Get("/matrix", s.handleMatrixView)
			r.Get("/stats", s.handleRoutingStats)
		})
	})

	return r
}

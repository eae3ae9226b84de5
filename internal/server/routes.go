// Package server wires HTTP handlers into a chi router for the GoRelay
// application via routing helpers.
package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// TriggerPath is the route that broadcasts to all connected clients.
const TriggerPath = "/api/v1/hello"

// SetupRoutes configures the router with the health check, WebSocket
// endpoint, trigger route, test page, and, when non-nil, the metrics handler.
// Cross-origin requests are allowed for allowedOrigins.
func SetupRoutes(h *Handlers, metricsHandler http.Handler, allowedOrigins []string) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(LoggingMiddleware(h.logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"*"},
		ExposedHeaders: []string{RequestIDHeader},
	}))

	r.Get("/", HealthHandler)
	r.HandleFunc("/ws", h.WebSocketHandler)
	r.Get("/test", h.TestPageHandler)
	r.HandleFunc(TriggerPath, h.TriggerHandler)
	r.HandleFunc(TriggerPath+"/*", h.TriggerHandler)
	if metricsHandler != nil {
		r.Handle("/metrics", metricsHandler)
	}
	return r
}

package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// MountRoutes registers all API routes on the given chi router.
func MountRoutes(r chi.Router, h *Handlers) {
	r.Route("/api/v1", func(r chi.Router) {
		// Version
		r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"version":"0.1.0"}`))
		})

		// Orchestration entry points
		r.Post("/maintenance/analyze", h.Analyze)
		r.Post("/emergency/alert", h.EmergencyAlert)

		// Session inspection
		r.Get("/sessions", h.ListSessions)
		r.Get("/sessions/{id}", h.GetSession)

		// Risk gate status
		r.Get("/risk/status", h.RiskStatus)

		// Worker fleet liveness (dashboards only, never the request path)
		r.Get("/workers/health", h.WorkersHealth)
	})
}

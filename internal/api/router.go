package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	if s.metrics != nil {
		r.Use(s.metrics.middleware)
		r.Handle("/metrics", s.metrics.Handler())
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		r.Route("/autopilot", func(r chi.Router) {
			r.Get("/", s.handleGetAutopilot)
			r.Put("/", s.handleSetAutopilot)
			r.Post("/reset", s.handleResetAutopilot)
		})

		r.Get("/channels", s.handleListChannels)

		r.Route("/project", func(r chi.Router) {
			r.Post("/save", s.handleSaveProject)
			r.Post("/load", s.handleLoadProject)
		})

		if s.activity != nil {
			r.Get("/activity", s.handleListActivity)
		}

		r.Get("/ws", s.handleWebSocket)
	})

	return r
}

// handleHealth returns the server health status.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":         "ok",
		"version":        s.version,
		"uptime_seconds": int64(time.Since(s.startTime).Seconds()),
		"ws_clients":     s.hub.ClientCount(),
	})
}

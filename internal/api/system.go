package api

import (
	"net/http"
	"time"
)

// handleHealth reports bridge liveness and basic figures.
//
// GET /api/v1/health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	health := map[string]any{
		"status":         "ok",
		"version":        s.version,
		"uptime_seconds": int(time.Since(s.started).Seconds()),
		"devices":        len(s.devices.List()),
		"connections":    len(s.matrix.Connections()),
	}
	if s.router != nil {
		health["routing"] = s.router.Stats()
	}
	writeJSON(w, http.StatusOK, health)
}

package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Hampterlab/hampter-bridge/internal/routing"
)

// connectionRequest is the body for creating a connection. Endpoints
// use the "device:port" form.
type connectionRequest struct {
	Source      string             `json:"source"`
	Target      string             `json:"target"`
	Transform   *routing.Transform `json:"transform,omitempty"`
	Enabled     *bool              `json:"enabled,omitempty"`
	Description string             `json:"description"`
}

// handleListConnections returns all configured connections.
//
// GET /api/v1/routing/connections
func (s *Server) handleListConnections(w http.ResponseWriter, r *http.Request) {
	conns := s.matrix.Connections()
	writeJSON(w, http.StatusOK, map[string]any{
		"connections": conns,
		"count":       len(conns),
	})
}

// handleCreateConnection creates a routing connection.
//
// POST /api/v1/routing/connections
func (s *Server) handleCreateConnection(w http.ResponseWriter, r *http.Request) {
	var body connectionRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	source, err := routing.ParseEndpoint(body.Source)
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrCodeValidation, "source: "+err.Error())
		return
	}
	target, err := routing.ParseEndpoint(body.Target)
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrCodeValidation, "target: "+err.Error())
		return
	}

	enabled := true
	if body.Enabled != nil {
		enabled = *body.Enabled
	}

	conn, err := s.matrix.Connect(source, target, body.Transform, enabled, body.Description)
	if err != nil {
		if errors.Is(err, routing.ErrInvalidEndpoint) {
			writeError(w, http.StatusBadRequest, ErrCodeValidation, err.Error())
			return
		}
		writeInternalError(w, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, conn)
}

// handleDisconnectByEndpoints removes every connection matching the
// source/target pair given as query parameters.
//
// DELETE /api/v1/routing/connections?source=a:out&target=b:in
func (s *Server) handleDisconnectByEndpoints(w http.ResponseWriter, r *http.Request) {
	source, err := routing.ParseEndpoint(r.URL.Query().Get("source"))
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrCodeValidation, "source: "+err.Error())
		return
	}
	target, err := routing.ParseEndpoint(r.URL.Query().Get("target"))
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrCodeValidation, "target: "+err.Error())
		return
	}

	removed := s.matrix.Disconnect(source, target)
	writeJSON(w, http.StatusOK, map[string]bool{"removed": removed})
}

// handleGetConnection returns one connection by id.
//
// GET /api/v1/routing/connections/{id}
func (s *Server) handleGetConnection(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	conn, ok := s.matrix.Get(id)
	if !ok {
		writeNotFound(w, "connection not found: "+id)
		return
	}
	writeJSON(w, http.StatusOK, conn)
}

// handleUpdateConnection applies a partial update to a connection.
//
// PATCH /api/v1/routing/connections/{id}
func (s *Server) handleUpdateConnection(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var update routing.ConnectionUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	conn, ok := s.matrix.UpdateConnection(id, update)
	if !ok {
		writeNotFound(w, "connection not found: "+id)
		return
	}
	writeJSON(w, http.StatusOK, conn)
}

// handleDeleteConnection removes one connection by id.
//
// DELETE /api/v1/routing/connections/{id}
func (s *Server) handleDeleteConnection(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !s.matrix.DisconnectByID(id) {
		writeNotFound(w, "connection not found: "+id)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"removed": true})
}

// handleMatrixView returns the connection matrix joined with live port
// metadata.
//
// GET /api/v1/routing/matrix
func (s *Server) handleMatrixView(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.matrix.View(s.devices))
}

// handleRoutingStats returns the routing engine counters.
//
// GET /api/v1/routing/stats
func (s *Server) handleRoutingStats(w http.ResponseWriter, r *http.Request) {
	if s.router == nil {
		writeError(w, http.StatusServiceUnavailable, ErrCodeUnavailable, "routing engine not available")
		return
	}
	writeJSON(w, http.StatusOK, s.router.Stats())
}

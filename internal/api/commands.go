package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Hampterlab/hampter-bridge/internal/command"
)

// dispatchRequest is the body of a command dispatch call.
type dispatchRequest struct {
	Tool string `json:"tool"`

	// Args accepts the loose shapes upstream tool-calling clients send:
	// a mapping, a delimited string, or a {"kwargs": M} wrapper.
	Args any `json:"args"`

	// TimeoutMS overrides the configured dispatch timeout when positive.
	TimeoutMS int `json:"timeout_ms"`
}

// handleDispatchCommand sends a tool invocation to a device and blocks
// until the correlated reply arrives or the deadline expires.
//
// POST /api/v1/devices/{id}/command
func (s *Server) handleDispatchCommand(w http.ResponseWriter, r *http.Request) {
	if s.dispatcher == nil {
		writeError(w, http.StatusServiceUnavailable, ErrCodeUnavailable, "command dispatch not available")
		return
	}

	id := chi.URLParam(r, "id")

	var body dispatchRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if body.Tool == "" {
		writeError(w, http.StatusBadRequest, ErrCodeValidation, "tool is required")
		return
	}

	req := command.Request{
		DeviceID: id,
		Tool:     body.Tool,
		Args:     body.Args,
	}
	if body.TimeoutMS > 0 {
		req.Timeout = time.Duration(body.TimeoutMS) * time.Millisecond
	}
	if rid, ok := r.Context().Value(ctxKeyRequestID).(string); ok {
		req.RequestID = rid
	}

	resp, err := s.dispatcher.Dispatch(r.Context(), req)
	if err != nil {
		s.writeDispatchError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"device_id": id,
		"result":    resp,
	})
}

// writeDispatchError maps dispatch failures onto HTTP statuses so a
// caller can distinguish configuration problems from transport problems
// from device non-responsiveness.
func (s *Server) writeDispatchError(w http.ResponseWriter, err error) {
	var cmdErr *command.Error
	if !errors.As(err, &cmdErr) {
		writeInternalError(w, err.Error())
		return
	}

	status := http.StatusInternalServerError
	switch cmdErr.Code {
	case command.CodeUnknownDevice:
		status = http.StatusNotFound
	case command.CodeConfigError, command.CodeShutdown:
		status = http.StatusServiceUnavailable
	case command.CodeIPCSendFailed, command.CodeMQTTFailed:
		status = http.StatusBadGateway
	case command.CodeTimeout:
		status = http.StatusGatewayTimeout
	}

	writeJSON(w, status, Error{
		Status:    status,
		Code:      cmdErr.Code,
		Message:   cmdErr.Message,
		RequestID: cmdErr.RequestID,
	})
}

package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// handleListDevices returns every device the directory knows.
//
// GET /api/v1/devices
func (s *Server) handleListDevices(w http.ResponseWriter, r *http.Request) {
	devices := s.devices.List()
	writeJSON(w, http.StatusOK, map[string]any{
		"devices": devices,
		"count":   len(devices),
	})
}

// handleGetDevice returns one device by id.
//
// GET /api/v1/devices/{id}
func (s *Server) handleGetDevice(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	dev, ok := s.devices.Get(id)
	if !ok {
		writeNotFound(w, "device not found: "+id)
		return
	}
	writeJSON(w, http.StatusOK, dev)
}

// handleGetDevicePorts returns the announced port metadata for a device.
//
// GET /api/v1/devices/{id}/ports
func (s *Server) handleGetDevicePorts(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, ok := s.devices.Get(id); !ok {
		writeNotFound(w, "device not found: "+id)
		return
	}
	ports, _ := s.devices.Ports(id)
	writeJSON(w, http.StatusOK, map[string]any{
		"device_id": id,
		"ports":     ports,
	})
}

// handleGetDeviceSecret returns the device's current shared secret.
//
// GET /api/v1/devices/{id}/secret
func (s *Server) handleGetDeviceSecret(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	token, ok := s.devices.Token(id)
	if !ok {
		writeNotFound(w, "no secret for device: "+id)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"device_id": id,
		"token":     token,
	})
}

// handleSetDeviceSecret stores (or rotates) the device's shared secret.
//
// PUT /api/v1/devices/{id}/secret
func (s *Server) handleSetDeviceSecret(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var body struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if body.Token == "" {
		writeError(w, http.StatusBadRequest, ErrCodeValidation, "token is required")
		return
	}

	s.devices.SetToken(id, body.Token)
	writeJSON(w, http.StatusOK, map[string]string{
		"device_id": id,
		"token":     body.Token,
	})
}

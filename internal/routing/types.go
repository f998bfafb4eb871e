package routing

import (
	"fmt"
	"strings"
	"time"
)

// Endpoint identifies one port on one device.
type Endpoint struct {
	DeviceID string `json:"device_id"`
	Port     string `json:"port"`
}

// ParseEndpoint parses the "device:port" form used by management callers.
func ParseEndpoint(s string) (Endpoint, error) {
	deviceID, port, ok := strings.Cut(s, ":")
	if !ok {
		return Endpoint{}, fmt.Errorf("%w: %q is not device:port", ErrInvalidEndpoint, s)
	}
	ep := Endpoint{DeviceID: strings.TrimSpace(deviceID), Port: strings.TrimSpace(port)}
	if err := ep.Validate(); err != nil {
		return Endpoint{}, err
	}
	return ep, nil
}

// Validate checks that both halves of the endpoint are present.
func (e Endpoint) Validate() error {
	if e.DeviceID == "" || e.Port == "" {
		return fmt.Errorf("%w: device and port must both be set", ErrInvalidEndpoint)
	}
	return nil
}

func (e Endpoint) String() string {
	return e.DeviceID + ":" + e.Port
}

// Connection is one routing rule: values from the source outport are
// transformed and delivered to the target inport.
//
// Identity is the id, never the endpoint pair — duplicates sharing a
// (source, target) pair are allowed, and disconnect-by-id works on them
// individually.
type Connection struct {
	ID          string     `json:"id"`
	Source      Endpoint   `json:"source"`
	Target      Endpoint   `json:"target"`
	Transform   *Transform `json:"transform,omitempty"`
	Enabled     bool       `json:"enabled"`
	Description string     `json:"description,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// ConnectionUpdate is a partial update for a connection. Nil fields are
// left untouched; a non-nil Transform pointing at a zero Transform
// clears the transform.
type ConnectionUpdate struct {
	Transform   *Transform `json:"transform,omitempty"`
	Enabled     *bool      `json:"enabled,omitempty"`
	Description *string    `json:"description,omitempty"`
}

// Job is one raw port value awaiting routed delivery.
type Job struct {
	DeviceID  string
	Port      string
	Value     float64
	Timestamp time.Time
}

// Stats are process-lifetime routing counters.
type Stats struct {
	Enqueued   uint64 `json:"enqueued"`
	Processed  uint64 `json:"processed"`
	Dropped    uint64 `json:"dropped"`
	Failed     uint64 `json:"failed"`
	QueueDepth int    `json:"queue_depth"`
}

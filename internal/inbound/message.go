package inbound

import (
	"strings"

	"github.com/Hampterlab/hampter-bridge/internal/directory"
)

// Kind is the classification of an inbound transport message.
type Kind string

const (
	KindAnnounce      Kind = "announce"
	KindStatus        Kind = "status"
	KindEvents        Kind = "events"
	KindPortAnnounce  Kind = "port-announce"
	KindPortData      Kind = "port-data"
	KindCommandResult Kind = "command-result"

	// KindUnknown marks messages on unrecognised topics or with shapes
	// no schema matches. They are dropped, never an error.
	KindUnknown Kind = "unknown"
)

// Typed schemas for each message kind. Unknown fields are ignored; a
// payload that fails its kind's schema degrades to a no-op.

type announceMessage struct {
	Name     string `json:"name"`
	Protocol string `json:"protocol"`
}

type statusMessage struct {
	// Devices report liveness either as a bare boolean or as a state
	// string; both are accepted.
	Online *bool  `json:"online"`
	Status string `json:"status"`
}

func (m statusMessage) online() bool {
	if m.Online != nil {
		return *m.Online
	}
	return strings.EqualFold(m.Status, "online")
}

type eventsMessage struct {
	RequestID string      `json:"request_id"`
	Error     *eventError `json:"error"`
}

type eventError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type portAnnounceMessage struct {
	Ports []directory.Port `json:"ports"`
}

type portDataMessage struct {
	Port      string   `json:"port"`
	Value     *float64 `json:"value"`
	Timestamp int64    `json:"timestamp"`
}

// parseDeviceTopic extracts the device id and leaf channel from a
// device topic of the form <...>/dev/{device_id}/{leaf...}. The
// namespace prefix is not checked here; subscriptions already scope it.
func parseDeviceTopic(topic string) (deviceID, leaf string, ok bool) {
	parts := strings.Split(topic, "/")
	for i, p := range parts {
		if p == "dev" && i+2 <= len(parts)-1 {
			return parts[i+1], strings.Join(parts[i+2:], "/"), true
		}
	}
	return "", "", false
}

// kindForLeaf maps a topic leaf to its message kind.
func kindForLeaf(leaf string) Kind {
	switch leaf {
	case "announce":
		return KindAnnounce
	case "status":
		return KindStatus
	case "events":
		return KindEvents
	case "ports/announce":
		return KindPortAnnounce
	case "ports/data":
		return KindPortData
	default:
		return KindUnknown
	}
}

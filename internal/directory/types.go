package directory

import (
	"strings"
	"time"
)

// Protocol identifies the transport a device was last seen on.
type Protocol string

const (
	// ProtocolMQTT is the default transport: devices reachable via the broker.
	ProtocolMQTT Protocol = "mqtt"

	// ProtocolIPC is the local transport: devices reachable via the IPC agent.
	// Commands on this path are not signed (the trust boundary is the socket).
	ProtocolIPC Protocol = "ipc"
)

// ParseProtocol normalises a protocol string, defaulting to MQTT.
func ParseProtocol(s string) Protocol {
	if strings.EqualFold(s, string(ProtocolIPC)) {
		return ProtocolIPC
	}
	return ProtocolMQTT
}

// Device is a directory entry for an announced device.
//
// Meta carries the raw announce payload (tool list, firmware, labels);
// the bridge core does not interpret it beyond protocol and identity.
type Device struct {
	ID       string         `json:"id"`
	Name     string         `json:"name,omitempty"`
	Protocol Protocol       `json:"protocol"`
	Online   bool           `json:"online"`
	LastSeen time.Time      `json:"last_seen"`
	Meta     map[string]any `json:"meta,omitempty"`
}

// DeepCopy returns an independent copy of the device.
// Meta is cloned one level deep, which is sufficient for read-only use.
func (d *Device) DeepCopy() *Device {
	if d == nil {
		return nil
	}
	cpy := *d
	if d.Meta != nil {
		cpy.Meta = make(map[string]any, len(d.Meta))
		for k, v := range d.Meta {
			cpy.Meta[k] = v
		}
	}
	return &cpy
}

// PortDirection distinguishes value-producing and value-accepting ports.
type PortDirection string

const (
	// PortOut is an outport: the device publishes values from it.
	PortOut PortDirection = "out"

	// PortIn is an inport: the device accepts values written to it.
	PortIn PortDirection = "in"
)

// Port describes one named signal slot on a device, as reported by the
// device's port-announce message.
type Port struct {
	Name      string        `json:"name"`
	Direction PortDirection `json:"direction"`
	Kind      string        `json:"kind,omitempty"` // e.g. "analog", "digital"
	Min       *float64      `json:"min,omitempty"`
	Max       *float64      `json:"max,omitempty"`
}

// PortRef identifies a port on a specific device.
type PortRef struct {
	DeviceID string `json:"device_id"`
	Port     string `json:"port"`
}

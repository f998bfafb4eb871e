package mqtt

import "fmt"

// Topic scheme for the bridge.
//
// All device topics live under a configurable namespace:
//
//	<ns>/dev/{device_id}/cmd            command envelopes (outbound)
//	<ns>/dev/{device_id}/claim          claim-token issuance (outbound)
//	<ns>/dev/{device_id}/ports/set      inport value writes (outbound)
//	<ns>/dev/{device_id}/announce       device announce (inbound)
//	<ns>/dev/{device_id}/status         liveness/status (inbound)
//	<ns>/dev/{device_id}/events         events and command results (inbound)
//	<ns>/dev/{device_id}/ports/announce port metadata (inbound)
//	<ns>/dev/{device_id}/ports/data     outport values (inbound)
//	<ns>/bridge/status                  bridge online/offline (retained)

// Topics builds namespaced MQTT topics. The zero value uses the
// DefaultNamespace; wiring normally constructs it from config.
type Topics struct {
	Namespace string
}

// DefaultNamespace is used when Topics.Namespace is empty.
const DefaultNamespace = "hampter"

func (t Topics) ns() string {
	if t.Namespace == "" {
		return DefaultNamespace
	}
	return t.Namespace
}

// =============================================================================
// Outbound Topics
// =============================================================================

// DeviceCommand returns the command topic for a device.
//
// Example: hampter/dev/sensor-01/cmd
func (t Topics) DeviceCommand(deviceID string) string {
	return fmt.Sprintf("%s/dev/%s/cmd", t.ns(), deviceID)
}

// DeviceClaim returns the claim-token topic for a device.
//
// Example: hampter/dev/sensor-01/claim
func (t Topics) DeviceClaim(deviceID string) string {
	return fmt.Sprintf("%s/dev/%s/claim", t.ns(), deviceID)
}

// DevicePortSet returns the inport write topic for a device.
//
// Example: hampter/dev/actuator-02/ports/set
func (t Topics) DevicePortSet(deviceID string) string {
	return fmt.Sprintf("%s/dev/%s/ports/set", t.ns(), deviceID)
}

// BridgeStatus returns the bridge's own status topic.
//
// Example: hampter/bridge/status
func (t Topics) BridgeStatus() string {
	return fmt.Sprintf("%s/bridge/status", t.ns())
}

// =============================================================================
// Inbound Subscription Patterns
// =============================================================================

// AllAnnounce matches announce messages from all devices.
//
// Pattern: hampter/dev/+/announce
func (t Topics) AllAnnounce() string {
	return fmt.Sprintf("%s/dev/+/announce", t.ns())
}

// AllStatus matches status messages from all devices.
//
// Pattern: hampter/dev/+/status
func (t Topics) AllStatus() string {
	return fmt.Sprintf("%s/dev/+/status", t.ns())
}

// AllEvents matches event messages (including command results) from all devices.
//
// Pattern: hampter/dev/+/events
func (t Topics) AllEvents() string {
	return fmt.Sprintf("%s/dev/+/events", t.ns())
}

// AllPortAnnounce matches port metadata announcements from all devices.
//
// Pattern: hampter/dev/+/ports/announce
func (t Topics) AllPortAnnounce() string {
	return fmt.Sprintf("%s/dev/+/ports/announce", t.ns())
}

// AllPortData matches outport value messages from all devices.
//
// Pattern: hampter/dev/+/ports/data
func (t Topics) AllPortData() string {
	return fmt.Sprintf("%s/dev/+/ports/data", t.ns())
}

// All matches every topic in the namespace. Use with caution.
//
// Pattern: hampter/#
func (t Topics) All() string {
	return fmt.Sprintf("%s/#", t.ns())
}

// InboundSubscriptions returns the individual inbound patterns the bridge
// subscribes to when not running in subscribe-all mode.
func (t Topics) InboundSubscriptions() []string {
	return []string{
		t.AllAnnounce(),
		t.AllStatus(),
		t.AllEvents(),
		t.AllPortAnnounce(),
		t.AllPortData(),
	}
}

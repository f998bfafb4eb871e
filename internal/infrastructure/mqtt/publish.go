package mqtt

import (
	"encoding/json"
	"fmt"
)

// Maximum payload size for MQTT messages (1MB).
// This prevents resource exhaustion and aligns with typical broker limits.
const maxPayloadSize = 1 << 20 // 1MB

// Publish sends a message to the specified MQTT topic.
//
// Parameters:
//   - topic: The topic to publish to (e.g., "hampter/dev/sensor-01/cmd")
//   - payload: The message payload (typically JSON, max 1MB)
//   - qos: Quality of Service level (0, 1, or 2)
//   - retained: Whether the broker should retain the message for new subscribers
//
// Returns:
//   - error: nil on success, or wrapped error describing the failure
func (c *Client) Publish(topic string, payload []byte, qos byte, retained bool) error {
	if topic == "" {
		return ErrInvalidTopic
	}
	if qos > maxQoS {
		return ErrInvalidQoS
	}
	if len(payload) > maxPayloadSize {
		return fmt.Errorf("%w: payload size %d exceeds maximum %d bytes", ErrPublishFailed, len(payload), maxPayloadSize)
	}

	if !c.IsConnected() {
		return ErrNotConnected
	}

	token := c.client.Publish(topic, qos, retained, payload)
	if !token.WaitTimeout(defaultPublishTimeout) {
		return fmt.Errorf("%w: timeout after %v", ErrPublishFailed, defaultPublishTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: %w", ErrPublishFailed, err)
	}

	return nil
}

// PublishCommand sends a command payload to a device's command topic.
//
// The payload is either a plain command envelope or a signed
// {data, signature} wrapper; this layer does not care which.
// Commands use the configured QoS and are never retained.
func (c *Client) PublishCommand(deviceID string, payload []byte) error {
	return c.Publish(c.topics.DeviceCommand(deviceID), payload, byte(c.cfg.QoS), false)
}

// PublishClaim sends a claim token to a device's claim topic.
//
// Claims use QoS 1: a device that misses its claim token cannot
// authenticate any subsequent signed command.
func (c *Client) PublishClaim(deviceID, token string) error {
	payload, err := json.Marshal(map[string]string{"token": token})
	if err != nil {
		return fmt.Errorf("%w: encoding claim: %w", ErrPublishFailed, err)
	}
	return c.Publish(c.topics.DeviceClaim(deviceID), payload, 1, false)
}

// PublishPortSet writes a value to a device's input port.
//
// Port writes use QoS 0: routed signal values are best-effort and
// frequently superseded by the next sample.
func (c *Client) PublishPortSet(deviceID, port string, value float64) error {
	payload, err := json.Marshal(map[string]any{"port": port, "value": value})
	if err != nil {
		return fmt.Errorf("%w: encoding port set: %w", ErrPublishFailed, err)
	}
	return c.Publish(c.topics.DevicePortSet(deviceID), payload, 0, false)
}

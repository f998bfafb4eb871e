package command

import (
	"errors"
	"fmt"
)

// Wire-level error codes returned to callers in structured dispatch results.
// These strings are stable: external tool-calling clients branch on them.
const (
	CodeUnknownDevice = "unknown_device"
	CodeConfigError   = "config_error"
	CodeIPCSendFailed = "ipc_send_failed"
	CodeMQTTFailed    = "mqtt_connect_failed"
	CodeTimeout       = "timeout"
	CodeShutdown      = "shutdown"
)

// Sentinel errors for the dispatch failure taxonomy.
// Use errors.Is() to check a dispatch error against these.
var (
	// ErrUnknownDevice is returned when the device is not in the directory.
	ErrUnknownDevice = errors.New("command: unknown device")

	// ErrAgentMissing is returned when a device is on the IPC path but no
	// IPC agent was configured.
	ErrAgentMissing = errors.New("command: ipc agent not configured")

	// ErrIPCSendFailed is returned when the IPC agent rejects the send.
	ErrIPCSendFailed = errors.New("command: ipc send failed")

	// ErrMQTTPublishFailed is returned when the broker publish fails.
	ErrMQTTPublishFailed = errors.New("command: mqtt publish failed")

	// ErrTimeout is returned when no correlated reply arrives in time.
	ErrTimeout = errors.New("command: timed out waiting for device reply")

	// ErrShutdown is returned when the bridge shuts down while a dispatch
	// is waiting for its reply. Pending requests are abandoned, never hung.
	ErrShutdown = errors.New("command: bridge shutting down")
)

// Error is a structured dispatch failure.
//
// It carries the wire-level code, a human-readable message, and the
// request ID of the failed dispatch so callers can distinguish
// configuration problems from transient transport problems from device
// non-responsiveness. It unwraps to one of the sentinel errors above.
type Error struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id"`

	sentinel error
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s (request_id=%s)", e.Code, e.Message, e.RequestID)
}

// Unwrap returns the sentinel error for errors.Is checks.
func (e *Error) Unwrap() error {
	return e.sentinel
}

// newError builds a structured dispatch error.
func newError(sentinel error, code, requestID, format string, args ...any) *Error {
	return &Error{
		Code:      code,
		Message:   fmt.Sprintf(format, args...),
		RequestID: requestID,
		sentinel:  sentinel,
	}
}

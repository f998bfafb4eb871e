package command

import (
	"context"
	"time"

	"github.com/Hampterlab/hampter-bridge/internal/directory"
)

// Logger defines the logging interface used by the Dispatcher.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// DeviceDirectory is the directory projection the dispatcher needs:
// protocol lookup and the per-device shared secret.
type DeviceDirectory interface {
	Get(id string) (directory.Device, bool)
	Token(id string) (string, bool)
}

// Publisher transmits a command payload over MQTT.
type Publisher interface {
	PublishCommand(deviceID string, payload []byte) error
}

// Agent is the local IPC transport abstraction.
//
// The bridge core never touches socket framing; an external agent
// implementation (or a test fake) provides delivery. Sends report
// success as a bool: the agent owns its own error logging.
type Agent interface {
	SendCmd(deviceID string, payload []byte) bool
	SendPortSet(deviceID, port string, value float64) bool
}

// Request describes one tool invocation to dispatch to a device.
type Request struct {
	DeviceID string
	Tool     string

	// Args is the raw argument blob from the caller; see NormalizeArgs
	// for the accepted shapes.
	Args any

	// RequestID is optional; a random one is generated when empty.
	RequestID string

	// Timeout bounds the wait for the correlated reply. Zero means the
	// dispatcher default.
	Timeout time.Duration
}

// Dispatcher turns the fire-and-forget transports into synchronous,
// authenticated request/response calls.
//
// Dispatch blocks the calling goroutine until the correlated reply
// arrives or the deadline expires — the only caller-visible blocking
// operation in the bridge. No retries happen at this layer; retry
// policy belongs to the caller.
type Dispatcher struct {
	devices        DeviceDirectory
	table          *Table
	mqtt           Publisher
	ipc            Agent // may be nil; IPC dispatches then fail with config_error
	defaultTimeout time.Duration
	logger         Logger
}

// NewDispatcher creates a dispatcher.
//
// ipc may be nil when no local agent is configured; devices last seen
// on the IPC transport then fail dispatch with a config_error.
func NewDispatcher(devices DeviceDirectory, table *Table, mqtt Publisher, ipc Agent, defaultTimeout time.Duration) *Dispatcher {
	return &Dispatcher{
		devices:        devices,
		table:          table,
		mqtt:           mqtt,
		ipc:            ipc,
		defaultTimeout: defaultTimeout,
		logger:         noopLogger{},
	}
}

// SetLogger sets the logger for the dispatcher.
func (d *Dispatcher) SetLogger(logger Logger) {
	d.logger = logger
}

// Dispatch sends a command to a device and waits for its correlated reply.
//
// The flow:
//  1. Generate a request ID if the caller did not supply one.
//  2. Normalise the argument blob.
//  3. Look up the device's last-seen transport in the directory.
//  4. Build the envelope; on the MQTT path, sign it with the device's
//     shared secret (unsigned with a warning if no secret exists yet —
//     first-contact devices have not received a claim token).
//  5. Register the request in the correlation table BEFORE transmitting,
//     so a fast reply cannot arrive before registration.
//  6. Transmit. A send failure unregisters immediately and returns a
//     transport-specific error without waiting.
//  7. Block on the rendezvous up to the timeout.
//
// On failure the returned error is always a *Error carrying the code,
// message, and request ID.
func (d *Dispatcher) Dispatch(ctx context.Context, req Request) (map[string]any, error) {
	rid := req.RequestID
	if rid == "" {
		rid = NewRequestID()
	}

	args := NormalizeArgs(req.Args)

	dev, ok := d.devices.Get(req.DeviceID)
	if !ok {
		return nil, newError(ErrUnknownDevice, CodeUnknownDevice, rid,
			"device %q not found in directory", req.DeviceID)
	}

	payload, err := d.buildPayload(dev, req.Tool, args, rid)
	if err != nil {
		return nil, err
	}

	// Register before transmit: a device on a fast local broker can
	// answer before a post-transmit registration would complete.
	ch := d.table.Register(rid, req.DeviceID)

	if err := d.transmit(dev, payload, rid); err != nil {
		d.table.Unregister(rid)
		return nil, err
	}

	timeout := req.Timeout
	if timeout <= 0 {
		timeout = d.defaultTimeout
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case resp := <-ch:
		return resp, nil
	case <-timer.C:
		d.table.Unregister(rid)
		return nil, newError(ErrTimeout, CodeTimeout, rid,
			"no reply for request_id=%s within %s", rid, timeout)
	case <-ctx.Done():
		d.table.Unregister(rid)
		return nil, newError(ErrShutdown, CodeShutdown, rid,
			"dispatch abandoned: %v", ctx.Err())
	}
}

// buildPayload serialises the command for the device's transport.
//
// MQTT commands are signed with the device's current shared secret; the
// inner envelope gains a unix-seconds timestamp and is serialised with
// the fixed field order the device verifies against. IPC commands are
// never signed — the local socket is the trust boundary.
func (d *Dispatcher) buildPayload(dev directory.Device, tool string, args map[string]any, rid string) ([]byte, *Error) {
	env := NewEnvelope(tool, args, rid)

	if dev.Protocol != directory.ProtocolIPC {
		if secret, ok := d.devices.Token(dev.ID); ok {
			env.Timestamp = time.Now().Unix()
			signed, err := Sign(env, secret)
			if err != nil {
				return nil, newError(ErrMQTTPublishFailed, CodeMQTTFailed, rid,
					"signing command: %v", err)
			}
			data, err := marshalSigned(signed)
			if err != nil {
				return nil, newError(ErrMQTTPublishFailed, CodeMQTTFailed, rid,
					"encoding signed command: %v", err)
			}
			d.logger.Debug("command signed", "device_id", dev.ID, "request_id", rid, "ts", env.Timestamp)
			return data, nil
		}
		d.logger.Warn("no shared secret for device, sending unsigned command",
			"device_id", dev.ID, "request_id", rid)
	}

	data, err := env.Marshal()
	if err != nil {
		return nil, newError(ErrMQTTPublishFailed, CodeMQTTFailed, rid,
			"encoding command: %v", err)
	}
	return data, nil
}

// transmit sends the payload over the device's last-seen transport.
func (d *Dispatcher) transmit(dev directory.Device, payload []byte, rid string) *Error {
	if dev.Protocol == directory.ProtocolIPC {
		if d.ipc == nil {
			return newError(ErrAgentMissing, CodeConfigError, rid,
				"device %q uses ipc but no agent is configured", dev.ID)
		}
		if !d.ipc.SendCmd(dev.ID, payload) {
			return newError(ErrIPCSendFailed, CodeIPCSendFailed, rid,
				"ipc send to %q failed", dev.ID)
		}
		return nil
	}

	if err := d.mqtt.PublishCommand(dev.ID, payload); err != nil {
		return newError(ErrMQTTPublishFailed, CodeMQTTFailed, rid,
			"publishing command to %q: %v", dev.ID, err)
	}
	return nil
}

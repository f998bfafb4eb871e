package inbound

import (
	"encoding/json"
	"time"

	"github.com/Hampterlab/hampter-bridge/internal/directory"
	"github.com/Hampterlab/hampter-bridge/internal/routing"
)

// Logger defines the logging interface used by the Classifier.
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

// Directory is the device-directory surface the classifier mutates.
type Directory interface {
	RecordAnnounce(id string, protocol directory.Protocol, name string, meta map[string]any)
	RecordStatus(id string, online bool)
	SetPorts(id string, ports []directory.Port)
	Token(id string) (string, bool)
	SetToken(id, token string)
}

// Resolver delivers command replies to their waiting dispatch calls.
type Resolver interface {
	Resolve(requestID string, payload map[string]any, deviceID string) bool
}

// ClaimSender issues a claim token to a device over a
// transport-appropriate channel.
type ClaimSender interface {
	SendClaim(deviceID, token string) error
}

// Ingestor accepts port-value jobs for asynchronous routing.
type Ingestor interface {
	Ingest(job routing.Job) bool
}

// Recorder observes routed port values, e.g. for telemetry. Optional.
type Recorder interface {
	RecordPortValue(deviceID, port string, value float64, ts time.Time)
}

// Classifier is the single funnel for every inbound transport message.
//
// It runs inline on the transport receive goroutine, so all side
// effects are fast and non-blocking: directory updates, correlation
// resolve, claim publishes, and a non-blocking routing enqueue.
// Classification never panics; any unexpected shape degrades to a
// no-op with a diagnostic.
type Classifier struct {
	devices  Directory
	resolver Resolver
	claims   ClaimSender
	router   Ingestor
	recorder Recorder // optional
	logger   Logger
}

// NewClassifier creates a classifier. recorder may be nil.
func NewClassifier(devices Directory, resolver Resolver, claims ClaimSender, router Ingestor, recorder Recorder) *Classifier {
	return &Classifier{
		devices:  devices,
		resolver: resolver,
		claims:   claims,
		router:   router,
		recorder: recorder,
		logger:   noopLogger{},
	}
}

// SetLogger sets the logger for the classifier.
func (c *Classifier) SetLogger(logger Logger) {
	c.logger = logger
}

// HandleMessage classifies one inbound message and triggers its side
// effects. transport records which transport delivered it, so the
// directory tracks where each device was last seen.
//
// The returned kind and device id let transport glue react (metrics,
// tracing); callers may ignore them.
func (c *Classifier) HandleMessage(topic string, payload []byte, transport directory.Protocol) (Kind, string) {
	deviceID, leaf, ok := parseDeviceTopic(topic)
	if !ok || deviceID == "" {
		c.logger.Debug("message on unrecognised topic dropped", "topic", topic)
		return KindUnknown, ""
	}

	kind := kindForLeaf(leaf)
	switch kind {
	case KindAnnounce:
		c.handleAnnounce(deviceID, payload, transport)
	case KindStatus:
		c.handleStatus(deviceID, payload)
	case KindEvents:
		kind = c.handleEvents(deviceID, payload)
	case KindPortAnnounce:
		c.handlePortAnnounce(deviceID, payload)
	case KindPortData:
		c.handlePortData(deviceID, payload)
	default:
		c.logger.Debug("message on unrecognised channel dropped", "topic", topic, "device_id", deviceID)
	}
	return kind, deviceID
}

// handleAnnounce registers the device and (re)issues its claim token.
//
// The token is always re-sent, even when one already exists: a device
// that rebooted without persistent storage deterministically
// re-establishes trust on its next announce, with no manual step.
func (c *Classifier) handleAnnounce(deviceID string, payload []byte, transport directory.Protocol) {
	var msg announceMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		c.logger.Warn("malformed announce dropped", "device_id", deviceID, "error", err)
		return
	}

	var meta map[string]any
	if err := json.Unmarshal(payload, &meta); err != nil {
		meta = nil
	}

	protocol := transport
	if msg.Protocol != "" {
		protocol = directory.ParseProtocol(msg.Protocol)
	}
	c.devices.RecordAnnounce(deviceID, protocol, msg.Name, meta)

	token, ok := c.devices.Token(deviceID)
	if !ok {
		token = NewToken()
		c.devices.SetToken(deviceID, token)
		c.logger.Info("shared secret created", "device_id", deviceID)
	}
	if err := c.claims.SendClaim(deviceID, token); err != nil {
		c.logger.Error("claim issuance failed", "device_id", deviceID, "error", err)
	}
}

func (c *Classifier) handleStatus(deviceID string, payload []byte) {
	var msg statusMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		c.logger.Warn("malformed status dropped", "device_id", deviceID, "error", err)
		return
	}
	c.devices.RecordStatus(deviceID, msg.online())
}

// handleEvents distinguishes command results from plain events and
// runs the wrong-token self-healing path.
func (c *Classifier) handleEvents(deviceID string, payload []byte) Kind {
	var msg eventsMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		c.logger.Warn("malformed event dropped", "device_id", deviceID, "error", err)
		return KindEvents
	}

	if msg.Error != nil && msg.Error.Code == "wrong_token" {
		c.rotateSecret(deviceID)
	}

	if msg.RequestID != "" {
		var result map[string]any
		if err := json.Unmarshal(payload, &result); err != nil {
			c.logger.Warn("malformed command result dropped",
				"device_id", deviceID, "request_id", msg.RequestID, "error", err)
			return KindCommandResult
		}
		if !c.resolver.Resolve(msg.RequestID, result, deviceID) {
			c.logger.Debug("command result had no waiter",
				"device_id", deviceID, "request_id", msg.RequestID)
		}
		return KindCommandResult
	}
	return KindEvents
}

// rotateSecret mints a new shared secret and re-issues it.
//
// The in-flight command that triggered the mismatch is not retried —
// it times out or fails on its own — but the next command signs with
// the rotated secret.
func (c *Classifier) rotateSecret(deviceID string) {
	token := NewToken()
	c.devices.SetToken(deviceID, token)
	c.logger.Warn("device reported wrong token, secret rotated", "device_id", deviceID)

	if err := c.claims.SendClaim(deviceID, token); err != nil {
		c.logger.Error("claim re-issuance failed", "device_id", deviceID, "error", err)
	}
}

func (c *Classifier) handlePortAnnounce(deviceID string, payload []byte) {
	var msg portAnnounceMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		c.logger.Warn("malformed port announce dropped", "device_id", deviceID, "error", err)
		return
	}
	c.devices.SetPorts(deviceID, msg.Ports)
	c.logger.Debug("ports announced", "device_id", deviceID, "ports", len(msg.Ports))
}

func (c *Classifier) handlePortData(deviceID string, payload []byte) {
	var msg portDataMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		c.logger.Warn("malformed port data dropped", "device_id", deviceID, "error", err)
		return
	}
	if msg.Port == "" || msg.Value == nil {
		c.logger.Debug("port data missing port or value", "device_id", deviceID)
		return
	}

	ts := time.Now().UTC()
	if msg.Timestamp > 0 {
		ts = time.Unix(msg.Timestamp, 0).UTC()
	}

	if c.recorder != nil {
		c.recorder.RecordPortValue(deviceID, msg.Port, *msg.Value, ts)
	}

	accepted := c.router.Ingest(routing.Job{
		DeviceID:  deviceID,
		Port:      msg.Port,
		Value:     *msg.Value,
		Timestamp: ts,
	})
	if !accepted {
		c.logger.Warn("routing queue full, port value dropped",
			"device_id", deviceID, "port", msg.Port)
	}
}

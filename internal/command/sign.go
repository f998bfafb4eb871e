package command

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// EnvelopeType is the type tag carried by every command envelope.
const EnvelopeType = "device.command"

// Envelope is the command envelope transmitted to devices.
//
// Field order matters: the struct is marshalled in declaration order
// (type, tool, args, request_id, timestamp) with no superfluous
// whitespace, and the HMAC is computed over those exact bytes. Args is
// a map, which encoding/json serialises with sorted keys, so the whole
// serialisation is deterministic. Envelopes are immutable once built.
type Envelope struct {
	Type      string         `json:"type"`
	Tool      string         `json:"tool"`
	Args      map[string]any `json:"args"`
	RequestID string         `json:"request_id"`

	// Timestamp is set (unix seconds) only on the signed path; plain
	// envelopes omit it.
	Timestamp int64 `json:"timestamp,omitempty"`
}

// NewEnvelope builds a plain (unsigned) command envelope.
func NewEnvelope(tool string, args map[string]any, requestID string) Envelope {
	if args == nil {
		args = map[string]any{}
	}
	return Envelope{
		Type:      EnvelopeType,
		Tool:      tool,
		Args:      args,
		RequestID: requestID,
	}
}

// Marshal returns the canonical serialisation of the envelope.
func (e Envelope) Marshal() ([]byte, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("encoding envelope: %w", err)
	}
	return data, nil
}

// SignedEnvelope wraps a canonical envelope with its HMAC signature.
//
// Data carries the exact serialised bytes the signature was computed
// over; the device verifies against those bytes, never against a
// re-serialisation.
type SignedEnvelope struct {
	Data      string `json:"data"`
	Signature string `json:"signature"`
}

// Sign computes the HMAC-SHA256 wrapper for an envelope.
//
// The envelope's timestamp must already be set; signing binds the
// secret to the canonical bytes including it.
func Sign(env Envelope, secret string) (SignedEnvelope, error) {
	data, err := env.Marshal()
	if err != nil {
		return SignedEnvelope{}, err
	}
	return SignedEnvelope{
		Data:      string(data),
		Signature: signature(data, secret),
	}, nil
}

// marshalSigned serialises the signed wrapper for transmission.
func marshalSigned(s SignedEnvelope) ([]byte, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encoding signed envelope: %w", err)
	}
	return data, nil
}

// Verify reports whether sig is a valid signature over data under secret.
func Verify(data []byte, sig, secret string) bool {
	return hmac.Equal([]byte(signature(data, secret)), []byte(sig))
}

// signature computes the hex HMAC-SHA256 digest of data keyed by secret.
func signature(data []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(data)
	return hex.EncodeToString(mac.Sum(nil))
}

// NewRequestID returns a fresh request identifier: a random 128-bit
// token rendered as 32 hex characters. Unique for any realistic
// correlation window.
func NewRequestID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

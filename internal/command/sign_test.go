package command

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestEnvelopeMarshalFieldOrder(t *testing.T) {
	env := NewEnvelope("set_level", map[string]any{"level": "42"}, "rid-1")
	env.Timestamp = 1700000000

	data, err := env.Marshal()
	if err != nil {
		t.Fatalf("Marshal() error: %v", err)
	}

	want := `{"type":"device.command","tool":"set_level","args":{"level":"42"},"request_id":"rid-1","timestamp":1700000000}`
	if string(data) != want {
		t.Errorf("Marshal() = %s, want %s", data, want)
	}
}

func TestEnvelopeMarshalOmitsZeroTimestamp(t *testing.T) {
	env := NewEnvelope("ping", nil, "rid-1")

	data, err := env.Marshal()
	if err != nil {
		t.Fatalf("Marshal() error: %v", err)
	}
	if strings.Contains(string(data), "timestamp") {
		t.Errorf("unsigned envelope carries a timestamp: %s", data)
	}
	if !strings.Contains(string(data), `"args":{}`) {
		t.Errorf("nil args should marshal as empty object: %s", data)
	}
}

func TestEnvelopeMarshalSortsArgKeys(t *testing.T) {
	env := NewEnvelope("t", map[string]any{"z": "1", "a": "2", "m": "3"}, "rid")

	data, err := env.Marshal()
	if err != nil {
		t.Fatalf("Marshal() error: %v", err)
	}
	if !strings.Contains(string(data), `"args":{"a":"2","m":"3","z":"1"}`) {
		t.Errorf("args keys not sorted: %s", data)
	}
}

func TestSignIsDeterministic(t *testing.T) {
	env := NewEnvelope("set_level", map[string]any{"level": "42", "ramp": "2"}, "rid-1")
	env.Timestamp = 1700000000

	first, err := Sign(env, "secret")
	if err != nil {
		t.Fatalf("Sign() error: %v", err)
	}
	second, err := Sign(env, "secret")
	if err != nil {
		t.Fatalf("Sign() error: %v", err)
	}

	if first.Signature != second.Signature {
		t.Errorf("signatures differ for identical input: %s vs %s", first.Signature, second.Signature)
	}
	if first.Data != second.Data {
		t.Errorf("canonical bytes differ: %s vs %s", first.Data, second.Data)
	}
	if len(first.Signature) != 64 {
		t.Errorf("signature length = %d, want 64 hex chars", len(first.Signature))
	}
}

func TestSignChangesWithInput(t *testing.T) {
	base := NewEnvelope("set_level", map[string]any{"level": "42"}, "rid-1")
	base.Timestamp = 1700000000

	signed, err := Sign(base, "secret")
	if err != nil {
		t.Fatalf("Sign() error: %v", err)
	}

	mutations := []struct {
		name string
		env  Envelope
		key  string
	}{
		{"different tool", func() Envelope { e := base; e.Tool = "set_power"; return e }(), "secret"},
		{"different args", NewEnvelope("set_level", map[string]any{"level": "43"}, "rid-1"), "secret"},
		{"different request id", func() Envelope { e := base; e.RequestID = "rid-2"; return e }(), "secret"},
		{"different timestamp", func() Envelope { e := base; e.Timestamp = 1700000001; return e }(), "secret"},
		{"different secret", base, "other-secret"},
	}
	for _, m := range mutations {
		t.Run(m.name, func(t *testing.T) {
			env := m.env
			if env.Timestamp == 0 {
				env.Timestamp = base.Timestamp
			}
			got, err := Sign(env, m.key)
			if err != nil {
				t.Fatalf("Sign() error: %v", err)
			}
			if got.Signature == signed.Signature {
				t.Error("mutated input produced the same signature")
			}
		})
	}
}

func TestVerify(t *testing.T) {
	env := NewEnvelope("reboot", nil, "rid-9")
	env.Timestamp = 1700000000

	signed, err := Sign(env, "secret")
	if err != nil {
		t.Fatalf("Sign() error: %v", err)
	}

	if !Verify([]byte(signed.Data), signed.Signature, "secret") {
		t.Error("Verify() rejected a valid signature")
	}
	if Verify([]byte(signed.Data), signed.Signature, "wrong") {
		t.Error("Verify() accepted a signature under the wrong secret")
	}
	if Verify([]byte(signed.Data+" "), signed.Signature, "secret") {
		t.Error("Verify() accepted tampered data")
	}
}

func TestMarshalSignedRoundTrips(t *testing.T) {
	env := NewEnvelope("ping", nil, "rid-1")
	env.Timestamp = 1700000000

	signed, err := Sign(env, "secret")
	if err != nil {
		t.Fatalf("Sign() error: %v", err)
	}
	wire, err := marshalSigned(signed)
	if err != nil {
		t.Fatalf("marshalSigned() error: %v", err)
	}

	var decoded SignedEnvelope
	if err := json.Unmarshal(wire, &decoded); err != nil {
		t.Fatalf("decoding wire form: %v", err)
	}
	if decoded.Data != signed.Data || decoded.Signature != signed.Signature {
		t.Error("wire form does not round-trip")
	}
	if !Verify([]byte(decoded.Data), decoded.Signature, "secret") {
		t.Error("signature no longer verifies after round trip")
	}
}

func TestNewRequestID(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		rid := NewRequestID()
		if len(rid) != 32 {
			t.Fatalf("request id length = %d, want 32", len(rid))
		}
		if strings.Contains(rid, "-") {
			t.Fatalf("request id contains a dash: %s", rid)
		}
		if seen[rid] {
			t.Fatalf("duplicate request id: %s", rid)
		}
		seen[rid] = true
	}
}

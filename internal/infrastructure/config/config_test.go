package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("writing temp config: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	path := writeTempConfig(t, "bridge:\n  namespace: testns\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Bridge.Namespace != "testns" {
		t.Errorf("namespace = %q, want testns", cfg.Bridge.Namespace)
	}
	if cfg.MQTT.Broker.Host != "localhost" {
		t.Errorf("mqtt host = %q, want localhost (default)", cfg.MQTT.Broker.Host)
	}
	if cfg.Routing.Workers != 2 {
		t.Errorf("routing workers = %d, want 2 (default)", cfg.Routing.Workers)
	}
	if cfg.Routing.QueueSize != 5000 {
		t.Errorf("routing queue size = %d, want 5000 (default)", cfg.Routing.QueueSize)
	}
	if got := cfg.CommandTimeout(); got != 3*time.Second {
		t.Errorf("command timeout = %v, want 3s (default)", got)
	}
}

func TestLoadOverrides(t *testing.T) {
	path := writeTempConfig(t, `
bridge:
  namespace: factory
  subscribe_all: true
mqtt:
  broker:
    host: broker.lan
    port: 8883
    tls: true
command:
  timeout_ms: 1500
routing:
  workers: 4
  queue_size: 100
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if !cfg.Bridge.SubscribeAll {
		t.Error("subscribe_all not applied")
	}
	if cfg.MQTT.Broker.Host != "broker.lan" || cfg.MQTT.Broker.Port != 8883 {
		t.Errorf("broker = %s:%d, want broker.lan:8883", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port)
	}
	if !cfg.MQTT.Broker.TLS {
		t.Error("tls not applied")
	}
	if got := cfg.CommandTimeout(); got != 1500*time.Millisecond {
		t.Errorf("command timeout = %v, want 1.5s", got)
	}
	if cfg.Routing.Workers != 4 || cfg.Routing.QueueSize != 100 {
		t.Errorf("routing = %d/%d, want 4/100", cfg.Routing.Workers, cfg.Routing.QueueSize)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("HAMPTER_MQTT_HOST", "env-broker")
	t.Setenv("HAMPTER_ROUTE_WORKERS", "8")

	path := writeTempConfig(t, "mqtt:\n  broker:\n    host: file-broker\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.MQTT.Broker.Host != "env-broker" {
		t.Errorf("mqtt host = %q, want env-broker (env wins over file)", cfg.MQTT.Broker.Host)
	}
	if cfg.Routing.Workers != 8 {
		t.Errorf("routing workers = %d, want 8", cfg.Routing.Workers)
	}
}

func TestValidateErrors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "empty namespace",
			mutate:  func(c *Config) { c.Bridge.Namespace = "" },
			wantErr: "bridge.namespace",
		},
		{
			name:    "wildcard namespace",
			mutate:  func(c *Config) { c.Bridge.Namespace = "bad/ns" },
			wantErr: "bridge.namespace",
		},
		{
			name:    "invalid qos",
			mutate:  func(c *Config) { c.MQTT.QoS = 3 },
			wantErr: "mqtt.qos",
		},
		{
			name:    "zero timeout",
			mutate:  func(c *Config) { c.Command.TimeoutMS = 0 },
			wantErr: "command.timeout_ms",
		},
		{
			name:    "no workers",
			mutate:  func(c *Config) { c.Routing.Workers = 0 },
			wantErr: "routing.workers",
		},
		{
			name:    "telemetry without url",
			mutate:  func(c *Config) { c.Telemetry.Enabled = true },
			wantErr: "telemetry.url",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("Validate() = nil, want error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() = %q, want mention of %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/config.yaml"); err == nil {
		t.Fatal("Load() = nil error for missing file")
	}
}

// Package config loads and validates the bridge configuration.
//
// Configuration is read from a YAML file, merged over built-in defaults,
// and finally overridden by HAMPTER_* environment variables. The resulting
// Config is immutable for the lifetime of the process; there is no hot
// reload.
//
// Sections:
//
//   - bridge:    topic namespace and subscription mode
//   - mqtt:      broker connection, auth, QoS, reconnect backoff
//   - command:   default dispatch timeout
//   - routing:   worker pool size and bounded queue capacity
//   - database:  SQLite path and pragmas
//   - telemetry: optional InfluxDB port-value recording
//   - api:       management HTTP listener
//   - logging:   level, format, output
package config

// Package directory is the device directory for the bridge.
//
// It tracks every announced device (identity, last-seen transport,
// liveness, raw announce metadata), the per-device shared secrets used
// to sign MQTT commands, and the port metadata devices report via
// port-announce.
//
// The Store is the single source of truth at runtime: the command
// dispatcher reads protocol and secret from it on every dispatch, the
// inbound classifier writes announces and secret rotations into it, and
// the routing matrix view joins against its port metadata.
//
// Persistence is optional and restart-oriented only: device identity and
// secrets survive via SQLiteRepository so a bridge restart does not force
// every device through the wrong_token recovery path.
package directory

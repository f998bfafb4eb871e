// Package command implements secure command dispatch to devices.
//
// It contains the two pieces that turn the bridge's fire-and-forget
// transports into synchronous tool calls:
//
//   - Table: the correlation table pairing each outbound request ID with
//     a single-slot rendezvous channel, with device-bound anti-spoofing
//     and race-free teardown between the resolve and timeout paths.
//
//   - Dispatcher: builds the command envelope, signs it with the
//     device's shared secret on the MQTT path (HMAC-SHA256 over a
//     deterministic serialisation), registers the request before
//     transmitting, and blocks the caller until the correlated reply
//     arrives or the deadline expires.
//
// Delivery is best-effort and at-most-once. Failures are returned as
// *Error values carrying a stable wire code, a message, and the request
// ID; the package never retries — retry policy belongs to callers.
package command

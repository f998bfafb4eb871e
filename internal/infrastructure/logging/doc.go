// Package logging provides structured logging for the bridge.
//
// It wraps log/slog with level parsing, configurable format and output,
// and default service/version attributes. Domain packages do not import
// this package directly; they declare a small Logger interface and the
// wiring in cmd/hampterbridge passes a *logging.Logger in.
package logging

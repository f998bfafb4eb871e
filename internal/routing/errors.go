package routing

import "errors"

var (
	// ErrInvalidEndpoint indicates a malformed device:port reference.
	ErrInvalidEndpoint = errors.New("invalid endpoint")

	// ErrUnknownConnection indicates an operation referenced a connection
	// id the matrix does not hold.
	ErrUnknownConnection = errors.New("unknown connection")

	// ErrNoPortWriter indicates a routed value had no transport to reach
	// its target device.
	ErrNoPortWriter = errors.New("no port writer configured")
)

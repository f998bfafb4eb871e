// Package telemetry records routed port values to InfluxDB through the
// non-blocking batched write API. It is optional: the bridge runs
// without it, and the classifier treats a nil recorder as disabled.
package telemetry

// Package inbound classifies every message the bridge receives, from
// any transport, into a fixed set of kinds and triggers the matching
// side effects: directory updates on announce/status, claim-token
// issuance and wrong-token rotation, command-result correlation, and
// port-value ingestion into the routing engine.
//
// The classifier runs inline on transport receive goroutines and never
// blocks or panics; malformed payloads are dropped with a diagnostic.
package inbound

// Package database provides the SQLite store for the bridge.
//
// It wraps database/sql with WAL-mode pragmas tuned for a single-writer
// workload and applies an idempotent bootstrap schema on open. The
// repositories in internal/directory and internal/routing build on this
// package; nothing else touches SQL directly.
package database

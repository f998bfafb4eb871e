package database

import (
	"context"
	"fmt"
)

// schema is the bootstrap schema for the bridge store.
//
// The bridge persists only configuration-shaped data: device identity,
// per-device shared secrets, and routing connections. Signal values and
// command history are deliberately not stored here.
const schema = `
CREATE TABLE IF NOT EXISTS devices (
    id         TEXT PRIMARY KEY,
    protocol   TEXT NOT NULL DEFAULT 'mqtt',
    name       TEXT NOT NULL DEFAULT '',
    meta       TEXT NOT NULL DEFAULT '{}',
    last_seen  TIMESTAMP
);

CREATE TABLE IF NOT EXISTS device_secrets (
    device_id  TEXT PRIMARY KEY REFERENCES devices(id) ON DELETE CASCADE,
    token      TEXT NOT NULL,
    rotated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS routing_connections (
    id            TEXT PRIMARY KEY,
    source_device TEXT NOT NULL,
    source_port   TEXT NOT NULL,
    target_device TEXT NOT NULL,
    target_port   TEXT NOT NULL,
    transform     TEXT,
    enabled       INTEGER NOT NULL DEFAULT 1,
    description   TEXT NOT NULL DEFAULT '',
    created_at    TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at    TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_routing_source
    ON routing_connections(source_device, source_port);
`

// applySchema creates the bridge tables if they do not exist.
// The schema is idempotent; re-running it on an existing database is a no-op.
func (db *DB) applySchema(ctx context.Context) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("applying schema: %w", err)
	}
	return nil
}

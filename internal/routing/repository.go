package routing

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/Hampterlab/hampter-bridge/internal/infrastructure/database"
)

// SQLiteRepository persists routing connections in the bridge's SQLite
// store. Transforms are stored as a JSON blob; everything else maps to
// columns directly.
type SQLiteRepository struct {
	db *database.DB
}

// NewSQLiteRepository creates a repository backed by the given database.
func NewSQLiteRepository(db *database.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// LoadConnections reads all persisted connections.
func (r *SQLiteRepository) LoadConnections(ctx context.Context) ([]Connection, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, source_device, source_port, target_device, target_port,
		       transform, enabled, description, created_at, updated_at
		FROM routing_connections`)
	if err != nil {
		return nil, fmt.Errorf("querying connections: %w", err)
	}
	defer rows.Close() //nolint:errcheck // read-only cursor

	var conns []Connection
	for rows.Next() {
		var (
			c             Connection
			transformJSON sql.NullString
			enabled       int
		)
		if err := rows.Scan(&c.ID,
			&c.Source.DeviceID, &c.Source.Port,
			&c.Target.DeviceID, &c.Target.Port,
			&transformJSON, &enabled, &c.Description,
			&c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning connection row: %w", err)
		}
		c.Enabled = enabled != 0
		if transformJSON.Valid && transformJSON.String != "" {
			var t Transform
			if err := json.Unmarshal([]byte(transformJSON.String), &t); err != nil {
				return nil, fmt.Errorf("decoding transform for %s: %w", c.ID, err)
			}
			c.Transform = &t
		}
		conns = append(conns, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating connection rows: %w", err)
	}
	return conns, nil
}

// SaveConnection inserts or updates a connection row.
func (r *SQLiteRepository) SaveConnection(ctx context.Context, c Connection) error {
	var transformJSON sql.NullString
	if c.Transform != nil {
		data, err := json.Marshal(c.Transform)
		if err != nil {
			return fmt.Errorf("encoding transform for %s: %w", c.ID, err)
		}
		transformJSON = sql.NullString{String: string(data), Valid: true}
	}

	enabled := 0
	if c.Enabled {
		enabled = 1
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO routing_connections
			(id, source_device, source_port, target_device, target_port,
			 transform, enabled, description, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			source_device = excluded.source_device,
			source_port = excluded.source_port,
			target_device = excluded.target_device,
			target_port = excluded.target_port,
			transform = excluded.transform,
			enabled = excluded.enabled,
			description = excluded.description,
			updated_at = excluded.updated_at`,
		c.ID, c.Source.DeviceID, c.Source.Port, c.Target.DeviceID, c.Target.Port,
		transformJSON, enabled, c.Description, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("saving connection %s: %w", c.ID, err)
	}
	return nil
}

// DeleteConnection removes a connection row. Deleting a missing row is
// not an error.
func (r *SQLiteRepository) DeleteConnection(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx,
		"DELETE FROM routing_connections WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting connection %s: %w", id, err)
	}
	return nil
}

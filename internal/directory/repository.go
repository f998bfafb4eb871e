package directory

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Hampterlab/hampter-bridge/internal/infrastructure/database"
)

// SQLiteRepository persists directory state in the bridge's SQLite store.
//
// Only identity-shaped data is written: device rows and shared secrets.
// Online state and port metadata are runtime-only and rebuilt from
// announce traffic after a restart.
type SQLiteRepository struct {
	db *database.DB
}

// NewSQLiteRepository creates a repository backed by the given database.
func NewSQLiteRepository(db *database.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// LoadDevices reads all persisted device rows.
func (r *SQLiteRepository) LoadDevices(ctx context.Context) ([]Device, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, protocol, name, meta, last_seen FROM devices")
	if err != nil {
		return nil, fmt.Errorf("querying devices: %w", err)
	}
	defer rows.Close() //nolint:errcheck // read-only cursor

	var devices []Device
	for rows.Next() {
		var (
			d        Device
			protocol string
			metaJSON string
			lastSeen sql.NullTime
		)
		if err := rows.Scan(&d.ID, &protocol, &d.Name, &metaJSON, &lastSeen); err != nil {
			return nil, fmt.Errorf("scanning device row: %w", err)
		}
		d.Protocol = ParseProtocol(protocol)
		if lastSeen.Valid {
			d.LastSeen = lastSeen.Time
		}
		if metaJSON != "" && metaJSON != "{}" {
			if err := json.Unmarshal([]byte(metaJSON), &d.Meta); err != nil {
				return nil, fmt.Errorf("decoding meta for %s: %w", d.ID, err)
			}
		}
		devices = append(devices, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating device rows: %w", err)
	}
	return devices, nil
}

// LoadSecrets reads all persisted device secrets keyed by device ID.
func (r *SQLiteRepository) LoadSecrets(ctx context.Context) (map[string]string, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT device_id, token FROM device_secrets")
	if err != nil {
		return nil, fmt.Errorf("querying secrets: %w", err)
	}
	defer rows.Close() //nolint:errcheck // read-only cursor

	secrets := make(map[string]string)
	for rows.Next() {
		var deviceID, token string
		if err := rows.Scan(&deviceID, &token); err != nil {
			return nil, fmt.Errorf("scanning secret row: %w", err)
		}
		secrets[deviceID] = token
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating secret rows: %w", err)
	}
	return secrets, nil
}

// UpsertDevice inserts or updates a device row.
func (r *SQLiteRepository) UpsertDevice(ctx context.Context, d Device) error {
	metaJSON := "{}"
	if d.Meta != nil {
		data, err := json.Marshal(d.Meta)
		if err != nil {
			return fmt.Errorf("encoding meta for %s: %w", d.ID, err)
		}
		metaJSON = string(data)
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO devices (id, protocol, name, meta, last_seen)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			protocol = excluded.protocol,
			name = excluded.name,
			meta = excluded.meta,
			last_seen = excluded.last_seen`,
		d.ID, string(d.Protocol), d.Name, metaJSON, d.LastSeen)
	if err != nil {
		return fmt.Errorf("upserting device %s: %w", d.ID, err)
	}
	return nil
}

// SaveSecret inserts or rotates the shared secret for a device.
// The device row is created first if announce persistence has not
// happened yet (secrets reference devices by foreign key).
func (r *SQLiteRepository) SaveSecret(ctx context.Context, deviceID, token string) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT OR IGNORE INTO devices (id) VALUES (?)", deviceID)
	if err != nil {
		return fmt.Errorf("ensuring device row for %s: %w", deviceID, err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO device_secrets (device_id, token, rotated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(device_id) DO UPDATE SET
			token = excluded.token,
			rotated_at = excluded.rotated_at`,
		deviceID, token, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("saving secret for %s: %w", deviceID, err)
	}
	return nil
}

package directory

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/Hampterlab/hampter-bridge/internal/infrastructure/database"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	db, err := database.Open(database.Config{
		Path:        filepath.Join(t.TempDir(), "bridge.db"),
		WALMode:     true,
		BusyTimeout: 1,
	})
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewSQLiteRepository(db)
}

func TestRepositoryDeviceRoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	d := Device{
		ID:       "d1",
		Name:     "Pump",
		Protocol: ProtocolIPC,
		LastSeen: time.Now().UTC().Truncate(time.Second),
		Meta:     map[string]any{"fw": "2.0"},
	}
	if err := repo.UpsertDevice(ctx, d); err != nil {
		t.Fatalf("UpsertDevice() error: %v", err)
	}

	// Upsert again with changed protocol; must update, not duplicate.
	d.Protocol = ProtocolMQTT
	if err := repo.UpsertDevice(ctx, d); err != nil {
		t.Fatalf("second UpsertDevice() error: %v", err)
	}

	devices, err := repo.LoadDevices(ctx)
	if err != nil {
		t.Fatalf("LoadDevices() error: %v", err)
	}
	if len(devices) != 1 {
		t.Fatalf("LoadDevices() len = %d, want 1", len(devices))
	}
	got := devices[0]
	if got.ID != "d1" || got.Name != "Pump" || got.Protocol != ProtocolMQTT {
		t.Errorf("loaded device = %+v", got)
	}
	if got.Meta["fw"] != "2.0" {
		t.Errorf("meta fw = %v, want 2.0", got.Meta["fw"])
	}
}

func TestRepositorySecretRoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	// No prior device row: SaveSecret must create one.
	if err := repo.SaveSecret(ctx, "d1", "tok-a"); err != nil {
		t.Fatalf("SaveSecret() error: %v", err)
	}
	if err := repo.SaveSecret(ctx, "d1", "tok-b"); err != nil {
		t.Fatalf("SaveSecret() rotation error: %v", err)
	}

	secrets, err := repo.LoadSecrets(ctx)
	if err != nil {
		t.Fatalf("LoadSecrets() error: %v", err)
	}
	if secrets["d1"] != "tok-b" {
		t.Errorf("secrets[d1] = %q, want tok-b", secrets["d1"])
	}
}

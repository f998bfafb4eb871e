package routing

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

func TestRepositoryConnectionRoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	scale := 2.5
	now := time.Now().UTC().Truncate(time.Second)
	conn := Connection{
		ID:          "c1",
		Source:      Endpoint{DeviceID: "a", Port: "out"},
		Target:      Endpoint{DeviceID: "b", Port: "in"},
		Transform:   &Transform{Scale: &scale, Invert: true},
		Enabled:     true,
		Description: "demo",
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := repo.SaveConnection(ctx, conn); err != nil {
		t.Fatalf("SaveConnection() error: %v", err)
	}

	// Save again with changed fields; must update, not duplicate.
	conn.Enabled = false
	conn.Transform = nil
	if err := repo.SaveConnection(ctx, conn); err != nil {
		t.Fatalf("second SaveConnection() error: %v", err)
	}

	conns, err := repo.LoadConnections(ctx)
	if err != nil {
		t.Fatalf("LoadConnections() error: %v", err)
	}
	if len(conns) != 1 {
		t.Fatalf("LoadConnections() len = %d, want 1", len(conns))
	}
	got := conns[0]
	if got.ID != "c1" || got.Source.Port != "out" || got.Target.DeviceID != "b" {
		t.Errorf("loaded connection = %+v", got)
	}
	if got.Enabled {
		t.Error("enabled flag not updated")
	}
	if got.Transform != nil {
		t.Errorf("transform = %+v, want nil after clearing", got.Transform)
	}
}

func TestRepositoryTransformPersistence(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	scale, min := -1.0, 0.0
	now := time.Now().UTC()
	conn := Connection{
		ID:        "c1",
		Source:    Endpoint{DeviceID: "a", Port: "out"},
		Target:    Endpoint{DeviceID: "b", Port: "in"},
		Transform: &Transform{Scale: &scale, Min: &min},
		Enabled:   true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := repo.SaveConnection(ctx, conn); err != nil {
		t.Fatalf("SaveConnection() error: %v", err)
	}

	conns, err := repo.LoadConnections(ctx)
	if err != nil {
		t.Fatalf("LoadConnections() error: %v", err)
	}
	tr := conns[0].Transform
	if tr == nil || *tr.Scale != -1.0 || *tr.Min != 0.0 || tr.Invert {
		t.Errorf("transform = %+v", tr)
	}
}

func TestRepositoryDeleteConnection(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	now := time.Now().UTC()
	conn := Connection{
		ID:        "c1",
		Source:    Endpoint{DeviceID: "a", Port: "out"},
		Target:    Endpoint{DeviceID: "b", Port: "in"},
		Enabled:   true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := repo.SaveConnection(ctx, conn); err != nil {
		t.Fatalf("SaveConnection() error: %v", err)
	}

	if err := repo.DeleteConnection(ctx, "c1"); err != nil {
		t.Fatalf("DeleteConnection() error: %v", err)
	}
	// Deleting a missing row is not an error.
	if err := repo.DeleteConnection(ctx, "c1"); err != nil {
		t.Fatalf("second DeleteConnection() error: %v", err)
	}

	conns, err := repo.LoadConnections(ctx)
	if err != nil {
		t.Fatalf("LoadConnections() error: %v", err)
	}
	if len(conns) != 0 {
		t.Errorf("connections = %d, want 0", len(conns))
	}
}

func TestMatrixLoadFromRepository(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	m := NewMatrix(repo)
	created, err := m.Connect(
		Endpoint{DeviceID: "a", Port: "out"},
		Endpoint{DeviceID: "b", Port: "in"},
		nil, true, "persisted")
	if err != nil {
		t.Fatalf("Connect() error: %v", err)
	}

	// A fresh matrix over the same repository sees the connection.
	reloaded := NewMatrix(repo)
	if err := reloaded.Load(ctx); err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	got, ok := reloaded.Get(created.ID)
	if !ok {
		t.Fatal("persisted connection missing after reload")
	}
	if got.Description != "persisted" || !got.Enabled {
		t.Errorf("reloaded = %+v", got)
	}
}

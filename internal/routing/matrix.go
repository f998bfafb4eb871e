package routing

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Hampterlab/hampter-bridge/internal/directory"
)

// Logger defines the logging interface used by the routing package.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Repository persists routing connections across bridge restarts.
// Implementations must be safe for concurrent use.
type Repository interface {
	LoadConnections(ctx context.Context) ([]Connection, error)
	SaveConnection(ctx context.Context, c Connection) error
	DeleteConnection(ctx context.Context, id string) error
}

// PortDirectory is the directory projection the matrix view needs.
type PortDirectory interface {
	Outports() []directory.PortRef
	Inports() []directory.PortRef
}

// Matrix holds the user-defined port connections.
//
// Management callers mutate it; routing workers read it on every port
// value. Each logical operation is one atomic step under the matrix
// mutex, and persistence I/O happens after the lock is released — a
// failed write is logged and in-memory state stays authoritative.
type Matrix struct {
	mu    sync.RWMutex
	conns map[string]*Connection

	repo   Repository // optional; nil disables persistence
	logger Logger
}

// NewMatrix creates a routing matrix. repo may be nil for a purely
// in-memory matrix.
func NewMatrix(repo Repository) *Matrix {
	return &Matrix{
		conns:  make(map[string]*Connection),
		repo:   repo,
		logger: noopLogger{},
	}
}

// SetLogger sets the logger for the matrix.
func (m *Matrix) SetLogger(logger Logger) {
	m.logger = logger
}

// Load warms the matrix from the repository.
func (m *Matrix) Load(ctx context.Context) error {
	if m.repo == nil {
		return nil
	}
	conns, err := m.repo.LoadConnections(ctx)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.conns = make(map[string]*Connection, len(conns))
	for i := range conns {
		c := conns[i]
		m.conns[c.ID] = &c
	}
	m.logger.Info("routing matrix loaded", "connections", len(conns))
	return nil
}

// Connect creates a connection from source to target.
//
// Endpoints must be well-formed device:port references; a zero-value
// transform is stored as none. Multiple connections may share the same
// endpoint pair.
func (m *Matrix) Connect(source, target Endpoint, transform *Transform, enabled bool, description string) (Connection, error) {
	if err := source.Validate(); err != nil {
		return Connection{}, err
	}
	if err := target.Validate(); err != nil {
		return Connection{}, err
	}
	if transform.IsZero() {
		transform = nil
	}

	now := time.Now().UTC()
	conn := Connection{
		ID:          uuid.NewString(),
		Source:      source,
		Target:      target,
		Transform:   transform,
		Enabled:     enabled,
		Description: description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	m.mu.Lock()
	m.conns[conn.ID] = &conn
	snapshot := conn
	m.mu.Unlock()

	m.persist(snapshot)
	m.logger.Info("connection created",
		"id", conn.ID, "source", source.String(), "target", target.String(), "enabled", enabled)
	return snapshot, nil
}

// Disconnect removes every connection matching the ordered endpoint
// pair. It reports whether anything was removed.
func (m *Matrix) Disconnect(source, target Endpoint) bool {
	m.mu.Lock()
	var removed []string
	for id, c := range m.conns {
		if c.Source == source && c.Target == target {
			delete(m.conns, id)
			removed = append(removed, id)
		}
	}
	m.mu.Unlock()

	for _, id := range removed {
		m.unpersist(id)
	}
	if len(removed) > 0 {
		m.logger.Info("connections removed",
			"source", source.String(), "target", target.String(), "count", len(removed))
	}
	return len(removed) > 0
}

// DisconnectByID removes one connection by id, regardless of how many
// connections share its endpoints.
func (m *Matrix) DisconnectByID(id string) bool {
	m.mu.Lock()
	_, ok := m.conns[id]
	if ok {
		delete(m.conns, id)
	}
	m.mu.Unlock()

	if ok {
		m.unpersist(id)
		m.logger.Info("connection removed", "id", id)
	}
	return ok
}

// UpdateConnection applies a partial update to a connection.
// The second return is false when the id is unknown.
func (m *Matrix) UpdateConnection(id string, update ConnectionUpdate) (Connection, bool) {
	m.mu.Lock()
	c, ok := m.conns[id]
	if !ok {
		m.mu.Unlock()
		return Connection{}, false
	}
	if update.Transform != nil {
		if update.Transform.IsZero() {
			c.Transform = nil
		} else {
			t := *update.Transform
			c.Transform = &t
		}
	}
	if update.Enabled != nil {
		c.Enabled = *update.Enabled
	}
	if update.Description != nil {
		c.Description = *update.Description
	}
	c.UpdatedAt = time.Now().UTC()
	snapshot := *c
	m.mu.Unlock()

	m.persist(snapshot)
	return snapshot, true
}

// Get returns a connection by id.
func (m *Matrix) Get(id string) (Connection, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	c, ok := m.conns[id]
	if !ok {
		return Connection{}, false
	}
	return *c, true
}

// Connections returns all connections, sorted by creation time then id.
func (m *Matrix) Connections() []Connection {
	m.mu.RLock()
	conns := make([]Connection, 0, len(m.conns))
	for _, c := range m.conns {
		conns = append(conns, *c)
	}
	m.mu.RUnlock()

	sort.Slice(conns, func(i, j int) bool {
		if !conns[i].CreatedAt.Equal(conns[j].CreatedAt) {
			return conns[i].CreatedAt.Before(conns[j].CreatedAt)
		}
		return conns[i].ID < conns[j].ID
	})
	return conns
}

// ConnectionsFrom returns every enabled connection whose source matches.
// Called by routing workers on every port value.
func (m *Matrix) ConnectionsFrom(source Endpoint) []Connection {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var matched []Connection
	for _, c := range m.conns {
		if c.Enabled && c.Source == source {
			matched = append(matched, *c)
		}
	}
	return matched
}

// MatrixView is the presentation-shaped join of connections with live
// port metadata: the axes are the known outports and inports, the cells
// the configured connections.
type MatrixView struct {
	Outports    []directory.PortRef `json:"outports"`
	Inports     []directory.PortRef `json:"inports"`
	Connections []Connection        `json:"connections"`
}

// View builds the matrix view against the given port directory.
func (m *Matrix) View(ports PortDirectory) MatrixView {
	return MatrixView{
		Outports:    ports.Outports(),
		Inports:     ports.Inports(),
		Connections: m.Connections(),
	}
}

// persist writes a connection snapshot through the repository.
// Called outside the matrix lock.
func (m *Matrix) persist(c Connection) {
	if m.repo == nil {
		return
	}
	if err := m.repo.SaveConnection(context.Background(), c); err != nil {
		m.logger.Error("persisting connection failed", "id", c.ID, "error", err)
	}
}

// unpersist deletes a connection row. Called outside the matrix lock.
func (m *Matrix) unpersist(id string) {
	if m.repo == nil {
		return
	}
	if err := m.repo.DeleteConnection(context.Background(), id); err != nil {
		m.logger.Error("deleting connection failed", "id", id, "error", err)
	}
}

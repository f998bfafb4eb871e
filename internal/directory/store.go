package directory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// Logger defines the logging interface used by the Store.
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

// Repository persists directory state across bridge restarts.
// Implementations must be safe for concurrent use.
type Repository interface {
	LoadDevices(ctx context.Context) ([]Device, error)
	LoadSecrets(ctx context.Context) (map[string]string, error)
	UpsertDevice(ctx context.Context, d Device) error
	SaveSecret(ctx context.Context, deviceID, token string) error
}

// Store is the in-memory device directory.
//
// It holds announced devices, their per-device shared secrets, and their
// port metadata. The announce path keeps it current; the dispatcher and
// routing engine read from it on every command and every routed value.
//
// Each logical operation is a single atomic step under the store mutex.
// Persistence I/O always happens after the lock is released; a failed
// write is logged and the in-memory state stays authoritative.
type Store struct {
	mu      sync.RWMutex
	devices map[string]*Device
	secrets map[string]string
	ports   map[string][]Port

	repo   Repository // optional; nil disables persistence
	logger Logger
}

// NewStore creates a directory store. repo may be nil for a purely
// in-memory directory (tests, ephemeral deployments).
func NewStore(repo Repository) *Store {
	return &Store{
		devices: make(map[string]*Device),
		secrets: make(map[string]string),
		ports:   make(map[string][]Port),
		repo:    repo,
		logger:  noopLogger{},
	}
}

// SetLogger sets the logger for the store.
func (s *Store) SetLogger(logger Logger) {
	s.logger = logger
}

// Load warms the directory from the repository.
// Devices are restored as offline; they flip online on their next
// announce or status message.
func (s *Store) Load(ctx context.Context) error {
	if s.repo == nil {
		return nil
	}

	devices, err := s.repo.LoadDevices(ctx)
	if err != nil {
		return fmt.Errorf("loading devices: %w", err)
	}
	secrets, err := s.repo.LoadSecrets(ctx)
	if err != nil {
		return fmt.Errorf("loading secrets: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.devices = make(map[string]*Device, len(devices))
	for i := range devices {
		d := devices[i]
		d.Online = false
		s.devices[d.ID] = &d
	}
	s.secrets = secrets
	if s.secrets == nil {
		s.secrets = make(map[string]string)
	}

	s.logger.Info("directory loaded", "devices", len(devices), "secrets", len(secrets))
	return nil
}

// RecordAnnounce registers or refreshes a device from an announce message.
// The device is marked online and its last-seen transport recorded.
func (s *Store) RecordAnnounce(id string, protocol Protocol, name string, meta map[string]any) {
	now := time.Now().UTC()

	s.mu.Lock()
	d, ok := s.devices[id]
	if !ok {
		d = &Device{ID: id}
		s.devices[id] = d
	}
	d.Protocol = protocol
	d.Online = true
	d.LastSeen = now
	if name != "" {
		d.Name = name
	}
	if meta != nil {
		d.Meta = meta
	}
	snapshot := *d.DeepCopy()
	s.mu.Unlock()

	s.persistDevice(snapshot)
}

// RecordStatus updates a device's liveness from a status message.
// Status messages from devices the directory has never seen are ignored;
// an announce must come first.
func (s *Store) RecordStatus(id string, online bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.devices[id]
	if !ok {
		return
	}
	d.Online = online
	d.LastSeen = time.Now().UTC()
}

// Get returns a copy of the device entry for id.
func (s *Store) Get(id string) (Device, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d, ok := s.devices[id]
	if !ok {
		return Device{}, false
	}
	return *d.DeepCopy(), true
}

// List returns all known devices, sorted by ID.
func (s *Store) List() []Device {
	s.mu.RLock()
	defer s.mu.RUnlock()

	devices := make([]Device, 0, len(s.devices))
	for _, d := range s.devices {
		devices = append(devices, *d.DeepCopy())
	}
	sort.Slice(devices, func(i, j int) bool { return devices[i].ID < devices[j].ID })
	return devices
}

// Token returns the current shared secret for a device.
func (s *Store) Token(id string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	token, ok := s.secrets[id]
	return token, ok
}

// SetToken stores (or rotates) the shared secret for a device.
// The in-memory secret takes effect immediately; persistence is
// best-effort and logged on failure.
func (s *Store) SetToken(id, token string) {
	s.mu.Lock()
	s.secrets[id] = token
	s.mu.Unlock()

	if s.repo != nil {
		if err := s.repo.SaveSecret(context.Background(), id, token); err != nil {
			s.logger.Error("persisting device secret failed", "device_id", id, "error", err)
		}
	}
}

// SetPorts replaces the port metadata for a device from a port-announce.
func (s *Store) SetPorts(id string, ports []Port) {
	cloned := make([]Port, len(ports))
	copy(cloned, ports)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.ports[id] = cloned
}

// Ports returns the known port metadata for a device.
func (s *Store) Ports(id string) ([]Port, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ports, ok := s.ports[id]
	if !ok {
		return nil, false
	}
	out := make([]Port, len(ports))
	copy(out, ports)
	return out, true
}

// Outports returns every known outport across all devices, sorted.
func (s *Store) Outports() []PortRef {
	return s.portRefs(PortOut)
}

// Inports returns every known inport across all devices, sorted.
func (s *Store) Inports() []PortRef {
	return s.portRefs(PortIn)
}

func (s *Store) portRefs(dir PortDirection) []PortRef {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var refs []PortRef
	for deviceID, ports := range s.ports {
		for _, p := range ports {
			if p.Direction == dir {
				refs = append(refs, PortRef{DeviceID: deviceID, Port: p.Name})
			}
		}
	}
	sort.Slice(refs, func(i, j int) bool {
		if refs[i].DeviceID != refs[j].DeviceID {
			return refs[i].DeviceID < refs[j].DeviceID
		}
		return refs[i].Port < refs[j].Port
	})
	return refs
}

// persistDevice writes a device snapshot through the repository.
// Called outside the store lock.
func (s *Store) persistDevice(d Device) {
	if s.repo == nil {
		return
	}
	if err := s.repo.UpsertDevice(context.Background(), d); err != nil {
		s.logger.Error("persisting device failed", "device_id", d.ID, "error", err)
	}
}

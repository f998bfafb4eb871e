package directory

import (
	"context"
	"sync"
	"testing"
)

// mockRepository is a test implementation of Repository.
type mockRepository struct {
	mu      sync.Mutex
	devices map[string]Device
	secrets map[string]string
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		devices: make(map[string]Device),
		secrets: make(map[string]string),
	}
}

func (m *mockRepository) LoadDevices(_ context.Context) ([]Device, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	devices := make([]Device, 0, len(m.devices))
	for _, d := range m.devices {
		devices = append(devices, d)
	}
	return devices, nil
}

func (m *mockRepository) LoadSecrets(_ context.Context) (map[string]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	secrets := make(map[string]string, len(m.secrets))
	for k, v := range m.secrets {
		secrets[k] = v
	}
	return secrets, nil
}

func (m *mockRepository) UpsertDevice(_ context.Context, d Device) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.devices[d.ID] = d
	return nil
}

func (m *mockRepository) SaveSecret(_ context.Context, deviceID, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.secrets[deviceID] = token
	return nil
}

func TestRecordAnnounceCreatesDevice(t *testing.T) {
	s := NewStore(nil)

	s.RecordAnnounce("d1", ProtocolMQTT, "Sensor One", map[string]any{"fw": "1.2"})

	d, ok := s.Get("d1")
	if !ok {
		t.Fatal("Get(d1) not found after announce")
	}
	if !d.Online {
		t.Error("announced device should be online")
	}
	if d.Protocol != ProtocolMQTT {
		t.Errorf("protocol = %q, want mqtt", d.Protocol)
	}
	if d.Name != "Sensor One" {
		t.Errorf("name = %q, want Sensor One", d.Name)
	}
	if d.Meta["fw"] != "1.2" {
		t.Errorf("meta fw = %v, want 1.2", d.Meta["fw"])
	}
}

func TestRecordAnnounceUpdatesProtocol(t *testing.T) {
	s := NewStore(nil)

	s.RecordAnnounce("d1", ProtocolMQTT, "", nil)
	s.RecordAnnounce("d1", ProtocolIPC, "", nil)

	d, _ := s.Get("d1")
	if d.Protocol != ProtocolIPC {
		t.Errorf("protocol = %q, want ipc (last seen wins)", d.Protocol)
	}
}

func TestRecordStatusIgnoresUnknownDevice(t *testing.T) {
	s := NewStore(nil)

	s.RecordStatus("ghost", true)

	if _, ok := s.Get("ghost"); ok {
		t.Error("status must not create directory entries")
	}
}

func TestGetReturnsCopy(t *testing.T) {
	s := NewStore(nil)
	s.RecordAnnounce("d1", ProtocolMQTT, "", map[string]any{"k": "v"})

	d, _ := s.Get("d1")
	d.Meta["k"] = "mutated"

	again, _ := s.Get("d1")
	if again.Meta["k"] != "v" {
		t.Error("external mutation leaked into the store")
	}
}

func TestTokenLifecycle(t *testing.T) {
	repo := newMockRepository()
	s := NewStore(repo)

	if _, ok := s.Token("d1"); ok {
		t.Fatal("Token() should miss before SetToken")
	}

	s.SetToken("d1", "secret-a")
	if tok, ok := s.Token("d1"); !ok || tok != "secret-a" {
		t.Fatalf("Token() = %q, %v; want secret-a, true", tok, ok)
	}

	// Rotation replaces the secret.
	s.SetToken("d1", "secret-b")
	if tok, _ := s.Token("d1"); tok != "secret-b" {
		t.Errorf("Token() after rotation = %q, want secret-b", tok)
	}
	if repo.secrets["d1"] != "secret-b" {
		t.Error("rotation not persisted")
	}
}

func TestLoadRestoresDevicesOffline(t *testing.T) {
	repo := newMockRepository()
	repo.devices["d1"] = Device{ID: "d1", Protocol: ProtocolMQTT, Online: true}
	repo.secrets["d1"] = "persisted-secret"

	s := NewStore(repo)
	if err := s.Load(context.Background()); err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	d, ok := s.Get("d1")
	if !ok {
		t.Fatal("device not restored")
	}
	if d.Online {
		t.Error("restored device must start offline")
	}
	if tok, _ := s.Token("d1"); tok != "persisted-secret" {
		t.Errorf("Token() = %q, want persisted-secret", tok)
	}
}

func TestPortRefs(t *testing.T) {
	s := NewStore(nil)
	s.SetPorts("b", []Port{
		{Name: "temp", Direction: PortOut},
		{Name: "setpoint", Direction: PortIn},
	})
	s.SetPorts("a", []Port{
		{Name: "level", Direction: PortOut},
	})

	out := s.Outports()
	if len(out) != 2 {
		t.Fatalf("Outports() len = %d, want 2", len(out))
	}
	// Sorted by device then port.
	if out[0] != (PortRef{DeviceID: "a", Port: "level"}) {
		t.Errorf("Outports()[0] = %+v", out[0])
	}
	if out[1] != (PortRef{DeviceID: "b", Port: "temp"}) {
		t.Errorf("Outports()[1] = %+v", out[1])
	}

	in := s.Inports()
	if len(in) != 1 || in[0] != (PortRef{DeviceID: "b", Port: "setpoint"}) {
		t.Errorf("Inports() = %+v", in)
	}
}

func TestStoreConcurrentAccess(t *testing.T) {
	s := NewStore(nil)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				s.RecordAnnounce("d1", ProtocolMQTT, "", nil)
				s.SetToken("d1", "tok")
				s.Get("d1")
				s.Token("d1")
				s.List()
			}
		}(i)
	}
	wg.Wait()

	if _, ok := s.Get("d1"); !ok {
		t.Error("device lost under concurrent access")
	}
}

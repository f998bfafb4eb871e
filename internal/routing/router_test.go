package routing

import (
	"errors"
	"sync"
	"testing"
	"time"
)

// mockWriter records routed port writes.
type mockWriter struct {
	mu     sync.Mutex
	err    error
	writes []portWrite
}

type portWrite struct {
	deviceID string
	port     string
	value    float64
}

func (m *mockWriter) WritePort(deviceID, port string, value float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.writes = append(m.writes, portWrite{deviceID, port, value})
	return nil
}

func (m *mockWriter) all() []portWrite {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]portWrite, len(m.writes))
	copy(out, m.writes)
	return out
}

func TestRouteIdentityDelivery(t *testing.T) {
	m := NewMatrix(nil)
	m.Connect(
		Endpoint{DeviceID: "a", Port: "out"},
		Endpoint{DeviceID: "b", Port: "in"},
		nil, true, "")

	w := &mockWriter{}
	r := NewRouter(m, w)

	if err := r.Route(Job{DeviceID: "a", Port: "out", Value: 3.5}); err != nil {
		t.Fatalf("Route() error: %v", err)
	}
	writes := w.all()
	if len(writes) != 1 {
		t.Fatalf("writes = %d, want 1", len(writes))
	}
	if writes[0] != (portWrite{"b", "in", 3.5}) {
		t.Errorf("write = %+v", writes[0])
	}
}

func TestRouteAppliesTransform(t *testing.T) {
	m := NewMatrix(nil)
	scale, offset := 2.0, 1.0
	m.Connect(
		Endpoint{DeviceID: "a", Port: "out"},
		Endpoint{DeviceID: "b", Port: "in"},
		&Transform{Scale: &scale, Offset: &offset}, true, "")

	w := &mockWriter{}
	r := NewRouter(m, w)

	r.Route(Job{DeviceID: "a", Port: "out", Value: 10})
	writes := w.all()
	if len(writes) != 1 || writes[0].value != 21 {
		t.Errorf("writes = %+v, want one write of 21", writes)
	}
}

func TestRouteDisabledConnectionSkipped(t *testing.T) {
	m := NewMatrix(nil)
	conn, _ := m.Connect(
		Endpoint{DeviceID: "a", Port: "out"},
		Endpoint{DeviceID: "b", Port: "in"},
		nil, true, "")
	enabled := false
	m.UpdateConnection(conn.ID, ConnectionUpdate{Enabled: &enabled})

	w := &mockWriter{}
	r := NewRouter(m, w)

	if err := r.Route(Job{DeviceID: "a", Port: "out", Value: 1}); err != nil {
		t.Fatalf("Route() error: %v", err)
	}
	if len(w.all()) != 0 {
		t.Error("disabled connection delivered")
	}
}

func TestRouteFansOut(t *testing.T) {
	m := NewMatrix(nil)
	src := Endpoint{DeviceID: "a", Port: "out"}
	m.Connect(src, Endpoint{DeviceID: "b", Port: "in"}, nil, true, "")
	m.Connect(src, Endpoint{DeviceID: "c", Port: "in"}, nil, true, "")

	w := &mockWriter{}
	r := NewRouter(m, w)

	r.Route(Job{DeviceID: "a", Port: "out", Value: 7})
	if len(w.all()) != 2 {
		t.Errorf("writes = %d, want fan-out to 2 targets", len(w.all()))
	}
}

func TestRouteDeliveryFailureIsReported(t *testing.T) {
	m := NewMatrix(nil)
	m.Connect(
		Endpoint{DeviceID: "a", Port: "out"},
		Endpoint{DeviceID: "b", Port: "in"},
		nil, true, "")

	w := &mockWriter{err: errors.New("device unreachable")}
	r := NewRouter(m, w)

	if err := r.Route(Job{DeviceID: "a", Port: "out", Value: 1}); err == nil {
		t.Error("Route() = nil, want delivery error")
	}
}

func TestRouteNoMatchIsNoop(t *testing.T) {
	r := NewRouter(NewMatrix(nil), nil)
	if err := r.Route(Job{DeviceID: "a", Port: "out", Value: 1}); err != nil {
		t.Errorf("Route() with no connections = %v, want nil", err)
	}
}

func TestDeletedConnectionNoLongerRoutes(t *testing.T) {
	m := NewMatrix(nil)
	src := Endpoint{DeviceID: "a", Port: "out"}
	dst := Endpoint{DeviceID: "b", Port: "in"}
	first, _ := m.Connect(src, dst, nil, true, "")
	m.Connect(src, dst, nil, true, "")

	w := &mockWriter{}
	r := NewRouter(m, w)

	m.DisconnectByID(first.ID)
	r.Route(Job{DeviceID: "a", Port: "out", Value: 1})

	// The surviving duplicate still routes, exactly once.
	if len(w.all()) != 1 {
		t.Errorf("writes = %d, want 1 from the surviving duplicate", len(w.all()))
	}
}

func TestAsyncRouterDeliversJobs(t *testing.T) {
	m := NewMatrix(nil)
	m.Connect(
		Endpoint{DeviceID: "a", Port: "out"},
		Endpoint{DeviceID: "b", Port: "in"},
		nil, true, "")

	w := &mockWriter{}
	a := NewAsyncRouter(NewRouter(m, w), 2, 16)
	a.Start()

	for i := 0; i < 10; i++ {
		if !a.Ingest(Job{DeviceID: "a", Port: "out", Value: float64(i), Timestamp: time.Now()}) {
			t.Fatalf("Ingest() dropped job %d with free capacity", i)
		}
	}
	a.Close()

	stats := a.Stats()
	if stats.Enqueued != 10 || stats.Processed != 10 || stats.Dropped != 0 {
		t.Errorf("stats = %+v", stats)
	}
	if len(w.all()) != 10 {
		t.Errorf("writes = %d, want 10", len(w.all()))
	}
}

func TestAsyncRouterDropsWhenFull(t *testing.T) {
	// No workers started: the queue only fills.
	a := NewAsyncRouter(NewRouter(NewMatrix(nil), nil), 1, 2)

	accepted := 0
	for i := 0; i < 5; i++ {
		if a.Ingest(Job{DeviceID: "a", Port: "out"}) {
			accepted++
		}
	}

	if accepted != 2 {
		t.Errorf("accepted = %d, want queue capacity of 2", accepted)
	}
	stats := a.Stats()
	if stats.Dropped != 3 {
		t.Errorf("dropped = %d, want 3", stats.Dropped)
	}
	if stats.QueueDepth != 2 {
		t.Errorf("queue depth = %d, want 2", stats.QueueDepth)
	}
}

func TestAsyncRouterFailureIsolated(t *testing.T) {
	m := NewMatrix(nil)
	m.Connect(
		Endpoint{DeviceID: "a", Port: "out"},
		Endpoint{DeviceID: "b", Port: "in"},
		nil, true, "")

	w := &mockWriter{err: errors.New("down")}
	a := NewAsyncRouter(NewRouter(m, w), 1, 16)
	a.Start()

	for i := 0; i < 3; i++ {
		a.Ingest(Job{DeviceID: "a", Port: "out", Value: 1})
	}
	a.Close()

	stats := a.Stats()
	if stats.Processed != 3 {
		t.Errorf("processed = %d, want 3 (failures must not kill workers)", stats.Processed)
	}
	if stats.Failed != 3 {
		t.Errorf("failed = %d, want 3", stats.Failed)
	}
}

func TestAsyncRouterIngestAfterClose(t *testing.T) {
	a := NewAsyncRouter(NewRouter(NewMatrix(nil), nil), 1, 4)
	a.Start()
	a.Close()

	if a.Ingest(Job{DeviceID: "a", Port: "out"}) {
		t.Error("Ingest() after Close() = true, want false")
	}
	a.Close() // second close is a no-op
}

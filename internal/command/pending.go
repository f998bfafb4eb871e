package command

import "sync"

// Table is the correlation table for in-flight command requests.
//
// Each registered request owns a single-slot rendezvous channel. The
// dispatcher blocks on that channel; the inbound classifier resolves it
// when a reply carrying the same request ID arrives. Delivery is
// best-effort and at-most-once: a resolve after timeout, or a second
// resolve for the same ID, is silently dropped.
//
// The remove-then-deliver sequence is atomic with respect to concurrent
// Unregister calls from the timeout path: whichever of {resolve,
// timeout} removes the entry first wins, and the loser's action becomes
// a no-op.
type Table struct {
	mu      sync.Mutex
	pending map[string]*pendingRequest
}

// pendingRequest is one in-flight request awaiting its reply.
type pendingRequest struct {
	// deviceID is the device the request was sent to. When non-empty,
	// only a resolve carrying a matching device ID (or none) may satisfy
	// the request — a reply claiming to answer request X must originate
	// from the device X was sent to.
	deviceID string

	// ch is the single-slot rendezvous. Buffered so the resolver never
	// blocks even if the waiter has already given up.
	ch chan map[string]any
}

// NewTable creates an empty correlation table.
func NewTable() *Table {
	return &Table{
		pending: make(map[string]*pendingRequest),
	}
}

// Register allocates a rendezvous channel for requestID.
//
// If deviceID is non-empty, resolves are bound to that device (see
// Resolve). Registering an ID that is already pending replaces the old
// entry; request IDs are random 128-bit tokens, so collisions indicate
// caller error rather than chance.
func (t *Table) Register(requestID, deviceID string) <-chan map[string]any {
	entry := &pendingRequest{
		deviceID: deviceID,
		ch:       make(chan map[string]any, 1),
	}

	t.mu.Lock()
	t.pending[requestID] = entry
	t.mu.Unlock()

	return entry.ch
}

// Unregister removes a pending request. Idempotent: removing an ID that
// was already resolved, timed out, or never registered is a no-op.
func (t *Table) Unregister(requestID string) {
	t.mu.Lock()
	delete(t.pending, requestID)
	t.mu.Unlock()
}

// Resolve delivers a reply payload to the waiter for requestID.
//
// If the entry is bound to a device and deviceID is non-empty but does
// not match, the resolve is ignored and the entry stays pending — a
// spoofed reply must not consume the slot. Otherwise the entry is
// removed and the payload pushed into its channel. Returns whether the
// payload was delivered.
func (t *Table) Resolve(requestID string, payload map[string]any, deviceID string) bool {
	t.mu.Lock()
	entry, ok := t.pending[requestID]
	if !ok {
		t.mu.Unlock()
		return false
	}
	if entry.deviceID != "" && deviceID != "" && entry.deviceID != deviceID {
		t.mu.Unlock()
		return false
	}
	delete(t.pending, requestID)
	t.mu.Unlock()

	// The channel has capacity one and the entry was just removed under
	// the lock, so this send never blocks. A full slot means a duplicate
	// delivery; drop it.
	select {
	case entry.ch <- payload:
		return true
	default:
		return false
	}
}

// Len returns the number of in-flight requests. Used by tests and the
// health endpoint.
func (t *Table) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.pending)
}

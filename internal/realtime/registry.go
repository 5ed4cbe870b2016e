package realtime

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/prasnshabrainerhub/pizza-ordering-system/internal/telemetry"
)

// Registry tracks connected websocket clients and fans events out to them.
// Broadcast never blocks on a slow client; events are dropped per client
// when its queue is full.
type Registry struct {
	metrics *telemetry.RealtimeMetrics

	mu      sync.RWMutex
	clients map[*Client]struct{}
	byUser  map[uuid.UUID]map[*Client]struct{}
	closed  bool
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithRealtimeMetrics attaches connection and delivery metrics.
func WithRealtimeMetrics(m *telemetry.RealtimeMetrics) RegistryOption {
	return func(r *Registry) {
		r.metrics = m
	}
}

// NewRegistry creates an empty client registry.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		clients: make(map[*Client]struct{}),
		byUser:  make(map[uuid.UUID]map[*Client]struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds a client and starts its write pump. It returns false when
// the registry has been closed, in which case the caller owns the connection.
func (r *Registry) Register(c *Client) bool {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return false
	}
	r.clients[c] = struct{}{}
	conns, ok := r.byUser[c.UserID]
	if !ok {
		conns = make(map[*Client]struct{})
		r.byUser[c.UserID] = conns
	}
	conns[c] = struct{}{}
	total := len(r.clients)
	r.mu.Unlock()

	c.onWriteError = func() { r.Unregister(c) }
	go c.writePump()
	r.metrics.RecordConnect(context.Background())
	slog.Info("Websocket client connected", "user_id", c.UserID, "connections", total)
	return true
}

// Unregister removes a client and stops its write pump. Calling it more than
// once, or with a client that was never registered, is a no-op.
func (r *Registry) Unregister(c *Client) {
	r.mu.Lock()
	if _, ok := r.clients[c]; !ok {
		r.mu.Unlock()
		return
	}
	delete(r.clients, c)
	if conns, ok := r.byUser[c.UserID]; ok {
		delete(conns, c)
		if len(conns) == 0 {
			delete(r.byUser, c.UserID)
		}
	}
	total := len(r.clients)
	r.mu.Unlock()

	c.close()
	r.metrics.RecordDisconnect(context.Background())
	slog.Info("Websocket client disconnected", "user_id", c.UserID, "connections", total)
}

// Broadcast serializes event once and enqueues it to every connected client.
// Clients whose queues are full lose the event.
func (r *Registry) Broadcast(event any) {
	msg, err := json.Marshal(event)
	if err != nil {
		slog.Error("Failed to serialize broadcast event", "error", err)
		return
	}

	r.mu.RLock()
	targets := make([]*Client, 0, len(r.clients))
	for c := range r.clients {
		targets = append(targets, c)
	}
	r.mu.RUnlock()

	r.deliver(targets, msg)
}

// SendToUser enqueues event to every connection belonging to userID.
func (r *Registry) SendToUser(userID uuid.UUID, event any) {
	msg, err := json.Marshal(event)
	if err != nil {
		slog.Error("Failed to serialize event", "user_id", userID, "error", err)
		return
	}

	r.mu.RLock()
	targets := make([]*Client, 0, len(r.byUser[userID]))
	for c := range r.byUser[userID] {
		targets = append(targets, c)
	}
	r.mu.RUnlock()

	r.deliver(targets, msg)
}

func (r *Registry) deliver(targets []*Client, msg []byte) {
	var delivered, dropped int64
	for _, c := range targets {
		if c.enqueue(msg) {
			delivered++
		} else {
			dropped++
			slog.Warn("Dropping event for slow websocket client", "user_id", c.UserID)
		}
	}
	r.metrics.RecordDelivered(context.Background(), delivered)
	r.metrics.RecordDropped(context.Background(), dropped)
}

// Len reports the number of connected clients.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clients)
}

// Close unregisters every client and rejects further registrations.
func (r *Registry) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	targets := make([]*Client, 0, len(r.clients))
	for c := range r.clients {
		targets = append(targets, c)
	}
	r.clients = make(map[*Client]struct{})
	r.byUser = make(map[uuid.UUID]map[*Client]struct{})
	r.mu.Unlock()

	for _, c := range targets {
		c.close()
		r.metrics.RecordDisconnect(context.Background())
	}
	slog.Info("Websocket registry closed", "connections_dropped", len(targets))
}

package tracking

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/prasnshabrainerhub/pizza-ordering-system/internal/telemetry"
)

// handle is the cancellation control for one in-flight sequencer.
type handle struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// Supervisor owns the set of in-flight sequencers and enforces at most one
// active sequencer per order. All methods are safe for concurrent use.
type Supervisor struct {
	sequencer *Sequencer
	metrics   *telemetry.TrackingMetrics

	mu     sync.Mutex
	active map[uuid.UUID]*handle
}

// SupervisorOption configures a Supervisor.
type SupervisorOption func(*Supervisor)

// WithSupervisorMetrics sets the tracking metrics. Nil disables them.
func WithSupervisorMetrics(m *telemetry.TrackingMetrics) SupervisorOption {
	return func(s *Supervisor) {
		s.metrics = m
	}
}

// NewSupervisor creates a supervisor running sequencers from seq.
func NewSupervisor(seq *Sequencer, opts ...SupervisorOption) *Supervisor {
	s := &Supervisor{
		sequencer: seq,
		active:    make(map[uuid.UUID]*handle),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start begins lifecycle tracking for the order. Repeated calls for an order
// that is already tracked are no-ops; tracking is idempotent. Start never
// blocks on the sequencer itself.
func (s *Supervisor) Start(orderID uuid.UUID) {
	s.mu.Lock()
	if _, exists := s.active[orderID]; exists {
		s.mu.Unlock()
		slog.Debug("Order already tracked, ignoring duplicate start", "order_id", orderID)
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	h := &handle{cancel: cancel, done: make(chan struct{})}
	s.active[orderID] = h
	s.mu.Unlock()

	s.metrics.RecordRunStarted(ctx)
	slog.Info("Started order tracking", "order_id", orderID)

	go s.run(ctx, orderID, h)
}

// run executes the sequencer and guarantees handle removal on every exit path.
func (s *Supervisor) run(ctx context.Context, orderID uuid.UUID, h *handle) {
	defer close(h.done)
	defer func() {
		s.mu.Lock()
		delete(s.active, orderID)
		s.mu.Unlock()
	}()

	err := s.sequencer.Run(ctx, orderID, 0)
	switch {
	case err == nil:
		s.metrics.RecordRunFinished(context.Background(), "completed")
	case errors.Is(err, context.Canceled):
		s.metrics.RecordRunFinished(context.Background(), "cancelled")
		slog.Info("Order tracking cancelled", "order_id", orderID)
	default:
		s.metrics.RecordRunFinished(context.Background(), "failed")
		slog.Error("Order tracking failed", "order_id", orderID, "error", err)
	}
}

// Stop cancels the order's sequencer, interrupting any pending inter-stage
// wait, and blocks until it has fully terminated. Calling Stop for an order
// that is not tracked is a no-op.
func (s *Supervisor) Stop(orderID uuid.UUID) {
	s.mu.Lock()
	h, ok := s.active[orderID]
	s.mu.Unlock()
	if !ok {
		return
	}

	h.cancel()
	<-h.done
}

// StopAll cancels every in-flight sequencer and waits for them to terminate.
// Used during graceful shutdown.
func (s *Supervisor) StopAll() {
	s.mu.Lock()
	handles := make([]*handle, 0, len(s.active))
	for _, h := range s.active {
		handles = append(handles, h)
	}
	s.mu.Unlock()

	for _, h := range handles {
		h.cancel()
	}
	for _, h := range handles {
		<-h.done
	}
}

// IsTracking reports whether the order currently has an active sequencer.
func (s *Supervisor) IsTracking(orderID uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.active[orderID]
	return ok
}

// ActiveCount returns the number of in-flight sequencers.
func (s *Supervisor) ActiveCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.active)
}

// Package tracking drives orders through their fixed status lifecycle and
// publishes every transition to connected clients.
//
// Each tracked order is owned by a single sequencer goroutine managed by the
// Supervisor, which guarantees at most one active sequencer per order.
package tracking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/prasnshabrainerhub/pizza-ordering-system/internal/models"
	"github.com/prasnshabrainerhub/pizza-ordering-system/internal/service"
	"github.com/prasnshabrainerhub/pizza-ordering-system/internal/telemetry"
)

// OrderStore is the slice of order persistence the sequencer needs.
// *postgres.OrderStore satisfies it.
type OrderStore interface {
	// GetOrder returns service.ErrOrderNotFound when the order is absent.
	GetOrder(ctx context.Context, id uuid.UUID) (*models.Order, error)

	// SetOrderStatus atomically updates an order's status and timestamp.
	SetOrderStatus(ctx context.Context, id uuid.UUID, status models.OrderStatus, updatedAt time.Time) error
}

// Broadcaster fans a status event out to connected clients. Delivery is
// best-effort; the sequencer never observes individual send failures.
type Broadcaster interface {
	Broadcast(event any)
}

// StatusEvent is the wire payload published on every status transition.
type StatusEvent struct {
	OrderID    string    `json:"order_id"`
	Status     string    `json:"status"`
	UpdateTime time.Time `json:"update_time"`
}

// Sequencer walks one order through the status sequence with a fixed delay
// between stages. It is stateless; a single Sequencer is shared by all runs.
type Sequencer struct {
	store        OrderStore
	broadcaster  Broadcaster
	interval     time.Duration
	storeTimeout time.Duration
	metrics      *telemetry.TrackingMetrics
}

// SequencerOption configures a Sequencer.
type SequencerOption func(*Sequencer)

// WithStoreTimeout bounds each persistence call. Default 10s.
func WithStoreTimeout(d time.Duration) SequencerOption {
	return func(s *Sequencer) {
		if d > 0 {
			s.storeTimeout = d
		}
	}
}

// WithSequencerMetrics sets the tracking metrics. Nil disables them.
func WithSequencerMetrics(m *telemetry.TrackingMetrics) SequencerOption {
	return func(s *Sequencer) {
		s.metrics = m
	}
}

// NewSequencer creates a sequencer that persists through store, publishes
// through broadcaster, and waits interval between stages.
func NewSequencer(store OrderStore, broadcaster Broadcaster, interval time.Duration, opts ...SequencerOption) *Sequencer {
	s := &Sequencer{
		store:        store,
		broadcaster:  broadcaster,
		interval:     interval,
		storeTimeout: 10 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run advances the order through the status sequence starting at startIndex
// until the terminal stage, cancellation, or a failure. It returns nil on
// normal termination, which includes the order disappearing mid-run, and an
// error only for persistence failures or cancellation.
func (s *Sequencer) Run(ctx context.Context, orderID uuid.UUID, startIndex int) error {
	if startIndex < 0 || startIndex >= len(models.StatusSequence) {
		return fmt.Errorf("start index %d out of range", startIndex)
	}

	for _, status := range models.StatusSequence[startIndex:] {
		if err := ctx.Err(); err != nil {
			return err
		}

		stageStart := time.Now()
		updatedAt, advanced, err := s.advance(ctx, orderID, status)
		if err != nil {
			return err
		}
		if !advanced {
			// Order was deleted or never existed. Normal exit.
			slog.Info("Order disappeared, stopping tracking", "order_id", orderID)
			return nil
		}
		s.metrics.RecordStageDuration(ctx, string(status), time.Since(stageStart))

		if s.broadcaster != nil {
			s.broadcaster.Broadcast(StatusEvent{
				OrderID:    orderID.String(),
				Status:     string(status),
				UpdateTime: updatedAt,
			})
		}

		if status.IsTerminal() {
			slog.Info("Order delivered", "order_id", orderID)
			return nil
		}

		// Cancellable inter-stage wait.
		timer := time.NewTimer(s.interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
	return nil
}

// advance persists one status transition. It returns the persisted timestamp
// so the broadcast event carries exactly what was stored, false when the
// order no longer exists, and an error only on persistence failure.
func (s *Sequencer) advance(ctx context.Context, orderID uuid.UUID, status models.OrderStatus) (time.Time, bool, error) {
	storeCtx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	if _, err := s.store.GetOrder(storeCtx, orderID); err != nil {
		if errors.Is(err, service.ErrOrderNotFound) {
			return time.Time{}, false, nil
		}
		return time.Time{}, false, fmt.Errorf("failed to fetch order %s: %w", orderID, err)
	}

	updatedAt := time.Now().UTC()
	if err := s.store.SetOrderStatus(storeCtx, orderID, status, updatedAt); err != nil {
		if errors.Is(err, service.ErrOrderNotFound) {
			return time.Time{}, false, nil
		}
		return time.Time{}, false, fmt.Errorf("failed to persist status %q for order %s: %w", status, orderID, err)
	}

	slog.Debug("Order status updated", "order_id", orderID, "status", status)
	return updatedAt, true, nil
}

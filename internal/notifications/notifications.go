// Package notifications sends order confirmations to customers. Delivery
// transports (SMTP, SMS gateways) are external collaborators; this package
// defines the boundary and a logging implementation used by default.
package notifications

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/prasnshabrainerhub/pizza-ordering-system/internal/models"
)

// Notifier delivers an order confirmation to the customer. Failures are
// logged by callers and never abort order placement.
type Notifier interface {
	OrderConfirmation(ctx context.Context, user *models.User, orderID uuid.UUID) error
}

// LogNotifier records confirmations to the structured log instead of
// delivering them. Used when no email/SMS transport is configured.
type LogNotifier struct{}

var _ Notifier = (*LogNotifier)(nil)

// NewLogNotifier creates a notifier that only logs.
func NewLogNotifier() *LogNotifier {
	return &LogNotifier{}
}

// OrderConfirmation logs the confirmation that would have been sent.
func (*LogNotifier) OrderConfirmation(_ context.Context, user *models.User, orderID uuid.UUID) error {
	slog.Info("Order confirmation",
		"order_id", orderID,
		"email", user.Email,
		"phone_number", user.PhoneNumber)
	return nil
}

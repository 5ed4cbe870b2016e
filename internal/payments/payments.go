// Package payments creates payment intents and verifies webhook callbacks
// through Stripe.
package payments

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/paymentintent"
	"github.com/stripe/stripe-go/v79/webhook"
)

// ErrInvalidSignature is returned when a webhook payload fails verification.
var ErrInvalidSignature = errors.New("invalid webhook signature")

// Intent is the client-facing result of creating a payment intent.
type Intent struct {
	ID           string `json:"payment_intent_id"`
	ClientSecret string `json:"client_secret"`
	Amount       int64  `json:"amount"`
	Currency     string `json:"currency"`
}

// Event is a verified webhook notification. OrderID is zero when the event
// carries no order metadata.
type Event struct {
	Type    string
	OrderID uuid.UUID
}

// EventPaymentSucceeded marks a completed payment.
const EventPaymentSucceeded = "payment_intent.succeeded"

// Provider creates intents and verifies webhook events.
type Provider interface {
	// CreateIntent opens a payment for the given order and amount in the
	// store currency. The order ID travels in the intent metadata so the
	// webhook can correlate the payment back to the order.
	CreateIntent(ctx context.Context, orderID uuid.UUID, amount float64) (*Intent, error)

	// VerifyEvent checks the webhook signature and decodes the event.
	VerifyEvent(payload []byte, signature string) (*Event, error)
}

// StripeProvider implements Provider against the Stripe API.
type StripeProvider struct {
	webhookSecret string
	currency      string
}

var _ Provider = (*StripeProvider)(nil)

// NewStripeProvider configures the Stripe client with the account's secret
// key. Webhook payloads are verified against webhookSecret.
func NewStripeProvider(secretKey, webhookSecret string) *StripeProvider {
	stripe.Key = secretKey
	return &StripeProvider{
		webhookSecret: webhookSecret,
		currency:      string(stripe.CurrencyUSD),
	}
}

func (p *StripeProvider) CreateIntent(ctx context.Context, orderID uuid.UUID, amount float64) (*Intent, error) {
	// Stripe amounts are integer minor units.
	cents := int64(math.Round(amount * 100))
	params := &stripe.PaymentIntentParams{
		Params:   stripe.Params{Context: ctx},
		Amount:   stripe.Int64(cents),
		Currency: stripe.String(p.currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.AddMetadata("order_id", orderID.String())

	intent, err := paymentintent.New(params)
	if err != nil {
		return nil, fmt.Errorf("failed to create payment intent: %w", err)
	}
	return &Intent{
		ID:           intent.ID,
		ClientSecret: intent.ClientSecret,
		Amount:       intent.Amount,
		Currency:     string(intent.Currency),
	}, nil
}

func (p *StripeProvider) VerifyEvent(payload []byte, signature string) (*Event, error) {
	event, err := webhook.ConstructEvent(payload, signature, p.webhookSecret)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSignature, err)
	}

	out := &Event{Type: string(event.Type)}
	var body struct {
		Metadata map[string]string `json:"metadata"`
	}
	if err := json.Unmarshal(event.Data.Raw, &body); err != nil {
		return nil, fmt.Errorf("failed to decode event payload: %w", err)
	}
	if raw, ok := body.Metadata["order_id"]; ok {
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("malformed order_id in event metadata: %w", err)
		}
		out.OrderID = id
	}
	return out, nil
}

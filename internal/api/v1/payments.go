package v1

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/prasnshabrainerhub/pizza-ordering-system/internal/auth"
	"github.com/prasnshabrainerhub/pizza-ordering-system/internal/models"
	"github.com/prasnshabrainerhub/pizza-ordering-system/internal/payments"
	"github.com/prasnshabrainerhub/pizza-ordering-system/internal/service"

	"github.com/google/uuid"
)

// maxWebhookBody bounds webhook payload reads.
const maxWebhookBody = 1 << 16

// CreateIntentRequest asks for a payment intent on an existing order.
type CreateIntentRequest struct {
	OrderID uuid.UUID `json:"order_id"`
}

// createPaymentIntent handles POST /api/v1/payments/intent
func (rr *Routes) createPaymentIntent(w http.ResponseWriter, r *http.Request) {
	identity := auth.IdentityFromContext(r.Context())
	if identity == nil {
		rr.writeErrorResponse(w, "authentication required", http.StatusUnauthorized)
		return
	}
	if rr.deps.Payments == nil {
		rr.writeErrorResponse(w, "payments are not configured", http.StatusNotImplemented)
		return
	}

	var req CreateIntentRequest
	if err := decodeJSON(r, &req); err != nil {
		rr.writeErrorResponse(w, "invalid request body", http.StatusBadRequest)
		return
	}

	order, err := rr.deps.Orders.GetOrder(r.Context(), req.OrderID)
	if err != nil {
		rr.writeServiceError(w, err)
		return
	}
	if order.UserID != identity.UserID {
		rr.writeErrorResponse(w, service.ErrOrderNotFound.Error(), http.StatusNotFound)
		return
	}
	if order.PaymentStatus == models.PaymentPaid {
		rr.writeErrorResponse(w, "order is already paid", http.StatusConflict)
		return
	}

	intent, err := rr.deps.Payments.CreateIntent(r.Context(), order.ID, order.TotalAmount)
	if err != nil {
		rr.writeServiceError(w, err)
		return
	}

	rr.writeJSONResponse(w, http.StatusCreated, intent)
}

// paymentWebhook handles POST /api/v1/payments/webhook
func (rr *Routes) paymentWebhook(w http.ResponseWriter, r *http.Request) {
	if rr.deps.Payments == nil {
		rr.writeErrorResponse(w, "payments are not configured", http.StatusNotImplemented)
		return
	}

	payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		rr.writeErrorResponse(w, "failed to read payload", http.StatusBadRequest)
		return
	}

	event, err := rr.deps.Payments.VerifyEvent(payload, r.Header.Get("Stripe-Signature"))
	if err != nil {
		if errors.Is(err, payments.ErrInvalidSignature) {
			rr.writeErrorResponse(w, "invalid signature", http.StatusBadRequest)
			return
		}
		rr.writeServiceError(w, err)
		return
	}

	if event.Type == payments.EventPaymentSucceeded && event.OrderID != uuid.Nil {
		err := rr.deps.PayStore.SetOrderPaymentStatus(r.Context(), event.OrderID, models.PaymentPaid)
		if err != nil && !errors.Is(err, service.ErrOrderNotFound) {
			rr.writeServiceError(w, err)
			return
		}
		if err == nil {
			slog.Info("Order payment confirmed", "order_id", event.OrderID)
		}
	}

	rr.writeJSONResponse(w, http.StatusOK, map[string]string{"status": "received"})
}

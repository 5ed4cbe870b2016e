// Package v1 provides the REST API handlers for the pizza ordering backend.
package v1

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/prasnshabrainerhub/pizza-ordering-system/internal/auth"
	"github.com/prasnshabrainerhub/pizza-ordering-system/internal/models"
	"github.com/prasnshabrainerhub/pizza-ordering-system/internal/payments"
	"github.com/prasnshabrainerhub/pizza-ordering-system/internal/service"
)

// OrderTracker starts lifecycle tracking for newly placed orders.
type OrderTracker interface {
	Start(orderID uuid.UUID)
}

// PaymentRecorder persists the outcome of payment webhook events.
type PaymentRecorder interface {
	SetOrderPaymentStatus(ctx context.Context, id uuid.UUID, status models.PaymentStatus) error
}

// Deps bundles everything the API handlers need.
type Deps struct {
	Users    service.UserStore
	Catalog  service.CatalogStore
	Coupons  service.CouponStore
	Orders   service.OrderStore
	Checkout *service.Orders
	Tokens   *auth.Tokens
	Tracker  OrderTracker
	Payments payments.Provider
	PayStore PaymentRecorder
}

// ErrorResponse represents a standardized error response
type ErrorResponse struct {
	Error string `json:"error"`
}

// Routes defines the routes for the pizza API with dependency injection
type Routes struct {
	deps Deps
}

// NewRoutes creates a new Routes instance with the provided dependencies
func NewRoutes(deps Deps) *Routes {
	return &Routes{deps: deps}
}

// Router creates a new router for the pizza ordering API
func Router(deps Deps) http.Handler {
	routes := NewRoutes(deps)
	requireAuth := auth.Middleware(deps.Tokens)

	r := chi.NewRouter()

	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", routes.register)
		r.Post("/login", routes.login)
		r.Post("/refresh", routes.refresh)
	})

	r.Route("/pizzas", func(r chi.Router) {
		r.Get("/", routes.listPizzas)
		r.Get("/{id}", routes.getPizza)

		r.Group(func(r chi.Router) {
			r.Use(requireAuth, auth.RequireAdmin)
			r.Post("/", routes.createPizza)
			r.Put("/{id}", routes.updatePizza)
			r.Delete("/{id}", routes.deletePizza)
		})
	})

	r.Route("/toppings", func(r chi.Router) {
		r.Get("/", routes.listToppings)

		r.Group(func(r chi.Router) {
			r.Use(requireAuth, auth.RequireAdmin)
			r.Post("/", routes.createTopping)
			r.Put("/{id}", routes.updateTopping)
			r.Delete("/{id}", routes.deleteTopping)
		})
	})

	r.Route("/coupons", func(r chi.Router) {
		r.With(requireAuth).Post("/validate", routes.validateCoupon)

		r.Group(func(r chi.Router) {
			r.Use(requireAuth, auth.RequireAdmin)
			r.Get("/", routes.listCoupons)
			r.Post("/", routes.createCoupon)
		})
	})

	r.Route("/orders", func(r chi.Router) {
		r.Use(requireAuth)
		r.Post("/", routes.createOrder)
		r.Get("/", routes.listOwnOrders)
		r.With(auth.RequireAdmin).Get("/history", routes.listAllOrders)
		r.Get("/{id}", routes.getOrder)
	})

	r.Route("/payments", func(r chi.Router) {
		r.With(requireAuth).Post("/intent", routes.createPaymentIntent)
		r.Post("/webhook", routes.paymentWebhook)
	})

	return r
}

// writeJSONResponse writes a JSON response with the given data
func (*Routes) writeJSONResponse(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Failed to encode JSON response", "error", err)
	}
}

// writeErrorResponse writes a standardized error response
func (*Routes) writeErrorResponse(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(ErrorResponse{Error: message}); err != nil {
		slog.Error("Failed to encode error response", "error", err)
	}
}

// decodeJSON parses the request body into dst, rejecting unknown fields.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

// writeServiceError maps domain errors onto HTTP status codes.
func (rr *Routes) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidOrder),
		errors.Is(err, service.ErrCouponMinOrder):
		rr.writeErrorResponse(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, service.ErrUserNotFound),
		errors.Is(err, service.ErrPizzaNotFound),
		errors.Is(err, service.ErrToppingNotFound),
		errors.Is(err, service.ErrOrderNotFound),
		errors.Is(err, service.ErrCouponNotFound):
		rr.writeErrorResponse(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, service.ErrEmailTaken),
		errors.Is(err, service.ErrCouponAlreadyUsed),
		errors.Is(err, service.ErrCouponUsageLimit):
		rr.writeErrorResponse(w, err.Error(), http.StatusConflict)
	default:
		slog.Error("Request failed", "error", err)
		rr.writeErrorResponse(w, "internal server error", http.StatusInternalServerError)
	}
}

// urlUUID parses the {id} URL parameter.
func urlUUID(r *http.Request) (uuid.UUID, error) {
	return uuid.Parse(chi.URLParam(r, "id"))
}

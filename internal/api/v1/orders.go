package v1

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/prasnshabrainerhub/pizza-ordering-system/internal/auth"
	"github.com/prasnshabrainerhub/pizza-ordering-system/internal/models"
	"github.com/prasnshabrainerhub/pizza-ordering-system/internal/service"
)

// OrderItemRequest is one requested line of a new order.
type OrderItemRequest struct {
	PizzaID        uuid.UUID            `json:"pizza_id"`
	Quantity       int                  `json:"quantity"`
	Size           models.PizzaSizeName `json:"size"`
	CustomToppings []uuid.UUID          `json:"custom_toppings,omitempty"`
}

// CreateOrderRequest is the payload for placing an order.
type CreateOrderRequest struct {
	Items           []OrderItemRequest `json:"items"`
	CouponCode      string             `json:"coupon_code,omitempty"`
	DeliveryAddress string             `json:"delivery_address"`
	ContactNumber   string             `json:"contact_number"`
	Notes           string             `json:"notes,omitempty"`
}

// ListOrdersResponse represents an order list response
type ListOrdersResponse struct {
	Orders []models.Order `json:"orders"`
	Total  int            `json:"total"`
}

// createOrder handles POST /api/v1/orders
func (rr *Routes) createOrder(w http.ResponseWriter, r *http.Request) {
	identity := auth.IdentityFromContext(r.Context())
	if identity == nil {
		rr.writeErrorResponse(w, "authentication required", http.StatusUnauthorized)
		return
	}

	var req CreateOrderRequest
	if err := decodeJSON(r, &req); err != nil {
		rr.writeErrorResponse(w, "invalid request body", http.StatusBadRequest)
		return
	}

	svcReq := &service.OrderRequest{
		CouponCode:      req.CouponCode,
		DeliveryAddress: req.DeliveryAddress,
		ContactNumber:   req.ContactNumber,
		Notes:           req.Notes,
	}
	for _, item := range req.Items {
		svcReq.Items = append(svcReq.Items, service.OrderItemRequest{
			PizzaID:        item.PizzaID,
			Quantity:       item.Quantity,
			Size:           item.Size,
			CustomToppings: item.CustomToppings,
		})
	}

	order, err := rr.deps.Checkout.PlaceOrder(r.Context(), identity.UserID, svcReq)
	if err != nil {
		rr.writeServiceError(w, err)
		return
	}

	rr.deps.Tracker.Start(order.ID)

	rr.writeJSONResponse(w, http.StatusCreated, order)
}

// listOwnOrders handles GET /api/v1/orders
func (rr *Routes) listOwnOrders(w http.ResponseWriter, r *http.Request) {
	identity := auth.IdentityFromContext(r.Context())
	if identity == nil {
		rr.writeErrorResponse(w, "authentication required", http.StatusUnauthorized)
		return
	}

	orders, err := rr.deps.Orders.ListUserOrders(r.Context(), identity.UserID)
	if err != nil {
		rr.writeServiceError(w, err)
		return
	}
	rr.writeJSONResponse(w, http.StatusOK, ListOrdersResponse{Orders: orders, Total: len(orders)})
}

// listAllOrders handles GET /api/v1/orders/history
func (rr *Routes) listAllOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := rr.deps.Orders.ListAllOrders(r.Context())
	if err != nil {
		rr.writeServiceError(w, err)
		return
	}
	rr.writeJSONResponse(w, http.StatusOK, ListOrdersResponse{Orders: orders, Total: len(orders)})
}

// getOrder handles GET /api/v1/orders/{id}
func (rr *Routes) getOrder(w http.ResponseWriter, r *http.Request) {
	identity := auth.IdentityFromContext(r.Context())
	if identity == nil {
		rr.writeErrorResponse(w, "authentication required", http.StatusUnauthorized)
		return
	}

	id, err := urlUUID(r)
	if err != nil {
		rr.writeErrorResponse(w, "invalid order id", http.StatusBadRequest)
		return
	}

	order, err := rr.deps.Orders.GetOrder(r.Context(), id)
	if err != nil {
		rr.writeServiceError(w, err)
		return
	}
	if order.UserID != identity.UserID && identity.Role != models.RoleAdmin {
		// Do not reveal whether the order exists.
		rr.writeErrorResponse(w, service.ErrOrderNotFound.Error(), http.StatusNotFound)
		return
	}

	rr.writeJSONResponse(w, http.StatusOK, order)
}

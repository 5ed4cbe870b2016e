package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/prasnshabrainerhub/pizza-ordering-system/internal/models"
	"github.com/prasnshabrainerhub/pizza-ordering-system/internal/notifications"
)

// ErrInvalidOrder is returned when an order request fails validation.
var ErrInvalidOrder = errors.New("invalid order")

// OrderItemRequest is one requested line of a new order.
type OrderItemRequest struct {
	PizzaID        uuid.UUID
	Quantity       int
	Size           models.PizzaSizeName
	CustomToppings []uuid.UUID
}

// OrderRequest carries everything needed to place an order.
type OrderRequest struct {
	Items           []OrderItemRequest
	CouponCode      string
	DeliveryAddress string
	ContactNumber   string
	Notes           string
}

// Orders prices and places orders, applying coupons and firing the
// confirmation notification.
type Orders struct {
	users    UserStore
	catalog  CatalogStore
	coupons  CouponStore
	orders   OrderStore
	notifier notifications.Notifier
}

// NewOrders creates the order placement service.
func NewOrders(
	users UserStore,
	catalog CatalogStore,
	coupons CouponStore,
	orders OrderStore,
	notifier notifications.Notifier,
) *Orders {
	return &Orders{
		users:    users,
		catalog:  catalog,
		coupons:  coupons,
		orders:   orders,
		notifier: notifier,
	}
}

// PlaceOrder prices the requested items, validates and applies the coupon if
// present, and persists the order atomically. The caller is responsible for
// starting lifecycle tracking afterwards.
func (o *Orders) PlaceOrder(ctx context.Context, userID uuid.UUID, req *OrderRequest) (*models.Order, error) {
	if len(req.Items) == 0 {
		return nil, fmt.Errorf("%w: order has no items", ErrInvalidOrder)
	}
	if req.ContactNumber == "" {
		return nil, fmt.Errorf("%w: contact number is required", ErrInvalidOrder)
	}
	if req.DeliveryAddress == "" {
		return nil, fmt.Errorf("%w: delivery address is required", ErrInvalidOrder)
	}

	var (
		total float64
		items []models.OrderItem
	)
	for _, item := range req.Items {
		if item.Quantity <= 0 {
			return nil, fmt.Errorf("%w: item quantity must be positive", ErrInvalidOrder)
		}
		price, err := o.priceItem(ctx, &item)
		if err != nil {
			return nil, err
		}
		total += price
		items = append(items, models.OrderItem{
			ID:             uuid.New(),
			PizzaID:        item.PizzaID,
			Quantity:       item.Quantity,
			Size:           item.Size,
			CustomToppings: item.CustomToppings,
			ItemPrice:      price,
		})
	}

	order := &models.Order{
		ID:              uuid.New(),
		UserID:          userID,
		Status:          models.StatusReceived,
		DeliveryAddress: req.DeliveryAddress,
		ContactNumber:   req.ContactNumber,
		Notes:           req.Notes,
		Items:           items,
	}

	var usage *models.CouponUsage
	if req.CouponCode != "" {
		coupon, discount, err := o.validateCoupon(ctx, req.CouponCode, userID, total)
		if err != nil {
			return nil, err
		}
		total -= discount
		order.CouponID = &coupon.ID
		order.DiscountAmount = discount
		usage = &models.CouponUsage{
			ID:             uuid.New(),
			CouponID:       coupon.ID,
			UserID:         userID,
			OrderID:        order.ID,
			DiscountAmount: discount,
		}
	}
	order.TotalAmount = total

	if err := o.orders.CreateOrder(ctx, order, usage); err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	o.notifyUser(ctx, userID, order.ID)

	return order, nil
}

// ValidateCoupon checks a coupon against the current rules for a user and
// order total, returning the discount it would grant.
func (o *Orders) ValidateCoupon(ctx context.Context, code string, userID uuid.UUID, orderTotal float64) (*models.Coupon, float64, error) {
	return o.validateCoupon(ctx, code, userID, orderTotal)
}

// priceItem computes the price of one order line: the size price (or the
// base price when the size has no entry) plus toppings, times quantity.
func (o *Orders) priceItem(ctx context.Context, item *OrderItemRequest) (float64, error) {
	pizza, err := o.catalog.GetPizza(ctx, item.PizzaID)
	if err != nil {
		return 0, err
	}

	unit := pizza.BasePrice
	for _, size := range pizza.Sizes {
		if size.Size == item.Size {
			unit = size.Price
			break
		}
	}

	for _, toppingID := range item.CustomToppings {
		topping, err := o.catalog.GetTopping(ctx, toppingID)
		if err != nil {
			return 0, err
		}
		unit += topping.Price
	}

	return unit * float64(item.Quantity), nil
}

func (o *Orders) validateCoupon(ctx context.Context, code string, userID uuid.UUID, orderTotal float64) (*models.Coupon, float64, error) {
	coupon, err := o.coupons.GetActiveCouponByCode(ctx, code)
	if err != nil {
		return nil, 0, err
	}

	used, err := o.coupons.HasUserUsedCoupon(ctx, coupon.ID, userID)
	if err != nil {
		return nil, 0, err
	}
	if used {
		return nil, 0, ErrCouponAlreadyUsed
	}

	if coupon.UsageLimit != nil && coupon.CurrentUsage >= *coupon.UsageLimit {
		return nil, 0, ErrCouponUsageLimit
	}
	if orderTotal < coupon.MinOrderValue {
		return nil, 0, ErrCouponMinOrder
	}

	return coupon, computeDiscount(coupon, orderTotal), nil
}

// computeDiscount applies the coupon's discount rule to the order total.
func computeDiscount(coupon *models.Coupon, orderTotal float64) float64 {
	if coupon.DiscountType == models.DiscountPercentage {
		discount := orderTotal * coupon.DiscountValue / 100
		if coupon.MaxDiscount != nil && discount > *coupon.MaxDiscount {
			discount = *coupon.MaxDiscount
		}
		return discount
	}
	if coupon.DiscountValue > orderTotal {
		return orderTotal
	}
	return coupon.DiscountValue
}

// notifyUser fires the order confirmation. Failures are logged only.
func (o *Orders) notifyUser(ctx context.Context, userID, orderID uuid.UUID) {
	if o.notifier == nil {
		return
	}
	user, err := o.users.GetUser(ctx, userID)
	if err != nil {
		slog.Warn("Failed to load user for order confirmation",
			"order_id", orderID, "error", err)
		return
	}
	notifyCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := o.notifier.OrderConfirmation(notifyCtx, user, orderID); err != nil {
		slog.Warn("Failed to send order confirmation",
			"order_id", orderID, "error", err)
	}
}

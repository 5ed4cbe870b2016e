// Package service defines the business-logic interfaces of the pizza
// ordering backend and their domain errors. Implementations live in the
// postgres subpackage.
package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/prasnshabrainerhub/pizza-ordering-system/internal/models"
)

var (
	// ErrUserNotFound is returned when a user lookup finds nothing.
	ErrUserNotFound = errors.New("user not found")
	// ErrEmailTaken is returned when registering with an email that already exists.
	ErrEmailTaken = errors.New("email is already registered")
	// ErrPizzaNotFound is returned when a pizza lookup finds nothing.
	ErrPizzaNotFound = errors.New("pizza not found")
	// ErrToppingNotFound is returned when a topping lookup finds nothing.
	ErrToppingNotFound = errors.New("topping not found")
	// ErrOrderNotFound is returned when an order lookup finds nothing.
	ErrOrderNotFound = errors.New("order not found")
	// ErrCouponNotFound is returned when a coupon code is unknown, inactive,
	// or outside its validity window.
	ErrCouponNotFound = errors.New("invalid or expired coupon")
	// ErrCouponAlreadyUsed is returned when a user redeems a coupon twice.
	ErrCouponAlreadyUsed = errors.New("coupon already used")
	// ErrCouponUsageLimit is returned when a coupon's global limit is reached.
	ErrCouponUsageLimit = errors.New("coupon usage limit reached")
	// ErrCouponMinOrder is returned when the order total is below the
	// coupon minimum.
	ErrCouponMinOrder = errors.New("order total below coupon minimum")
)

// UserStore persists registered users.
type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUser(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// CatalogStore persists pizzas, their sizes, and toppings.
type CatalogStore interface {
	ListPizzas(ctx context.Context) ([]models.Pizza, error)
	GetPizza(ctx context.Context, id uuid.UUID) (*models.Pizza, error)
	CreatePizza(ctx context.Context, pizza *models.Pizza) error
	UpdatePizza(ctx context.Context, pizza *models.Pizza) error
	DeletePizza(ctx context.Context, id uuid.UUID) error

	ListToppings(ctx context.Context) ([]models.Topping, error)
	GetTopping(ctx context.Context, id uuid.UUID) (*models.Topping, error)
	CreateTopping(ctx context.Context, topping *models.Topping) error
	UpdateTopping(ctx context.Context, topping *models.Topping) error
	DeleteTopping(ctx context.Context, id uuid.UUID) error
}

// CouponStore persists coupons and their redemptions.
type CouponStore interface {
	ListCoupons(ctx context.Context) ([]models.Coupon, error)
	CreateCoupon(ctx context.Context, coupon *models.Coupon) error

	// GetActiveCouponByCode returns a coupon only when it is active and
	// inside its validity window; otherwise ErrCouponNotFound.
	GetActiveCouponByCode(ctx context.Context, code string) (*models.Coupon, error)

	// HasUserUsedCoupon reports whether the user already redeemed the coupon.
	HasUserUsedCoupon(ctx context.Context, couponID, userID uuid.UUID) (bool, error)
}

// OrderStore persists orders. CreateOrder writes the order, its items, and
// any coupon usage atomically.
type OrderStore interface {
	CreateOrder(ctx context.Context, order *models.Order, usage *models.CouponUsage) error
	GetOrder(ctx context.Context, id uuid.UUID) (*models.Order, error)
	ListUserOrders(ctx context.Context, userID uuid.UUID) ([]models.Order, error)
	ListAllOrders(ctx context.Context) ([]models.Order, error)

	// SetOrderStatus atomically updates an order's status and timestamp.
	// Returns ErrOrderNotFound when the order no longer exists.
	SetOrderStatus(ctx context.Context, id uuid.UUID, status models.OrderStatus, updatedAt time.Time) error
}

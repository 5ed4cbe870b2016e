// Package models defines the domain types shared across the pizza ordering
// backend: users, the pizza catalog, orders, and coupons.
package models

import (
	"time"

	"github.com/google/uuid"
)

// UserRole controls access to administrative endpoints.
type UserRole string

const (
	// RoleAdmin grants access to catalog and coupon management plus order history.
	RoleAdmin UserRole = "admin"

	// RoleUser is the default role for registered customers.
	RoleUser UserRole = "user"
)

// User represents a registered customer or administrator.
type User struct {
	ID             uuid.UUID `json:"user_id"`
	Email          string    `json:"email"`
	Username       string    `json:"username"`
	HashedPassword string    `json:"-"`
	Role           UserRole  `json:"role"`
	PhoneNumber    string    `json:"phone_number,omitempty"`
	Address        string    `json:"address,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// PizzaCategory groups catalog entries for the storefront.
type PizzaCategory string

const (
	CategoryBuy1Get4     PizzaCategory = "buy1get4"
	CategoryVegPizza     PizzaCategory = "vegPizza"
	CategoryNonVeg       PizzaCategory = "nonVeg"
	CategoryClassicMania PizzaCategory = "classicMania"
	CategoryDrinks       PizzaCategory = "drinks"
)

// PizzaSizeName is one of the fixed size options a pizza can be ordered in.
type PizzaSizeName string

const (
	SizeSmall  PizzaSizeName = "small"
	SizeMedium PizzaSizeName = "medium"
	SizeLarge  PizzaSizeName = "large"
)

// PizzaSize is a per-size price entry for a pizza.
type PizzaSize struct {
	ID      uuid.UUID     `json:"size_id"`
	PizzaID uuid.UUID     `json:"-"`
	Size    PizzaSizeName `json:"size"`
	Price   float64       `json:"price"`
}

// Pizza is a catalog entry with its size and topping options.
type Pizza struct {
	ID          uuid.UUID     `json:"pizza_id"`
	Name        string        `json:"name"`
	Description string        `json:"description,omitempty"`
	BasePrice   float64       `json:"base_price"`
	ImageURL    string        `json:"image_url,omitempty"`
	Category    PizzaCategory `json:"category"`
	Sizes       []PizzaSize   `json:"sizes,omitempty"`
	Toppings    []Topping     `json:"toppings,omitempty"`
}

// Topping is an extra that can be added to a pizza for a price.
type Topping struct {
	ID           uuid.UUID `json:"topping_id"`
	Name         string    `json:"name"`
	Price        float64   `json:"price"`
	IsVegetarian bool      `json:"is_vegetarian"`
}

// PaymentStatus tracks whether an order has been paid for.
type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentPaid    PaymentStatus = "paid"
	PaymentFailed  PaymentStatus = "failed"
)

// Order is a placed order owned by a user. Status is advanced by the
// tracking supervisor after the order is created.
type Order struct {
	ID              uuid.UUID     `json:"order_id"`
	UserID          uuid.UUID     `json:"user_id"`
	TotalAmount     float64       `json:"total_amount"`
	Status          OrderStatus   `json:"status"`
	DeliveryAddress string        `json:"delivery_address"`
	ContactNumber   string        `json:"contact_number"`
	Notes           string        `json:"notes,omitempty"`
	CouponID        *uuid.UUID    `json:"coupon_id,omitempty"`
	DiscountAmount  float64       `json:"discount_amount,omitempty"`
	PaymentStatus   PaymentStatus `json:"payment_status"`
	Items           []OrderItem   `json:"items,omitempty"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}

// OrderItem is a single line of an order.
type OrderItem struct {
	ID             uuid.UUID     `json:"item_id"`
	OrderID        uuid.UUID     `json:"-"`
	PizzaID        uuid.UUID     `json:"pizza_id"`
	Quantity       int           `json:"quantity"`
	Size           PizzaSizeName `json:"size"`
	CustomToppings []uuid.UUID   `json:"custom_toppings,omitempty"`
	ItemPrice      float64       `json:"item_price"`
}

// DiscountType selects how a coupon's discount value is applied.
type DiscountType string

const (
	// DiscountPercentage applies DiscountValue as a percentage of the order
	// total, optionally capped by MaxDiscount.
	DiscountPercentage DiscountType = "percentage"

	// DiscountFixed subtracts DiscountValue directly, never below zero.
	DiscountFixed DiscountType = "fixed"
)

// Coupon is a discount code with a validity window and usage constraints.
type Coupon struct {
	ID            uuid.UUID    `json:"coupon_id"`
	Code          string       `json:"code"`
	DiscountType  DiscountType `json:"discount_type"`
	DiscountValue float64      `json:"discount_value"`
	Description   string       `json:"description,omitempty"`
	ValidFrom     time.Time    `json:"valid_from"`
	ValidUntil    time.Time    `json:"valid_until"`
	MinOrderValue float64      `json:"min_order_value"`
	MaxDiscount   *float64     `json:"max_discount,omitempty"`
	IsActive      bool         `json:"is_active"`
	UsageLimit    *int         `json:"usage_limit,omitempty"`
	CurrentUsage  int          `json:"current_usage"`
	CreatedAt     time.Time    `json:"created_at"`
}

// CouponUsage records a single redemption of a coupon by a user on an order.
type CouponUsage struct {
	ID             uuid.UUID `json:"usage_id"`
	CouponID       uuid.UUID `json:"coupon_id"`
	UserID         uuid.UUID `json:"user_id"`
	OrderID        uuid.UUID `json:"order_id"`
	DiscountAmount float64   `json:"discount_amount"`
	UsedAt         time.Time `json:"used_at"`
}

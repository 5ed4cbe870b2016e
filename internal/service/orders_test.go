package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prasnshabrainerhub/pizza-ordering-system/internal/models"
)

type stubCatalog struct {
	CatalogStore
	pizzas   map[uuid.UUID]*models.Pizza
	toppings map[uuid.UUID]*models.Topping
}

func (s *stubCatalog) GetPizza(_ context.Context, id uuid.UUID) (*models.Pizza, error) {
	if p, ok := s.pizzas[id]; ok {
		return p, nil
	}
	return nil, ErrPizzaNotFound
}

func (s *stubCatalog) GetTopping(_ context.Context, id uuid.UUID) (*models.Topping, error) {
	if t, ok := s.toppings[id]; ok {
		return t, nil
	}
	return nil, ErrToppingNotFound
}

type stubCoupons struct {
	CouponStore
	coupon *models.Coupon
	used   bool
}

func (s *stubCoupons) GetActiveCouponByCode(_ context.Context, code string) (*models.Coupon, error) {
	if s.coupon != nil && s.coupon.Code == code {
		return s.coupon, nil
	}
	return nil, ErrCouponNotFound
}

func (s *stubCoupons) HasUserUsedCoupon(_ context.Context, _, _ uuid.UUID) (bool, error) {
	return s.used, nil
}

type stubOrders struct {
	OrderStore
	created *models.Order
	usage   *models.CouponUsage
	err     error
}

func (s *stubOrders) CreateOrder(_ context.Context, order *models.Order, usage *models.CouponUsage) error {
	if s.err != nil {
		return s.err
	}
	s.created = order
	s.usage = usage
	return nil
}

type stubUsers struct {
	UserStore
	user *models.User
}

func (s *stubUsers) GetUser(_ context.Context, _ uuid.UUID) (*models.User, error) {
	if s.user == nil {
		return nil, ErrUserNotFound
	}
	return s.user, nil
}

func newOrderFixture() (*Orders, *stubOrders, *stubCoupons, uuid.UUID, uuid.UUID) {
	pizzaID := uuid.New()
	toppingID := uuid.New()

	catalog := &stubCatalog{
		pizzas: map[uuid.UUID]*models.Pizza{
			pizzaID: {
				ID:        pizzaID,
				Name:      "Margherita",
				BasePrice: 10,
				Sizes: []models.PizzaSize{
					{Size: models.SizeMedium, Price: 12},
					{Size: models.SizeLarge, Price: 15},
				},
			},
		},
		toppings: map[uuid.UUID]*models.Topping{
			toppingID: {ID: toppingID, Name: "olives", Price: 1.5},
		},
	}
	coupons := &stubCoupons{}
	orders := &stubOrders{}
	users := &stubUsers{user: &models.User{ID: uuid.New(), Email: "a@b.c"}}

	svc := NewOrders(users, catalog, coupons, orders, nil)
	return svc, orders, coupons, pizzaID, toppingID
}

func TestPlaceOrder_Pricing(t *testing.T) {
	t.Parallel()
	svc, orders, _, pizzaID, toppingID := newOrderFixture()

	order, err := svc.PlaceOrder(context.Background(), uuid.New(), &OrderRequest{
		Items: []OrderItemRequest{
			{PizzaID: pizzaID, Quantity: 2, Size: models.SizeLarge, CustomToppings: []uuid.UUID{toppingID}},
			{PizzaID: pizzaID, Quantity: 1, Size: models.SizeSmall},
		},
		DeliveryAddress: "1 Main St",
		ContactNumber:   "+100",
	})
	require.NoError(t, err)

	// Large with olives: (15 + 1.5) * 2 = 33; small has no size entry so
	// the base price applies: 10.
	assert.InDelta(t, 43, order.TotalAmount, 1e-9)
	assert.Equal(t, models.StatusReceived, order.Status)
	require.Len(t, order.Items, 2)
	assert.InDelta(t, 33, order.Items[0].ItemPrice, 1e-9)
	require.NotNil(t, orders.created)
	assert.Nil(t, orders.usage)
}

func TestPlaceOrder_Validation(t *testing.T) {
	t.Parallel()
	svc, _, _, pizzaID, _ := newOrderFixture()

	tests := []struct {
		name string
		req  *OrderRequest
	}{
		{name: "no_items", req: &OrderRequest{ContactNumber: "+1", DeliveryAddress: "x"}},
		{
			name: "missing_contact",
			req: &OrderRequest{
				Items:           []OrderItemRequest{{PizzaID: pizzaID, Quantity: 1, Size: models.SizeSmall}},
				DeliveryAddress: "x",
			},
		},
		{
			name: "zero_quantity",
			req: &OrderRequest{
				Items:           []OrderItemRequest{{PizzaID: pizzaID, Quantity: 0, Size: models.SizeSmall}},
				ContactNumber:   "+1",
				DeliveryAddress: "x",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := svc.PlaceOrder(context.Background(), uuid.New(), tt.req)
			assert.ErrorIs(t, err, ErrInvalidOrder)
		})
	}
}

func TestPlaceOrder_UnknownPizza(t *testing.T) {
	t.Parallel()
	svc, _, _, _, _ := newOrderFixture()

	_, err := svc.PlaceOrder(context.Background(), uuid.New(), &OrderRequest{
		Items:           []OrderItemRequest{{PizzaID: uuid.New(), Quantity: 1, Size: models.SizeSmall}},
		ContactNumber:   "+1",
		DeliveryAddress: "x",
	})
	assert.ErrorIs(t, err, ErrPizzaNotFound)
}

func TestPlaceOrder_CouponApplied(t *testing.T) {
	t.Parallel()
	svc, orders, coupons, pizzaID, _ := newOrderFixture()

	maxDiscount := 5.0
	coupons.coupon = &models.Coupon{
		ID:            uuid.New(),
		Code:          "SAVE50",
		DiscountType:  models.DiscountPercentage,
		DiscountValue: 50,
		MaxDiscount:   &maxDiscount,
		ValidFrom:     time.Now().Add(-time.Hour),
		ValidUntil:    time.Now().Add(time.Hour),
		IsActive:      true,
	}

	order, err := svc.PlaceOrder(context.Background(), uuid.New(), &OrderRequest{
		Items:           []OrderItemRequest{{PizzaID: pizzaID, Quantity: 1, Size: models.SizeLarge}},
		CouponCode:      "SAVE50",
		ContactNumber:   "+1",
		DeliveryAddress: "x",
	})
	require.NoError(t, err)

	// 50% of 15 is 7.5, capped at 5.
	assert.InDelta(t, 10, order.TotalAmount, 1e-9)
	assert.InDelta(t, 5, order.DiscountAmount, 1e-9)
	require.NotNil(t, orders.usage)
	assert.Equal(t, order.ID, orders.usage.OrderID)
}

func TestValidateCoupon_Errors(t *testing.T) {
	t.Parallel()

	newCoupon := func() *models.Coupon {
		return &models.Coupon{
			ID:            uuid.New(),
			Code:          "CODE5",
			DiscountType:  models.DiscountFixed,
			DiscountValue: 5,
			MinOrderValue: 20,
			IsActive:      true,
		}
	}

	tests := []struct {
		name    string
		mutate  func(*stubCoupons)
		total   float64
		wantErr error
	}{
		{name: "unknown_code", mutate: func(s *stubCoupons) { s.coupon = nil }, total: 50, wantErr: ErrCouponNotFound},
		{name: "already_used", mutate: func(s *stubCoupons) { s.used = true }, total: 50, wantErr: ErrCouponAlreadyUsed},
		{
			name: "usage_limit_reached",
			mutate: func(s *stubCoupons) {
				limit := 3
				s.coupon.UsageLimit = &limit
				s.coupon.CurrentUsage = 3
			},
			total:   50,
			wantErr: ErrCouponUsageLimit,
		},
		{name: "below_min_order", mutate: func(*stubCoupons) {}, total: 10, wantErr: ErrCouponMinOrder},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			svc, _, coupons, _, _ := newOrderFixture()
			coupons.coupon = newCoupon()
			tt.mutate(coupons)

			_, _, err := svc.ValidateCoupon(context.Background(), "CODE5", uuid.New(), tt.total)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestComputeDiscount_FixedNeverExceedsTotal(t *testing.T) {
	t.Parallel()
	coupon := &models.Coupon{DiscountType: models.DiscountFixed, DiscountValue: 30}
	assert.InDelta(t, 12, computeDiscount(coupon, 12), 1e-9)
}

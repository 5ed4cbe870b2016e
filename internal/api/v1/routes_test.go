package v1

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prasnshabrainerhub/pizza-ordering-system/internal/auth"
	"github.com/prasnshabrainerhub/pizza-ordering-system/internal/models"
	"github.com/prasnshabrainerhub/pizza-ordering-system/internal/payments"
	"github.com/prasnshabrainerhub/pizza-ordering-system/internal/service"
)

type stubUsers struct {
	byEmail map[string]*models.User
	byID    map[uuid.UUID]*models.User
}

func newStubUsers() *stubUsers {
	return &stubUsers{
		byEmail: make(map[string]*models.User),
		byID:    make(map[uuid.UUID]*models.User),
	}
}

func (s *stubUsers) CreateUser(_ context.Context, user *models.User) error {
	if _, exists := s.byEmail[user.Email]; exists {
		return service.ErrEmailTaken
	}
	user.ID = uuid.New()
	user.CreatedAt = time.Now()
	s.byEmail[user.Email] = user
	s.byID[user.ID] = user
	return nil
}

func (s *stubUsers) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	user, ok := s.byEmail[email]
	if !ok {
		return nil, service.ErrUserNotFound
	}
	return user, nil
}

func (s *stubUsers) GetUser(_ context.Context, id uuid.UUID) (*models.User, error) {
	user, ok := s.byID[id]
	if !ok {
		return nil, service.ErrUserNotFound
	}
	return user, nil
}

type stubCatalog struct {
	pizzas   map[uuid.UUID]*models.Pizza
	toppings map[uuid.UUID]*models.Topping
}

func newStubCatalog() *stubCatalog {
	return &stubCatalog{
		pizzas:   make(map[uuid.UUID]*models.Pizza),
		toppings: make(map[uuid.UUID]*models.Topping),
	}
}

func (s *stubCatalog) ListPizzas(context.Context) ([]models.Pizza, error) {
	var out []models.Pizza
	for _, p := range s.pizzas {
		out = append(out, *p)
	}
	return out, nil
}

func (s *stubCatalog) GetPizza(_ context.Context, id uuid.UUID) (*models.Pizza, error) {
	p, ok := s.pizzas[id]
	if !ok {
		return nil, service.ErrPizzaNotFound
	}
	return p, nil
}

func (s *stubCatalog) CreatePizza(_ context.Context, pizza *models.Pizza) error {
	pizza.ID = uuid.New()
	s.pizzas[pizza.ID] = pizza
	return nil
}

func (s *stubCatalog) UpdatePizza(_ context.Context, pizza *models.Pizza) error {
	if _, ok := s.pizzas[pizza.ID]; !ok {
		return service.ErrPizzaNotFound
	}
	s.pizzas[pizza.ID] = pizza
	return nil
}

func (s *stubCatalog) DeletePizza(_ context.Context, id uuid.UUID) error {
	if _, ok := s.pizzas[id]; !ok {
		return service.ErrPizzaNotFound
	}
	delete(s.pizzas, id)
	return nil
}

func (s *stubCatalog) ListToppings(context.Context) ([]models.Topping, error) {
	var out []models.Topping
	for _, t := range s.toppings {
		out = append(out, *t)
	}
	return out, nil
}

func (s *stubCatalog) GetTopping(_ context.Context, id uuid.UUID) (*models.Topping, error) {
	t, ok := s.toppings[id]
	if !ok {
		return nil, service.ErrToppingNotFound
	}
	return t, nil
}

func (s *stubCatalog) CreateTopping(_ context.Context, topping *models.Topping) error {
	topping.ID = uuid.New()
	s.toppings[topping.ID] = topping
	return nil
}

func (s *stubCatalog) UpdateTopping(_ context.Context, topping *models.Topping) error {
	if _, ok := s.toppings[topping.ID]; !ok {
		return service.ErrToppingNotFound
	}
	s.toppings[topping.ID] = topping
	return nil
}

func (s *stubCatalog) DeleteTopping(_ context.Context, id uuid.UUID) error {
	if _, ok := s.toppings[id]; !ok {
		return service.ErrToppingNotFound
	}
	delete(s.toppings, id)
	return nil
}

type stubCoupons struct {
	byCode map[string]*models.Coupon
	used   map[uuid.UUID]map[uuid.UUID]bool
}

func newStubCoupons() *stubCoupons {
	return &stubCoupons{
		byCode: make(map[string]*models.Coupon),
		used:   make(map[uuid.UUID]map[uuid.UUID]bool),
	}
}

func (s *stubCoupons) ListCoupons(context.Context) ([]models.Coupon, error) {
	var out []models.Coupon
	for _, c := range s.byCode {
		out = append(out, *c)
	}
	return out, nil
}

func (s *stubCoupons) CreateCoupon(_ context.Context, coupon *models.Coupon) error {
	coupon.ID = uuid.New()
	s.byCode[coupon.Code] = coupon
	return nil
}

func (s *stubCoupons) GetActiveCouponByCode(_ context.Context, code string) (*models.Coupon, error) {
	c, ok := s.byCode[code]
	if !ok || !c.IsActive {
		return nil, service.ErrCouponNotFound
	}
	return c, nil
}

func (s *stubCoupons) HasUserUsedCoupon(_ context.Context, couponID, userID uuid.UUID) (bool, error) {
	return s.used[couponID][userID], nil
}

type stubOrders struct {
	orders map[uuid.UUID]*models.Order
}

func newStubOrders() *stubOrders {
	return &stubOrders{orders: make(map[uuid.UUID]*models.Order)}
}

func (s *stubOrders) CreateOrder(_ context.Context, order *models.Order, _ *models.CouponUsage) error {
	order.CreatedAt = time.Now()
	order.UpdatedAt = order.CreatedAt
	s.orders[order.ID] = order
	return nil
}

func (s *stubOrders) GetOrder(_ context.Context, id uuid.UUID) (*models.Order, error) {
	order, ok := s.orders[id]
	if !ok {
		return nil, service.ErrOrderNotFound
	}
	return order, nil
}

func (s *stubOrders) ListUserOrders(_ context.Context, userID uuid.UUID) ([]models.Order, error) {
	var out []models.Order
	for _, o := range s.orders {
		if o.UserID == userID {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (s *stubOrders) ListAllOrders(context.Context) ([]models.Order, error) {
	var out []models.Order
	for _, o := range s.orders {
		out = append(out, *o)
	}
	return out, nil
}

func (s *stubOrders) SetOrderStatus(_ context.Context, id uuid.UUID, status models.OrderStatus, updatedAt time.Time) error {
	order, ok := s.orders[id]
	if !ok {
		return service.ErrOrderNotFound
	}
	order.Status = status
	order.UpdatedAt = updatedAt
	return nil
}

type stubTracker struct {
	started []uuid.UUID
}

func (s *stubTracker) Start(orderID uuid.UUID) {
	s.started = append(s.started, orderID)
}

type stubPayments struct {
	intent *payments.Intent
	event  *payments.Event
	err    error
}

func (s *stubPayments) CreateIntent(_ context.Context, _ uuid.UUID, _ float64) (*payments.Intent, error) {
	return s.intent, s.err
}

func (s *stubPayments) VerifyEvent([]byte, string) (*payments.Event, error) {
	return s.event, s.err
}

type stubPayStore struct {
	marked map[uuid.UUID]models.PaymentStatus
}

func (s *stubPayStore) SetOrderPaymentStatus(_ context.Context, id uuid.UUID, status models.PaymentStatus) error {
	if s.marked == nil {
		s.marked = make(map[uuid.UUID]models.PaymentStatus)
	}
	s.marked[id] = status
	return nil
}

type fixture struct {
	users    *stubUsers
	catalog  *stubCatalog
	coupons  *stubCoupons
	orders   *stubOrders
	tracker  *stubTracker
	payments *stubPayments
	payStore *stubPayStore
	tokens   *auth.Tokens
	handler  http.Handler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	tokens, err := auth.NewTokens("test-secret", time.Hour, 24*time.Hour)
	require.NoError(t, err)

	f := &fixture{
		users:    newStubUsers(),
		catalog:  newStubCatalog(),
		coupons:  newStubCoupons(),
		orders:   newStubOrders(),
		tracker:  &stubTracker{},
		payments: &stubPayments{},
		payStore: &stubPayStore{},
		tokens:   tokens,
	}
	checkout := service.NewOrders(f.users, f.catalog, f.coupons, f.orders, nil)
	f.handler = Router(Deps{
		Users:    f.users,
		Catalog:  f.catalog,
		Coupons:  f.coupons,
		Orders:   f.orders,
		Checkout: checkout,
		Tokens:   tokens,
		Tracker:  f.tracker,
		Payments: f.payments,
		PayStore: f.payStore,
	})
	return f
}

func (f *fixture) addUser(t *testing.T, role models.UserRole, password string) (*models.User, string) {
	t.Helper()
	hashed, err := auth.HashPassword(password)
	require.NoError(t, err)
	user := &models.User{
		Email:          fmt.Sprintf("%s@example.com", uuid.NewString()[:8]),
		Username:       uuid.NewString()[:8],
		HashedPassword: hashed,
		Role:           role,
	}
	require.NoError(t, f.users.CreateUser(context.Background(), user))
	token, err := f.tokens.IssueAccessToken(user.ID, role)
	require.NoError(t, err)
	return user, token
}

func (f *fixture) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestRegister(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/auth/register", "", RegisterRequest{
		Email:    "mario@example.com",
		Username: "mario",
		Password: "super-secret",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	user := decodeBody[models.User](t, rec)
	assert.NotEqual(t, uuid.Nil, user.ID)
	assert.Equal(t, models.RoleUser, user.Role)

	// Duplicate email conflicts.
	rec = f.do(t, http.MethodPost, "/auth/register", "", RegisterRequest{
		Email:    "mario@example.com",
		Username: "mario2",
		Password: "super-secret",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestRegister_Validation(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	tests := []struct {
		name string
		req  RegisterRequest
	}{
		{"missing email", RegisterRequest{Username: "x", Password: "long-enough"}},
		{"missing username", RegisterRequest{Email: "a@b.c", Password: "long-enough"}},
		{"short password", RegisterRequest{Email: "a@b.c", Username: "x", Password: "short"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := f.do(t, http.MethodPost, "/auth/register", "", tt.req)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestLogin(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	user, _ := f.addUser(t, models.RoleUser, "correct-horse")

	rec := f.do(t, http.MethodPost, "/auth/login", "", LoginRequest{
		Email:    user.Email,
		Password: "correct-horse",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeBody[TokenResponse](t, rec)
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.Equal(t, "bearer", resp.TokenType)

	identity, err := f.tokens.Verify(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, identity.UserID)
}

func TestLogin_BadCredentials(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	user, _ := f.addUser(t, models.RoleUser, "correct-horse")

	rec := f.do(t, http.MethodPost, "/auth/login", "", LoginRequest{
		Email:    user.Email,
		Password: "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = f.do(t, http.MethodPost, "/auth/login", "", LoginRequest{
		Email:    "nobody@example.com",
		Password: "whatever",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRefresh(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	user, _ := f.addUser(t, models.RoleAdmin, "correct-horse")

	refresh, err := f.tokens.IssueRefreshToken(user.ID)
	require.NoError(t, err)

	rec := f.do(t, http.MethodPost, "/auth/refresh", "", RefreshRequest{RefreshToken: refresh})
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeBody[TokenResponse](t, rec)

	// The refreshed access token carries the user's current role.
	identity, err := f.tokens.Verify(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, identity.Role)
}

func TestPizzaCRUDRequiresAdmin(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	_, userToken := f.addUser(t, models.RoleUser, "pw-user-123")
	_, adminToken := f.addUser(t, models.RoleAdmin, "pw-admin-123")

	pizza := models.Pizza{Name: "Margherita", BasePrice: 9.5, Category: models.CategoryVegPizza}

	rec := f.do(t, http.MethodPost, "/pizzas", "", pizza)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = f.do(t, http.MethodPost, "/pizzas", userToken, pizza)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = f.do(t, http.MethodPost, "/pizzas", adminToken, pizza)
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decodeBody[models.Pizza](t, rec)
	assert.NotEqual(t, uuid.Nil, created.ID)

	// The catalog is publicly readable.
	rec = f.do(t, http.MethodGet, "/pizzas", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decodeBody[ListPizzasResponse](t, rec)
	assert.Equal(t, 1, list.Total)

	rec = f.do(t, http.MethodDelete, "/pizzas/"+created.ID.String(), adminToken, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = f.do(t, http.MethodGet, "/pizzas/"+created.ID.String(), "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateOrderStartsTracking(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	_, token := f.addUser(t, models.RoleUser, "pw-order-123")

	pizza := &models.Pizza{Name: "Diavola", BasePrice: 12}
	require.NoError(t, f.catalog.CreatePizza(context.Background(), pizza))

	rec := f.do(t, http.MethodPost, "/orders", token, CreateOrderRequest{
		Items:           []OrderItemRequest{{PizzaID: pizza.ID, Quantity: 2, Size: models.SizeMedium}},
		DeliveryAddress: "1 Main St",
		ContactNumber:   "555-0100",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	order := decodeBody[models.Order](t, rec)
	assert.Equal(t, models.StatusReceived, order.Status)
	assert.InDelta(t, 24.0, order.TotalAmount, 0.001)

	require.Len(t, f.tracker.started, 1)
	assert.Equal(t, order.ID, f.tracker.started[0])
}

func TestCreateOrder_InvalidRequest(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	_, token := f.addUser(t, models.RoleUser, "pw-order-123")

	rec := f.do(t, http.MethodPost, "/orders", token, CreateOrderRequest{
		DeliveryAddress: "1 Main St",
		ContactNumber:   "555-0100",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, f.tracker.started)
}

func TestGetOrder_OwnershipEnforced(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	owner, ownerToken := f.addUser(t, models.RoleUser, "pw-owner-123")
	_, otherToken := f.addUser(t, models.RoleUser, "pw-other-123")
	_, adminToken := f.addUser(t, models.RoleAdmin, "pw-admin-123")

	order := &models.Order{ID: uuid.New(), UserID: owner.ID, Status: models.StatusReceived}
	require.NoError(t, f.orders.CreateOrder(context.Background(), order, nil))

	rec := f.do(t, http.MethodGet, "/orders/"+order.ID.String(), ownerToken, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(t, http.MethodGet, "/orders/"+order.ID.String(), otherToken, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.do(t, http.MethodGet, "/orders/"+order.ID.String(), adminToken, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestOrderHistory_AdminOnly(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	_, userToken := f.addUser(t, models.RoleUser, "pw-user-123")
	_, adminToken := f.addUser(t, models.RoleAdmin, "pw-admin-123")

	rec := f.do(t, http.MethodGet, "/orders/history", userToken, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = f.do(t, http.MethodGet, "/orders/history", adminToken, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestValidateCoupon(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	_, token := f.addUser(t, models.RoleUser, "pw-coupon-123")

	require.NoError(t, f.coupons.CreateCoupon(context.Background(), &models.Coupon{
		Code:          "HALF",
		DiscountType:  models.DiscountPercentage,
		DiscountValue: 50,
		IsActive:      true,
	}))

	rec := f.do(t, http.MethodPost, "/coupons/validate", token, ValidateCouponRequest{
		Code:       "HALF",
		OrderTotal: 20,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeBody[ValidateCouponResponse](t, rec)
	assert.True(t, resp.Valid)
	assert.InDelta(t, 10.0, resp.DiscountAmount, 0.001)
	assert.InDelta(t, 10.0, resp.FinalTotal, 0.001)

	rec = f.do(t, http.MethodPost, "/coupons/validate", token, ValidateCouponRequest{
		Code:       "NOPE",
		OrderTotal: 20,
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreatePaymentIntent(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	user, token := f.addUser(t, models.RoleUser, "pw-pay-123")

	order := &models.Order{ID: uuid.New(), UserID: user.ID, TotalAmount: 24}
	require.NoError(t, f.orders.CreateOrder(context.Background(), order, nil))
	f.payments.intent = &payments.Intent{ID: "pi_123", ClientSecret: "secret", Amount: 2400, Currency: "usd"}

	rec := f.do(t, http.MethodPost, "/payments/intent", token, CreateIntentRequest{OrderID: order.ID})
	require.Equal(t, http.StatusCreated, rec.Code)
	intent := decodeBody[payments.Intent](t, rec)
	assert.Equal(t, "pi_123", intent.ID)

	// Someone else's order looks like it does not exist.
	_, otherToken := f.addUser(t, models.RoleUser, "pw-other-123")
	rec = f.do(t, http.MethodPost, "/payments/intent", otherToken, CreateIntentRequest{OrderID: order.ID})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPaymentWebhook_MarksOrderPaid(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	orderID := uuid.New()
	f.payments.event = &payments.Event{Type: payments.EventPaymentSucceeded, OrderID: orderID}

	rec := f.do(t, http.MethodPost, "/payments/webhook", "", map[string]string{"ignored": "payload"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.PaymentPaid, f.payStore.marked[orderID])
}

func TestPaymentWebhook_InvalidSignature(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.payments.err = fmt.Errorf("bad sig: %w", payments.ErrInvalidSignature)

	rec := f.do(t, http.MethodPost, "/payments/webhook", "", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, f.payStore.marked)
}

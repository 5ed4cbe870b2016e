package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/prasnshabrainerhub/pizza-ordering-system/internal/models"
	"github.com/prasnshabrainerhub/pizza-ordering-system/internal/service"
)

// CreateOrder writes the order, its items, and any coupon usage in one
// transaction. With a usage it also bumps the coupon's redemption counter.
func (s *Store) CreateOrder(ctx context.Context, order *models.Order, usage *models.CouponUsage) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if order.PaymentStatus == "" {
		order.PaymentStatus = models.PaymentPending
	}
	err = tx.QueryRow(ctx, `
		INSERT INTO orders (user_id, total_amount, status, delivery_address,
			contact_number, notes, coupon_id, discount_amount, payment_status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING order_id, created_at, updated_at`,
		order.UserID, order.TotalAmount, order.Status, order.DeliveryAddress,
		order.ContactNumber, order.Notes, order.CouponID, order.DiscountAmount,
		order.PaymentStatus,
	).Scan(&order.ID, &order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}

	for i := range order.Items {
		item := &order.Items[i]
		item.OrderID = order.ID
		toppings, err := json.Marshal(item.CustomToppings)
		if err != nil {
			return fmt.Errorf("failed to encode custom toppings: %w", err)
		}
		err = tx.QueryRow(ctx, `
			INSERT INTO order_items (order_id, pizza_id, quantity, size,
				custom_toppings, item_price)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING item_id`,
			item.OrderID, item.PizzaID, item.Quantity, item.Size,
			toppings, item.ItemPrice,
		).Scan(&item.ID)
		if err != nil {
			return fmt.Errorf("failed to create order item: %w", err)
		}
	}

	if usage != nil {
		usage.OrderID = order.ID
		err = tx.QueryRow(ctx, `
			INSERT INTO coupon_usages (coupon_id, user_id, order_id, discount_amount)
			VALUES ($1, $2, $3, $4)
			RETURNING usage_id, used_at`,
			usage.CouponID, usage.UserID, usage.OrderID, usage.DiscountAmount,
		).Scan(&usage.ID, &usage.UsedAt)
		if err != nil {
			if isUniqueViolation(err) {
				return service.ErrCouponAlreadyUsed
			}
			return fmt.Errorf("failed to record coupon usage: %w", err)
		}
		if _, err := tx.Exec(ctx, `
			UPDATE coupons SET current_usage = current_usage + 1
			WHERE coupon_id = $1`, usage.CouponID); err != nil {
			return fmt.Errorf("failed to bump coupon usage: %w", err)
		}
	}

	return tx.Commit(ctx)
}

const orderColumns = `order_id, user_id, total_amount, status, delivery_address,
	contact_number, notes, coupon_id, discount_amount, payment_status,
	created_at, updated_at`

// GetOrder returns one order with its items.
func (s *Store) GetOrder(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE order_id = $1`, id)
	order, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, service.ErrOrderNotFound
		}
		return nil, err
	}
	if err := s.attachItems(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

// ListUserOrders returns a user's orders, newest first, items included.
func (s *Store) ListUserOrders(ctx context.Context, userID uuid.UUID) ([]models.Order, error) {
	return s.listOrders(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE user_id = $1 ORDER BY created_at DESC`,
		userID)
}

// ListAllOrders returns every order, newest first, items included.
func (s *Store) ListAllOrders(ctx context.Context) ([]models.Order, error) {
	return s.listOrders(ctx,
		`SELECT `+orderColumns+` FROM orders ORDER BY created_at DESC`)
}

func (s *Store) listOrders(ctx context.Context, query string, args ...any) ([]models.Order, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()

	var orders []models.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, *order)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}

	for i := range orders {
		if err := s.attachItems(ctx, &orders[i]); err != nil {
			return nil, err
		}
	}
	return orders, nil
}

// SetOrderStatus updates an order's status and timestamp, returning
// ErrOrderNotFound when the order no longer exists.
func (s *Store) SetOrderStatus(ctx context.Context, id uuid.UUID, status models.OrderStatus, updatedAt time.Time) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE orders SET status = $2, updated_at = $3
		WHERE order_id = $1`, id, status, updatedAt)
	if err != nil {
		return fmt.Errorf("failed to update order status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return service.ErrOrderNotFound
	}
	return nil
}

// SetOrderPaymentStatus records the outcome of a payment for an order.
func (s *Store) SetOrderPaymentStatus(ctx context.Context, id uuid.UUID, status models.PaymentStatus) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE orders SET payment_status = $2, updated_at = now()
		WHERE order_id = $1`, id, status)
	if err != nil {
		return fmt.Errorf("failed to update payment status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return service.ErrOrderNotFound
	}
	return nil
}

func (s *Store) attachItems(ctx context.Context, order *models.Order) error {
	rows, err := s.pool.Query(ctx, `
		SELECT item_id, order_id, pizza_id, quantity, size, custom_toppings, item_price
		FROM order_items
		WHERE order_id = $1`, order.ID)
	if err != nil {
		return fmt.Errorf("failed to list order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item models.OrderItem
		var toppings []byte
		if err := rows.Scan(&item.ID, &item.OrderID, &item.PizzaID,
			&item.Quantity, &item.Size, &toppings, &item.ItemPrice); err != nil {
			return fmt.Errorf("failed to scan order item: %w", err)
		}
		if err := json.Unmarshal(toppings, &item.CustomToppings); err != nil {
			return fmt.Errorf("failed to decode custom toppings: %w", err)
		}
		order.Items = append(order.Items, item)
	}
	return rows.Err()
}

func scanOrder(row pgx.Row) (*models.Order, error) {
	var order models.Order
	err := row.Scan(&order.ID, &order.UserID, &order.TotalAmount, &order.Status,
		&order.DeliveryAddress, &order.ContactNumber, &order.Notes,
		&order.CouponID, &order.DiscountAmount, &order.PaymentStatus,
		&order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan order: %w", err)
	}
	return &order, nil
}

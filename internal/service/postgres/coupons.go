package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/prasnshabrainerhub/pizza-ordering-system/internal/models"
	"github.com/prasnshabrainerhub/pizza-ordering-system/internal/service"
)

const couponColumns = `coupon_id, code, discount_type, discount_value,
	COALESCE(description, ''), valid_from, valid_until, min_order_value,
	max_discount, is_active, usage_limit, current_usage, created_at`

// ListCoupons returns all coupons, newest first.
func (s *Store) ListCoupons(ctx context.Context) ([]models.Coupon, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+couponColumns+` FROM coupons ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list coupons: %w", err)
	}
	defer rows.Close()

	var coupons []models.Coupon
	for rows.Next() {
		c, err := scanCoupon(rows)
		if err != nil {
			return nil, err
		}
		coupons = append(coupons, *c)
	}
	return coupons, rows.Err()
}

// CreateCoupon inserts a coupon and fills in the generated ID and timestamp.
func (s *Store) CreateCoupon(ctx context.Context, coupon *models.Coupon) error {
	err := s.pool.QueryRow(ctx, `
		INSERT INTO coupons (code, discount_type, discount_value, description,
			valid_from, valid_until, min_order_value, max_discount,
			is_active, usage_limit)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING coupon_id, created_at`,
		coupon.Code, coupon.DiscountType, coupon.DiscountValue, coupon.Description,
		coupon.ValidFrom, coupon.ValidUntil, coupon.MinOrderValue, coupon.MaxDiscount,
		coupon.IsActive, coupon.UsageLimit,
	).Scan(&coupon.ID, &coupon.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create coupon: %w", err)
	}
	return nil
}

// GetActiveCouponByCode returns a coupon only when it is active and inside
// its validity window.
func (s *Store) GetActiveCouponByCode(ctx context.Context, code string) (*models.Coupon, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+couponColumns+`
		FROM coupons
		WHERE code = $1
		  AND is_active
		  AND valid_from <= now()
		  AND valid_until >= now()`, code)
	c, err := scanCoupon(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, service.ErrCouponNotFound
		}
		return nil, err
	}
	return c, nil
}

// HasUserUsedCoupon reports whether the user already redeemed the coupon.
func (s *Store) HasUserUsedCoupon(ctx context.Context, couponID, userID uuid.UUID) (bool, error) {
	var used bool
	err := s.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM coupon_usages WHERE coupon_id = $1 AND user_id = $2
		)`, couponID, userID,
	).Scan(&used)
	if err != nil {
		return false, fmt.Errorf("failed to check coupon usage: %w", err)
	}
	return used, nil
}

func scanCoupon(row pgx.Row) (*models.Coupon, error) {
	var c models.Coupon
	err := row.Scan(&c.ID, &c.Code, &c.DiscountType, &c.DiscountValue,
		&c.Description, &c.ValidFrom, &c.ValidUntil, &c.MinOrderValue,
		&c.MaxDiscount, &c.IsActive, &c.UsageLimit, &c.CurrentUsage, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan coupon: %w", err)
	}
	return &c, nil
}

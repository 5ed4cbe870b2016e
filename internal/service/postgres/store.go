// Package postgres implements the service store interfaces on PostgreSQL
// using pgx.
package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/prasnshabrainerhub/pizza-ordering-system/internal/service"
)

// Store implements every service store interface on a shared connection pool.
type Store struct {
	pool *pgxpool.Pool
}

var (
	_ service.UserStore    = (*Store)(nil)
	_ service.CatalogStore = (*Store)(nil)
	_ service.CouponStore  = (*Store)(nil)
	_ service.OrderStore   = (*Store)(nil)
)

// New creates a store backed by pool.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// uniqueViolation is the PostgreSQL error code for unique constraint failures.
const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

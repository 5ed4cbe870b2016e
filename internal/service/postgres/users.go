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

// CreateUser inserts a new user and fills in the generated ID and timestamp.
func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	err := s.pool.QueryRow(ctx, `
		INSERT INTO users (email, username, hashed_password, role, phone_number, address)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING user_id, created_at`,
		user.Email, user.Username, user.HashedPassword, user.Role,
		user.PhoneNumber, user.Address,
	).Scan(&user.ID, &user.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return service.ErrEmailTaken
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetUserByEmail looks a user up by email for login.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.scanUser(s.pool.QueryRow(ctx, `
		SELECT user_id, email, username, hashed_password, role,
		       COALESCE(phone_number, ''), COALESCE(address, ''), created_at
		FROM users
		WHERE email = $1`, email))
}

// GetUser looks a user up by ID.
func (s *Store) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return s.scanUser(s.pool.QueryRow(ctx, `
		SELECT user_id, email, username, hashed_password, role,
		       COALESCE(phone_number, ''), COALESCE(address, ''), created_at
		FROM users
		WHERE user_id = $1`, id))
}

func (s *Store) scanUser(row pgx.Row) (*models.User, error) {
	var user models.User
	err := row.Scan(&user.ID, &user.Email, &user.Username, &user.HashedPassword,
		&user.Role, &user.PhoneNumber, &user.Address, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, service.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

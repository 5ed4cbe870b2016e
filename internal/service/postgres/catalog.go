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

// ListPizzas returns the full catalog with sizes and toppings attached.
func (s *Store) ListPizzas(ctx context.Context) ([]models.Pizza, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT pizza_id, name, COALESCE(description, ''), base_price,
		       COALESCE(image_url, ''), category
		FROM pizzas
		ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list pizzas: %w", err)
	}
	defer rows.Close()

	var pizzas []models.Pizza
	for rows.Next() {
		var p models.Pizza
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.BasePrice,
			&p.ImageURL, &p.Category); err != nil {
			return nil, fmt.Errorf("failed to scan pizza: %w", err)
		}
		pizzas = append(pizzas, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list pizzas: %w", err)
	}

	for i := range pizzas {
		if err := s.attachPizzaDetails(ctx, &pizzas[i]); err != nil {
			return nil, err
		}
	}
	return pizzas, nil
}

// GetPizza returns one pizza with its sizes and toppings.
func (s *Store) GetPizza(ctx context.Context, id uuid.UUID) (*models.Pizza, error) {
	var p models.Pizza
	err := s.pool.QueryRow(ctx, `
		SELECT pizza_id, name, COALESCE(description, ''), base_price,
		       COALESCE(image_url, ''), category
		FROM pizzas
		WHERE pizza_id = $1`, id,
	).Scan(&p.ID, &p.Name, &p.Description, &p.BasePrice, &p.ImageURL, &p.Category)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, service.ErrPizzaNotFound
		}
		return nil, fmt.Errorf("failed to get pizza: %w", err)
	}
	if err := s.attachPizzaDetails(ctx, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *Store) attachPizzaDetails(ctx context.Context, p *models.Pizza) error {
	rows, err := s.pool.Query(ctx, `
		SELECT size_id, pizza_id, size, price
		FROM pizza_sizes
		WHERE pizza_id = $1
		ORDER BY price`, p.ID)
	if err != nil {
		return fmt.Errorf("failed to list pizza sizes: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var sz models.PizzaSize
		if err := rows.Scan(&sz.ID, &sz.PizzaID, &sz.Size, &sz.Price); err != nil {
			return fmt.Errorf("failed to scan pizza size: %w", err)
		}
		p.Sizes = append(p.Sizes, sz)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to list pizza sizes: %w", err)
	}

	tRows, err := s.pool.Query(ctx, `
		SELECT t.topping_id, t.name, t.price, t.is_vegetarian
		FROM toppings t
		JOIN pizza_toppings pt ON pt.topping_id = t.topping_id
		WHERE pt.pizza_id = $1
		ORDER BY t.name`, p.ID)
	if err != nil {
		return fmt.Errorf("failed to list pizza toppings: %w", err)
	}
	defer tRows.Close()
	for tRows.Next() {
		var t models.Topping
		if err := tRows.Scan(&t.ID, &t.Name, &t.Price, &t.IsVegetarian); err != nil {
			return fmt.Errorf("failed to scan topping: %w", err)
		}
		p.Toppings = append(p.Toppings, t)
	}
	return tRows.Err()
}

// CreatePizza inserts a pizza together with its size rows and topping links.
func (s *Store) CreatePizza(ctx context.Context, pizza *models.Pizza) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	err = tx.QueryRow(ctx, `
		INSERT INTO pizzas (name, description, base_price, image_url, category)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING pizza_id`,
		pizza.Name, pizza.Description, pizza.BasePrice, pizza.ImageURL, pizza.Category,
	).Scan(&pizza.ID)
	if err != nil {
		return fmt.Errorf("failed to create pizza: %w", err)
	}

	for i := range pizza.Sizes {
		sz := &pizza.Sizes[i]
		sz.PizzaID = pizza.ID
		err = tx.QueryRow(ctx, `
			INSERT INTO pizza_sizes (pizza_id, size, price)
			VALUES ($1, $2, $3)
			RETURNING size_id`,
			sz.PizzaID, sz.Size, sz.Price,
		).Scan(&sz.ID)
		if err != nil {
			return fmt.Errorf("failed to create pizza size: %w", err)
		}
	}

	for _, t := range pizza.Toppings {
		if _, err := tx.Exec(ctx, `
			INSERT INTO pizza_toppings (pizza_id, topping_id)
			VALUES ($1, $2)`, pizza.ID, t.ID); err != nil {
			return fmt.Errorf("failed to link topping: %w", err)
		}
	}

	return tx.Commit(ctx)
}

// UpdatePizza rewrites a pizza's row, sizes, and topping links.
func (s *Store) UpdatePizza(ctx context.Context, pizza *models.Pizza) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	tag, err := tx.Exec(ctx, `
		UPDATE pizzas
		SET name = $2, description = $3, base_price = $4, image_url = $5, category = $6
		WHERE pizza_id = $1`,
		pizza.ID, pizza.Name, pizza.Description, pizza.BasePrice,
		pizza.ImageURL, pizza.Category)
	if err != nil {
		return fmt.Errorf("failed to update pizza: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return service.ErrPizzaNotFound
	}

	if _, err := tx.Exec(ctx, `DELETE FROM pizza_sizes WHERE pizza_id = $1`, pizza.ID); err != nil {
		return fmt.Errorf("failed to replace pizza sizes: %w", err)
	}
	for i := range pizza.Sizes {
		sz := &pizza.Sizes[i]
		sz.PizzaID = pizza.ID
		err = tx.QueryRow(ctx, `
			INSERT INTO pizza_sizes (pizza_id, size, price)
			VALUES ($1, $2, $3)
			RETURNING size_id`,
			sz.PizzaID, sz.Size, sz.Price,
		).Scan(&sz.ID)
		if err != nil {
			return fmt.Errorf("failed to create pizza size: %w", err)
		}
	}

	if _, err := tx.Exec(ctx, `DELETE FROM pizza_toppings WHERE pizza_id = $1`, pizza.ID); err != nil {
		return fmt.Errorf("failed to replace topping links: %w", err)
	}
	for _, t := range pizza.Toppings {
		if _, err := tx.Exec(ctx, `
			INSERT INTO pizza_toppings (pizza_id, topping_id)
			VALUES ($1, $2)`, pizza.ID, t.ID); err != nil {
			return fmt.Errorf("failed to link topping: %w", err)
		}
	}

	return tx.Commit(ctx)
}

// DeletePizza removes a pizza. Sizes and topping links cascade.
func (s *Store) DeletePizza(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM pizzas WHERE pizza_id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete pizza: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return service.ErrPizzaNotFound
	}
	return nil
}

// ListToppings returns all toppings.
func (s *Store) ListToppings(ctx context.Context) ([]models.Topping, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT topping_id, name, price, is_vegetarian
		FROM toppings
		ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list toppings: %w", err)
	}
	defer rows.Close()

	var toppings []models.Topping
	for rows.Next() {
		var t models.Topping
		if err := rows.Scan(&t.ID, &t.Name, &t.Price, &t.IsVegetarian); err != nil {
			return nil, fmt.Errorf("failed to scan topping: %w", err)
		}
		toppings = append(toppings, t)
	}
	return toppings, rows.Err()
}

// GetTopping returns one topping by ID.
func (s *Store) GetTopping(ctx context.Context, id uuid.UUID) (*models.Topping, error) {
	var t models.Topping
	err := s.pool.QueryRow(ctx, `
		SELECT topping_id, name, price, is_vegetarian
		FROM toppings
		WHERE topping_id = $1`, id,
	).Scan(&t.ID, &t.Name, &t.Price, &t.IsVegetarian)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, service.ErrToppingNotFound
		}
		return nil, fmt.Errorf("failed to get topping: %w", err)
	}
	return &t, nil
}

// CreateTopping inserts a topping and fills in the generated ID.
func (s *Store) CreateTopping(ctx context.Context, topping *models.Topping) error {
	err := s.pool.QueryRow(ctx, `
		INSERT INTO toppings (name, price, is_vegetarian)
		VALUES ($1, $2, $3)
		RETURNING topping_id`,
		topping.Name, topping.Price, topping.IsVegetarian,
	).Scan(&topping.ID)
	if err != nil {
		return fmt.Errorf("failed to create topping: %w", err)
	}
	return nil
}

// UpdateTopping rewrites a topping's row.
func (s *Store) UpdateTopping(ctx context.Context, topping *models.Topping) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE toppings
		SET name = $2, price = $3, is_vegetarian = $4
		WHERE topping_id = $1`,
		topping.ID, topping.Name, topping.Price, topping.IsVegetarian)
	if err != nil {
		return fmt.Errorf("failed to update topping: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return service.ErrToppingNotFound
	}
	return nil
}

// DeleteTopping removes a topping.
func (s *Store) DeleteTopping(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM toppings WHERE topping_id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete topping: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return service.ErrToppingNotFound
	}
	return nil
}

package customers

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mehmetsahinnn/OrderTrackingSystem/internal/orders"
)

// Store persists customer accounts.
type Store interface {
	Create(ctx context.Context, c *orders.Customer) error
	ByEmail(ctx context.Context, email string) (*orders.Customer, error)
	ByID(ctx context.Context, id string) (*orders.Customer, error)
}

// Repo is the Postgres customer store.
type Repo struct{ DB *pgxpool.Pool }

var _ Store = (*Repo)(nil)

const uniqueViolation = "23505"

func (r *Repo) Create(ctx context.Context, c *orders.Customer) error {
	err := r.DB.QueryRow(ctx, `
		INSERT INTO customers(id, name, email, password_hash, admin)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`, c.ID, c.Name, c.Email, c.PasswordHash, c.Admin).Scan(&c.CreatedAt)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return ErrEmailTaken
	}
	if err != nil {
		return fmt.Errorf("insert customer: %w", err)
	}
	return nil
}

func (r *Repo) ByEmail(ctx context.Context, email string) (*orders.Customer, error) {
	return r.get(ctx, `email`, email)
}

func (r *Repo) ByID(ctx context.Context, id string) (*orders.Customer, error) {
	return r.get(ctx, `id`, id)
}

func (r *Repo) get(ctx context.Context, column, value string) (*orders.Customer, error) {
	var c orders.Customer
	err := r.DB.QueryRow(ctx, `
		SELECT id, name, email, password_hash, admin, created_at
		FROM customers WHERE `+column+` = $1
	`, value).Scan(&c.ID, &c.Name, &c.Email, &c.PasswordHash, &c.Admin, &c.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, orders.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select customer by %s: %w", column, err)
	}
	return &c, nil
}

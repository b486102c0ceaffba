package cart

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Item struct {
	CustomerID string `json:"customer_id"`
	ProductID  string `json:"product_id"`
	Qty        int    `json:"qty"`
}

type Store interface {
	AddItem(ctx context.Context, customerID, productID string, qty int) error
	Items(ctx context.Context, customerID string) ([]Item, error)
	RemoveItem(ctx context.Context, customerID, productID string) error
	Clear(ctx context.Context, customerID string) error
}

// Repo is the Postgres cart store; one row per (customer, product).
type Repo struct{ DB *pgxpool.Pool }

var _ Store = (*Repo)(nil)

func (r *Repo) AddItem(ctx context.Context, customerID, productID string, qty int) error {
	_, err := r.DB.Exec(ctx, `
		INSERT INTO cart_items(customer_id, product_id, qty)
		VALUES ($1, $2, $3)
		ON CONFLICT (customer_id, product_id) DO UPDATE SET qty = cart_items.qty + EXCLUDED.qty
	`, customerID, productID, qty)
	if err != nil {
		return fmt.Errorf("upsert cart item: %w", err)
	}
	return nil
}

func (r *Repo) Items(ctx context.Context, customerID string) ([]Item, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT customer_id, product_id, qty FROM cart_items WHERE customer_id = $1 ORDER BY product_id
	`, customerID)
	if err != nil {
		return nil, fmt.Errorf("select cart items: %w", err)
	}
	defer rows.Close()

	var out []Item
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.CustomerID, &it.ProductID, &it.Qty); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

func (r *Repo) RemoveItem(ctx context.Context, customerID, productID string) error {
	_, err := r.DB.Exec(ctx, `
		DELETE FROM cart_items WHERE customer_id = $1 AND product_id = $2
	`, customerID, productID)
	if err != nil {
		return fmt.Errorf("delete cart item: %w", err)
	}
	return nil
}

func (r *Repo) Clear(ctx context.Context, customerID string) error {
	_, err := r.DB.Exec(ctx, `DELETE FROM cart_items WHERE customer_id = $1`, customerID)
	if err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}

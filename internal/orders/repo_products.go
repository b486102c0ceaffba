package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ProductRepo is the Postgres product catalog.
type ProductRepo struct{ DB *pgxpool.Pool }

var _ Catalog = (*ProductRepo)(nil)

const productColumns = `id, name, description, category, price_cents, stock, created_at, updated_at`

func scanProduct(row pgx.Row) (Product, error) {
	var p Product
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Category, &p.PriceCents, &p.Stock, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

func (r *ProductRepo) CreateProduct(ctx context.Context, p *Product) error {
	err := r.DB.QueryRow(ctx, `
		INSERT INTO products(id, name, description, category, price_cents, stock)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at
	`, p.ID, p.Name, p.Description, p.Category, p.PriceCents, p.Stock).Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert product %s: %w", p.ID, err)
	}
	return nil
}

func (r *ProductRepo) UpdateProduct(ctx context.Context, p *Product) error {
	ct, err := r.DB.Exec(ctx, `
		UPDATE products
		SET name = $2, description = $3, category = $4, price_cents = $5, updated_at = now()
		WHERE id = $1
	`, p.ID, p.Name, p.Description, p.Category, p.PriceCents)
	if err != nil {
		return fmt.Errorf("update product %s: %w", p.ID, err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *ProductRepo) DeleteProduct(ctx context.Context, id string) error {
	ct, err := r.DB.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete product %s: %w", id, err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *ProductRepo) GetProduct(ctx context.Context, id string) (*Product, error) {
	p, err := scanProduct(r.DB.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select product %s: %w", id, err)
	}
	return &p, nil
}

func (r *ProductRepo) ProductsByID(ctx context.Context, ids []string) (map[string]Product, error) {
	rows, err := r.DB.Query(ctx, `SELECT `+productColumns+` FROM products WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, fmt.Errorf("select products: %w", err)
	}
	defer rows.Close()

	out := make(map[string]Product, len(ids))
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out[p.ID] = p
	}
	return out, rows.Err()
}

// SearchProducts filters by optional category and price bounds (cents).
func (r *ProductRepo) SearchProducts(ctx context.Context, category string, minCents, maxCents *int) ([]Product, error) {
	q := `SELECT ` + productColumns + ` FROM products WHERE 1=1`
	args := []any{}
	if category != "" {
		args = append(args, category)
		q += fmt.Sprintf(" AND category = $%d", len(args))
	}
	if minCents != nil {
		args = append(args, *minCents)
		q += fmt.Sprintf(" AND price_cents >= $%d", len(args))
	}
	if maxCents != nil {
		args = append(args, *maxCents)
		q += fmt.Sprintf(" AND price_cents <= $%d", len(args))
	}
	q += ` ORDER BY name`

	rows, err := r.DB.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("search products: %w", err)
	}
	defer rows.Close()

	var out []Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

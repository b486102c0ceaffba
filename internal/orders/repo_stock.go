package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// StockRepo is the Postgres stock ledger. All decrements are conditional at
// the storage layer, so two racing callers can never drive stock negative.
type StockRepo struct{ DB *pgxpool.Pool }

var _ Ledger = (*StockRepo)(nil)

func (r *StockRepo) Decrement(ctx context.Context, productID string, qty int) (int, error) {
	if qty <= 0 {
		return 0, fmt.Errorf("%w: qty must be positive", ErrInvalid)
	}
	var left int
	err := r.DB.QueryRow(ctx, `
		UPDATE products SET stock = stock - $2, updated_at = now()
		WHERE id = $1 AND stock >= $2
		RETURNING stock
	`, productID, qty).Scan(&left)
	if err == nil {
		return left, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("decrement stock %s: %w", productID, err)
	}

	// Conditional update matched nothing: missing product or short stock.
	var available int
	err = r.DB.QueryRow(ctx, `SELECT stock FROM products WHERE id = $1`, productID).Scan(&available)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("read stock %s: %w", productID, err)
	}
	return available, &InsufficientStockError{Shortages: []Shortage{
		{ProductID: productID, Requested: qty, Available: available},
	}}
}

func (r *StockRepo) Increment(ctx context.Context, productID string, qty int) (int, error) {
	if qty <= 0 {
		return 0, fmt.Errorf("%w: qty must be positive", ErrInvalid)
	}
	var left int
	err := r.DB.QueryRow(ctx, `
		UPDATE products SET stock = stock + $2, updated_at = now()
		WHERE id = $1
		RETURNING stock
	`, productID, qty).Scan(&left)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("increment stock %s: %w", productID, err)
	}
	return left, nil
}

// DecrementAll locks every product row, validates all lines, then applies all
// decrements. Any shortage rolls the whole batch back.
func (r *StockRepo) DecrementAll(ctx context.Context, items []ItemQty) ([]Shortage, error) {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, fmt.Errorf("begin decrement batch: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	items = mergeLines(items)
	var shortages []Shortage
	for _, it := range items {
		var stock int
		err := tx.QueryRow(ctx, `SELECT stock FROM products WHERE id = $1 FOR UPDATE`, it.ProductID).Scan(&stock)
		if errors.Is(err, pgx.ErrNoRows) {
			shortages = append(shortages, Shortage{ProductID: it.ProductID, Requested: it.Qty, Available: 0})
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("lock product %s: %w", it.ProductID, err)
		}
		if stock < it.Qty {
			shortages = append(shortages, Shortage{ProductID: it.ProductID, Requested: it.Qty, Available: stock})
		}
	}
	if len(shortages) > 0 {
		return shortages, nil // rollback via defer
	}

	for _, it := range items {
		ct, err := tx.Exec(ctx, `
			UPDATE products SET stock = stock - $2, updated_at = now()
			WHERE id = $1 AND stock >= $2
		`, it.ProductID, it.Qty)
		if err != nil {
			return nil, fmt.Errorf("decrement product %s: %w", it.ProductID, err)
		}
		if ct.RowsAffected() != 1 {
			// Rows are locked, so this cannot happen; keep the guard anyway.
			return nil, fmt.Errorf("decrement product %s: row vanished under lock", it.ProductID)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit decrement batch: %w", err)
	}
	return nil, nil
}

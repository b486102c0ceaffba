package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repo is the Postgres order record store.
type Repo struct{ DB *pgxpool.Pool }

var _ Store = (*Repo)(nil)

func (r *Repo) CreateOrder(ctx context.Context, o *Order) error {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin create order: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx, `
		INSERT INTO orders(id, track_id, customer_id, status, total_cents, order_date)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, o.ID, o.TrackID, o.CustomerID, o.Status, o.TotalCents, o.OrderDate)
	if err != nil {
		return fmt.Errorf("insert order %s: %w", o.ID, err)
	}

	for _, it := range o.Items {
		_, err = tx.Exec(ctx, `
			INSERT INTO order_items(id, order_id, product_id, qty, price_cents)
			VALUES ($1, $2, $3, $4, $5)
		`, it.ID, o.ID, it.ProductID, it.Qty, it.PriceCents)
		if err != nil {
			return fmt.Errorf("insert order item %s: %w", it.ID, err)
		}
	}
	return tx.Commit(ctx)
}

func (r *Repo) GetOrder(ctx context.Context, id string) (*Order, error) {
	return r.getOrderBy(ctx, `id`, id)
}

func (r *Repo) GetOrderByTrackID(ctx context.Context, trackID string) (*Order, error) {
	return r.getOrderBy(ctx, `track_id`, trackID)
}

func (r *Repo) getOrderBy(ctx context.Context, column, value string) (*Order, error) {
	var o Order
	err := r.DB.QueryRow(ctx, `
		SELECT id, track_id, customer_id, status, total_cents, order_date, estimated_delivery
		FROM orders WHERE `+column+` = $1
	`, value).Scan(&o.ID, &o.TrackID, &o.CustomerID, &o.Status, &o.TotalCents, &o.OrderDate, &o.EstimatedDelivery)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select order by %s: %w", column, err)
	}
	if o.Items, err = r.loadItems(ctx, o.ID); err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *Repo) loadItems(ctx context.Context, orderID string) ([]OrderItem, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT id, order_id, product_id, qty, price_cents
		FROM order_items WHERE order_id = $1 ORDER BY id
	`, orderID)
	if err != nil {
		return nil, fmt.Errorf("select order items %s: %w", orderID, err)
	}
	defer rows.Close()

	var items []OrderItem
	for rows.Next() {
		var it OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.Qty, &it.PriceCents); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (r *Repo) ListOrdersByCustomer(ctx context.Context, customerID string) ([]Order, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT id, track_id, customer_id, status, total_cents, order_date, estimated_delivery
		FROM orders WHERE customer_id = $1 ORDER BY order_date DESC
	`, customerID)
	if err != nil {
		return nil, fmt.Errorf("list orders for %s: %w", customerID, err)
	}
	defer rows.Close()

	var out []Order
	for rows.Next() {
		var o Order
		if err := rows.Scan(&o.ID, &o.TrackID, &o.CustomerID, &o.Status, &o.TotalCents, &o.OrderDate, &o.EstimatedDelivery); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range out {
		if out[i].Items, err = r.loadItems(ctx, out[i].ID); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// UpdateStatus locks the order row, checks the transition and applies it.
func (r *Repo) UpdateStatus(ctx context.Context, orderID string, next Status) (*Order, error) {
	err := r.transition(ctx, orderID, next, func(ctx context.Context, tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `UPDATE orders SET status = $2 WHERE id = $1`, orderID, next)
		return err
	})
	if err != nil {
		return nil, err
	}
	return r.GetOrder(ctx, orderID)
}

func (r *Repo) MarkConfirmed(ctx context.Context, orderID string, eta time.Time) (*Order, error) {
	err := r.transition(ctx, orderID, StatusConfirmed, func(ctx context.Context, tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			UPDATE orders SET status = $2, estimated_delivery = $3 WHERE id = $1
		`, orderID, StatusConfirmed, eta)
		return err
	})
	if err != nil {
		return nil, err
	}
	return r.GetOrder(ctx, orderID)
}

// CancelOrder restores stock for CONFIRMED orders in the same transaction that
// flips the status, so the conservation law holds even when it races the
// confirmation pipeline.
func (r *Repo) CancelOrder(ctx context.Context, orderID string) (*Order, error) {
	err := r.transitionFrom(ctx, orderID, StatusCancelled, func(ctx context.Context, tx pgx.Tx, from Status) error {
		if _, err := tx.Exec(ctx, `UPDATE orders SET status = $2 WHERE id = $1`, orderID, StatusCancelled); err != nil {
			return err
		}
		if from != StatusConfirmed {
			// PENDING orders never decremented stock; nothing to give back.
			return nil
		}
		rows, err := tx.Query(ctx, `SELECT product_id, qty FROM order_items WHERE order_id = $1`, orderID)
		if err != nil {
			return err
		}
		defer rows.Close()
		var items []ItemQty
		for rows.Next() {
			var it ItemQty
			if err := rows.Scan(&it.ProductID, &it.Qty); err != nil {
				return err
			}
			items = append(items, it)
		}
		if err := rows.Err(); err != nil {
			return err
		}
		for _, it := range items {
			if _, err := tx.Exec(ctx, `
				UPDATE products SET stock = stock + $2, updated_at = now() WHERE id = $1
			`, it.ProductID, it.Qty); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return r.GetOrder(ctx, orderID)
}

func (r *Repo) transition(ctx context.Context, orderID string, next Status, apply func(context.Context, pgx.Tx) error) error {
	return r.transitionFrom(ctx, orderID, next, func(ctx context.Context, tx pgx.Tx, _ Status) error {
		return apply(ctx, tx)
	})
}

func (r *Repo) transitionFrom(ctx context.Context, orderID string, next Status, apply func(context.Context, pgx.Tx, Status) error) error {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin transition: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var cur Status
	err = tx.QueryRow(ctx, `SELECT status FROM orders WHERE id = $1 FOR UPDATE`, orderID).Scan(&cur)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("lock order %s: %w", orderID, err)
	}
	if !CanTransition(cur, next) {
		return &IllegalTransitionError{From: cur, To: next}
	}
	if err := apply(ctx, tx, cur); err != nil {
		return fmt.Errorf("transition order %s to %s: %w", orderID, next, err)
	}
	return tx.Commit(ctx)
}

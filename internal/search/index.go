// Package search keeps a read-optimized mirror of orders for status and
// date-range queries. It lags the order record store and is never the system
// of record.
package search

import (
	"context"
	"time"
)

// Doc is the flattened searchable form of an order.
type Doc struct {
	OrderID           string     `json:"order_id"`
	CustomerID        string     `json:"customer_id"`
	Status            string     `json:"status"`
	OrderDate         time.Time  `json:"order_date"`
	EstimatedDelivery *time.Time `json:"estimated_delivery,omitempty"`
}

type Index interface {
	Index(ctx context.Context, d Doc) error
	ByStatus(ctx context.Context, status string) ([]Doc, error)
	ByDateRange(ctx context.Context, from, to time.Time) ([]Doc, error)
}

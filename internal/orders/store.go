package orders

import (
	"context"
	"time"
)

// Store persists orders and their line items. Status-changing operations
// enforce the lifecycle graph inside the store's own critical section.
type Store interface {
	CreateOrder(ctx context.Context, o *Order) error
	GetOrder(ctx context.Context, id string) (*Order, error)
	GetOrderByTrackID(ctx context.Context, trackID string) (*Order, error)
	ListOrdersByCustomer(ctx context.Context, customerID string) ([]Order, error)
	UpdateStatus(ctx context.Context, orderID string, next Status) (*Order, error)
	MarkConfirmed(ctx context.Context, orderID string, eta time.Time) (*Order, error)
	// CancelOrder flips the order to CANCELLED and, when it had reached
	// CONFIRMED, re-credits exactly the decremented quantities.
	CancelOrder(ctx context.Context, orderID string) (*Order, error)
}

// Ledger owns authoritative product stock. Decrements are conditional: they
// never leave stock negative and never partially apply a multi-item batch.
type Ledger interface {
	Decrement(ctx context.Context, productID string, qty int) (int, error)
	Increment(ctx context.Context, productID string, qty int) (int, error)
	// DecrementAll applies every line or none. A non-empty shortage list means
	// nothing was changed.
	DecrementAll(ctx context.Context, items []ItemQty) ([]Shortage, error)
}

// mergeLines folds duplicate product lines into one, first-seen order kept,
// so availability checks always see a product's full requested quantity.
func mergeLines(items []ItemQty) []ItemQty {
	idx := make(map[string]int, len(items))
	out := make([]ItemQty, 0, len(items))
	for _, it := range items {
		if i, ok := idx[it.ProductID]; ok {
			out[i].Qty += it.Qty
			continue
		}
		idx[it.ProductID] = len(out)
		out = append(out, it)
	}
	return out
}

// Catalog is the read side of the product table the submission path prices from.
type Catalog interface {
	GetProduct(ctx context.Context, id string) (*Product, error)
	ProductsByID(ctx context.Context, ids []string) (map[string]Product, error)
}

// ProductStore adds the admin-facing catalog mutations and search.
type ProductStore interface {
	Catalog
	CreateProduct(ctx context.Context, p *Product) error
	UpdateProduct(ctx context.Context, p *Product) error
	DeleteProduct(ctx context.Context, id string) error
	SearchProducts(ctx context.Context, category string, minCents, maxCents *int) ([]Product, error)
}

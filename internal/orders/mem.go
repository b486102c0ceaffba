package orders

import (
	"context"
	"sync"
	"time"
)

// Mem is an in-memory store, ledger and catalog behind one mutex. It backs
// tests and local runs without Postgres; the mutex gives the same critical
// section the SQL repos get from row locks.
type Mem struct {
	mu       sync.Mutex
	products map[string]*Product
	orders   map[string]*Order
}

func NewMem() *Mem {
	return &Mem{
		products: make(map[string]*Product),
		orders:   make(map[string]*Order),
	}
}

var (
	_ Store        = (*Mem)(nil)
	_ Ledger       = (*Mem)(nil)
	_ ProductStore = (*Mem)(nil)
)

func cloneOrder(o *Order) *Order {
	c := *o
	c.Items = append([]OrderItem(nil), o.Items...)
	if o.EstimatedDelivery != nil {
		eta := *o.EstimatedDelivery
		c.EstimatedDelivery = &eta
	}
	return &c
}

// --- Store ---

func (m *Mem) CreateOrder(_ context.Context, o *Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orders[o.ID] = cloneOrder(o)
	return nil
}

func (m *Mem) GetOrder(_ context.Context, id string) (*Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneOrder(o), nil
}

func (m *Mem) GetOrderByTrackID(_ context.Context, trackID string) (*Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, o := range m.orders {
		if o.TrackID == trackID {
			return cloneOrder(o), nil
		}
	}
	return nil, ErrNotFound
}

func (m *Mem) ListOrdersByCustomer(_ context.Context, customerID string) ([]Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Order
	for _, o := range m.orders {
		if o.CustomerID == customerID {
			out = append(out, *cloneOrder(o))
		}
	}
	return out, nil
}

func (m *Mem) UpdateStatus(_ context.Context, orderID string, next Status) (*Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[orderID]
	if !ok {
		return nil, ErrNotFound
	}
	if !CanTransition(o.Status, next) {
		return nil, &IllegalTransitionError{From: o.Status, To: next}
	}
	o.Status = next
	return cloneOrder(o), nil
}

func (m *Mem) MarkConfirmed(_ context.Context, orderID string, eta time.Time) (*Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[orderID]
	if !ok {
		return nil, ErrNotFound
	}
	if !CanTransition(o.Status, StatusConfirmed) {
		return nil, &IllegalTransitionError{From: o.Status, To: StatusConfirmed}
	}
	o.Status = StatusConfirmed
	o.EstimatedDelivery = &eta
	return cloneOrder(o), nil
}

func (m *Mem) CancelOrder(_ context.Context, orderID string) (*Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[orderID]
	if !ok {
		return nil, ErrNotFound
	}
	if !CanTransition(o.Status, StatusCancelled) {
		return nil, &IllegalTransitionError{From: o.Status, To: StatusCancelled}
	}
	if o.Status == StatusConfirmed {
		for _, it := range o.Items {
			if p, ok := m.products[it.ProductID]; ok {
				p.Stock += it.Qty
			}
		}
	}
	o.Status = StatusCancelled
	return cloneOrder(o), nil
}

// --- Ledger ---

func (m *Mem) Decrement(_ context.Context, productID string, qty int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[productID]
	if !ok {
		return 0, ErrNotFound
	}
	if p.Stock < qty {
		return p.Stock, &InsufficientStockError{Shortages: []Shortage{
			{ProductID: productID, Requested: qty, Available: p.Stock},
		}}
	}
	p.Stock -= qty
	return p.Stock, nil
}

func (m *Mem) Increment(_ context.Context, productID string, qty int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[productID]
	if !ok {
		return 0, ErrNotFound
	}
	p.Stock += qty
	return p.Stock, nil
}

func (m *Mem) DecrementAll(_ context.Context, items []ItemQty) ([]Shortage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	items = mergeLines(items)
	var shortages []Shortage
	for _, it := range items {
		p, ok := m.products[it.ProductID]
		if !ok {
			shortages = append(shortages, Shortage{ProductID: it.ProductID, Requested: it.Qty})
			continue
		}
		if p.Stock < it.Qty {
			shortages = append(shortages, Shortage{ProductID: it.ProductID, Requested: it.Qty, Available: p.Stock})
		}
	}
	if len(shortages) > 0 {
		return shortages, nil
	}
	for _, it := range items {
		m.products[it.ProductID].Stock -= it.Qty
	}
	return nil, nil
}

// --- ProductStore ---

func (m *Mem) CreateProduct(_ context.Context, p *Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	p.CreatedAt, p.UpdatedAt = now, now
	c := *p
	m.products[p.ID] = &c
	return nil
}

func (m *Mem) UpdateProduct(_ context.Context, p *Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.products[p.ID]
	if !ok {
		return ErrNotFound
	}
	cur.Name, cur.Description, cur.Category, cur.PriceCents = p.Name, p.Description, p.Category, p.PriceCents
	cur.UpdatedAt = time.Now()
	return nil
}

func (m *Mem) DeleteProduct(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.products[id]; !ok {
		return ErrNotFound
	}
	delete(m.products, id)
	return nil
}

func (m *Mem) GetProduct(_ context.Context, id string) (*Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[id]
	if !ok {
		return nil, ErrNotFound
	}
	c := *p
	return &c, nil
}

func (m *Mem) ProductsByID(_ context.Context, ids []string) (map[string]Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]Product, len(ids))
	for _, id := range ids {
		if p, ok := m.products[id]; ok {
			out[id] = *p
		}
	}
	return out, nil
}

func (m *Mem) SearchProducts(_ context.Context, category string, minCents, maxCents *int) ([]Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Product
	for _, p := range m.products {
		if category != "" && p.Category != category {
			continue
		}
		if minCents != nil && p.PriceCents < *minCents {
			continue
		}
		if maxCents != nil && p.PriceCents > *maxCents {
			continue
		}
		out = append(out, *p)
	}
	return out, nil
}

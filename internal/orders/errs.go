package orders

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrForbidden = errors.New("forbidden")
	ErrInvalid   = errors.New("invalid request")
)

// Shortage describes one product line that could not be covered by stock.
type Shortage struct {
	ProductID string `json:"product_id"`
	Requested int    `json:"requested"`
	Available int    `json:"available"`
}

type InsufficientStockError struct {
	Shortages []Shortage
}

func (e *InsufficientStockError) Error() string {
	if len(e.Shortages) == 0 {
		return "insufficient stock"
	}
	s := e.Shortages[0]
	if len(e.Shortages) == 1 {
		return fmt.Sprintf("insufficient stock for product %s: requested %d, available %d",
			s.ProductID, s.Requested, s.Available)
	}
	return fmt.Sprintf("insufficient stock for product %s and %d more",
		s.ProductID, len(e.Shortages)-1)
}

type IllegalTransitionError struct {
	From Status
	To   Status
}

func (e *IllegalTransitionError) Error() string {
	return fmt.Sprintf("illegal status transition %s -> %s", e.From, e.To)
}

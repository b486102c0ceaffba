package cart

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/mehmetsahinnn/OrderTrackingSystem/internal/orders"
)

var ErrEmptyCart = errors.New("cart is empty")

type Service struct {
	Store   Store
	Catalog orders.Catalog
	Orders  *orders.Service
	Log     *zap.Logger
}

func (s *Service) Add(ctx context.Context, claims orders.Claims, productID string, qty int) error {
	if qty <= 0 {
		return fmt.Errorf("%w: qty must be positive", orders.ErrInvalid)
	}
	if _, err := s.Catalog.GetProduct(ctx, productID); err != nil {
		return err
	}
	return s.Store.AddItem(ctx, claims.CustomerID, productID, qty)
}

func (s *Service) Items(ctx context.Context, claims orders.Claims) ([]Item, error) {
	return s.Store.Items(ctx, claims.CustomerID)
}

func (s *Service) Remove(ctx context.Context, claims orders.Claims, productID string) error {
	return s.Store.RemoveItem(ctx, claims.CustomerID, productID)
}

// Checkout turns the cart into an order submission and empties the cart.
func (s *Service) Checkout(ctx context.Context, claims orders.Claims) (*orders.Order, error) {
	items, err := s.Store.Items(ctx, claims.CustomerID)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, ErrEmptyCart
	}
	req := orders.OrderRequest{}
	for _, it := range items {
		req.Items = append(req.Items, orders.ItemQty{ProductID: it.ProductID, Qty: it.Qty})
	}
	o, err := s.Orders.PlaceOrder(ctx, claims, req)
	if err != nil {
		return nil, err
	}
	if err := s.Store.Clear(ctx, claims.CustomerID); err != nil {
		// Order is already in; a stale cart is an annoyance, not a loss.
		s.Log.Warn("clear cart after checkout failed",
			zap.String("customer_id", claims.CustomerID), zap.Error(err))
	}
	return o, nil
}

package orders

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	kafkax "github.com/mehmetsahinnn/OrderTrackingSystem/internal/kafka"
)

type OrderRequest struct {
	Items []ItemQty `json:"items"`
}

// Service is the order submission and lifecycle front. Submission persists
// the order as PENDING and hands it to the confirmation pipeline over Kafka;
// stock is decremented there, in one place, all-or-nothing.
type Service struct {
	Store    Store
	Catalog  Catalog
	Producer kafkax.Publisher
	Name     string
	Log      *zap.Logger

	// Now is overridable in tests; nil means time.Now.
	Now func() time.Time
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *Service) PlaceOrder(ctx context.Context, claims Claims, req OrderRequest) (*Order, error) {
	if len(req.Items) == 0 {
		return nil, fmt.Errorf("%w: order needs at least one item", ErrInvalid)
	}
	ids := make([]string, 0, len(req.Items))
	for _, it := range req.Items {
		if it.Qty <= 0 {
			return nil, fmt.Errorf("%w: qty must be positive for product %s", ErrInvalid, it.ProductID)
		}
		ids = append(ids, it.ProductID)
	}

	// Price from the catalog, never from the client.
	products, err := s.Catalog.ProductsByID(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load products: %w", err)
	}

	// Advisory availability check against the catalog snapshot. Lines are
	// merged per product so duplicates count against stock once summed. The
	// authoritative, race-safe check happens in the confirmation pipeline's
	// conditional decrement; this one just rejects hopeless orders up front.
	var shortages []Shortage
	for _, it := range mergeLines(req.Items) {
		p, ok := products[it.ProductID]
		if !ok {
			return nil, fmt.Errorf("product %s: %w", it.ProductID, ErrNotFound)
		}
		if it.Qty > p.Stock {
			shortages = append(shortages, Shortage{ProductID: it.ProductID, Requested: it.Qty, Available: p.Stock})
		}
	}
	if len(shortages) > 0 {
		return nil, &InsufficientStockError{Shortages: shortages}
	}

	o := &Order{
		ID:         uuid.NewString(),
		TrackID:    uuid.NewString(),
		CustomerID: claims.CustomerID,
		Status:     StatusPending,
		OrderDate:  s.now().UTC(),
	}
	for _, it := range req.Items {
		p := products[it.ProductID]
		o.Items = append(o.Items, OrderItem{
			ID:         uuid.NewString(),
			OrderID:    o.ID,
			ProductID:  it.ProductID,
			Qty:        it.Qty,
			PriceCents: p.PriceCents,
		})
		o.TotalCents += p.PriceCents * it.Qty
	}

	if err := s.Store.CreateOrder(ctx, o); err != nil {
		return nil, fmt.Errorf("persist order: %w", err)
	}

	s.publishSubmitted(o)
	s.Log.Info("order submitted",
		zap.String("order_id", o.ID),
		zap.String("track_id", o.TrackID),
		zap.String("customer_id", o.CustomerID),
		zap.Int("total_cents", o.TotalCents))
	return o, nil
}

func (s *Service) publishSubmitted(o *Order) {
	items := make([]ItemLine, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, ItemLine{ProductID: it.ProductID, Qty: it.Qty, PriceCents: it.PriceCents})
	}
	ev := Envelope{
		EventID:       uuid.NewString(),
		EventType:     EventOrderSubmitted,
		EventVersion:  1,
		OccurredAt:    s.now().UTC(),
		Producer:      s.Name,
		TraceID:       uuid.NewString(),
		CorrelationID: o.ID,
		Payload: kafkax.MustMarshal(OrderSubmittedPayload{
			OrderID:    o.ID,
			TrackID:    o.TrackID,
			CustomerID: o.CustomerID,
			Items:      items,
			TotalCents: o.TotalCents,
			OrderDate:  o.OrderDate,
		}),
	}
	s.Producer.Publish(PartitionKey(o.ID), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(EventOrderSubmitted)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}

func (s *Service) GetOrder(ctx context.Context, claims Claims, id string) (*Order, error) {
	o, err := s.Store.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	if !claims.Admin && o.CustomerID != claims.CustomerID {
		return nil, ErrForbidden
	}
	return o, nil
}

// TrackOrder looks an order up by its track-id. The token is the credential.
func (s *Service) TrackOrder(ctx context.Context, trackID string) (*Order, error) {
	return s.Store.GetOrderByTrackID(ctx, trackID)
}

func (s *Service) ListOrders(ctx context.Context, claims Claims) ([]Order, error) {
	return s.Store.ListOrdersByCustomer(ctx, claims.CustomerID)
}

// UpdateStatus applies an admin-driven transition (SHIPPED, DELIVERED).
func (s *Service) UpdateStatus(ctx context.Context, claims Claims, orderID string, next Status) (*Order, error) {
	if !claims.Admin {
		return nil, ErrForbidden
	}
	if !ValidStatus(next) {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalid, next)
	}
	o, err := s.Store.UpdateStatus(ctx, orderID, next)
	if err != nil {
		return nil, err
	}
	s.Log.Info("order status updated",
		zap.String("order_id", orderID),
		zap.String("status", string(next)))
	return o, nil
}

func (s *Service) CancelOrder(ctx context.Context, claims Claims, orderID string) (*Order, error) {
	cur, err := s.Store.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !claims.Admin && cur.CustomerID != claims.CustomerID {
		return nil, ErrForbidden
	}
	o, err := s.Store.CancelOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	s.Log.Info("order cancelled",
		zap.String("order_id", orderID),
		zap.String("previous_status", string(cur.Status)))
	return o, nil
}

// Package confirm is the asynchronous order confirmation pipeline: it takes
// submitted orders off the queue, settles their stock and finalizes their
// status.
package confirm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	kafkax "github.com/mehmetsahinnn/OrderTrackingSystem/internal/kafka"
	"github.com/mehmetsahinnn/OrderTrackingSystem/internal/orders"
	"github.com/mehmetsahinnn/OrderTrackingSystem/internal/search"
)

// DeliveryLeadTime is added to the order date for the delivery estimate.
const DeliveryLeadTime = 5 * 24 * time.Hour

// Deduper short-circuits redelivered events.
type Deduper interface {
	Seen(ctx context.Context, eventID string) (bool, error)
	Mark(ctx context.Context, eventID string) error
}

type Service struct {
	Store     orders.Store
	Ledger    orders.Ledger
	Dedup     Deduper
	Index     search.Index
	Confirmed kafkax.Publisher // order.confirmed
	Rejected  kafkax.Publisher // order.rejected
	Name      string
	Log       *zap.Logger

	Now func() time.Time
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// HandleOrderSubmitted is the consumer handler. A nil return acknowledges the
// message; an error hands it back to the consumer's retry/dead-letter path.
// Returned errors always leave stock as it was before the attempt, so a retry
// never double-decrements.
func (s *Service) HandleOrderSubmitted(ctx context.Context, m kafkago.Message) error {
	var env orders.Envelope
	if err := json.Unmarshal(m.Value, &env); err != nil {
		s.Log.Warn("dropping undecodable message", zap.Error(err))
		return nil
	}
	if env.EventType != orders.EventOrderSubmitted {
		return nil
	}

	if seen, err := s.Dedup.Seen(ctx, env.EventID); err != nil {
		s.Log.Warn("dedup check failed, continuing", zap.String("event_id", env.EventID), zap.Error(err))
	} else if seen {
		return nil
	}

	p, err := kafkax.UnwrapPayload[orders.OrderSubmittedPayload](env.Payload)
	if err != nil {
		s.Log.Warn("dropping message with bad payload", zap.String("event_id", env.EventID), zap.Error(err))
		return nil
	}

	items := make([]orders.ItemQty, 0, len(p.Items))
	for _, it := range p.Items {
		items = append(items, orders.ItemQty{ProductID: it.ProductID, Qty: it.Qty})
	}

	shortages, err := s.Ledger.DecrementAll(ctx, items)
	if err != nil {
		return fmt.Errorf("decrement stock for order %s: %w", p.OrderID, err)
	}
	if len(shortages) > 0 {
		return s.reject(ctx, env, p, shortages)
	}
	return s.confirm(ctx, env, p, items)
}

func (s *Service) confirm(ctx context.Context, env orders.Envelope, p orders.OrderSubmittedPayload, items []orders.ItemQty) error {
	eta := p.OrderDate.Add(DeliveryLeadTime)
	o, err := s.Store.MarkConfirmed(ctx, p.OrderID, eta)
	if err != nil {
		// Stock was taken above; give it back before deciding anything else.
		s.restock(ctx, items)

		var ite *orders.IllegalTransitionError
		if errors.As(err, &ite) {
			// The order moved on (typically cancelled) while in flight.
			s.Log.Info("order no longer confirmable",
				zap.String("order_id", p.OrderID),
				zap.String("status", string(ite.From)))
			s.markProcessed(ctx, env.EventID)
			return nil
		}
		if errors.Is(err, orders.ErrNotFound) {
			s.Log.Warn("submitted order vanished", zap.String("order_id", p.OrderID))
			s.markProcessed(ctx, env.EventID)
			return nil
		}
		return fmt.Errorf("confirm order %s: %w", p.OrderID, err)
	}

	// The projection is an eventually consistent mirror; a failed index write
	// is logged, not retried at the cost of the confirmation.
	if err := s.Index.Index(ctx, search.Doc{
		OrderID:           o.ID,
		CustomerID:        o.CustomerID,
		Status:            string(o.Status),
		OrderDate:         o.OrderDate,
		EstimatedDelivery: o.EstimatedDelivery,
	}); err != nil {
		s.Log.Error("index confirmed order failed", zap.String("order_id", o.ID), zap.Error(err))
	}

	s.publish(s.Confirmed, env, orders.EventOrderConfirmed, p.OrderID,
		orders.OrderConfirmedPayload{OrderID: p.OrderID, EstimatedDelivery: eta})
	s.markProcessed(ctx, env.EventID)
	s.Log.Info("order confirmed",
		zap.String("order_id", p.OrderID),
		zap.Time("estimated_delivery", eta))
	return nil
}

func (s *Service) reject(ctx context.Context, env orders.Envelope, p orders.OrderSubmittedPayload, shortages []orders.Shortage) error {
	if _, err := s.Store.UpdateStatus(ctx, p.OrderID, orders.StatusRejected); err != nil {
		var ite *orders.IllegalTransitionError
		if !errors.As(err, &ite) && !errors.Is(err, orders.ErrNotFound) {
			return fmt.Errorf("reject order %s: %w", p.OrderID, err)
		}
		// Cancelled or gone while in flight; announcing a rejection for it
		// would mislead downstream consumers.
		s.Log.Info("order not rejectable anymore", zap.String("order_id", p.OrderID), zap.Error(err))
		s.markProcessed(ctx, env.EventID)
		return nil
	}
	s.publish(s.Rejected, env, orders.EventOrderRejected, p.OrderID, orders.OrderRejectedPayload{
		OrderID: p.OrderID,
		Reason:  "OUT_OF_STOCK",
		Details: shortages,
	})
	s.markProcessed(ctx, env.EventID)
	s.Log.Info("order rejected",
		zap.String("order_id", p.OrderID),
		zap.Int("shortages", len(shortages)))
	return nil
}

func (s *Service) restock(ctx context.Context, items []orders.ItemQty) {
	for _, it := range items {
		if _, err := s.Ledger.Increment(ctx, it.ProductID, it.Qty); err != nil {
			s.Log.Error("restock failed",
				zap.String("product_id", it.ProductID),
				zap.Int("qty", it.Qty),
				zap.Error(err))
		}
	}
}

func (s *Service) markProcessed(ctx context.Context, eventID string) {
	if err := s.Dedup.Mark(ctx, eventID); err != nil {
		s.Log.Warn("dedup mark failed", zap.String("event_id", eventID), zap.Error(err))
	}
}

func (s *Service) publish(p kafkax.Publisher, in orders.Envelope, eventType, orderID string, payload any) {
	ev := orders.Envelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		EventVersion:  1,
		OccurredAt:    s.now().UTC(),
		Producer:      s.Name,
		TraceID:       in.TraceID,
		CorrelationID: orderID,
		Payload:       kafkax.MustMarshal(payload),
	}
	p.Publish(orders.PartitionKey(orderID), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(eventType)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}

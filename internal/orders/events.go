package orders

import (
	"encoding/json"
	"time"
)

const (
	EventOrderSubmitted = "OrderSubmitted"
	EventOrderConfirmed = "OrderConfirmed"
	EventOrderRejected  = "OrderRejected"
)

type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	TraceID       string          `json:"trace_id,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"` // order id
	Payload       json.RawMessage `json:"payload"`
}

type ItemQty struct {
	ProductID string `json:"product_id"`
	Qty       int    `json:"qty"`
}

type ItemLine struct {
	ProductID  string `json:"product_id"`
	Qty        int    `json:"qty"`
	PriceCents int    `json:"price_cents"`
}

type OrderSubmittedPayload struct {
	OrderID    string     `json:"order_id"`
	TrackID    string     `json:"track_id"`
	CustomerID string     `json:"customer_id"`
	Items      []ItemLine `json:"items"`
	TotalCents int        `json:"total_cents"`
	OrderDate  time.Time  `json:"order_date"`
}

type OrderConfirmedPayload struct {
	OrderID           string    `json:"order_id"`
	EstimatedDelivery time.Time `json:"estimated_delivery"`
}

type OrderRejectedPayload struct {
	OrderID string     `json:"order_id"`
	Reason  string     `json:"reason"` // e.g. OUT_OF_STOCK
	Details []Shortage `json:"details,omitempty"`
}

package orders

import "time"

type Product struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	PriceCents  int       `json:"price_cents"`
	Stock       int       `json:"stock"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type Order struct {
	ID         string      `json:"id"`
	TrackID    string      `json:"track_id"` // opaque token for external status lookup
	CustomerID string      `json:"customer_id"`
	Items      []OrderItem `json:"items"`
	Status     Status      `json:"status"`
	TotalCents int         `json:"total_cents"`
	OrderDate  time.Time   `json:"order_date"`
	// Set by the confirmation pipeline, nil until then.
	EstimatedDelivery *time.Time `json:"estimated_delivery,omitempty"`
}

// OrderItem captures the price at order time; later catalog price changes do
// not alter historical orders.
type OrderItem struct {
	ID         string `json:"id"`
	OrderID    string `json:"order_id"`
	ProductID  string `json:"product_id"`
	Qty        int    `json:"qty"`
	PriceCents int    `json:"price_cents"`
}

type Customer struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Admin        bool      `json:"admin"`
	CreatedAt    time.Time `json:"created_at"`
}

// Claims is the caller identity, passed explicitly into every operation that
// needs it rather than pulled from ambient state.
type Claims struct {
	CustomerID string
	Admin      bool
}

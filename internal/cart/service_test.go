package cart

import (
	"context"
	"testing"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mehmetsahinnn/OrderTrackingSystem/internal/orders"
)

type memCart struct {
	items map[string]map[string]int // customer -> product -> qty
}

func newMemCart() *memCart { return &memCart{items: make(map[string]map[string]int)} }

func (m *memCart) AddItem(_ context.Context, customerID, productID string, qty int) error {
	if m.items[customerID] == nil {
		m.items[customerID] = make(map[string]int)
	}
	m.items[customerID][productID] += qty
	return nil
}

func (m *memCart) Items(_ context.Context, customerID string) ([]Item, error) {
	var out []Item
	for pid, qty := range m.items[customerID] {
		out = append(out, Item{CustomerID: customerID, ProductID: pid, Qty: qty})
	}
	return out, nil
}

func (m *memCart) RemoveItem(_ context.Context, customerID, productID string) error {
	delete(m.items[customerID], productID)
	return nil
}

func (m *memCart) Clear(_ context.Context, customerID string) error {
	delete(m.items, customerID)
	return nil
}

type nopPublisher struct{}

func (nopPublisher) Publish(_, _ []byte, _ ...kafkago.Header) {}

func newTestService(t *testing.T) (*Service, *orders.Mem) {
	t.Helper()
	mem := orders.NewMem()
	ordersSvc := &orders.Service{
		Store:    mem,
		Catalog:  mem,
		Producer: nopPublisher{},
		Name:     "api-test",
		Log:      zap.NewNop(),
	}
	svc := &Service{
		Store:   newMemCart(),
		Catalog: mem,
		Orders:  ordersSvc,
		Log:     zap.NewNop(),
	}
	return svc, mem
}

func seedProduct(t *testing.T, mem *orders.Mem, id string, stock int) {
	t.Helper()
	require.NoError(t, mem.CreateProduct(context.Background(), &orders.Product{
		ID: id, Name: "p-" + id, PriceCents: 250, Stock: stock,
	}))
}

func TestAddAccumulatesQuantity(t *testing.T) {
	ctx := context.Background()
	svc, mem := newTestService(t)
	seedProduct(t, mem, "p1", 10)
	claims := orders.Claims{CustomerID: "c1"}

	require.NoError(t, svc.Add(ctx, claims, "p1", 2))
	require.NoError(t, svc.Add(ctx, claims, "p1", 1))

	items, err := svc.Items(ctx, claims)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 3, items[0].Qty)
}

func TestAddValidates(t *testing.T) {
	ctx := context.Background()
	svc, mem := newTestService(t)
	seedProduct(t, mem, "p1", 10)
	claims := orders.Claims{CustomerID: "c1"}

	err := svc.Add(ctx, claims, "p1", 0)
	assert.ErrorIs(t, err, orders.ErrInvalid)

	err = svc.Add(ctx, claims, "ghost", 1)
	assert.ErrorIs(t, err, orders.ErrNotFound)
}

func TestRemove(t *testing.T) {
	ctx := context.Background()
	svc, mem := newTestService(t)
	seedProduct(t, mem, "p1", 10)
	claims := orders.Claims{CustomerID: "c1"}

	require.NoError(t, svc.Add(ctx, claims, "p1", 2))
	require.NoError(t, svc.Remove(ctx, claims, "p1"))

	items, err := svc.Items(ctx, claims)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestCheckoutPlacesOrderAndClearsCart(t *testing.T) {
	ctx := context.Background()
	svc, mem := newTestService(t)
	seedProduct(t, mem, "p1", 10)
	seedProduct(t, mem, "p2", 10)
	claims := orders.Claims{CustomerID: "c1"}

	require.NoError(t, svc.Add(ctx, claims, "p1", 2))
	require.NoError(t, svc.Add(ctx, claims, "p2", 1))

	o, err := svc.Checkout(ctx, claims)
	require.NoError(t, err)
	assert.Equal(t, orders.StatusPending, o.Status)
	assert.Equal(t, 750, o.TotalCents)
	assert.Len(t, o.Items, 2)

	items, err := svc.Items(ctx, claims)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestCheckoutEmptyCart(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	_, err := svc.Checkout(ctx, orders.Claims{CustomerID: "c1"})
	assert.ErrorIs(t, err, ErrEmptyCart)
}

// A failed submission keeps the cart so the customer can retry.
func TestCheckoutKeepsCartOnRejection(t *testing.T) {
	ctx := context.Background()
	svc, mem := newTestService(t)
	seedProduct(t, mem, "p1", 1)
	claims := orders.Claims{CustomerID: "c1"}

	require.NoError(t, svc.Add(ctx, claims, "p1", 5))

	_, err := svc.Checkout(ctx, claims)
	var stockErr *orders.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)

	items, err := svc.Items(ctx, claims)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 5, items[0].Qty)
}

package httpx

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mehmetsahinnn/OrderTrackingSystem/internal/cart"
	"github.com/mehmetsahinnn/OrderTrackingSystem/internal/customers"
	"github.com/mehmetsahinnn/OrderTrackingSystem/internal/orders"
	"github.com/mehmetsahinnn/OrderTrackingSystem/internal/search"
)

type capturePublisher struct {
	values [][]byte
}

func (c *capturePublisher) Publish(_, value []byte, _ ...kafkago.Header) {
	c.values = append(c.values, value)
}

type memCustomers struct {
	byEmail map[string]*orders.Customer
}

func (m *memCustomers) Create(_ context.Context, c *orders.Customer) error {
	if _, ok := m.byEmail[c.Email]; ok {
		return customers.ErrEmailTaken
	}
	cp := *c
	m.byEmail[c.Email] = &cp
	return nil
}

func (m *memCustomers) ByEmail(_ context.Context, email string) (*orders.Customer, error) {
	c, ok := m.byEmail[email]
	if !ok {
		return nil, orders.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *memCustomers) ByID(_ context.Context, id string) (*orders.Customer, error) {
	for _, c := range m.byEmail {
		if c.ID == id {
			cp := *c
			return &cp, nil
		}
	}
	return nil, orders.ErrNotFound
}

type memCart struct {
	items map[string]map[string]int
}

func (m *memCart) AddItem(_ context.Context, customerID, productID string, qty int) error {
	if m.items[customerID] == nil {
		m.items[customerID] = make(map[string]int)
	}
	m.items[customerID][productID] += qty
	return nil
}

func (m *memCart) Items(_ context.Context, customerID string) ([]cart.Item, error) {
	var out []cart.Item
	for pid, qty := range m.items[customerID] {
		out = append(out, cart.Item{CustomerID: customerID, ProductID: pid, Qty: qty})
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

type env struct {
	srv       *httptest.Server
	mem       *orders.Mem
	index     *search.MemIndex
	pub       *capturePublisher
	custStore *memCustomers
}

func newEnv(t *testing.T) *env {
	t.Helper()
	log := zap.NewNop()
	mem := orders.NewMem()
	index := search.NewMemIndex()
	pub := &capturePublisher{}
	custStore := &memCustomers{byEmail: make(map[string]*orders.Customer)}
	auth := &Auth{Secret: []byte("test-secret")}

	ordersSvc := &orders.Service{
		Store:    mem,
		Catalog:  mem,
		Producer: pub,
		Name:     "api-test",
		Log:      log,
	}
	customersSvc := &customers.Service{
		Store:  custStore,
		Secret: auth.Secret,
		TTL:    time.Hour,
		Log:    log,
	}
	cartSvc := &cart.Service{
		Store:   &memCart{items: make(map[string]map[string]int)},
		Catalog: mem,
		Orders:  ordersSvc,
		Log:     log,
	}

	r := NewRouter(log)
	(&OrdersHandler{Svc: ordersSvc, Index: index, Auth: auth, Log: log}).Register(r)
	(&ProductsHandler{Store: mem, Auth: auth, Log: log}).Register(r)
	(&CustomersHandler{Svc: customersSvc, Log: log}).Register(r)
	(&CartHandler{Svc: cartSvc, Auth: auth, Log: log}).Register(r)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return &env{srv: srv, mem: mem, index: index, pub: pub, custStore: custStore}
}

func (e *env) do(t *testing.T, method, path, token string, body any) *http.Response {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, e.srv.URL+path, rd)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func (e *env) registerAndLogin(t *testing.T, email string, admin bool) string {
	t.Helper()
	resp := e.do(t, http.MethodPost, "/customers/register", "", map[string]string{
		"name": "Test", "email": email, "password": "longenough",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	if admin {
		// There is no self-serve admin signup; flip the flag in the store.
		e.custStore.byEmail[email].Admin = true
	}

	resp = e.do(t, http.MethodPost, "/customers/login", "", map[string]string{
		"email": email, "password": "longenough",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	return decode[map[string]string](t, resp)["token"]
}

func TestPlaceOrderFlow(t *testing.T) {
	e := newEnv(t)
	seed(t, e, "p1", 9, 1500)

	token := e.registerAndLogin(t, "buyer@example.com", false)

	resp := e.do(t, http.MethodPost, "/orders", token, map[string]any{
		"items": []map[string]any{{"product_id": "p1", "qty": 2}},
	})
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	o := decode[orders.Order](t, resp)
	assert.Equal(t, orders.StatusPending, o.Status)
	assert.Equal(t, 3000, o.TotalCents)
	assert.Len(t, e.pub.values, 1)

	// Owner sees the order.
	resp = e.do(t, http.MethodGet, "/orders/"+o.ID, token, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// Anyone with the track id sees it, no token needed.
	resp = e.do(t, http.MethodGet, "/orders/track/"+o.TrackID, "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// A different customer does not.
	other := e.registerAndLogin(t, "other@example.com", false)
	resp = e.do(t, http.MethodGet, "/orders/"+o.ID, other, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestPlaceOrderRequiresAuth(t *testing.T) {
	e := newEnv(t)
	resp := e.do(t, http.MethodPost, "/orders", "", map[string]any{"items": []map[string]any{}})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = e.do(t, http.MethodPost, "/orders", "garbage.token.here", map[string]any{"items": []map[string]any{}})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestPlaceOrderInsufficientStock(t *testing.T) {
	e := newEnv(t)
	seed(t, e, "p1", 1, 1000)
	token := e.registerAndLogin(t, "buyer@example.com", false)

	resp := e.do(t, http.MethodPost, "/orders", token, map[string]any{
		"items": []map[string]any{{"product_id": "p1", "qty": 5}},
	})
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	body := decode[map[string]any](t, resp)
	assert.NotEmpty(t, body["details"])
	assert.Empty(t, e.pub.values)
}

func TestProductEndpoints(t *testing.T) {
	e := newEnv(t)
	seed(t, e, "p1", 5, 1200)

	// Public read.
	resp := e.do(t, http.MethodGet, "/products/p1", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = e.do(t, http.MethodGet, "/products?min_price_cents=1000&max_price_cents=2000", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	products := decode[[]orders.Product](t, resp)
	require.Len(t, products, 1)

	resp = e.do(t, http.MethodGet, "/products?min_price_cents=abc", "", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// Writes need an admin token.
	buyer := e.registerAndLogin(t, "buyer@example.com", false)
	resp = e.do(t, http.MethodPost, "/products", buyer, map[string]any{
		"name": "Widget", "price_cents": 100, "stock": 1,
	})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = e.do(t, http.MethodPost, "/products", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	admin := e.registerAndLogin(t, "admin@example.com", true)
	resp = e.do(t, http.MethodPost, "/products", admin, map[string]any{
		"name": "Widget", "category": "tools", "price_cents": 100, "stock": 1,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decode[orders.Product](t, resp)
	assert.NotEmpty(t, created.ID)

	resp = e.do(t, http.MethodPut, "/products/"+created.ID, admin, map[string]any{
		"name": "Widget v2", "category": "tools", "price_cents": 150,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = e.do(t, http.MethodDelete, "/products/"+created.ID, admin, nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = e.do(t, http.MethodGet, "/products/"+created.ID, "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestSearchOrdersAdminOnly(t *testing.T) {
	e := newEnv(t)
	orderDate := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, e.index.Index(context.Background(), search.Doc{
		OrderID: "o1", CustomerID: "c1", Status: "CONFIRMED", OrderDate: orderDate,
	}))

	buyer := e.registerAndLogin(t, "buyer@example.com", false)
	resp := e.do(t, http.MethodGet, "/orders/search?status=CONFIRMED", buyer, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	admin := e.registerAndLogin(t, "admin@example.com", true)
	resp = e.do(t, http.MethodGet, "/orders/search?status=CONFIRMED", admin, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	docs := decode[[]search.Doc](t, resp)
	require.Len(t, docs, 1)
	assert.Equal(t, "o1", docs[0].OrderID)

	resp = e.do(t, http.MethodGet,
		"/orders/search?from=2024-06-01T00:00:00Z&to=2024-06-02T00:00:00Z", admin, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	docs = decode[[]search.Doc](t, resp)
	require.Len(t, docs, 1)

	resp = e.do(t, http.MethodGet, "/orders/search", admin, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCartFlow(t *testing.T) {
	e := newEnv(t)
	seed(t, e, "p1", 10, 400)
	token := e.registerAndLogin(t, "buyer@example.com", false)

	resp := e.do(t, http.MethodPost, "/cart/items", token, map[string]any{"product_id": "p1", "qty": 3})
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = e.do(t, http.MethodGet, "/cart", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	items := decode[[]cart.Item](t, resp)
	require.Len(t, items, 1)
	assert.Equal(t, 3, items[0].Qty)

	resp = e.do(t, http.MethodPost, "/cart/checkout", token, nil)
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	o := decode[orders.Order](t, resp)
	assert.Equal(t, 1200, o.TotalCents)

	resp = e.do(t, http.MethodGet, "/cart", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	items = decode[[]cart.Item](t, resp)
	assert.Empty(t, items)

	resp = e.do(t, http.MethodPost, "/cart/checkout", token, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestStatusTransitionConflict(t *testing.T) {
	e := newEnv(t)
	seed(t, e, "p1", 10, 500)
	token := e.registerAndLogin(t, "buyer@example.com", false)

	resp := e.do(t, http.MethodPost, "/orders", token, map[string]any{
		"items": []map[string]any{{"product_id": "p1", "qty": 1}},
	})
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	o := decode[orders.Order](t, resp)

	// Non-admin cannot drive status at all.
	resp = e.do(t, http.MethodPatch, "/orders/"+o.ID+"/status", token, map[string]string{"status": "SHIPPED"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	// Cancelling a pending order is fine; cancelling again is a conflict.
	resp = e.do(t, http.MethodPost, "/orders/"+o.ID+"/cancel", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp = e.do(t, http.MethodPost, "/orders/"+o.ID+"/cancel", token, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func seed(t *testing.T, e *env, id string, stock, priceCents int) {
	t.Helper()
	require.NoError(t, e.mem.CreateProduct(context.Background(), &orders.Product{
		ID: id, Name: fmt.Sprintf("product %s", id), Category: "general", PriceCents: priceCents, Stock: stock,
	}))
}

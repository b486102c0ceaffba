package httpx

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mehmetsahinnn/OrderTrackingSystem/internal/orders"
)

type ProductsHandler struct {
	Store orders.ProductStore
	Auth  *Auth
	Log   *zap.Logger
}

func (h *ProductsHandler) Register(r *chi.Mux) {
	r.Get("/products", h.searchProducts)
	r.Get("/products/{id}", h.getProduct)
	r.Group(func(r chi.Router) {
		r.Use(h.Auth.Require)
		r.Post("/products", h.createProduct)
		r.Put("/products/{id}", h.updateProduct)
		r.Delete("/products/{id}", h.deleteProduct)
	})
}

func parseCents(s string) (*int, bool) {
	if s == "" {
		return nil, true
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return nil, false
	}
	return &n, true
}

func (h *ProductsHandler) searchProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	minCents, ok1 := parseCents(q.Get("min_price_cents"))
	maxCents, ok2 := parseCents(q.Get("max_price_cents"))
	if !ok1 || !ok2 {
		writeJSON(w, http.StatusBadRequest, errBody{Error: "price bounds must be integer cents"})
		return
	}
	if minCents != nil && maxCents != nil && *minCents > *maxCents {
		writeJSON(w, http.StatusBadRequest, errBody{Error: "min price above max price"})
		return
	}
	out, err := h.Store.SearchProducts(r.Context(), q.Get("category"), minCents, maxCents)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *ProductsHandler) getProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.Store.GetProduct(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

type productReq struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category"`
	PriceCents  int    `json:"price_cents"`
	Stock       int    `json:"stock"`
}

func (h *ProductsHandler) createProduct(w http.ResponseWriter, r *http.Request) {
	if !claimsFrom(r).Admin {
		writeError(w, h.Log, orders.ErrForbidden)
		return
	}
	var req productReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errBody{Error: "invalid json"})
		return
	}
	if req.Name == "" || req.PriceCents < 0 || req.Stock < 0 {
		writeJSON(w, http.StatusBadRequest, errBody{Error: "name required, price and stock must not be negative"})
		return
	}
	p := &orders.Product{
		ID:          uuid.NewString(),
		Name:        req.Name,
		Description: req.Description,
		Category:    req.Category,
		PriceCents:  req.PriceCents,
		Stock:       req.Stock,
	}
	if err := h.Store.CreateProduct(r.Context(), p); err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (h *ProductsHandler) updateProduct(w http.ResponseWriter, r *http.Request) {
	if !claimsFrom(r).Admin {
		writeError(w, h.Log, orders.ErrForbidden)
		return
	}
	var req productReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errBody{Error: "invalid json"})
		return
	}
	p := &orders.Product{
		ID:          chi.URLParam(r, "id"),
		Name:        req.Name,
		Description: req.Description,
		Category:    req.Category,
		PriceCents:  req.PriceCents,
	}
	if err := h.Store.UpdateProduct(r.Context(), p); err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *ProductsHandler) deleteProduct(w http.ResponseWriter, r *http.Request) {
	if !claimsFrom(r).Admin {
		writeError(w, h.Log, orders.ErrForbidden)
		return
	}
	if err := h.Store.DeleteProduct(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, h.Log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

package httpx

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/mehmetsahinnn/OrderTrackingSystem/internal/cart"
)

type CartHandler struct {
	Svc  *cart.Service
	Auth *Auth
	Log  *zap.Logger
}

func (h *CartHandler) Register(r *chi.Mux) {
	r.Group(func(r chi.Router) {
		r.Use(h.Auth.Require)
		r.Get("/cart", h.items)
		r.Post("/cart/items", h.addItem)
		r.Delete("/cart/items/{productID}", h.removeItem)
		r.Post("/cart/checkout", h.checkout)
	})
}

func (h *CartHandler) items(w http.ResponseWriter, r *http.Request) {
	out, err := h.Svc.Items(r.Context(), claimsFrom(r))
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *CartHandler) addItem(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ProductID string `json:"product_id"`
		Qty       int    `json:"qty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errBody{Error: "invalid json"})
		return
	}
	if err := h.Svc.Add(r.Context(), claimsFrom(r), req.ProductID, req.Qty); err != nil {
		writeError(w, h.Log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *CartHandler) removeItem(w http.ResponseWriter, r *http.Request) {
	if err := h.Svc.Remove(r.Context(), claimsFrom(r), chi.URLParam(r, "productID")); err != nil {
		writeError(w, h.Log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *CartHandler) checkout(w http.ResponseWriter, r *http.Request) {
	o, err := h.Svc.Checkout(r.Context(), claimsFrom(r))
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusAccepted, o)
}

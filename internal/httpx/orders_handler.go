package httpx

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/mehmetsahinnn/OrderTrackingSystem/internal/orders"
	"github.com/mehmetsahinnn/OrderTrackingSystem/internal/search"
)

type OrdersHandler struct {
	Svc   *orders.Service
	Index search.Index
	Auth  *Auth
	Log   *zap.Logger
}

func (h *OrdersHandler) Register(r *chi.Mux) {
	r.Get("/orders/track/{trackID}", h.trackOrder)
	r.Group(func(r chi.Router) {
		r.Use(h.Auth.Require)
		r.Post("/orders", h.placeOrder)
		r.Get("/orders", h.listOrders)
		r.Get("/orders/search", h.searchOrders)
		r.Get("/orders/{id}", h.getOrder)
		r.Patch("/orders/{id}/status", h.updateStatus)
		r.Post("/orders/{id}/cancel", h.cancelOrder)
	})
}

func (h *OrdersHandler) placeOrder(w http.ResponseWriter, r *http.Request) {
	var req orders.OrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errBody{Error: "invalid json"})
		return
	}
	o, err := h.Svc.PlaceOrder(r.Context(), claimsFrom(r), req)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusAccepted, o)
}

func (h *OrdersHandler) listOrders(w http.ResponseWriter, r *http.Request) {
	out, err := h.Svc.ListOrders(r.Context(), claimsFrom(r))
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *OrdersHandler) getOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.Svc.GetOrder(r.Context(), claimsFrom(r), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (h *OrdersHandler) trackOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.Svc.TrackOrder(r.Context(), chi.URLParam(r, "trackID"))
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (h *OrdersHandler) updateStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status orders.Status `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errBody{Error: "invalid json"})
		return
	}
	o, err := h.Svc.UpdateStatus(r.Context(), claimsFrom(r), chi.URLParam(r, "id"), req.Status)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (h *OrdersHandler) cancelOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.Svc.CancelOrder(r.Context(), claimsFrom(r), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

// searchOrders serves the read-side projection: ?status=... or ?from=...&to=...
// (RFC 3339). Admin only; the mirror spans all customers.
func (h *OrdersHandler) searchOrders(w http.ResponseWriter, r *http.Request) {
	if !claimsFrom(r).Admin {
		writeError(w, h.Log, orders.ErrForbidden)
		return
	}
	q := r.URL.Query()
	if status := q.Get("status"); status != "" {
		docs, err := h.Index.ByStatus(r.Context(), status)
		if err != nil {
			writeError(w, h.Log, err)
			return
		}
		writeJSON(w, http.StatusOK, docs)
		return
	}
	from, err1 := time.Parse(time.RFC3339, q.Get("from"))
	to, err2 := time.Parse(time.RFC3339, q.Get("to"))
	if err1 != nil || err2 != nil {
		writeJSON(w, http.StatusBadRequest, errBody{Error: "status or from/to (RFC3339) required"})
		return
	}
	docs, err := h.Index.ByDateRange(r.Context(), from, to)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, docs)
}

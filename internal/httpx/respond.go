package httpx

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/mehmetsahinnn/OrderTrackingSystem/internal/cart"
	"github.com/mehmetsahinnn/OrderTrackingSystem/internal/customers"
	"github.com/mehmetsahinnn/OrderTrackingSystem/internal/orders"
)

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

type errBody struct {
	Error   string            `json:"error"`
	Details []orders.Shortage `json:"details,omitempty"`
}

// writeError maps the domain error taxonomy onto HTTP status codes.
func writeError(w http.ResponseWriter, log *zap.Logger, err error) {
	var stock *orders.InsufficientStockError
	var illegal *orders.IllegalTransitionError
	switch {
	case errors.As(err, &stock):
		writeJSON(w, http.StatusConflict, errBody{Error: stock.Error(), Details: stock.Shortages})
	case errors.As(err, &illegal):
		writeJSON(w, http.StatusConflict, errBody{Error: illegal.Error()})
	case errors.Is(err, orders.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errBody{Error: "not found"})
	case errors.Is(err, orders.ErrForbidden):
		writeJSON(w, http.StatusForbidden, errBody{Error: "forbidden"})
	case errors.Is(err, customers.ErrInvalidCredentials):
		writeJSON(w, http.StatusUnauthorized, errBody{Error: "invalid credentials"})
	case errors.Is(err, customers.ErrEmailTaken):
		writeJSON(w, http.StatusConflict, errBody{Error: err.Error()})
	case errors.Is(err, orders.ErrInvalid), errors.Is(err, cart.ErrEmptyCart):
		writeJSON(w, http.StatusBadRequest, errBody{Error: err.Error()})
	default:
		log.Error("request failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errBody{Error: "internal error"})
	}
}

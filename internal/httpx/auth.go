package httpx

import (
	"context"
	"net/http"
	"strings"

	"github.com/mehmetsahinnn/OrderTrackingSystem/internal/customers"
	"github.com/mehmetsahinnn/OrderTrackingSystem/internal/orders"
)

type claimsKey struct{}

type Auth struct{ Secret []byte }

// Require rejects requests without a valid bearer token and makes the parsed
// claims available to the handler, which passes them on explicitly.
func (a *Auth) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		if raw == "" || raw == r.Header.Get("Authorization") {
			writeJSON(w, http.StatusUnauthorized, errBody{Error: "missing bearer token"})
			return
		}
		claims, err := customers.ParseToken(a.Secret, raw)
		if err != nil {
			writeJSON(w, http.StatusUnauthorized, errBody{Error: "invalid token"})
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), claimsKey{}, claims)))
	})
}

func claimsFrom(r *http.Request) orders.Claims {
	claims, _ := r.Context().Value(claimsKey{}).(orders.Claims)
	return claims
}

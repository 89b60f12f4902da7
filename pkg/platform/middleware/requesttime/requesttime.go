// Package requesttime pins a single "now" per HTTP request. Every
// timestamp derived during one request — intake, seal, event recording —
// reads the same clock value, so records produced by one request never
// disagree about when it happened.
package requesttime

import (
	"net/http"
	"time"

	"claimsgate/pkg/requestcontext"
)

// Middleware captures the current time at the start of the request and
// stores it in the context.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := requestcontext.WithTime(r.Context(), time.Now())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

package testutil

import (
	"net/http"
	"time"

	"claimsgate/pkg/requestcontext"
)

// WithCorrelationID adds a correlation id to the request context, simulating
// what the correlation middleware does for real requests.
func WithCorrelationID(req *http.Request, cid string) *http.Request {
	ctx := requestcontext.WithCorrelationID(req.Context(), cid)
	return req.WithContext(ctx)
}

// WithRequestTime pins the request-scoped clock, simulating the requesttime
// middleware. Tests use this to make recorded timestamps deterministic.
func WithRequestTime(req *http.Request, t time.Time) *http.Request {
	ctx := requestcontext.WithTime(req.Context(), t)
	return req.WithContext(ctx)
}

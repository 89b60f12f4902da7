// Package correlation assigns every request a correlation id. Inbound ids
// from X-Correlation-ID are honored so a caller can stitch together a
// multi-service trace; absent ones are minted here.
package correlation

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"claimsgate/pkg/requestcontext"
)

// Header is the wire name for the correlation id, on both request and
// response.
const Header = "X-Correlation-ID"

// maxInboundLength caps attacker-controlled header growth before the id
// reaches logs.
const maxInboundLength = 128

// Middleware stores the correlation id in the request context and echoes
// it on the response.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cid := strings.TrimSpace(r.Header.Get(Header))
		if cid == "" || len(cid) > maxInboundLength {
			cid = uuid.NewString()
		}
		w.Header().Set(Header, cid)
		ctx := requestcontext.WithCorrelationID(r.Context(), cid)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

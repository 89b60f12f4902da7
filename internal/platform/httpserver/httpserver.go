// Package httpserver builds the claims API server with the process-wide
// transport defaults.
package httpserver

import (
	"net/http"
	"time"
)

// New builds the HTTP server for the claims API. Claim submissions carry
// small JSON bodies, so a tight header timeout is the only transport-level
// limit needed; per-request deadlines belong to the handlers.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}
}

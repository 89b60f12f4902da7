// Package httputil centralizes JSON encoding and domain-error translation
// for HTTP handlers so every endpoint emits the same envelopes.
package httputil

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	derrors "claimsgate/pkg/domain-errors"
)

// ErrorResponse is the JSON error envelope.
type ErrorResponse struct {
	Error            string              `json:"error"`
	ErrorDescription string              `json:"error_description,omitempty"`
	Fields           map[string][]string `json:"fields,omitempty"`
	CorrelationID    string              `json:"correlation_id,omitempty"`
}

// WriteJSON writes v as a JSON response with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError translates err into the JSON error envelope. Internal errors
// omit the description so infrastructure detail never leaks to clients.
func WriteError(w http.ResponseWriter, err error) {
	WriteErrorCorrelated(w, err, "")
}

// WriteErrorCorrelated is WriteError with a correlation id echoed in the
// body so a failed submission can be traced across service logs.
func WriteErrorCorrelated(w http.ResponseWriter, err error, correlationID string) {
	code := derrors.CodeOf(err)
	resp := ErrorResponse{
		Error:         string(code),
		CorrelationID: correlationID,
	}
	if code != derrors.CodeInternal {
		var de *derrors.Error
		if errors.As(err, &de) {
			resp.ErrorDescription = de.Description
			resp.Fields = de.Fields
		}
	}
	WriteJSON(w, derrors.ToHTTPStatus(code), resp)
}

// Decode parses a JSON request body into T. On failure it writes an
// invalid_input response and returns ok=false; handlers just return.
func Decode[T any](w http.ResponseWriter, r *http.Request, logger *slog.Logger, ctx context.Context) (T, bool) {
	var req T
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if logger != nil {
			logger.WarnContext(ctx, "request body decode failed", "error", err)
		}
		WriteError(w, derrors.Wrap(derrors.CodeInvalidInput, "malformed JSON body", err))
		var zero T
		return zero, false
	}
	return req, true
}

// Package domainerrors defines the coded error taxonomy shared by services
// and the HTTP layer. Services attach a Code; the transport maps the code to
// an HTTP status without inspecting error strings.
package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code classifies an error for transport mapping and logging.
type Code string

const (
	// CodeInvalidInput marks client-fixable validation failures (400).
	CodeInvalidInput Code = "invalid_input"
	// CodeNotFound marks lookups of entities that do not exist (404).
	CodeNotFound Code = "not_found"
	// CodeConflict marks duplicate or tamper attempts on sealed state (409).
	CodeConflict Code = "conflict"
	// CodeInvalidState marks operations rejected by a lifecycle guard (422).
	CodeInvalidState Code = "invalid_state"
	// CodeBadGateway marks failures consulting an external truth source (502).
	// Verification fails closed: an unreachable ledger is never a pass.
	CodeBadGateway Code = "bad_gateway"
	// CodeInternal marks unexpected failures (500). Descriptions are not
	// exposed to clients.
	CodeInternal Code = "internal_error"
)

// Error carries a code, a human-readable description, optional per-field
// detail for validation failures, and an optional wrapped cause.
type Error struct {
	Code        Code
	Description string
	Fields      map[string][]string
	cause       error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Description, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Description)
}

func (e *Error) Unwrap() error { return e.cause }

// New creates a coded error.
func New(code Code, description string) *Error {
	return &Error{Code: code, Description: description}
}

// Wrap creates a coded error preserving the underlying cause for errors.Is
// chains and logging.
func Wrap(code Code, description string, cause error) *Error {
	return &Error{Code: code, Description: description, cause: cause}
}

// WithFields attaches per-field validation detail.
func (e *Error) WithFields(fields map[string][]string) *Error {
	e.Fields = fields
	return e
}

// CodeOf extracts the code from err, defaulting to CodeInternal for
// unclassified errors.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// HasCode reports whether err carries the given code.
func HasCode(err error, code Code) bool {
	return CodeOf(err) == code
}

// FieldsOf extracts per-field detail from err, if any.
func FieldsOf(err error) map[string][]string {
	var de *Error
	if errors.As(err, &de) {
		return de.Fields
	}
	return nil
}

// ToHTTPStatus maps an error code to its HTTP status.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeInvalidInput:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeConflict:
		return http.StatusConflict
	case CodeInvalidState:
		return http.StatusUnprocessableEntity
	case CodeBadGateway:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

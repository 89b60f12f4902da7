package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodeOf(t *testing.T) {
	t.Run("direct coded error", func(t *testing.T) {
		err := New(CodeConflict, "already sealed")
		assert.Equal(t, CodeConflict, CodeOf(err))
	})

	t.Run("wrapped coded error", func(t *testing.T) {
		inner := New(CodeNotFound, "missing")
		err := fmt.Errorf("lookup: %w", inner)
		assert.Equal(t, CodeNotFound, CodeOf(err))
	})

	t.Run("unclassified error defaults to internal", func(t *testing.T) {
		assert.Equal(t, CodeInternal, CodeOf(errors.New("boom")))
	})

	t.Run("nil error defaults to internal", func(t *testing.T) {
		assert.Equal(t, CodeInternal, CodeOf(nil))
	})
}

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(CodeBadGateway, "ledger unreachable", cause)

	require.ErrorIs(t, err, cause)
	assert.Equal(t, CodeBadGateway, CodeOf(err))
	assert.Contains(t, err.Error(), "ledger unreachable")
	assert.Contains(t, err.Error(), "connection refused")
}

func TestWithFields(t *testing.T) {
	fields := map[string][]string{
		"id":                {"must be a valid non-nil UUID"},
		"incident.severity": {"must be within [1, 10]"},
	}
	err := New(CodeInvalidInput, "claim submission has 2 invalid field(s)").WithFields(fields)

	assert.Equal(t, fields, FieldsOf(err))
	assert.Nil(t, FieldsOf(errors.New("plain")))
}

func TestToHTTPStatus(t *testing.T) {
	tests := []struct {
		code Code
		want int
	}{
		{CodeInvalidInput, http.StatusBadRequest},
		{CodeNotFound, http.StatusNotFound},
		{CodeConflict, http.StatusConflict},
		{CodeInvalidState, http.StatusUnprocessableEntity},
		{CodeBadGateway, http.StatusBadGateway},
		{CodeInternal, http.StatusInternalServerError},
		{Code("unknown"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ToHTTPStatus(tt.code), "code %s", tt.code)
	}
}

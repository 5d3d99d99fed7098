package errors

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestStoreError_WrapsCause(t *testing.T) {
	cause := fmt.Errorf("disk full")

	err := NewStoreError("put", cause)

	assert.True(t, IsStore(err))
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, http.StatusInternalServerError, err.HTTPStatus)
	assert.Contains(t, err.Error(), "put")
}

func TestIsType_ThroughWrapping(t *testing.T) {
	wrapped := fmt.Errorf("loading: %w", NewNotFoundError("comparison"))

	assert.True(t, IsNotFound(wrapped))
	assert.False(t, IsValidation(wrapped))
}

func TestErrorHandler_Handle(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantType   string
	}{
		{"validation", NewValidationError("bad input"), http.StatusBadRequest, "VALIDATION"},
		{"not found", NewNotFoundError("comparison"), http.StatusNotFound, "NOT_FOUND"},
		{"unavailable", NewUnavailableError("store"), http.StatusServiceUnavailable, "UNAVAILABLE"},
		{"plain error", fmt.Errorf("boom"), http.StatusInternalServerError, "INTERNAL"},
	}

	handler := NewErrorHandler(zap.NewNop(), false)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/x", nil)
			rec := httptest.NewRecorder()

			handler.Handle(rec, req, tt.err)

			assert.Equal(t, tt.wantStatus, rec.Code)
			var body ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.True(t, body.Error)
			assert.Equal(t, tt.wantType, body.Type)
		})
	}
}

func TestErrorHandler_RecoversPanics(t *testing.T) {
	handler := NewErrorHandler(zap.NewNop(), false)
	h := handler.Middleware(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("kaboom")
	}))
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestErrorHandler_DebugMode(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("X-Amzn-Trace-Id", "Root=1-abc")

	t.Run("plain errors stay generic outside debug", func(t *testing.T) {
		rec := httptest.NewRecorder()
		NewErrorHandler(zap.NewNop(), false).Handle(rec, req, fmt.Errorf("db password rejected"))

		var body ErrorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "An internal error occurred", body.Message)
		assert.Equal(t, "Root=1-abc", body.TraceID)
		assert.NotContains(t, body.Details, "stack_trace")
	})

	t.Run("debug exposes message and stack", func(t *testing.T) {
		appErr := NewValidationError("bad input").WithDetail("field", "name1")
		rec := httptest.NewRecorder()
		NewErrorHandler(zap.NewNop(), true).Handle(rec, req, appErr)

		var body ErrorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Contains(t, body.Details, "stack_trace")
		assert.Equal(t, "name1", body.Details["field"])
		assert.NotContains(t, appErr.Details, "stack_trace")
	})
}

func TestErrorHandler_RouteFallbacks(t *testing.T) {
	handler := NewErrorHandler(zap.NewNop(), false)

	rec := httptest.NewRecorder()
	handler.MethodNotAllowed(rec, httptest.NewRequest(http.MethodPut, "/compare", nil))

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	var body ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "METHOD_NOT_ALLOWED", body.Code)
	assert.Contains(t, body.Message, "PUT")

	rec = httptest.NewRecorder()
	handler.RouteNotFound(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

package errors

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/fulmenhq/gofulmen/errors"
	"github.com/roamsim/roamsim/internal/server/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPStatusFromCode(t *testing.T) {
	cases := map[string]int{
		"INVALID_INPUT":        http.StatusBadRequest,
		"INVALID_PACKAGE":      http.StatusBadRequest,
		"NOT_FOUND":            http.StatusNotFound,
		"OUT_OF_STOCK":         http.StatusConflict,
		"INSUFFICIENT_BALANCE": http.StatusServiceUnavailable,
		"PROVIDER_BUSY":        http.StatusServiceUnavailable,
		"PROVIDER_UNAVAILABLE": http.StatusBadGateway,
		"PROVIDER_TIMEOUT":     http.StatusGatewayTimeout,
		"RATE_LIMITED":         http.StatusTooManyRequests,
		"SOMETHING_ELSE":       http.StatusInternalServerError,
	}

	for code, want := range cases {
		assert.Equal(t, want, HTTPStatusFromCode(code), "code %s", code)
	}
}

func TestHTTPStatusFromEnvelope(t *testing.T) {
	assert.Equal(t, http.StatusInternalServerError, HTTPStatusFromEnvelope(nil))
	assert.Equal(t, http.StatusNotFound, HTTPStatusFromEnvelope(NewNotFoundError("missing")))
}

func TestEnsureEnvelope(t *testing.T) {
	t.Run("passes envelopes through unchanged", func(t *testing.T) {
		original := NewInvalidInputError("bad request")
		assert.Same(t, original, EnsureEnvelope(original))
	})

	t.Run("wraps plain errors as internal", func(t *testing.T) {
		envelope := EnsureEnvelope(fmt.Errorf("connection reset"))
		require.NotNil(t, envelope)
		assert.Equal(t, "INTERNAL_ERROR", envelope.Code)
		assert.Equal(t, "connection reset", envelope.Context["wrapped_error"])
	})

	t.Run("tolerates nil", func(t *testing.T) {
		envelope := EnsureEnvelope(nil)
		require.NotNil(t, envelope)
		assert.Equal(t, "INTERNAL_ERROR", envelope.Code)
	})
}

func TestWrapCarriesRequestCorrelationID(t *testing.T) {
	ctx := context.WithValue(context.Background(), middleware.RequestIDContextKey, "req-abc-123")

	envelope := WrapDatabaseError(ctx, fmt.Errorf("disk I/O error"), "failed to persist order")
	require.NotNil(t, envelope)
	assert.Equal(t, "DATABASE_ERROR", envelope.Code)
	assert.Equal(t, "req-abc-123", envelope.CorrelationID)
	assert.Equal(t, "req-abc-123", envelope.TraceID)
	assert.Equal(t, "disk I/O error", envelope.Context["wrapped_error"])
}

func TestWrapGeneratesCorrelationIDWithoutContext(t *testing.T) {
	envelope := Wrap(nil, "CONFIG_INVALID", "bad config", fmt.Errorf("yaml: line 3"))
	require.NotNil(t, envelope)
	assert.NotEmpty(t, envelope.CorrelationID)
}

func TestEnsureCorrelationID(t *testing.T) {
	t.Run("keeps existing id", func(t *testing.T) {
		envelope := NewInternalError("boom").WithCorrelationID("existing")
		assert.Equal(t, "existing", EnsureCorrelationID(envelope, nil).CorrelationID)
	})

	t.Run("falls back when context has none", func(t *testing.T) {
		envelope := EnsureCorrelationID(NewInternalError("boom"), context.Background())
		assert.True(t, strings.HasPrefix(envelope.CorrelationID, "fallback-"))
	})
}

func TestResponseDetailsMergePrefersDetails(t *testing.T) {
	envelope := NewInvalidInputError("bad package code")
	envelope, err := envelope.WithContext(map[string]interface{}{
		"package_code": "from-context",
		"provider":     "esimaccess",
	})
	require.NoError(t, err)
	envelope = envelope.WithDetails(map[string]interface{}{
		"package_code": "from-details",
	})

	details := ResponseDetails(envelope)
	assert.Equal(t, "from-details", details["package_code"])
	assert.Equal(t, "esimaccess", details["provider"])

	assert.Nil(t, ResponseDetails(nil))
	assert.Nil(t, ResponseDetails(NewInternalError("no details")))
}

func TestRespondWithErrorWritesStandardBody(t *testing.T) {
	recorder := httptest.NewRecorder()
	request := httptest.NewRequest(http.MethodGet, "/api/v1/orders/missing", nil)

	envelope := NewNotFoundError("order not found").
		WithDetails(map[string]interface{}{"order_no": "TEST202608270001"})

	RespondWithError(recorder, request, envelope)

	assert.Equal(t, http.StatusNotFound, recorder.Code)
	assert.Equal(t, "application/json", recorder.Header().Get("Content-Type"))

	var body HTTPErrorResponse
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&body))
	assert.Equal(t, "NOT_FOUND", body.Error.Code)
	assert.Equal(t, "order not found", body.Error.Message)
	assert.Equal(t, "TEST202608270001", body.Error.Details["order_no"])
	assert.NotEmpty(t, body.Error.RequestID)
}

func TestRespondWithEnvelopeNormalizesNil(t *testing.T) {
	recorder := httptest.NewRecorder()
	RespondWithEnvelope(recorder, nil, errors.NewErrorEnvelope("PROVIDER_BUSY", "upstream busy"))

	assert.Equal(t, http.StatusServiceUnavailable, recorder.Code)

	var body HTTPErrorResponse
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&body))
	assert.Equal(t, "PROVIDER_BUSY", body.Error.Code)
}

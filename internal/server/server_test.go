package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/roamsim/roamsim/internal/config"
	apperrors "github.com/roamsim/roamsim/internal/errors"
	"github.com/roamsim/roamsim/internal/esim"
)

func newBareServer(cfg *config.Config) *Server {
	if cfg == nil {
		cfg = &config.Config{}
		cfg.Server.Host = "127.0.0.1"
	}
	providers := esim.NewSelector(esim.Config{BaseURL: "http://127.0.0.1:1"})
	return New(cfg, providers, nil)
}

func TestServerUsesStandardErrorHandlers(t *testing.T) {
	srv := newBareServer(nil)

	req := httptest.NewRequest(http.MethodGet, "/does-not-exist", nil)
	rec := httptest.NewRecorder()

	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", rec.Code)
	}

	var body apperrors.HTTPErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}

	if body.Error.Code != "NOT_FOUND" {
		t.Fatalf("expected error code NOT_FOUND, got %s", body.Error.Code)
	}
}

func TestServerMethodNotAllowed(t *testing.T) {
	srv := newBareServer(nil)

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/catalog/regions", nil)
	rec := httptest.NewRecorder()

	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected status 405, got %d", rec.Code)
	}
}

func TestServerInboundRateLimit(t *testing.T) {
	cfg := &config.Config{}
	cfg.Server.Host = "127.0.0.1"
	cfg.API.RateLimit.Enabled = true
	cfg.API.RateLimit.RequestsPerSecond = 1
	cfg.API.RateLimit.Burst = 2

	srv := newBareServer(cfg)

	limited := false
	for i := 0; i < 5; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/catalog/regions?test_mode=true", nil)
		req.RemoteAddr = "198.51.100.7:1234"
		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, req)
		if rec.Code == http.StatusTooManyRequests {
			limited = true
			if got := rec.Header().Get("Retry-After"); got == "" {
				t.Fatalf("expected Retry-After header on 429 response")
			}
			break
		}
	}
	if !limited {
		t.Fatalf("expected a 429 after exhausting the burst")
	}
}

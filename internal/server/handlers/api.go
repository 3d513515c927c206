package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	gferrors "github.com/fulmenhq/gofulmen/errors"

	"github.com/roamsim/roamsim/internal/esim"
	"github.com/roamsim/roamsim/internal/esim/driver"
	"github.com/roamsim/roamsim/internal/metrics"
	"github.com/roamsim/roamsim/internal/store"
)

// maxRequestBody caps inbound JSON bodies.
const maxRequestBody = 1 << 20

// API serves the provisioning endpoints. Each request picks the real or
// sandbox provider based on an explicit test_mode flag; nothing is inferred
// from the environment.
type API struct {
	Providers *esim.Selector
	Store     *store.Store
}

// NewAPI creates the API handler set.
func NewAPI(providers *esim.Selector, st *store.Store) *API {
	return &API{Providers: providers, Store: st}
}

// provider resolves the backend for one request from the test_mode query
// parameter. POST handlers that carry the flag in the body resolve it
// themselves via a.Providers.Pick.
func (a *API) provider(r *http.Request) driver.Provider {
	return a.Providers.Pick(testModeFromQuery(r))
}

func testModeFromQuery(r *http.Request) bool {
	v, err := strconv.ParseBool(r.URL.Query().Get("test_mode"))
	return err == nil && v
}

// callProvider runs one provider operation and records the call metric.
func callProvider(p driver.Provider, operation string, fn func() error) error {
	start := time.Now()
	err := fn()
	metrics.RecordProviderCall(p.Name(), operation, err == nil, time.Since(start))
	return err
}

func respondJSON(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(v)
}

// decodeJSON reads a bounded JSON body into dst, returning an envelope-ready
// error on malformed input.
func decodeJSON(r *http.Request, dst interface{}) *gferrors.ErrorEnvelope {
	body := http.MaxBytesReader(nil, r.Body, maxRequestBody)
	defer func() { _ = r.Body.Close() }()

	if err := json.NewDecoder(body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return gferrors.NewErrorEnvelope("INVALID_INPUT", "request body is required")
		}
		return gferrors.NewErrorEnvelope("INVALID_INPUT", "request body is not valid JSON")
	}
	return nil
}

// providerError maps a provider failure into the HTTP error envelope.
func providerError(w http.ResponseWriter, r *http.Request, err error) {
	respondWithError(w, r, esim.MapProviderError(err))
}

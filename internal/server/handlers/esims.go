package handlers

import (
	"net/http"
	"strings"

	gferrors "github.com/fulmenhq/gofulmen/errors"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/roamsim/roamsim/internal/esim/driver"
)

func esimRef(r *http.Request) driver.EsimRef {
	return driver.EsimRef{TranNo: chi.URLParam(r, "tranNo")}
}

// RealtimeBalance handles GET /api/v1/esims/{tranNo}/balance. Operators that
// do not support live queries yield 204 No Content; callers fall back to the
// usage endpoint.
func (a *API) RealtimeBalance(w http.ResponseWriter, r *http.Request) {
	ref := esimRef(r)
	if ref.IsZero() {
		respondWithError(w, r, gferrors.NewErrorEnvelope("INVALID_INPUT", "transaction number is required"))
		return
	}

	p := a.provider(r)

	var balance *driver.RealtimeBalance
	err := callProvider(p, "realtime_balance", func() error {
		var callErr error
		balance, callErr = p.RealtimeBalance(r.Context(), ref.TranNo)
		return callErr
	})
	if err != nil {
		providerError(w, r, err)
		return
	}

	if balance == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	respondJSON(w, http.StatusOK, balance)
}

// TopUpPackages handles GET /api/v1/esims/{tranNo}/topup-packages, listing
// the packages that can be applied to the existing eSIM. New-eSIM-only
// packages are already excluded by the provider layer.
func (a *API) TopUpPackages(w http.ResponseWriter, r *http.Request) {
	ref := esimRef(r)
	if ref.IsZero() {
		respondWithError(w, r, gferrors.NewErrorEnvelope("INVALID_INPUT", "transaction number is required"))
		return
	}

	p := a.provider(r)
	filter := driver.PackageFilter{
		RegionCode:  r.URL.Query().Get("region"),
		PackageCode: r.URL.Query().Get("package"),
	}

	var packages []driver.Package
	err := callProvider(p, "topup_packages", func() error {
		var callErr error
		packages, callErr = p.TopUpPackages(r.Context(), ref, filter)
		return callErr
	})
	if err != nil {
		providerError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, PackagesResponse{Packages: packages})
}

// TopUpBody is the body of POST /api/v1/esims/{tranNo}/topup.
type TopUpBody struct {
	PackageCode   string `json:"package_code"`
	TransactionID string `json:"transaction_id,omitempty"`
	TestMode      bool   `json:"test_mode,omitempty"`
}

// TopUp handles POST /api/v1/esims/{tranNo}/topup. Validity is additive from
// max(existing expiry, now), so topping up a lapsed eSIM starts from today.
func (a *API) TopUp(w http.ResponseWriter, r *http.Request) {
	ref := esimRef(r)
	if ref.IsZero() {
		respondWithError(w, r, gferrors.NewErrorEnvelope("INVALID_INPUT", "transaction number is required"))
		return
	}

	var body TopUpBody
	if envelope := decodeJSON(r, &body); envelope != nil {
		respondWithError(w, r, envelope)
		return
	}

	body.PackageCode = strings.TrimSpace(body.PackageCode)
	if body.PackageCode == "" {
		respondWithError(w, r, gferrors.NewErrorEnvelope("INVALID_INPUT", "package_code is required"))
		return
	}
	if body.TransactionID == "" {
		body.TransactionID = uuid.New().String()
	}

	p := a.Providers.Pick(body.TestMode)

	var result *driver.TopUpResult
	err := callProvider(p, "topup", func() error {
		var callErr error
		result, callErr = p.TopUp(r.Context(), &driver.TopUpRequest{
			Ref:           ref,
			PackageCode:   body.PackageCode,
			TransactionID: body.TransactionID,
		})
		return callErr
	})
	if err != nil {
		providerError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// lifecycleAction runs one suspend/unsuspend/revoke call and reports the new
// state.
func (a *API) lifecycleAction(w http.ResponseWriter, r *http.Request, operation, resultStatus string,
	fn func(p driver.Provider, ref driver.EsimRef) error) {

	ref := esimRef(r)
	if ref.IsZero() {
		respondWithError(w, r, gferrors.NewErrorEnvelope("INVALID_INPUT", "transaction number is required"))
		return
	}

	p := a.provider(r)
	err := callProvider(p, operation, func() error {
		return fn(p, ref)
	})
	if err != nil {
		providerError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"tran_no": ref.TranNo,
		"status":  resultStatus,
	})
}

// Suspend handles POST /api/v1/esims/{tranNo}/suspend.
func (a *API) Suspend(w http.ResponseWriter, r *http.Request) {
	a.lifecycleAction(w, r, "suspend", "SUSPENDED", func(p driver.Provider, ref driver.EsimRef) error {
		return p.Suspend(r.Context(), ref)
	})
}

// Unsuspend handles POST /api/v1/esims/{tranNo}/unsuspend.
func (a *API) Unsuspend(w http.ResponseWriter, r *http.Request) {
	a.lifecycleAction(w, r, "unsuspend", "IN_USE", func(p driver.Provider, ref driver.EsimRef) error {
		return p.Unsuspend(r.Context(), ref)
	})
}

// Revoke handles POST /api/v1/esims/{tranNo}/revoke. Irreversible at the
// provider.
func (a *API) Revoke(w http.ResponseWriter, r *http.Request) {
	a.lifecycleAction(w, r, "revoke", "REVOKED", func(p driver.Provider, ref driver.EsimRef) error {
		return p.Revoke(r.Context(), ref)
	})
}

package handlers

import (
	"net/http"

	"github.com/roamsim/roamsim/internal/esim/driver"
)

// AccountBalance handles GET /api/v1/account/balance, returning the reseller
// balance at the provider.
func (a *API) AccountBalance(w http.ResponseWriter, r *http.Request) {
	p := a.provider(r)

	var balance *driver.Balance
	err := callProvider(p, "balance", func() error {
		var callErr error
		balance, callErr = p.Balance(r.Context())
		return callErr
	})
	if err != nil {
		providerError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, balance)
}

package handlers

import (
	"net/http"

	gferrors "github.com/fulmenhq/gofulmen/errors"
	"go.uber.org/zap"

	"github.com/roamsim/roamsim/internal/esim/driver"
	"github.com/roamsim/roamsim/internal/observability"
	"github.com/roamsim/roamsim/internal/store"
)

// UsageRequest is the body of POST /api/v1/usage. The batch ceiling is
// enforced locally; an oversized request never reaches the provider.
type UsageRequest struct {
	TranNos  []string `json:"tran_nos"`
	TestMode bool     `json:"test_mode,omitempty"`
}

// UsageResponse is the batch usage query result.
type UsageResponse struct {
	Records []driver.UsageRecord `json:"records"`
}

// QueryUsage handles POST /api/v1/usage. Each returned record is also
// snapshotted locally so history survives provider outages.
func (a *API) QueryUsage(w http.ResponseWriter, r *http.Request) {
	var req UsageRequest
	if envelope := decodeJSON(r, &req); envelope != nil {
		respondWithError(w, r, envelope)
		return
	}

	if err := driver.ValidateUsageBatch(req.TranNos); err != nil {
		respondWithError(w, r, gferrors.NewErrorEnvelope("INVALID_INPUT", err.Error()))
		return
	}

	p := a.Providers.Pick(req.TestMode)

	var records []driver.UsageRecord
	err := callProvider(p, "usage", func() error {
		var callErr error
		records, callErr = p.Usage(r.Context(), req.TranNos)
		return callErr
	})
	if err != nil {
		providerError(w, r, err)
		return
	}

	for _, record := range records {
		snap := &store.UsageSnapshot{
			TranNo:     record.TranNo,
			UsedBytes:  record.UsedBytes,
			TotalBytes: record.TotalBytes,
			ReportedAt: record.LastUpdated,
		}
		if storeErr := a.Store.RecordUsage(r.Context(), snap); storeErr != nil {
			if observability.ServerLogger != nil {
				observability.ServerLogger.Warn("usage snapshot failed",
					zap.String("tran_no", record.TranNo),
					zap.Error(storeErr))
			}
		}
	}

	if records == nil {
		records = []driver.UsageRecord{}
	}
	respondJSON(w, http.StatusOK, UsageResponse{Records: records})
}

package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	gferrors "github.com/fulmenhq/gofulmen/errors"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/roamsim/roamsim/internal/esim"
	"github.com/roamsim/roamsim/internal/esim/driver"
	"github.com/roamsim/roamsim/internal/observability"
	"github.com/roamsim/roamsim/internal/store"
)

// CreateOrderRequest is the body of POST /api/v1/orders.
type CreateOrderRequest struct {
	PackageCode   string `json:"package_code"`
	Email         string `json:"email,omitempty"`
	TransactionID string `json:"transaction_id,omitempty"`
	TestMode      bool   `json:"test_mode,omitempty"`
}

// ProfileView is a provisioned eSIM as returned by the API, with the LPA
// activation string assembled server-side.
type ProfileView struct {
	driver.Profile
	LPA string `json:"lpa,omitempty"`
}

// OrderResponse is the representation of one order.
type OrderResponse struct {
	OrderNo       string        `json:"order_no"`
	TransactionID string        `json:"transaction_id,omitempty"`
	PackageCode   string        `json:"package_code,omitempty"`
	Status        string        `json:"status,omitempty"`
	TestMode      bool          `json:"test_mode"`
	CreatedAt     time.Time     `json:"created_at,omitzero"`
	Profiles      []ProfileView `json:"profiles,omitempty"`
}

// OrderListResponse is the local order history listing.
type OrderListResponse struct {
	Orders []OrderResponse `json:"orders"`
}

func profileViews(profiles []driver.Profile) []ProfileView {
	if len(profiles) == 0 {
		return nil
	}
	views := make([]ProfileView, 0, len(profiles))
	for _, p := range profiles {
		views = append(views, ProfileView{Profile: p, LPA: esim.ActivationString(p)})
	}
	return views
}

// CreateOrder handles POST /api/v1/orders. The order is placed at the
// provider first; the local record is best-effort bookkeeping and never fails
// a placed order.
func (a *API) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req CreateOrderRequest
	if envelope := decodeJSON(r, &req); envelope != nil {
		respondWithError(w, r, envelope)
		return
	}

	req.PackageCode = strings.TrimSpace(req.PackageCode)
	if req.PackageCode == "" {
		respondWithError(w, r, gferrors.NewErrorEnvelope("INVALID_INPUT", "package_code is required"))
		return
	}
	if req.TransactionID == "" {
		req.TransactionID = uuid.New().String()
	}

	p := a.Providers.Pick(req.TestMode)

	var result *driver.OrderResult
	err := callProvider(p, "order", func() error {
		var callErr error
		result, callErr = p.Order(r.Context(), &driver.OrderRequest{
			PackageCode:   req.PackageCode,
			Email:         req.Email,
			TransactionID: req.TransactionID,
		})
		return callErr
	})
	if err != nil {
		providerError(w, r, err)
		return
	}

	record := &store.Order{
		OrderNo:       result.OrderNo,
		TransactionID: req.TransactionID,
		PackageCode:   req.PackageCode,
		Email:         req.Email,
		Status:        "PENDING",
		TestMode:      req.TestMode,
	}
	if len(result.Profiles) > 0 {
		first := result.Profiles[0]
		record.TranNo = first.TranNo
		record.ICCID = first.ICCID
		if first.Status != "" {
			record.Status = first.Status
		}
	}
	if storeErr := a.Store.RecordOrder(r.Context(), record); storeErr != nil {
		logStoreError("record order", result.OrderNo, storeErr)
	}

	respondJSON(w, http.StatusCreated, OrderResponse{
		OrderNo:       result.OrderNo,
		TransactionID: req.TransactionID,
		PackageCode:   req.PackageCode,
		Status:        record.Status,
		TestMode:      req.TestMode,
		Profiles:      profileViews(result.Profiles),
	})
}

// GetOrder handles GET /api/v1/orders/{orderNo}. Profiles are fetched live
// from the provider; the local record supplies metadata and routes the call
// to the backend the order was placed against.
func (a *API) GetOrder(w http.ResponseWriter, r *http.Request) {
	orderNo := chi.URLParam(r, "orderNo")
	if orderNo == "" {
		respondWithError(w, r, gferrors.NewErrorEnvelope("INVALID_INPUT", "order number is required"))
		return
	}

	testMode := testModeFromQuery(r)
	record, storeErr := a.Store.GetOrder(r.Context(), orderNo)
	if storeErr != nil && !errors.Is(storeErr, store.ErrOrderNotFound) {
		logStoreError("load order", orderNo, storeErr)
	}
	if record != nil {
		testMode = record.TestMode
	}

	p := a.Providers.Pick(testMode)

	var profiles []driver.Profile
	err := callProvider(p, "order_profiles", func() error {
		var callErr error
		profiles, callErr = p.OrderProfiles(r.Context(), orderNo)
		return callErr
	})
	if err != nil {
		providerError(w, r, err)
		return
	}

	if record == nil && len(profiles) == 0 {
		respondWithError(w, r, gferrors.NewErrorEnvelope("NOT_FOUND", "order not found"))
		return
	}

	response := OrderResponse{
		OrderNo:  orderNo,
		TestMode: testMode,
		Profiles: profileViews(profiles),
	}
	if record != nil {
		response.TransactionID = record.TransactionID
		response.PackageCode = record.PackageCode
		response.Status = record.Status
		response.CreatedAt = record.CreatedAt
	}

	// The provider is authoritative for profile state once it reports any.
	if len(profiles) > 0 {
		first := profiles[0]
		if first.Status != "" {
			response.Status = first.Status
			if record != nil && (first.Status != record.Status || first.TranNo != record.TranNo) {
				if storeErr := a.Store.UpdateOrderStatus(r.Context(), orderNo, first.Status, first.TranNo, first.ICCID); storeErr != nil {
					logStoreError("update order", orderNo, storeErr)
				}
			}
		}
	}

	respondJSON(w, http.StatusOK, response)
}

// ListOrders handles GET /api/v1/orders, listing the local order history.
func (a *API) ListOrders(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			respondWithError(w, r, gferrors.NewErrorEnvelope("INVALID_INPUT", "limit must be a non-negative integer"))
			return
		}
		limit = parsed
	}

	records, err := a.Store.ListOrders(r.Context(), limit)
	if err != nil {
		respondWithError(w, r, gferrors.NewErrorEnvelope("DATABASE_ERROR", "failed to list orders"))
		return
	}

	orders := make([]OrderResponse, 0, len(records))
	for _, record := range records {
		orders = append(orders, OrderResponse{
			OrderNo:       record.OrderNo,
			TransactionID: record.TransactionID,
			PackageCode:   record.PackageCode,
			Status:        record.Status,
			TestMode:      record.TestMode,
			CreatedAt:     record.CreatedAt,
		})
	}

	respondJSON(w, http.StatusOK, OrderListResponse{Orders: orders})
}

// CancelOrder handles POST /api/v1/orders/{orderNo}/cancel. Only unactivated
// orders can be cancelled; activated profiles go through revoke instead.
func (a *API) CancelOrder(w http.ResponseWriter, r *http.Request) {
	orderNo := chi.URLParam(r, "orderNo")
	if orderNo == "" {
		respondWithError(w, r, gferrors.NewErrorEnvelope("INVALID_INPUT", "order number is required"))
		return
	}

	testMode := testModeFromQuery(r)
	record, storeErr := a.Store.GetOrder(r.Context(), orderNo)
	if storeErr != nil && !errors.Is(storeErr, store.ErrOrderNotFound) {
		logStoreError("load order", orderNo, storeErr)
	}
	if record != nil {
		testMode = record.TestMode
	}

	p := a.Providers.Pick(testMode)
	err := callProvider(p, "cancel", func() error {
		return p.Cancel(r.Context(), orderNo)
	})
	if err != nil {
		providerError(w, r, err)
		return
	}

	if record != nil {
		if storeErr := a.Store.UpdateOrderStatus(r.Context(), orderNo, "CANCEL", "", ""); storeErr != nil {
			logStoreError("update order", orderNo, storeErr)
		}
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"order_no": orderNo,
		"status":   "CANCEL",
	})
}

func logStoreError(operation, orderNo string, err error) {
	if observability.ServerLogger == nil {
		return
	}
	observability.ServerLogger.Warn("order store operation failed",
		zap.String("operation", operation),
		zap.String("order_no", orderNo),
		zap.Error(err))
}

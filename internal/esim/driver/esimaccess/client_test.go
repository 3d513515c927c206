package esimaccess

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/roamsim/roamsim/internal/esim/driver"
)

// newTestClient wires a client to the test server with instant sleeps and a
// zeroed jitter source so retry timing is deterministic.
func newTestClient(t *testing.T, server *httptest.Server) (*Client, *[]time.Duration) {
	t.Helper()

	client := NewClient(server.URL, "test-access-code")
	client.HTTPClient = server.Client()
	client.Limiter.Sleep = func(ctx context.Context, d time.Duration) error { return nil }

	var delays []time.Duration
	client.sleep = func(ctx context.Context, d time.Duration) error {
		delays = append(delays, d)
		return nil
	}
	client.jitter = func() float64 { return 0 }
	return client, &delays
}

func TestClientRequiresAccessCode(t *testing.T) {
	client := NewClient("", "")
	_, err := client.Balance(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "access code")
}

func TestClientSendsAccessCodeHeader(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, endpointBalance, r.URL.Path)
		require.Equal(t, "test-access-code", r.Header.Get("RT-AccessCode"))
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))

		_, _ = w.Write([]byte(`{"errorCode":null,"errorMsg":"","obj":{"balance":42.5,"currencyCode":"USD"}}`))
	}))
	defer server.Close()

	client, _ := newTestClient(t, server)
	balance, err := client.Balance(context.Background())
	require.NoError(t, err)
	require.Equal(t, 42.5, balance.Amount)
	require.Equal(t, "USD", balance.Currency)
}

func TestClientBalanceDefaultsOmittedCurrency(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"errorCode":null,"errorMsg":"","obj":{"balance":42.5}}`))
	}))
	defer server.Close()

	client, _ := newTestClient(t, server)
	balance, err := client.Balance(context.Background())
	require.NoError(t, err)
	require.Equal(t, 42.5, balance.Amount)
	require.Equal(t, "USD", balance.Currency)
}

func TestClientRetriesBusyThenSucceeds(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) <= 2 {
			_, _ = w.Write([]byte(`{"success":false,"errorCode":"900001","errorMsg":"system busy"}`))
			return
		}
		_, _ = w.Write([]byte(`{"success":true,"errorCode":null,"obj":{"balance":10,"currencyCode":"USD"}}`))
	}))
	defer server.Close()

	client, delays := newTestClient(t, server)
	balance, err := client.Balance(context.Background())
	require.NoError(t, err)
	require.Equal(t, float64(10), balance.Amount)

	require.Equal(t, int32(3), calls.Load())
	require.Equal(t, []time.Duration{500 * time.Millisecond, 1 * time.Second}, *delays)
}

func TestClientExhaustsRetriesOnPersistentBusy(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte(`{"success":false,"errorCode":"900001","errorMsg":"system busy"}`))
	}))
	defer server.Close()

	client, _ := newTestClient(t, server)
	_, err := client.Balance(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "retries exhausted after 3 attempts")
	require.Equal(t, int32(3), calls.Load())

	perr, ok := driver.AsProviderError(err)
	require.True(t, ok)
	require.Equal(t, driver.KindBusy, perr.Kind)
}

func TestClientDoesNotRetryPermanentErrors(t *testing.T) {
	cases := []struct {
		code string
		kind driver.Kind
	}{
		{"200007", driver.KindInsufficientBalance},
		{"200011", driver.KindOutOfStock},
		{"310241", driver.KindInvalidPackage},
		{"310243", driver.KindInvalidPackage},
		{"123456", driver.KindProvider},
	}

	for _, tc := range cases {
		t.Run(tc.code, func(t *testing.T) {
			var calls atomic.Int32
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls.Add(1)
				fmt.Fprintf(w, `{"success":false,"errorCode":%q,"errorMsg":"rejected"}`, tc.code)
			}))
			defer server.Close()

			client, delays := newTestClient(t, server)
			_, err := client.Balance(context.Background())
			require.Error(t, err)
			require.Equal(t, int32(1), calls.Load())
			require.Empty(t, *delays)

			perr, ok := driver.AsProviderError(err)
			require.True(t, ok)
			require.Equal(t, tc.kind, perr.Kind)
			require.Equal(t, tc.code, perr.Code)
			require.False(t, perr.Retryable())
		})
	}
}

func TestClientRetries5xx(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"errorCode":null,"obj":{"balance":1,"currencyCode":"USD"}}`))
	}))
	defer server.Close()

	client, _ := newTestClient(t, server)
	_, err := client.Balance(context.Background())
	require.NoError(t, err)
	require.Equal(t, int32(2), calls.Load())
}

func TestClientDoesNotRetry4xx(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte("bad access code"))
	}))
	defer server.Close()

	client, _ := newTestClient(t, server)
	_, err := client.Balance(context.Background())
	require.Error(t, err)
	require.Equal(t, int32(1), calls.Load())
	require.True(t, driver.IsKind(err, driver.KindClient))
}

func TestClientBackoffBounds(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte(`{"errorCode":"900001","errorMsg":"busy"}`))
	}))
	defer server.Close()

	client, delays := newTestClient(t, server)
	client.jitter = func() float64 { return 0.5 }

	_, err := client.Balance(context.Background())
	require.Error(t, err)

	// base*2^attempt plus half the jitter range.
	require.Equal(t, []time.Duration{750 * time.Millisecond, 1250 * time.Millisecond}, *delays)
	for i, d := range *delays {
		lower := DefaultBackoffBase * (1 << uint(i))
		require.GreaterOrEqual(t, d, lower)
		require.Less(t, d, lower+DefaultBackoffJitter)
	}
}

func TestUsageRejectsOversizedBatchWithoutNetwork(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte(`{"errorCode":null,"obj":{"usageList":[]}}`))
	}))
	defer server.Close()

	client, _ := newTestClient(t, server)

	tranNos := make([]string, driver.MaxUsageBatch+1)
	for i := range tranNos {
		tranNos[i] = fmt.Sprintf("T%02d", i)
	}

	_, err := client.Usage(context.Background(), tranNos)
	require.Error(t, err)
	require.Contains(t, err.Error(), "limited to 10")
	require.Equal(t, int32(0), calls.Load())

	_, err = client.Usage(context.Background(), nil)
	require.Error(t, err)
	require.Equal(t, int32(0), calls.Load())
}

func TestOrderProfilesPaginates(t *testing.T) {
	var pages []int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, endpointOrderQuery, r.URL.Path)

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		var req struct {
			OrderNo string `json:"orderNo"`
			Pager   struct {
				PageNum  int `json:"pageNum"`
				PageSize int `json:"pageSize"`
			} `json:"pager"`
		}
		require.NoError(t, json.Unmarshal(body, &req))
		require.Equal(t, "ORD123", req.OrderNo)
		require.Equal(t, orderQueryPageSize, req.Pager.PageSize)
		pages = append(pages, req.Pager.PageNum)

		count := orderQueryPageSize
		if req.Pager.PageNum == 2 {
			count = 3
		}
		list := make([]map[string]any, count)
		for i := range list {
			list[i] = map[string]any{
				"esimTranNo": fmt.Sprintf("T%d-%d", req.Pager.PageNum, i),
				"iccid":      "8900000000000000000",
			}
		}
		resp := map[string]any{"errorCode": nil, "obj": map[string]any{"esimList": list}}
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	defer server.Close()

	client, _ := newTestClient(t, server)
	profiles, err := client.OrderProfiles(context.Background(), "ORD123")
	require.NoError(t, err)
	require.Len(t, profiles, orderQueryPageSize+3)
	require.Equal(t, []int{1, 2}, pages)
}

func TestRealtimeBalanceUnsupportedOperator(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":true,"errorCode":null,"obj":null}`))
	}))
	defer server.Close()

	client, _ := newTestClient(t, server)
	balance, err := client.RealtimeBalance(context.Background(), "T1")
	require.NoError(t, err)
	require.Nil(t, balance)
}

func TestRealtimeBalanceParsesQuotas(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"errorCode":null,"obj":{"data":{"total":1000,"remain":400},"sms":{"total":10,"remain":10}}}`))
	}))
	defer server.Close()

	client, _ := newTestClient(t, server)
	balance, err := client.RealtimeBalance(context.Background(), "T1")
	require.NoError(t, err)
	require.NotNil(t, balance)
	require.Equal(t, int64(400), balance.Data.Remaining)
	require.Equal(t, int64(10), balance.SMS.Total)
	require.Nil(t, balance.Voice)
}

func TestTopUpPackagesFiltersNewEsimOnly(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"errorCode":null,"obj":{"packageList":[
			{"packageCode":"P1","name":"eligible","supportTopUpType":2},
			{"packageCode":"P2","name":"new esim only","supportTopUpType":1},
			{"packageCode":"P3","name":"flag absent"}
		]}}`))
	}))
	defer server.Close()

	client, _ := newTestClient(t, server)
	packages, err := client.TopUpPackages(context.Background(), driver.EsimRef{TranNo: "T1"}, driver.PackageFilter{})
	require.NoError(t, err)
	require.Len(t, packages, 2)
	require.Equal(t, "P1", packages[0].Code)
	require.Equal(t, "P3", packages[1].Code)
}

func TestTopUpParsesResult(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, endpointTopUp, r.URL.Path)
		_, _ = w.Write([]byte(`{"errorCode":null,"obj":{"expiredTime":"2026-09-30T00:00:00Z","totalVolume":4294967296,"addedDays":30,"orderUsage":1024}}`))
	}))
	defer server.Close()

	client, _ := newTestClient(t, server)
	result, err := client.TopUp(context.Background(), &driver.TopUpRequest{
		Ref:         driver.EsimRef{TranNo: "T1"},
		PackageCode: "P1",
	})
	require.NoError(t, err)
	require.Equal(t, time.Date(2026, 9, 30, 0, 0, 0, 0, time.UTC), result.ExpiredAt)
	require.Equal(t, int64(4294967296), result.VolumeBytes)
	require.Equal(t, 30, result.AddedDays)
}

func TestLifecycleOperations(t *testing.T) {
	var paths []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		_, _ = w.Write([]byte(`{"success":true,"errorCode":null}`))
	}))
	defer server.Close()

	client, _ := newTestClient(t, server)
	ctx := context.Background()
	ref := driver.EsimRef{TranNo: "T1"}

	require.NoError(t, client.Cancel(ctx, "ORD1"))
	require.NoError(t, client.Suspend(ctx, ref))
	require.NoError(t, client.Unsuspend(ctx, ref))
	require.NoError(t, client.Revoke(ctx, ref))
	require.Equal(t, []string{endpointCancel, endpointSuspend, endpointUnsuspend, endpointRevoke}, paths)

	require.Error(t, client.Suspend(ctx, driver.EsimRef{}))
	require.Error(t, client.Cancel(ctx, ""))
}

func TestClientTransportErrorIsRetryable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	client := NewClient(server.URL, "code")
	client.Limiter.Sleep = func(ctx context.Context, d time.Duration) error { return nil }
	client.sleep = func(ctx context.Context, d time.Duration) error { return nil }
	client.jitter = func() float64 { return 0 }

	_, err := client.Balance(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "retries exhausted")
}

func TestRegionsParsesTree(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, endpointRegions, r.URL.Path)
		_, _ = w.Write([]byte(`{"errorCode":null,"obj":{"locationList":[
			{"code":"JP","name":"Japan","type":"country"},
			{"code":"EU","name":"Europe","type":"multi","subLocationList":[
				{"code":"FR","name":"France","type":"country"}
			]}
		]}}`))
	}))
	defer server.Close()

	client, _ := newTestClient(t, server)
	regions, err := client.Regions(context.Background())
	require.NoError(t, err)
	require.Len(t, regions, 2)
	require.Equal(t, "JP", regions[0].Code)
	require.Len(t, regions[1].SubLocations, 1)
	require.Equal(t, "FR", regions[1].SubLocations[0].Code)
}

func TestPackagesParsesAndSplitsLocations(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"errorCode":null,"obj":{"packageList":[
			{"packageCode":"EU-5GB","name":"Europe 5GB","volume":5368709120,"duration":30,
			 "durationUnit":"DAY","price":14.9,"currencyCode":"USD","location":"FR, DE,IT"}
		]}}`))
	}))
	defer server.Close()

	client, _ := newTestClient(t, server)
	packages, err := client.Packages(context.Background(), driver.PackageFilter{RegionCode: "EU"})
	require.NoError(t, err)
	require.Len(t, packages, 1)
	require.Equal(t, int64(5368709120), packages[0].VolumeBytes)
	require.Equal(t, 30, packages[0].ValidityDays)
	require.Equal(t, []string{"FR", "DE", "IT"}, packages[0].Countries)
	require.True(t, packages[0].TopUpEligible())
}

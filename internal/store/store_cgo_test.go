//go:build cgo

package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/roamsim/roamsim/internal/config"
)

func openMemoryStore(t *testing.T) *Store {
	t.Helper()

	ctx := context.Background()
	s, err := Open(ctx, config.StoreConfig{Driver: "libsql", Path: ":memory:"})
	require.NoError(t, err)
	require.NoError(t, s.Migrate(ctx))
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestOpenMemoryStore(t *testing.T) {
	s := openMemoryStore(t)
	require.Equal(t, "libsql", s.Driver())
}

func TestRecordAndGetOrder(t *testing.T) {
	ctx := context.Background()
	s := openMemoryStore(t)

	order := &Order{
		OrderNo:       "ORD1",
		TransactionID: "txn-1",
		PackageCode:   "JP-1GB-7D",
		Email:         "traveler@example.com",
		Status:        "PENDING",
		TestMode:      false,
	}
	require.NoError(t, s.RecordOrder(ctx, order))

	got, err := s.GetOrder(ctx, "ORD1")
	require.NoError(t, err)
	require.Equal(t, "txn-1", got.TransactionID)
	require.Equal(t, "JP-1GB-7D", got.PackageCode)
	require.Equal(t, "traveler@example.com", got.Email)
	require.Equal(t, "PENDING", got.Status)
	require.False(t, got.TestMode)
	require.False(t, got.CreatedAt.IsZero())

	_, err = s.GetOrder(ctx, "MISSING")
	require.ErrorIs(t, err, ErrOrderNotFound)
}

func TestUpdateOrderStatus(t *testing.T) {
	ctx := context.Background()
	s := openMemoryStore(t)

	require.NoError(t, s.RecordOrder(ctx, &Order{
		OrderNo:       "ORD2",
		TransactionID: "txn-2",
		PackageCode:   "EU-5GB-30D",
		Status:        "PENDING",
	}))

	require.NoError(t, s.UpdateOrderStatus(ctx, "ORD2", "GOT_RESOURCE", "T2", "8900000000000000001"))

	got, err := s.GetOrder(ctx, "ORD2")
	require.NoError(t, err)
	require.Equal(t, "GOT_RESOURCE", got.Status)
	require.Equal(t, "T2", got.TranNo)
	require.Equal(t, "8900000000000000001", got.ICCID)

	// Empty identifiers leave existing values in place.
	require.NoError(t, s.UpdateOrderStatus(ctx, "ORD2", "IN_USE", "", ""))
	got, err = s.GetOrder(ctx, "ORD2")
	require.NoError(t, err)
	require.Equal(t, "IN_USE", got.Status)
	require.Equal(t, "T2", got.TranNo)

	require.ErrorIs(t, s.UpdateOrderStatus(ctx, "MISSING", "X", "", ""), ErrOrderNotFound)
}

func TestListOrders(t *testing.T) {
	ctx := context.Background()
	s := openMemoryStore(t)

	for _, no := range []string{"A1", "A2", "A3"} {
		require.NoError(t, s.RecordOrder(ctx, &Order{
			OrderNo:       no,
			TransactionID: "txn-" + no,
			PackageCode:   "JP-1GB-7D",
			Status:        "PENDING",
			TestMode:      no == "A3",
		}))
	}

	orders, err := s.ListOrders(ctx, 2)
	require.NoError(t, err)
	require.Len(t, orders, 2)

	orders, err = s.ListOrders(ctx, 0)
	require.NoError(t, err)
	require.Len(t, orders, 3)
}

func TestUsageSnapshots(t *testing.T) {
	ctx := context.Background()
	s := openMemoryStore(t)

	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, s.RecordUsage(ctx, &UsageSnapshot{
		TranNo: "T1", UsedBytes: 100, TotalBytes: 1000, ReportedAt: base,
	}))
	require.NoError(t, s.RecordUsage(ctx, &UsageSnapshot{
		TranNo: "T1", UsedBytes: 300, TotalBytes: 1000, ReportedAt: base.Add(time.Hour),
	}))
	require.NoError(t, s.RecordUsage(ctx, &UsageSnapshot{
		TranNo: "T2", UsedBytes: 50, TotalBytes: 2000, ReportedAt: base,
	}))

	latest, err := s.LatestUsage(ctx, []string{"T1", "T2", "T3"})
	require.NoError(t, err)
	require.Len(t, latest, 2)
	require.Equal(t, int64(300), latest["T1"].UsedBytes)
	require.Equal(t, int64(50), latest["T2"].UsedBytes)
	require.NotContains(t, latest, "T3")
}

package sandbox

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/roamsim/roamsim/internal/esim/driver"
)

func newTestProvider(now *time.Time) *Provider {
	p := New()
	p.Now = func() time.Time { return *now }
	p.Rand = rand.New(rand.NewSource(1))
	return p
}

func TestOrderFabricatesPlausibleProfile(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	p := newTestProvider(&now)

	result, err := p.Order(context.Background(), &driver.OrderRequest{PackageCode: "TEST-JP-1GB-7D"})
	require.NoError(t, err)
	require.NotEmpty(t, result.OrderNo)
	require.Len(t, result.Profiles, 1)

	prof := result.Profiles[0]
	require.Len(t, prof.ICCID, 19)
	require.True(t, strings.HasPrefix(prof.ICCID, "89"))
	for _, r := range prof.ICCID {
		require.True(t, r >= '0' && r <= '9')
	}
	require.Equal(t, TestSMDPAddress, prof.SMDPAddress)
	require.NotEmpty(t, prof.ActivationCode)
	require.Equal(t, now.AddDate(0, 0, 7), prof.ExpiredAt)
	require.Equal(t, int64(1)<<30, prof.VolumeBytes)
}

func TestOrderRejectsUnknownPackage(t *testing.T) {
	now := time.Now()
	p := newTestProvider(&now)

	_, err := p.Order(context.Background(), &driver.OrderRequest{PackageCode: "NOPE"})
	require.Error(t, err)
	require.True(t, driver.IsKind(err, driver.KindInvalidPackage))
}

func TestOrderProfilesReturnsFabricatedProfiles(t *testing.T) {
	now := time.Now()
	p := newTestProvider(&now)

	result, err := p.Order(context.Background(), &driver.OrderRequest{PackageCode: "TEST-JP-1GB-7D"})
	require.NoError(t, err)

	profiles, err := p.OrderProfiles(context.Background(), result.OrderNo)
	require.NoError(t, err)
	require.Len(t, profiles, 1)
	require.Equal(t, result.Profiles[0].ICCID, profiles[0].ICCID)

	_, err = p.OrderProfiles(context.Background(), "MISSING")
	require.Error(t, err)
}

func TestTopUpExtendsFutureExpiry(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	p := newTestProvider(&now)

	result, err := p.Order(context.Background(), &driver.OrderRequest{PackageCode: "TEST-JP-3GB-30D"})
	require.NoError(t, err)
	tranNo := result.Profiles[0].TranNo
	originalExpiry := result.Profiles[0].ExpiredAt

	// Still valid: the extension stacks on the existing expiry.
	now = now.AddDate(0, 0, 10)
	topup, err := p.TopUp(context.Background(), &driver.TopUpRequest{
		Ref:         driver.EsimRef{TranNo: tranNo},
		PackageCode: "TEST-JP-3GB-30D",
	})
	require.NoError(t, err)
	require.Equal(t, originalExpiry.AddDate(0, 0, 30), topup.ExpiredAt)
	require.Equal(t, int64(6)<<30, topup.VolumeBytes)
}

func TestTopUpAnchorsLapsedExpiryAtNow(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	p := newTestProvider(&now)

	result, err := p.Order(context.Background(), &driver.OrderRequest{PackageCode: "TEST-JP-1GB-7D"})
	require.NoError(t, err)
	tranNo := result.Profiles[0].TranNo

	// Long lapsed: validity counts from now, never from the stale expiry.
	now = now.AddDate(0, 2, 0)
	topup, err := p.TopUp(context.Background(), &driver.TopUpRequest{
		Ref:         driver.EsimRef{TranNo: tranNo},
		PackageCode: "TEST-JP-1GB-7D",
	})
	require.NoError(t, err)
	require.Equal(t, now.AddDate(0, 0, 7), topup.ExpiredAt)
}

func TestTopUpRejectsNewEsimOnlyPackage(t *testing.T) {
	now := time.Now()
	p := newTestProvider(&now)

	result, err := p.Order(context.Background(), &driver.OrderRequest{PackageCode: "TEST-US-NEW-10GB-30D"})
	require.NoError(t, err)

	_, err = p.TopUp(context.Background(), &driver.TopUpRequest{
		Ref:         driver.EsimRef{TranNo: result.Profiles[0].TranNo},
		PackageCode: "TEST-US-NEW-10GB-30D",
	})
	require.Error(t, err)
	require.True(t, driver.IsKind(err, driver.KindInvalidPackage))
}

func TestTopUpPackagesExcludesNewEsimOnly(t *testing.T) {
	now := time.Now()
	p := newTestProvider(&now)

	result, err := p.Order(context.Background(), &driver.OrderRequest{PackageCode: "TEST-JP-1GB-7D"})
	require.NoError(t, err)

	packages, err := p.TopUpPackages(context.Background(), driver.EsimRef{TranNo: result.Profiles[0].TranNo}, driver.PackageFilter{})
	require.NoError(t, err)
	for _, pkg := range packages {
		require.NotEqual(t, "TEST-US-NEW-10GB-30D", pkg.Code)
		require.True(t, pkg.TopUpEligible())
	}
}

func TestUsageEnforcesBatchCeiling(t *testing.T) {
	now := time.Now()
	p := newTestProvider(&now)

	tranNos := make([]string, driver.MaxUsageBatch+1)
	for i := range tranNos {
		tranNos[i] = fmt.Sprintf("T%d", i)
	}
	_, err := p.Usage(context.Background(), tranNos)
	require.Error(t, err)
}

func TestUsageAndRealtimeBalance(t *testing.T) {
	now := time.Now()
	p := newTestProvider(&now)

	result, err := p.Order(context.Background(), &driver.OrderRequest{PackageCode: "TEST-JP-1GB-7D"})
	require.NoError(t, err)
	tranNo := result.Profiles[0].TranNo

	records, err := p.Usage(context.Background(), []string{tranNo, "unknown"})
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, tranNo, records[0].TranNo)
	require.Equal(t, int64(1)<<30, records[0].TotalBytes)

	balance, err := p.RealtimeBalance(context.Background(), tranNo)
	require.NoError(t, err)
	require.Equal(t, int64(1)<<30, balance.Data.Total)

	_, err = p.RealtimeBalance(context.Background(), "unknown")
	require.Error(t, err)
}

func TestLifecycleTransitions(t *testing.T) {
	now := time.Now()
	p := newTestProvider(&now)
	ctx := context.Background()

	result, err := p.Order(ctx, &driver.OrderRequest{PackageCode: "TEST-JP-1GB-7D"})
	require.NoError(t, err)
	ref := driver.EsimRef{TranNo: result.Profiles[0].TranNo}

	require.NoError(t, p.Suspend(ctx, ref))
	profiles, _ := p.OrderProfiles(ctx, result.OrderNo)
	require.Equal(t, "SUSPENDED", profiles[0].Status)

	require.NoError(t, p.Unsuspend(ctx, ref))
	profiles, _ = p.OrderProfiles(ctx, result.OrderNo)
	require.Equal(t, "IN_USE", profiles[0].Status)

	require.NoError(t, p.Revoke(ctx, ref))
	profiles, _ = p.OrderProfiles(ctx, result.OrderNo)
	require.Equal(t, "REVOKED", profiles[0].Status)

	require.NoError(t, p.Cancel(ctx, result.OrderNo))
	profiles, _ = p.OrderProfiles(ctx, result.OrderNo)
	require.Equal(t, "CANCEL", profiles[0].Status)

	require.Error(t, p.Suspend(ctx, driver.EsimRef{}))
	require.Error(t, p.Cancel(ctx, "MISSING"))
}

func TestResolveByICCID(t *testing.T) {
	now := time.Now()
	p := newTestProvider(&now)
	ctx := context.Background()

	result, err := p.Order(ctx, &driver.OrderRequest{PackageCode: "TEST-JP-1GB-7D"})
	require.NoError(t, err)

	require.NoError(t, p.Suspend(ctx, driver.EsimRef{ICCID: result.Profiles[0].ICCID}))
}

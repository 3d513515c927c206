package sandbox

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/roamsim/roamsim/internal/esim/driver"
)

// TestSMDPAddress is the fixed SM-DP+ address stamped on every sandbox
// profile. It resolves nowhere; sandbox eSIMs are not installable.
const TestSMDPAddress = "rsp-test.esimaccess.test"

// iccidLength is the full ICCID length including the "89" telecom prefix.
const iccidLength = 19

// Provider is an in-memory implementation of driver.Provider for test-mode
// orders. It fabricates plausible identifiers, fulfills synchronously, and
// never touches the network. Callers select it explicitly; nothing here
// inspects the environment.
type Provider struct {
	mu       sync.Mutex
	orders   map[string]*order
	profiles map[string]*profile
	orderSeq int

	// Now and Rand are injectable for tests. Nil means real time and a
	// time-seeded source.
	Now  func() time.Time
	Rand *rand.Rand

	catalog []driver.Package
	regions []driver.Region
}

var _ driver.Provider = (*Provider)(nil)

type order struct {
	orderNo  string
	tranNos  []string
	canceled bool
}

type profile struct {
	driver.Profile
	totalBytes int64
	usedBytes  int64
}

// New returns a sandbox provider with a seeded catalog.
func New() *Provider {
	return &Provider{
		orders:   make(map[string]*order),
		profiles: make(map[string]*profile),
		catalog:  defaultCatalog(),
		regions:  defaultRegions(),
	}
}

// Name returns the provider identifier.
func (p *Provider) Name() string {
	return "sandbox"
}

// Balance returns a fixed test balance.
func (p *Provider) Balance(ctx context.Context) (*driver.Balance, error) {
	return &driver.Balance{Amount: 1000, Currency: "USD"}, nil
}

// Regions returns the seeded destination tree.
func (p *Provider) Regions(ctx context.Context) ([]driver.Region, error) {
	return append([]driver.Region(nil), p.regions...), nil
}

// Packages filters the seeded catalog.
func (p *Provider) Packages(ctx context.Context, filter driver.PackageFilter) ([]driver.Package, error) {
	var out []driver.Package
	for _, pkg := range p.catalog {
		if !matchesFilter(pkg, filter) {
			continue
		}
		out = append(out, pkg)
	}
	return out, nil
}

// Order fabricates an order and fulfills it immediately: unlike the real
// provider there is no asynchronous window, the profile is complete in the
// synchronous response.
func (p *Provider) Order(ctx context.Context, req *driver.OrderRequest) (*driver.OrderResult, error) {
	if req == nil || req.PackageCode == "" {
		return nil, fmt.Errorf("package code is required")
	}

	pkg, ok := p.findPackage(req.PackageCode)
	if !ok {
		return nil, &driver.ProviderError{
			Provider: "sandbox",
			Kind:     driver.KindInvalidPackage,
			Code:     driver.CodeInvalidPackage,
			Message:  fmt.Sprintf("unknown package %q", req.PackageCode),
		}
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	now := p.now()
	p.orderSeq++
	orderNo := fmt.Sprintf("TEST%s%04d", now.Format("20060102"), p.orderSeq)

	prof := &profile{
		Profile: driver.Profile{
			TranNo:         fmt.Sprintf("%s-1", orderNo),
			ICCID:          p.newICCID(),
			SMDPAddress:    TestSMDPAddress,
			ActivationCode: p.newActivationCode(),
			Status:         "GOT_RESOURCE",
			CreatedAt:      now,
			ExpiredAt:      now.AddDate(0, 0, pkg.ValidityDays),
			VolumeBytes:    pkg.VolumeBytes,
		},
		totalBytes: pkg.VolumeBytes,
	}

	p.orders[orderNo] = &order{orderNo: orderNo, tranNos: []string{prof.TranNo}}
	p.profiles[prof.TranNo] = prof

	return &driver.OrderResult{
		OrderNo:  orderNo,
		Profiles: []driver.Profile{prof.Profile},
	}, nil
}

// OrderProfiles returns the fabricated profiles for an order.
func (p *Provider) OrderProfiles(ctx context.Context, orderNo string) ([]driver.Profile, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	ord, ok := p.orders[orderNo]
	if !ok {
		return nil, p.notFound("order %q not found", orderNo)
	}

	out := make([]driver.Profile, 0, len(ord.tranNos))
	for _, tranNo := range ord.tranNos {
		if prof, ok := p.profiles[tranNo]; ok {
			out = append(out, prof.snapshot())
		}
	}
	return out, nil
}

// Usage reports consumption for known profiles, applying the same batch
// ceiling as the real client.
func (p *Provider) Usage(ctx context.Context, tranNos []string) ([]driver.UsageRecord, error) {
	if err := driver.ValidateUsageBatch(tranNos); err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	var out []driver.UsageRecord
	for _, tranNo := range tranNos {
		prof, ok := p.profiles[tranNo]
		if !ok {
			continue
		}
		out = append(out, driver.UsageRecord{
			TranNo:      tranNo,
			UsedBytes:   prof.usedBytes,
			TotalBytes:  prof.totalBytes,
			LastUpdated: p.now(),
		})
	}
	return out, nil
}

// RealtimeBalance reports the live data quota for a known profile.
func (p *Provider) RealtimeBalance(ctx context.Context, tranNo string) (*driver.RealtimeBalance, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	prof, ok := p.profiles[tranNo]
	if !ok {
		return nil, p.notFound("profile %q not found", tranNo)
	}
	return &driver.RealtimeBalance{
		Data: &driver.Quota{Total: prof.totalBytes, Remaining: prof.totalBytes - prof.usedBytes},
	}, nil
}

// TopUpPackages returns catalog entries eligible for top-up.
func (p *Provider) TopUpPackages(ctx context.Context, ref driver.EsimRef, filter driver.PackageFilter) ([]driver.Package, error) {
	p.mu.Lock()
	_, err := p.lookupLocked(ref)
	p.mu.Unlock()
	if err != nil {
		return nil, err
	}

	var out []driver.Package
	for _, pkg := range p.catalog {
		if !pkg.TopUpEligible() || !matchesFilter(pkg, filter) {
			continue
		}
		out = append(out, pkg)
	}
	return out, nil
}

// TopUp extends a profile. The new expiry anchors at max(existing expiry,
// now), so a lapsed profile gets the full validity from the present rather
// than backdating from the old expiry.
func (p *Provider) TopUp(ctx context.Context, req *driver.TopUpRequest) (*driver.TopUpResult, error) {
	if req == nil || req.Ref.IsZero() {
		return nil, fmt.Errorf("transaction number or iccid is required")
	}

	pkg, ok := p.findPackage(req.PackageCode)
	if !ok {
		return nil, &driver.ProviderError{
			Provider: "sandbox",
			Kind:     driver.KindInvalidPackage,
			Code:     driver.CodeInvalidPackage,
			Message:  fmt.Sprintf("unknown package %q", req.PackageCode),
		}
	}
	if !pkg.TopUpEligible() {
		return nil, &driver.ProviderError{
			Provider: "sandbox",
			Kind:     driver.KindInvalidPackage,
			Code:     driver.CodePackageUnavailable,
			Message:  fmt.Sprintf("package %q cannot top up an existing esim", req.PackageCode),
		}
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	prof, err := p.lookupLocked(req.Ref)
	if err != nil {
		return nil, err
	}

	anchor := prof.ExpiredAt
	if now := p.now(); anchor.Before(now) {
		anchor = now
	}
	prof.ExpiredAt = anchor.AddDate(0, 0, pkg.ValidityDays)
	prof.totalBytes += pkg.VolumeBytes
	prof.VolumeBytes = prof.totalBytes

	return &driver.TopUpResult{
		ExpiredAt:   prof.ExpiredAt,
		VolumeBytes: prof.totalBytes,
		AddedDays:   pkg.ValidityDays,
		UsedBytes:   prof.usedBytes,
	}, nil
}

// Cancel cancels an unactivated order.
func (p *Provider) Cancel(ctx context.Context, orderNo string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	ord, ok := p.orders[orderNo]
	if !ok {
		return p.notFound("order %q not found", orderNo)
	}
	ord.canceled = true
	for _, tranNo := range ord.tranNos {
		if prof, ok := p.profiles[tranNo]; ok {
			prof.Status = "CANCEL"
		}
	}
	return nil
}

// Suspend pauses service on a profile.
func (p *Provider) Suspend(ctx context.Context, ref driver.EsimRef) error {
	return p.setStatus(ref, "SUSPENDED")
}

// Unsuspend resumes service on a suspended profile.
func (p *Provider) Unsuspend(ctx context.Context, ref driver.EsimRef) error {
	return p.setStatus(ref, "IN_USE")
}

// Revoke permanently retires a profile.
func (p *Provider) Revoke(ctx context.Context, ref driver.EsimRef) error {
	return p.setStatus(ref, "REVOKED")
}

func (p *Provider) setStatus(ref driver.EsimRef, status string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	prof, err := p.lookupLocked(ref)
	if err != nil {
		return err
	}
	prof.Status = status
	return nil
}

// lookupLocked resolves a profile reference. Callers hold p.mu.
func (p *Provider) lookupLocked(ref driver.EsimRef) (*profile, error) {
	if ref.IsZero() {
		return nil, fmt.Errorf("transaction number or iccid is required")
	}

	if ref.TranNo != "" {
		if prof, ok := p.profiles[ref.TranNo]; ok {
			return prof, nil
		}
		return nil, p.notFound("profile %q not found", ref.TranNo)
	}
	for _, prof := range p.profiles {
		if prof.ICCID == ref.ICCID {
			return prof, nil
		}
	}
	return nil, p.notFound("profile with iccid %q not found", ref.ICCID)
}

func (p *Provider) notFound(format string, args ...any) error {
	return &driver.ProviderError{
		Provider: "sandbox",
		Kind:     driver.KindProvider,
		Message:  fmt.Sprintf(format, args...),
	}
}

// newICCID fabricates a 19-digit ICCID with the telecom "89" prefix.
// Identifiers only need to look plausible, not be unguessable.
func (p *Provider) newICCID() string {
	var b strings.Builder
	b.WriteString("89")
	for b.Len() < iccidLength {
		b.WriteByte(byte('0' + p.rand().Intn(10)))
	}
	return b.String()
}

func (p *Provider) newActivationCode() string {
	const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	buf := make([]byte, 24)
	for i := range buf {
		buf[i] = alphabet[p.rand().Intn(len(alphabet))]
	}
	return string(buf)
}

func (p *Provider) findPackage(code string) (driver.Package, bool) {
	for _, pkg := range p.catalog {
		if pkg.Code == code {
			return pkg, true
		}
	}
	return driver.Package{}, false
}

func (p *Provider) now() time.Time {
	if p.Now != nil {
		return p.Now()
	}
	return time.Now()
}

func (p *Provider) rand() *rand.Rand {
	if p.Rand == nil {
		p.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return p.Rand
}

func (pr *profile) snapshot() driver.Profile {
	out := pr.Profile
	out.UsedBytes = pr.usedBytes
	return out
}

func matchesFilter(pkg driver.Package, filter driver.PackageFilter) bool {
	if filter.PackageCode != "" && pkg.Code != filter.PackageCode {
		return false
	}
	if filter.RegionCode != "" {
		found := false
		for _, c := range pkg.Countries {
			if strings.EqualFold(c, filter.RegionCode) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

const gb = int64(1) << 30

func defaultCatalog() []driver.Package {
	return []driver.Package{
		{Code: "TEST-JP-1GB-7D", Name: "Japan 1GB 7 Days", VolumeBytes: 1 * gb, ValidityDays: 7, Price: 4.5, Currency: "USD", Countries: []string{"JP"}},
		{Code: "TEST-JP-3GB-30D", Name: "Japan 3GB 30 Days", VolumeBytes: 3 * gb, ValidityDays: 30, Price: 9.9, Currency: "USD", Countries: []string{"JP"}},
		{Code: "TEST-EU-5GB-30D", Name: "Europe 5GB 30 Days", VolumeBytes: 5 * gb, ValidityDays: 30, Price: 14.9, Currency: "USD", Countries: []string{"FR", "DE", "IT", "ES"}},
		{Code: "TEST-US-NEW-10GB-30D", Name: "USA 10GB 30 Days (new eSIM only)", VolumeBytes: 10 * gb, ValidityDays: 30, Price: 19.9, Currency: "USD", Countries: []string{"US"}, SupportTopUpType: 1},
	}
}

func defaultRegions() []driver.Region {
	return []driver.Region{
		{Code: "JP", Name: "Japan", Type: "country"},
		{Code: "US", Name: "United States", Type: "country"},
		{
			Code: "EU", Name: "Europe", Type: "multi",
			SubLocations: []driver.Region{
				{Code: "FR", Name: "France", Type: "country"},
				{Code: "DE", Name: "Germany", Type: "country"},
				{Code: "IT", Name: "Italy", Type: "country"},
				{Code: "ES", Name: "Spain", Type: "country"},
			},
		},
	}
}

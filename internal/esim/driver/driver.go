package driver

import (
	"context"
	"fmt"
	"time"
)

// MaxUsageBatch is the provider's hard ceiling on transaction numbers per
// usage query. Requests above it are rejected locally, before any network call.
const MaxUsageBatch = 10

// Provider defines the interface for eSIM provisioning backends.
//
// The production implementation lives in the esimaccess package; the sandbox
// package implements the same interface with fabricated data for reviewer and
// test-account flows. Callers pick the implementation — the real client never
// branches on a test flag internally.
type Provider interface {
	// Name returns the provider identifier (e.g. "esimaccess").
	Name() string

	// Balance returns the reseller account balance.
	Balance(ctx context.Context) (*Balance, error)

	// Regions returns the region tree, including sub-locations for
	// multi-country bundles.
	Regions(ctx context.Context) ([]Region, error)

	// Packages lists purchasable packages, optionally filtered.
	Packages(ctx context.Context, filter PackageFilter) ([]Package, error)

	// Order assigns a new eSIM for the given package. Activation details are
	// frequently absent from the synchronous response; callers poll
	// OrderProfiles or await the provider webhook before the eSIM is usable.
	Order(ctx context.Context, req *OrderRequest) (*OrderResult, error)

	// OrderProfiles returns all profiles belonging to an order, paging
	// through the provider's result set as needed.
	OrderProfiles(ctx context.Context, orderNo string) ([]Profile, error)

	// Usage returns usage totals for up to MaxUsageBatch transaction numbers.
	Usage(ctx context.Context, tranNos []string) ([]UsageRecord, error)

	// RealtimeBalance queries live remaining balances for one profile.
	// A nil result with a nil error means the profile's operator does not
	// support live queries; callers fall back to periodic Usage polling.
	RealtimeBalance(ctx context.Context, tranNo string) (*RealtimeBalance, error)

	// TopUpPackages lists packages eligible for topping up an existing eSIM.
	// Packages flagged new-eSIM-only are excluded.
	TopUpPackages(ctx context.Context, ref EsimRef, filter PackageFilter) ([]Package, error)

	// TopUp adds data and validity to an existing eSIM. Validity is additive
	// from max(existing expiry, now); a lapsed expiry never anchors the
	// extension.
	TopUp(ctx context.Context, req *TopUpRequest) (*TopUpResult, error)

	// Cancel cancels an unactivated order.
	Cancel(ctx context.Context, orderNo string) error

	// Suspend pauses service on a profile.
	Suspend(ctx context.Context, ref EsimRef) error

	// Unsuspend resumes service on a suspended profile.
	Unsuspend(ctx context.Context, ref EsimRef) error

	// Revoke permanently retires a profile. Irreversible at the provider;
	// callers gate their own confirmation.
	Revoke(ctx context.Context, ref EsimRef) error
}

// Balance is the reseller account balance.
type Balance struct {
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
}

// Region is a node in the destination tree. Multi-country bundles carry their
// member countries as sub-locations.
type Region struct {
	Code         string   `json:"code"`
	Name         string   `json:"name"`
	Type         string   `json:"type,omitempty"`
	SubLocations []Region `json:"sub_locations,omitempty"`
}

// Package is a purchasable data bundle identified by the provider SKU code.
type Package struct {
	Code         string   `json:"code"`
	Name         string   `json:"name"`
	VolumeBytes  int64    `json:"volume_bytes"`
	ValidityDays int      `json:"validity_days"`
	Price        float64  `json:"price"`
	Currency     string   `json:"currency"`
	Countries    []string `json:"countries,omitempty"`

	// SupportTopUpType is the provider's top-up eligibility flag. The value 1
	// marks a package as new-eSIM-only; absence (zero) means eligible.
	SupportTopUpType int `json:"support_top_up_type,omitempty"`
}

// TopUpEligible reports whether the package may be applied to an existing
// eSIM. Only an explicit new-eSIM-only flag excludes it.
func (p Package) TopUpEligible() bool {
	return p.SupportTopUpType != 1
}

// PackageFilter narrows a package listing.
type PackageFilter struct {
	RegionCode  string
	PackageCode string
}

// OrderRequest describes a new eSIM assignment.
type OrderRequest struct {
	PackageCode string
	// Email is the buyer's address, forwarded to the provider when present.
	Email string
	// TransactionID is the caller-supplied correlation identifier the
	// provider echoes in asynchronous webhook callbacks.
	TransactionID string
}

// OrderResult is the synchronous assignment outcome. Profiles may be empty or
// missing activation details until the provider fulfills asynchronously.
type OrderResult struct {
	OrderNo  string    `json:"order_no"`
	Profiles []Profile `json:"profiles,omitempty"`
}

// Profile is one provisioned eSIM instance.
type Profile struct {
	TranNo         string    `json:"tran_no"`
	ICCID          string    `json:"iccid"`
	SMDPAddress    string    `json:"smdp_address,omitempty"`
	ActivationCode string    `json:"activation_code,omitempty"`
	QRCodeURL      string    `json:"qr_code_url,omitempty"`
	Status         string    `json:"status,omitempty"`
	CreatedAt      time.Time `json:"created_at,omitzero"`
	ExpiredAt      time.Time `json:"expired_at,omitzero"`
	VolumeBytes    int64     `json:"volume_bytes,omitempty"`
	UsedBytes      int64     `json:"used_bytes,omitempty"`
}

// UsageRecord is one profile's consumption totals from a batch usage query.
type UsageRecord struct {
	TranNo      string    `json:"tran_no"`
	UsedBytes   int64     `json:"used_bytes"`
	TotalBytes  int64     `json:"total_bytes"`
	LastUpdated time.Time `json:"last_updated,omitzero"`
}

// Quota is one remaining/total pair from a realtime balance query.
type Quota struct {
	Total     int64 `json:"total"`
	Remaining int64 `json:"remaining"`
}

// RealtimeBalance holds live balances for the service classes the operator
// reports. Unreported classes are nil.
type RealtimeBalance struct {
	Data  *Quota `json:"data,omitempty"`
	SMS   *Quota `json:"sms,omitempty"`
	Voice *Quota `json:"voice,omitempty"`
}

// EsimRef addresses an existing profile by transaction number or ICCID.
// TranNo is preferred when both are set.
type EsimRef struct {
	TranNo string
	ICCID  string
}

// IsZero reports whether the reference addresses nothing.
func (r EsimRef) IsZero() bool {
	return r.TranNo == "" && r.ICCID == ""
}

// TopUpRequest describes a top-up of an existing eSIM.
type TopUpRequest struct {
	Ref           EsimRef
	PackageCode   string
	TransactionID string
}

// TopUpResult is the outcome of a successful top-up.
type TopUpResult struct {
	ExpiredAt   time.Time `json:"expired_at"`
	VolumeBytes int64     `json:"volume_bytes"`
	AddedDays   int       `json:"added_days"`
	UsedBytes   int64     `json:"used_bytes"`
}

// ValidateUsageBatch enforces the provider's batch ceiling locally so an
// oversized request never reaches the wire.
func ValidateUsageBatch(tranNos []string) error {
	if len(tranNos) == 0 {
		return fmt.Errorf("at least one transaction number is required")
	}
	if len(tranNos) > MaxUsageBatch {
		return fmt.Errorf("usage query limited to %d transaction numbers, got %d", MaxUsageBatch, len(tranNos))
	}
	return nil
}

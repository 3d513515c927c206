package esimaccess

import (
	"context"
	"fmt"

	"github.com/roamsim/roamsim/internal/esim/driver"
)

const endpointTopUp = "/api/v1/open/esim/topup"

// TopUpPackages lists packages eligible for topping up an existing eSIM.
// Packages the provider flags as new-eSIM-only are filtered out here so no
// caller can offer one as a top-up.
func (c *Client) TopUpPackages(ctx context.Context, ref driver.EsimRef, filter driver.PackageFilter) ([]driver.Package, error) {
	if ref.IsZero() {
		return nil, fmt.Errorf("transaction number or iccid is required")
	}

	req := struct {
		Type         string `json:"type"`
		EsimTranNo   string `json:"esimTranNo,omitempty"`
		ICCID        string `json:"iccid,omitempty"`
		LocationCode string `json:"locationCode,omitempty"`
		PackageCode  string `json:"packageCode,omitempty"`
	}{
		Type:         "TOPUP",
		EsimTranNo:   ref.TranNo,
		ICCID:        ref.ICCID,
		LocationCode: filter.RegionCode,
		PackageCode:  filter.PackageCode,
	}

	var obj struct {
		PackageList []wirePackage `json:"packageList"`
	}
	if err := c.call(ctx, endpointPackages, req, &obj); err != nil {
		return nil, err
	}

	packages := make([]driver.Package, 0, len(obj.PackageList))
	for _, p := range obj.PackageList {
		pkg := p.toPackage()
		if !pkg.TopUpEligible() {
			continue
		}
		packages = append(packages, pkg)
	}
	return packages, nil
}

// TopUp adds the package's data and validity to an existing eSIM. The
// provider anchors the extension at max(existing expiry, now), so a lapsed
// profile gets the package's full validity from the moment of top-up.
func (c *Client) TopUp(ctx context.Context, req *driver.TopUpRequest) (*driver.TopUpResult, error) {
	if req == nil || req.Ref.IsZero() {
		return nil, fmt.Errorf("transaction number or iccid is required")
	}
	if req.PackageCode == "" {
		return nil, fmt.Errorf("package code is required")
	}

	payload := struct {
		EsimTranNo    string `json:"esimTranNo,omitempty"`
		ICCID         string `json:"iccid,omitempty"`
		PackageCode   string `json:"packageCode"`
		TransactionID string `json:"transactionId,omitempty"`
	}{
		EsimTranNo:    req.Ref.TranNo,
		ICCID:         req.Ref.ICCID,
		PackageCode:   req.PackageCode,
		TransactionID: req.TransactionID,
	}

	var obj struct {
		ExpiredTime string `json:"expiredTime"`
		TotalVolume int64  `json:"totalVolume"`
		AddedDays   int    `json:"addedDays"`
		OrderUsage  int64  `json:"orderUsage"`
	}
	if err := c.call(ctx, endpointTopUp, payload, &obj); err != nil {
		return nil, err
	}

	return &driver.TopUpResult{
		ExpiredAt:   parseWireTime(obj.ExpiredTime),
		VolumeBytes: obj.TotalVolume,
		AddedDays:   obj.AddedDays,
		UsedBytes:   obj.OrderUsage,
	}, nil
}

package esimaccess

import (
	"context"
	"fmt"

	"github.com/roamsim/roamsim/internal/esim/driver"
)

const (
	endpointOrder      = "/api/v1/open/esim/order"
	endpointOrderQuery = "/api/v1/open/esim/query"

	// orderQueryPageSize is the provider's page size for profile queries.
	orderQueryPageSize = 100
)

// Order assigns a new eSIM for the given package. The provider fulfills
// asynchronously: the synchronous response carries the order number and
// possibly profiles without activation details yet.
func (c *Client) Order(ctx context.Context, req *driver.OrderRequest) (*driver.OrderResult, error) {
	if req == nil || req.PackageCode == "" {
		return nil, fmt.Errorf("package code is required")
	}

	type packageInfo struct {
		PackageCode string `json:"packageCode"`
		Count       int    `json:"count"`
	}
	payload := struct {
		TransactionID   string        `json:"transactionId"`
		Email           string        `json:"email,omitempty"`
		PackageInfoList []packageInfo `json:"packageInfoList"`
	}{
		TransactionID:   req.TransactionID,
		Email:           req.Email,
		PackageInfoList: []packageInfo{{PackageCode: req.PackageCode, Count: 1}},
	}

	var obj struct {
		OrderNo  string        `json:"orderNo"`
		EsimList []wireProfile `json:"esimList"`
	}
	if err := c.call(ctx, endpointOrder, payload, &obj); err != nil {
		return nil, err
	}

	result := &driver.OrderResult{OrderNo: obj.OrderNo}
	for _, p := range obj.EsimList {
		result.Profiles = append(result.Profiles, p.toProfile())
	}
	return result, nil
}

// OrderProfiles returns all profiles belonging to an order, paging through
// the provider's result set until a short page.
func (c *Client) OrderProfiles(ctx context.Context, orderNo string) ([]driver.Profile, error) {
	if orderNo == "" {
		return nil, fmt.Errorf("order number is required")
	}

	type pager struct {
		PageNum  int `json:"pageNum"`
		PageSize int `json:"pageSize"`
	}

	var profiles []driver.Profile
	for page := 1; ; page++ {
		payload := struct {
			OrderNo string `json:"orderNo"`
			Pager   pager  `json:"pager"`
		}{
			OrderNo: orderNo,
			Pager:   pager{PageNum: page, PageSize: orderQueryPageSize},
		}

		var obj struct {
			EsimList []wireProfile `json:"esimList"`
		}
		if err := c.call(ctx, endpointOrderQuery, payload, &obj); err != nil {
			return nil, err
		}

		for _, p := range obj.EsimList {
			profiles = append(profiles, p.toProfile())
		}
		if len(obj.EsimList) < orderQueryPageSize {
			return profiles, nil
		}
	}
}

package esimaccess

import (
	"context"
	"fmt"

	"github.com/roamsim/roamsim/internal/esim/driver"
)

const (
	endpointUsage           = "/api/v1/open/esim/usage/query"
	endpointRealtimeBalance = "/api/v1/open/esim/balance/query"
)

// Usage returns consumption totals for up to driver.MaxUsageBatch transaction
// numbers. The batch ceiling is enforced before any network traffic.
func (c *Client) Usage(ctx context.Context, tranNos []string) ([]driver.UsageRecord, error) {
	if err := driver.ValidateUsageBatch(tranNos); err != nil {
		return nil, err
	}

	payload := struct {
		EsimTranNoList []string `json:"esimTranNoList"`
	}{EsimTranNoList: tranNos}

	var obj struct {
		UsageList []struct {
			EsimTranNo     string `json:"esimTranNo"`
			OrderUsage     int64  `json:"orderUsage"`
			TotalVolume    int64  `json:"totalVolume"`
			LastUpdateTime string `json:"lastUpdateTime"`
		} `json:"usageList"`
	}
	if err := c.call(ctx, endpointUsage, payload, &obj); err != nil {
		return nil, err
	}

	records := make([]driver.UsageRecord, 0, len(obj.UsageList))
	for _, u := range obj.UsageList {
		records = append(records, driver.UsageRecord{
			TranNo:      u.EsimTranNo,
			UsedBytes:   u.OrderUsage,
			TotalBytes:  u.TotalVolume,
			LastUpdated: parseWireTime(u.LastUpdateTime),
		})
	}
	return records, nil
}

// RealtimeBalance queries live balances for one profile. A success envelope
// with a null obj means the profile's operator does not support live queries;
// that case returns (nil, nil), not an error.
func (c *Client) RealtimeBalance(ctx context.Context, tranNo string) (*driver.RealtimeBalance, error) {
	if tranNo == "" {
		return nil, fmt.Errorf("transaction number is required")
	}

	payload := struct {
		EsimTranNo string `json:"esimTranNo"`
	}{EsimTranNo: tranNo}

	type wireQuota struct {
		Total  int64 `json:"total"`
		Remain int64 `json:"remain"`
	}
	var obj struct {
		Data  *wireQuota `json:"data"`
		SMS   *wireQuota `json:"sms"`
		Voice *wireQuota `json:"voice"`
	}
	if err := c.call(ctx, endpointRealtimeBalance, payload, &obj); err != nil {
		return nil, err
	}

	if obj.Data == nil && obj.SMS == nil && obj.Voice == nil {
		return nil, nil
	}

	toQuota := func(w *wireQuota) *driver.Quota {
		if w == nil {
			return nil
		}
		return &driver.Quota{Total: w.Total, Remaining: w.Remain}
	}
	return &driver.RealtimeBalance{
		Data:  toQuota(obj.Data),
		SMS:   toQuota(obj.SMS),
		Voice: toQuota(obj.Voice),
	}, nil
}

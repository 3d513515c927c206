package esimaccess

import (
	"context"
	"fmt"

	"github.com/roamsim/roamsim/internal/esim/driver"
)

const (
	endpointCancel    = "/api/v1/open/esim/cancel"
	endpointSuspend   = "/api/v1/open/esim/suspend"
	endpointUnsuspend = "/api/v1/open/esim/unsuspend"
	endpointRevoke    = "/api/v1/open/esim/revoke"
)

// Cancel cancels an unactivated order.
func (c *Client) Cancel(ctx context.Context, orderNo string) error {
	if orderNo == "" {
		return fmt.Errorf("order number is required")
	}
	payload := struct {
		OrderNo string `json:"orderNo"`
	}{OrderNo: orderNo}
	return c.call(ctx, endpointCancel, payload, nil)
}

// Suspend pauses service on a profile.
func (c *Client) Suspend(ctx context.Context, ref driver.EsimRef) error {
	return c.lifecycleCall(ctx, endpointSuspend, ref)
}

// Unsuspend resumes service on a suspended profile.
func (c *Client) Unsuspend(ctx context.Context, ref driver.EsimRef) error {
	return c.lifecycleCall(ctx, endpointUnsuspend, ref)
}

// Revoke permanently retires a profile. Confirmation is the caller's job;
// the provider treats this as final.
func (c *Client) Revoke(ctx context.Context, ref driver.EsimRef) error {
	return c.lifecycleCall(ctx, endpointRevoke, ref)
}

func (c *Client) lifecycleCall(ctx context.Context, endpoint string, ref driver.EsimRef) error {
	if ref.IsZero() {
		return fmt.Errorf("transaction number or iccid is required")
	}
	payload := struct {
		EsimTranNo string `json:"esimTranNo,omitempty"`
		ICCID      string `json:"iccid,omitempty"`
	}{EsimTranNo: ref.TranNo, ICCID: ref.ICCID}
	return c.call(ctx, endpoint, payload, nil)
}

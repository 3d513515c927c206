package esimaccess

import (
	"context"

	"github.com/roamsim/roamsim/internal/esim/driver"
)

const endpointBalance = "/api/v1/open/balance/query"

// defaultCurrency is assumed when the provider omits currencyCode. Reseller
// accounts are denominated in USD.
const defaultCurrency = "USD"

// Balance returns the reseller account balance.
func (c *Client) Balance(ctx context.Context) (*driver.Balance, error) {
	var obj struct {
		Balance      float64 `json:"balance"`
		CurrencyCode string  `json:"currencyCode"`
	}
	if err := c.call(ctx, endpointBalance, struct{}{}, &obj); err != nil {
		return nil, err
	}

	currency := obj.CurrencyCode
	if currency == "" {
		currency = defaultCurrency
	}
	return &driver.Balance{Amount: obj.Balance, Currency: currency}, nil
}

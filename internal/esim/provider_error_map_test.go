package esim

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roamsim/roamsim/internal/esim/driver"
)

func TestMapProviderErrorKinds(t *testing.T) {
	cases := []struct {
		kind driver.Kind
		code string
	}{
		{driver.KindInsufficientBalance, "INSUFFICIENT_BALANCE"},
		{driver.KindOutOfStock, "OUT_OF_STOCK"},
		{driver.KindInvalidPackage, "INVALID_PACKAGE"},
		{driver.KindBusy, "PROVIDER_BUSY"},
		{driver.KindClient, "PROVIDER_BAD_REQUEST"},
		{driver.KindTransport, "PROVIDER_UNAVAILABLE"},
		{driver.KindProvider, "PROVIDER_ERROR"},
	}

	for _, tc := range cases {
		t.Run(string(tc.kind), func(t *testing.T) {
			err := fmt.Errorf("wrapped: %w", &driver.ProviderError{Provider: "esimaccess", Kind: tc.kind, Message: "detail"})
			env := MapProviderError(err)
			require.NotNil(t, env)
			require.Equal(t, tc.code, env.Code)
			require.Equal(t, "detail", env.Context["provider_detail"])
		})
	}
}

func TestMapProviderErrorTimeout(t *testing.T) {
	env := MapProviderError(fmt.Errorf("call: %w", context.DeadlineExceeded))
	require.Equal(t, "PROVIDER_TIMEOUT", env.Code)
}

func TestMapProviderErrorPlain(t *testing.T) {
	env := MapProviderError(fmt.Errorf("boom"))
	require.Equal(t, "PROVIDER_ERROR", env.Code)
	require.Nil(t, MapProviderError(nil))
}

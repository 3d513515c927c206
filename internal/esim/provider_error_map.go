package esim

import (
	"context"
	stderrors "errors"
	"strings"

	"github.com/fulmenhq/gofulmen/errors"

	"github.com/roamsim/roamsim/internal/esim/driver"
)

// MapProviderError converts a provisioning failure into the error envelope
// the HTTP and CLI layers present. Provider business rejections keep their
// classification; everything else collapses to a generic provider error.
func MapProviderError(err error) *errors.ErrorEnvelope {
	if err == nil {
		return nil
	}
	if stderrors.Is(err, context.DeadlineExceeded) {
		return envelope("PROVIDER_TIMEOUT", "provider request timed out", err)
	}

	if perr, ok := driver.AsProviderError(err); ok {
		details := strings.TrimSpace(perr.Message)
		switch perr.Kind {
		case driver.KindInsufficientBalance:
			return envelope("INSUFFICIENT_BALANCE", "reseller account balance too low", details)
		case driver.KindOutOfStock:
			return envelope("OUT_OF_STOCK", "package out of stock", details)
		case driver.KindInvalidPackage:
			return envelope("INVALID_PACKAGE", "package not purchasable", details)
		case driver.KindBusy:
			return envelope("PROVIDER_BUSY", "provider busy, retry later", details)
		case driver.KindClient:
			return envelope("PROVIDER_BAD_REQUEST", "provider rejected request", details)
		case driver.KindTransport:
			return envelope("PROVIDER_UNAVAILABLE", "provider unavailable", details)
		default:
			return envelope("PROVIDER_ERROR", "provider request failed", details)
		}
	}

	return envelope("PROVIDER_ERROR", "provider request failed", err)
}

func envelope(code, message string, detail any) *errors.ErrorEnvelope {
	env := errors.NewErrorEnvelope(code, message)

	var text string
	switch v := detail.(type) {
	case error:
		text = v.Error()
	case string:
		text = v
	}
	if text == "" {
		return env
	}

	updated, err := env.WithContext(map[string]interface{}{
		"provider_detail": text,
	})
	if err != nil {
		return env
	}
	return updated
}

package driver

import (
	"errors"
	"fmt"
)

// Kind classifies a provider failure for retry and presentation decisions.
type Kind string

const (
	// KindTransport covers network failures, timeouts, 5xx responses, and
	// unparseable bodies. Retryable.
	KindTransport Kind = "transport"
	// KindClient covers HTTP 4xx responses. Not retryable.
	KindClient Kind = "client"
	// KindInsufficientBalance means the reseller account cannot fund the
	// purchase. Not retryable.
	KindInsufficientBalance Kind = "insufficient_balance"
	// KindOutOfStock means the package has no inventory. Not retryable.
	KindOutOfStock Kind = "out_of_stock"
	// KindInvalidPackage means the package code is unknown or not purchasable.
	// Not retryable.
	KindInvalidPackage Kind = "invalid_package"
	// KindBusy is the provider's transient self-reported overload. Retryable.
	KindBusy Kind = "busy"
	// KindProvider covers any other business rejection the provider reports.
	// Not retryable.
	KindProvider Kind = "provider"
)

// Provider business error codes with dedicated classifications.
const (
	CodeInsufficientBalance = "200007"
	CodeOutOfStock          = "200011"
	CodeInvalidPackage      = "310241"
	CodePackageUnavailable  = "310243"
	CodeBusy                = "900001"
)

// ProviderError is a classified failure from a provisioning backend.
type ProviderError struct {
	Provider   string
	Kind       Kind
	Code       string
	Message    string
	HTTPStatus int
}

func (e *ProviderError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s provider error [%s/%s]: %s", e.Provider, e.Kind, e.Code, e.Message)
	}
	if e.HTTPStatus != 0 {
		return fmt.Sprintf("%s provider error [%s] (HTTP %d): %s", e.Provider, e.Kind, e.HTTPStatus, e.Message)
	}
	return fmt.Sprintf("%s provider error [%s]: %s", e.Provider, e.Kind, e.Message)
}

// Retryable reports whether retrying the same request could succeed.
func (e *ProviderError) Retryable() bool {
	return e.Kind == KindTransport || e.Kind == KindBusy
}

// ClassifyCode maps a provider business error code to its Kind.
func ClassifyCode(code string) Kind {
	switch code {
	case CodeInsufficientBalance:
		return KindInsufficientBalance
	case CodeOutOfStock:
		return KindOutOfStock
	case CodeInvalidPackage, CodePackageUnavailable:
		return KindInvalidPackage
	case CodeBusy:
		return KindBusy
	default:
		return KindProvider
	}
}

// AsProviderError unwraps err to a *ProviderError if one is in the chain.
func AsProviderError(err error) (*ProviderError, bool) {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}

// IsRetryable reports whether err carries a retryable provider failure.
func IsRetryable(err error) bool {
	if pe, ok := AsProviderError(err); ok {
		return pe.Retryable()
	}
	return false
}

// IsKind reports whether err carries a provider failure of the given kind.
func IsKind(err error, kind Kind) bool {
	if pe, ok := AsProviderError(err); ok {
		return pe.Kind == kind
	}
	return false
}

package esim

import (
	"context"
	"errors"
	"strings"
)

// ConfigChecker reports whether the provider is usable. It validates
// configuration only; health probes never spend provider rate-limit budget.
type ConfigChecker struct {
	Cfg Config
}

// CheckHealth implements the health checker contract.
func (c ConfigChecker) CheckHealth(_ context.Context) error {
	if strings.TrimSpace(c.Cfg.AccessCode) == "" {
		return errors.New("provider access code is not configured")
	}
	return nil
}

package esim

import (
	"github.com/roamsim/roamsim/internal/esim/driver"
	"github.com/roamsim/roamsim/internal/esim/driver/esimaccess"
	"github.com/roamsim/roamsim/internal/esim/driver/sandbox"
)

// NewClient builds the production provider client from configuration.
func NewClient(cfg Config) *esimaccess.Client {
	client := esimaccess.NewClient(cfg.BaseURL, cfg.AccessCode)
	client.Timeout = cfg.Timeout
	client.MaxAttempts = cfg.MaxAttempts
	client.BackoffBase = cfg.Backoff.Base
	client.BackoffJitter = cfg.Backoff.Jitter
	if cfg.RateLimit.Requests > 0 || cfg.RateLimit.Window > 0 {
		client.Limiter = esimaccess.NewRateLimiter(cfg.RateLimit.Requests, cfg.RateLimit.Window)
	}
	return client
}

// Selector routes each call to the real provider or the sandbox based on an
// explicit caller flag. Test mode is never inferred from the environment; the
// request or command says so or it does not happen.
type Selector struct {
	Real    driver.Provider
	Sandbox driver.Provider
}

// NewSelector pairs a configured real client with a fresh sandbox.
func NewSelector(cfg Config) *Selector {
	return &Selector{
		Real:    NewClient(cfg),
		Sandbox: sandbox.New(),
	}
}

// Pick returns the provider for one call.
func (s *Selector) Pick(testMode bool) driver.Provider {
	if testMode {
		return s.Sandbox
	}
	return s.Real
}

package esim

import "time"

// Config defines the provisioning provider configuration subtree.
//
// This is intentionally self-contained so it can later be extracted as a
// standalone library configuration subtree.
type Config struct {
	BaseURL    string        `mapstructure:"base_url"`
	AccessCode string        `mapstructure:"access_code"`
	Timeout    time.Duration `mapstructure:"timeout"`

	MaxAttempts int `mapstructure:"max_attempts"`

	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Backoff   BackoffConfig   `mapstructure:"backoff"`
}

// RateLimitConfig bounds outbound requests to the provider's ceiling.
type RateLimitConfig struct {
	Requests int           `mapstructure:"requests"`
	Window   time.Duration `mapstructure:"window"`
}

// BackoffConfig shapes the retry backoff curve.
type BackoffConfig struct {
	Base   time.Duration `mapstructure:"base"`
	Jitter time.Duration `mapstructure:"jitter"`
}

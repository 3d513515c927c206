package config

import (
	"path/filepath"
	"testing"
	"time"

	gfconfig "github.com/fulmenhq/gofulmen/config"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resetViper(t *testing.T) {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)
}

func TestLoad(t *testing.T) {
	t.Run("DecodesTypedConfig", func(t *testing.T) {
		resetViper(t)

		viper.Set("server.host", "0.0.0.0")
		viper.Set("server.port", 9000)
		viper.Set("server.read_timeout", "45s")
		viper.Set("server.shutdown_timeout", "5m")
		viper.Set("store.driver", "libsql")
		viper.Set("store.path", "/tmp/roamsim-test.db")
		viper.Set("logging.level", "debug")
		viper.Set("metrics.enabled", true)
		viper.Set("metrics.port", 9090)

		cfg, err := Load()
		require.NoError(t, err)
		require.NotNil(t, cfg)

		assert.Equal(t, "0.0.0.0", cfg.Server.Host)
		assert.Equal(t, 9000, cfg.Server.Port)
		assert.Equal(t, 45*time.Second, cfg.Server.ReadTimeout)
		assert.Equal(t, 5*time.Minute, cfg.Server.ShutdownTimeout)
		assert.Equal(t, "libsql", cfg.Store.Driver)
		assert.Equal(t, "/tmp/roamsim-test.db", cfg.Store.Path)
		assert.Equal(t, "debug", cfg.Logging.Level)
		assert.True(t, cfg.Metrics.Enabled)
		assert.Equal(t, 9090, cfg.Metrics.Port)
	})

	t.Run("ProviderSettings", func(t *testing.T) {
		resetViper(t)

		viper.Set("provider.base_url", "https://api.esimaccess.com")
		viper.Set("provider.access_code", "test-code")
		viper.Set("provider.timeout", "30s")
		viper.Set("provider.max_attempts", 3)
		viper.Set("provider.rate_limit.requests", 8)
		viper.Set("provider.rate_limit.window", "1s")
		viper.Set("provider.backoff.base", "500ms")
		viper.Set("provider.backoff.jitter", "500ms")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "https://api.esimaccess.com", cfg.Provider.BaseURL)
		assert.Equal(t, "test-code", cfg.Provider.AccessCode)
		assert.Equal(t, 30*time.Second, cfg.Provider.Timeout)
		assert.Equal(t, 3, cfg.Provider.MaxAttempts)
		assert.Equal(t, 8, cfg.Provider.RateLimit.Requests)
		assert.Equal(t, time.Second, cfg.Provider.RateLimit.Window)
		assert.Equal(t, 500*time.Millisecond, cfg.Provider.Backoff.Base)
		assert.Equal(t, 500*time.Millisecond, cfg.Provider.Backoff.Jitter)
	})

	t.Run("InboundRateLimit", func(t *testing.T) {
		resetViper(t)

		viper.Set("api.rate_limit.enabled", true)
		viper.Set("api.rate_limit.requests_per_second", 20.0)
		viper.Set("api.rate_limit.burst", 40)

		cfg, err := Load()
		require.NoError(t, err)

		assert.True(t, cfg.API.RateLimit.Enabled)
		assert.Equal(t, 20.0, cfg.API.RateLimit.RequestsPerSecond)
		assert.Equal(t, 40, cfg.API.RateLimit.Burst)
	})

	t.Run("StorePathDefaultsWhenUnset", func(t *testing.T) {
		resetViper(t)
		t.Setenv("XDG_DATA_HOME", t.TempDir())

		cfg, err := Load()
		require.NoError(t, err)

		expected := filepath.Join(gfconfig.GetAppDataDir("roamsim"), "roamsim.db")
		assert.Equal(t, expected, cfg.Store.Path)
	})

	t.Run("RemoteStoreSkipsPathDefault", func(t *testing.T) {
		resetViper(t)

		viper.Set("store.url", "libsql://roamsim-prod.turso.io")
		viper.Set("store.auth_token", "token")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "libsql://roamsim-prod.turso.io", cfg.Store.URL)
		assert.Equal(t, "token", cfg.Store.AuthToken)
		assert.Empty(t, cfg.Store.Path)
	})

	t.Run("WeakTypingFromEnvStrings", func(t *testing.T) {
		resetViper(t)

		// Environment values arrive as strings; the decoder coerces them.
		viper.Set("server.port", "3000")
		viper.Set("metrics.enabled", "false")
		viper.Set("api.rate_limit.requests_per_second", "12.5")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, 3000, cfg.Server.Port)
		assert.False(t, cfg.Metrics.Enabled)
		assert.Equal(t, 12.5, cfg.API.RateLimit.RequestsPerSecond)
	})
}

func TestGetConfig(t *testing.T) {
	resetViper(t)

	viper.Set("server.port", 8081)

	cfg, err := Load()
	require.NoError(t, err)
	require.NotNil(t, cfg)

	retrieved := GetConfig()
	require.NotNil(t, retrieved)
	assert.Equal(t, cfg.Server.Port, retrieved.Server.Port)
}

func TestConfigReload(t *testing.T) {
	resetViper(t)

	viper.Set("server.port", 8080)
	cfg1, err := Load()
	require.NoError(t, err)

	viper.Set("server.port", cfg1.Server.Port+1000)
	cfg2, err := Load()
	require.NoError(t, err)

	assert.Equal(t, cfg1.Server.Port+1000, cfg2.Server.Port)
	assert.Equal(t, cfg2.Server.Port, GetConfig().Server.Port)
}

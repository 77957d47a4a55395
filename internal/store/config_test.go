package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"BINANCE_API_KEY", "BINANCE_API_SECRET", "BINANCE_BASE_URL",
		"TELEGRAM_BOT_TOKEN", "TELEGRAM_CHAT_ID",
		"TRADE_SYMBOLS", "TRADE_QUANTITY", "TRADE_LOG_FILE",
		"PERFORMANCE_FEE_RATE", "POLL_SECONDS",
	} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func TestLoadConfigDefaultsWithMissingFile(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "https://testnet.binance.vision", cfg.Exchange.BaseURL)
	assert.Equal(t, "1h", cfg.Exchange.Interval)
	assert.Equal(t, 100, cfg.Exchange.KlineLimit)
	assert.Equal(t, []string{"BTCUSDT"}, cfg.Symbols)
	assert.Equal(t, 60, cfg.PollSeconds)
	assert.Equal(t, 0.001, cfg.Trade.Quantity)
	assert.Equal(t, "trade_log.csv", cfg.Ledger.Path)
	assert.Equal(t, 0.20, cfg.Ledger.FeeRate)
	assert.False(t, cfg.Ledger.LogRejected)
	assert.Equal(t, 14, cfg.Indicators.RSIPeriod)
	assert.Equal(t, 12, cfg.Indicators.EMAFast)
	assert.Equal(t, 26, cfg.Indicators.EMASlow)
	assert.Equal(t, 9, cfg.Indicators.MACDSignal)
}

func TestLoadConfigReadsYAML(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
exchange:
  base_url: https://api.binance.com
  interval: 15m
symbols: [BTCUSDT, ETHUSDT]
poll_seconds: 30
trade:
  quantity: 0.002
  per_symbol:
    ETHUSDT: 0.05
ledger:
  path: /tmp/trades.csv
  fee_rate: 0.10
  log_rejected: true
`), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "https://api.binance.com", cfg.Exchange.BaseURL)
	assert.Equal(t, "15m", cfg.Exchange.Interval)
	assert.Equal(t, []string{"BTCUSDT", "ETHUSDT"}, cfg.Symbols)
	assert.Equal(t, 30, cfg.PollSeconds)
	assert.Equal(t, "/tmp/trades.csv", cfg.Ledger.Path)
	assert.Equal(t, 0.10, cfg.Ledger.FeeRate)
	assert.True(t, cfg.Ledger.LogRejected)
	assert.Equal(t, 0.002, cfg.Quantity("BTCUSDT"))
	assert.Equal(t, 0.05, cfg.Quantity("ETHUSDT"))
}

func TestLoadConfigEnvOverridesFile(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("symbols: [BTCUSDT]\npoll_seconds: 60\n"), 0o644))

	t.Setenv("BINANCE_API_KEY", "key-from-env")
	t.Setenv("BINANCE_API_SECRET", "secret-from-env")
	t.Setenv("BINANCE_BASE_URL", "https://testnet.binance.vision")
	t.Setenv("TRADE_SYMBOLS", "BTCUSDT| ETHUSDT |TRXUSDT")
	t.Setenv("TRADE_QUANTITY", "0.003")
	t.Setenv("POLL_SECONDS", "15")
	t.Setenv("PERFORMANCE_FEE_RATE", "0.25")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "key-from-env", cfg.Exchange.APIKey)
	assert.Equal(t, "secret-from-env", cfg.Exchange.APISecret)
	assert.Equal(t, []string{"BTCUSDT", "ETHUSDT", "TRXUSDT"}, cfg.Symbols)
	assert.Equal(t, 0.003, cfg.Trade.Quantity)
	assert.Equal(t, 15, cfg.PollSeconds)
	assert.Equal(t, 0.25, cfg.Ledger.FeeRate)
}

func TestLoadConfigSecretsNeverFromYAML(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
exchange:
  api_key: leaked
  api_secret: leaked
`), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Empty(t, cfg.Exchange.APIKey)
	assert.Empty(t, cfg.Exchange.APISecret)
}

func TestValidateRejectsBadValues(t *testing.T) {
	base := func() *Config {
		c := &Config{}
		applyDefaults(c)
		return c
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"no symbols", func(c *Config) { c.Symbols = nil }},
		{"zero quantity", func(c *Config) { c.Trade.Quantity = 0 }},
		{"negative quantity", func(c *Config) { c.Trade.Quantity = -1 }},
		{"fee rate above one", func(c *Config) { c.Ledger.FeeRate = 1.5 }},
		{"negative fee rate", func(c *Config) { c.Ledger.FeeRate = -0.1 }},
		{"zero poll interval", func(c *Config) { c.PollSeconds = 0 }},
		{"fast ema not shorter than slow", func(c *Config) { c.Indicators.EMAFast = 26 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := base()
			tt.mutate(c)
			assert.Error(t, c.Validate())
		})
	}
}

func TestQuantityFallsBackToDefault(t *testing.T) {
	c := &Config{}
	c.Trade.Quantity = 0.001
	c.Trade.PerSymbol = map[string]float64{"ETHUSDT": 0.05}

	assert.Equal(t, 0.05, c.Quantity("ETHUSDT"))
	assert.Equal(t, 0.001, c.Quantity("BTCUSDT"))
}

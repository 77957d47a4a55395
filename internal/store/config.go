package store

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Exchange struct {
		BaseURL        string `yaml:"base_url"`
		Interval       string `yaml:"interval"`
		KlineLimit     int    `yaml:"kline_limit"`
		TimeoutSeconds int    `yaml:"timeout_seconds"`
		MaxRetries     int    `yaml:"max_retries"`
		// Credentials come from the environment only, never from YAML.
		APIKey    string `yaml:"-"`
		APISecret string `yaml:"-"`
	} `yaml:"exchange"`
	Symbols     []string `yaml:"symbols"`
	PollSeconds int      `yaml:"poll_seconds"`
	Trade       struct {
		Quantity  float64            `yaml:"quantity"`
		PerSymbol map[string]float64 `yaml:"per_symbol"`
	} `yaml:"trade"`
	Ledger struct {
		Path    string  `yaml:"path"`
		FeeRate float64 `yaml:"fee_rate"`
		// LogRejected restores the legacy behavior of appending a ledger
		// record even when the exchange rejected the order. Off by default.
		LogRejected bool `yaml:"log_rejected"`
	} `yaml:"ledger"`
	Telegram struct {
		BotToken string `yaml:"-"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	Indicators struct {
		RSIPeriod  int `yaml:"rsi_period"`
		EMAFast    int `yaml:"ema_fast"`
		EMASlow    int `yaml:"ema_slow"`
		MACDSignal int `yaml:"macd_signal"`
	} `yaml:"indicators"`
}

func (c *Config) Validate() error {
	if len(c.Symbols) == 0 {
		return errors.New("symbols cannot be empty")
	}
	if c.Trade.Quantity <= 0 {
		return fmt.Errorf("trade.quantity must be positive, got %g", c.Trade.Quantity)
	}
	if c.Ledger.FeeRate < 0 || c.Ledger.FeeRate > 1 {
		return fmt.Errorf("ledger.fee_rate must be within [0,1], got %g", c.Ledger.FeeRate)
	}
	if c.PollSeconds <= 0 {
		return fmt.Errorf("poll_seconds must be positive, got %d", c.PollSeconds)
	}
	if c.Indicators.EMAFast >= c.Indicators.EMASlow {
		return fmt.Errorf("indicators.ema_fast (%d) must be shorter than ema_slow (%d)",
			c.Indicators.EMAFast, c.Indicators.EMASlow)
	}
	return nil
}

// Quantity returns the trade quantity for a symbol, falling back to the
// default when no per-symbol override is configured.
func (c *Config) Quantity(symbol string) float64 {
	if q, ok := c.Trade.PerSymbol[symbol]; ok && q > 0 {
		return q
	}
	return c.Trade.Quantity
}

// LoadConfig reads the YAML file (a missing file is fine, defaults apply),
// layers environment overrides on top, and validates the result. The
// returned struct is constructed once and passed into every component;
// nothing reads the environment after startup.
func LoadConfig(path string) (*Config, error) {
	var c Config

	b, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, err
	}
	if len(b) > 0 {
		if err := yaml.Unmarshal(b, &c); err != nil {
			return nil, err
		}
	}

	applyEnv(&c)
	applyDefaults(&c)

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &c, nil
}

func applyEnv(c *Config) {
	c.Exchange.APIKey = os.Getenv("BINANCE_API_KEY")
	c.Exchange.APISecret = os.Getenv("BINANCE_API_SECRET")
	c.Telegram.BotToken = os.Getenv("TELEGRAM_BOT_TOKEN")
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		c.Telegram.ChatID = v
	}
	if v := os.Getenv("BINANCE_BASE_URL"); v != "" {
		c.Exchange.BaseURL = v
	}
	if v := os.Getenv("TRADE_SYMBOLS"); v != "" {
		c.Symbols = splitSymbols(v)
	}
	if v := os.Getenv("TRADE_QUANTITY"); v != "" {
		if q, err := strconv.ParseFloat(v, 64); err == nil {
			c.Trade.Quantity = q
		}
	}
	if v := os.Getenv("TRADE_LOG_FILE"); v != "" {
		c.Ledger.Path = v
	}
	if v := os.Getenv("PERFORMANCE_FEE_RATE"); v != "" {
		if r, err := strconv.ParseFloat(v, 64); err == nil {
			c.Ledger.FeeRate = r
		}
	}
	if v := os.Getenv("POLL_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.PollSeconds = n
		}
	}
}

func applyDefaults(c *Config) {
	if c.Exchange.BaseURL == "" {
		c.Exchange.BaseURL = "https://testnet.binance.vision"
	}
	if c.Exchange.Interval == "" {
		c.Exchange.Interval = "1h"
	}
	if c.Exchange.KlineLimit == 0 {
		c.Exchange.KlineLimit = 100
	}
	if c.Exchange.TimeoutSeconds == 0 {
		c.Exchange.TimeoutSeconds = 10
	}
	if c.Exchange.MaxRetries == 0 {
		c.Exchange.MaxRetries = 3
	}
	if len(c.Symbols) == 0 {
		c.Symbols = []string{"BTCUSDT"}
	}
	if c.PollSeconds == 0 {
		c.PollSeconds = 60
	}
	if c.Trade.Quantity == 0 {
		c.Trade.Quantity = 0.001
	}
	if c.Ledger.Path == "" {
		c.Ledger.Path = "trade_log.csv"
	}
	if c.Ledger.FeeRate == 0 {
		c.Ledger.FeeRate = 0.20
	}
	if c.Indicators.RSIPeriod == 0 {
		c.Indicators.RSIPeriod = 14
	}
	if c.Indicators.EMAFast == 0 {
		c.Indicators.EMAFast = 12
	}
	if c.Indicators.EMASlow == 0 {
		c.Indicators.EMASlow = 26
	}
	if c.Indicators.MACDSignal == 0 {
		c.Indicators.MACDSignal = 9
	}
}

// Symbol sets arrive pipe-delimited ("BTCUSDT|ETHUSDT").
func splitSymbols(v string) []string {
	parts := strings.Split(v, "|")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// LoadConfig reads the YAML file at path on top of the defaults and applies env overrides
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	config := GetDefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	overrideFromEnv(config)

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// LoadConfigOrCreateDefault loads path, writing the default config there first if it is missing
func LoadConfigOrCreateDefault(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := SaveConfig(path, GetDefaultConfig()); err != nil {
			return nil, fmt.Errorf("create default config: %w", err)
		}
	}
	return LoadConfig(path)
}

// SaveConfig writes config as YAML
func SaveConfig(path string, config *Config) error {
	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Validate checks settings the engine cannot run without
func (c *Config) Validate() error {
	switch c.Ledger.Driver {
	case "badger", "sqlite":
	default:
		return fmt.Errorf("unknown ledger driver %q", c.Ledger.Driver)
	}
	for name, mode := range map[string]string{"binance": c.Binance.PositionMode, "okx": c.OKX.PositionMode} {
		switch mode {
		case "one-way", "hedge", "auto":
		default:
			return fmt.Errorf("%s: unknown position mode %q", name, mode)
		}
	}
	switch c.Log.Format {
	case "", "text", "json":
	default:
		return fmt.Errorf("unknown log format %q", c.Log.Format)
	}
	budgets := map[string]RetryBudget{
		"entry":       c.Trading.Retry.Entry,
		"close":       c.Trading.Retry.Close,
		"market":      c.Trading.Retry.Market,
		"take_profit": c.Trading.Retry.TakeProfit,
		"stop_loss":   c.Trading.Retry.StopLoss,
	}
	for stage, b := range budgets {
		if b.Attempts < 1 {
			return fmt.Errorf("retry.%s: attempts must be at least 1", stage)
		}
	}
	return nil
}

// overrideFromEnv lets credentials come from the environment instead of the file
func overrideFromEnv(c *Config) {
	setString := func(dst *string, key string) {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			*dst = v
		}
	}

	setString(&c.Server.Port, "PORT")
	setString(&c.Server.Password, "WEBHOOK_PASSWORD")
	setString(&c.Binance.APIKey, "BINANCE_KEY")
	setString(&c.Binance.SecretKey, "BINANCE_SECRET")
	setString(&c.OKX.APIKey, "OKX_KEY")
	setString(&c.OKX.SecretKey, "OKX_SECRET")
	setString(&c.OKX.Passphrase, "OKX_PASSPHRASE")
	setString(&c.Upbit.AccessKey, "UPBIT_KEY")
	setString(&c.Upbit.SecretKey, "UPBIT_SECRET")
	setString(&c.Ledger.Path, "LEDGER_PATH")
	setString(&c.Log.Level, "LOG_LEVEL")
	setString(&c.Log.Format, "LOG_FORMAT")

	if v := os.Getenv("WHITELIST"); v != "" {
		for _, ip := range strings.Split(v, ",") {
			if ip = strings.TrimSpace(ip); ip != "" {
				c.Server.Whitelist = append(c.Server.Whitelist, ip)
			}
		}
	}

	if c.Binance.APIKey != "" && c.Binance.SecretKey != "" {
		c.Binance.Enabled = true
	}
	if c.OKX.APIKey != "" && c.OKX.SecretKey != "" && c.OKX.Passphrase != "" {
		c.OKX.Enabled = true
	}
	if c.Upbit.AccessKey != "" && c.Upbit.SecretKey != "" {
		c.Upbit.Enabled = true
	}
}

// GetDefaultConfig default configuration
func GetDefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port: "8000",
		},
		Binance: BinanceConfig{
			PositionMode: "one-way",
			RateLimit:    10,
		},
		OKX: OKXConfig{
			PositionMode:          "one-way",
			SwallowLeverageErrors: true,
			RateLimit:             10,
			TakerFee:              "0.001",
		},
		Upbit: UpbitConfig{
			RateLimit: 8,
		},
		Trading: TradingConfig{
			Retry: RetryConfig{
				Entry:      RetryBudget{Attempts: 10, Delay: 100 * time.Millisecond},
				Close:      RetryBudget{Attempts: 10, Delay: 100 * time.Millisecond},
				Market:     RetryBudget{Attempts: 5, Delay: 100 * time.Millisecond},
				TakeProfit: RetryBudget{Attempts: 5, Delay: 200 * time.Millisecond},
				StopLoss:   RetryBudget{Attempts: 5, Delay: 200 * time.Millisecond},
			},
			SettleDelay:            time.Second,
			BreakevenOffsetPercent: "0.1",
			LadderDigits:           map[string]int32{"SOL": 0, "BTC": 3},
			DefaultLadderDigits:    2,
			MarketRefresh:          10 * time.Minute,
		},
		Hedge: HedgeConfig{
			Domestic:      "UPBIT",
			DomesticQuote: "KRW",
		},
		Ledger: LedgerConfig{
			Driver: "badger",
			Path:   "data/ledger",
		},
		Log: LogConfig{
			Level:    "info",
			Format:   "text",
			File:     "logs/app.log",
			MaxSize:  100,
			MaxAge:   7,
			Compress: true,
		},
	}
}

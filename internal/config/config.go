package config

import "time"

// Config application configuration
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Binance BinanceConfig `yaml:"binance"`
	OKX     OKXConfig     `yaml:"okx"`
	Upbit   UpbitConfig   `yaml:"upbit"`
	Trading TradingConfig `yaml:"trading"`
	Hedge   HedgeConfig   `yaml:"hedge"`
	Ledger  LedgerConfig  `yaml:"ledger"`
	Log     LogConfig     `yaml:"log"`
}

// ServerConfig webhook server
type ServerConfig struct {
	Port      string   `yaml:"port"`
	Password  string   `yaml:"password"`  // shared secret carried in alert bodies, empty disables the check
	Whitelist []string `yaml:"whitelist"` // extra allowed client IPs; private ranges are always allowed
}

// BinanceConfig Binance credentials and behaviour
type BinanceConfig struct {
	Enabled               bool    `yaml:"enabled"`
	APIKey                string  `yaml:"api_key"`
	SecretKey             string  `yaml:"secret_key"`
	SpotBaseURL           string  `yaml:"spot_base_url,omitempty"`
	FuturesBaseURL        string  `yaml:"futures_base_url,omitempty"`  // USDⓈ-M
	DeliveryBaseURL       string  `yaml:"delivery_base_url,omitempty"` // COIN-M
	PositionMode          string  `yaml:"position_mode"`               // one-way, hedge or auto
	SwallowLeverageErrors bool    `yaml:"swallow_leverage_errors"`
	RateLimit             float64 `yaml:"rate_limit"` // requests per second
}

// OKXConfig OKX credentials and behaviour
type OKXConfig struct {
	Enabled               bool    `yaml:"enabled"`
	APIKey                string  `yaml:"api_key"`
	SecretKey             string  `yaml:"secret_key"`
	Passphrase            string  `yaml:"passphrase"`
	BaseURL               string  `yaml:"base_url,omitempty"`
	PositionMode          string  `yaml:"position_mode"` // one-way or hedge
	SwallowLeverageErrors bool    `yaml:"swallow_leverage_errors"`
	RateLimit             float64 `yaml:"rate_limit"`
	// TakerFee fraction held back on amount-sized spot sells, e.g. "0.001"
	TakerFee              string  `yaml:"taker_fee"`
}

// UpbitConfig Upbit credentials
type UpbitConfig struct {
	Enabled   bool    `yaml:"enabled"`
	AccessKey string  `yaml:"access_key"`
	SecretKey string  `yaml:"secret_key"`
	BaseURL   string  `yaml:"base_url,omitempty"`
	RateLimit float64 `yaml:"rate_limit"`
}

// RetryBudget attempts and constant delay of one submission stage
type RetryBudget struct {
	Attempts int           `yaml:"attempts"`
	Delay    time.Duration `yaml:"delay"`
}

// RetryConfig budgets per submission stage
type RetryConfig struct {
	Entry      RetryBudget `yaml:"entry"`
	Close      RetryBudget `yaml:"close"`
	Market     RetryBudget `yaml:"market"` // plain spot buy/sell
	TakeProfit RetryBudget `yaml:"take_profit"`
	StopLoss   RetryBudget `yaml:"stop_loss"`
}

// TradingConfig order engine settings
type TradingConfig struct {
	Retry RetryConfig `yaml:"retry"`
	// SettleDelay pause between the entry fill and stale stop cancellation
	SettleDelay time.Duration `yaml:"settle_delay"`
	// BreakevenOffsetPercent distance of a rebound stop from the entry price
	BreakevenOffsetPercent string `yaml:"breakeven_offset_percent"`
	// LadderDigits rounding digits of take-profit quantities keyed by base asset
	LadderDigits        map[string]int32 `yaml:"ladder_digits"`
	DefaultLadderDigits int32            `yaml:"default_ladder_digits"`
	MarketRefresh       time.Duration    `yaml:"market_refresh"`
}

// HedgeConfig cross-venue hedge settings
type HedgeConfig struct {
	Domestic      string `yaml:"domestic"`       // venue of the spot leg
	DomesticQuote string `yaml:"domestic_quote"` // quote asset of the spot leg
}

// LedgerConfig hedge ledger storage
type LedgerConfig struct {
	Driver string `yaml:"driver"` // badger or sqlite
	Path   string `yaml:"path"`
}

// LogConfig logging
type LogConfig struct {
	Level    string `yaml:"level"`    // trace, debug, info, warn, error
	Format   string `yaml:"format"`   // text or json
	File     string `yaml:"file"`     // empty logs to stdout only
	MaxSize  int    `yaml:"max_size"` // MB
	MaxAge   int    `yaml:"max_age"`  // days
	Compress bool   `yaml:"compress"`
}

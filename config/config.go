// Package config exposes strongly typed configuration for the trading
// engine, loaded from a YAML file with environment overrides for
// secrets. Core packages never read files or the environment directly;
// the cmd layer loads a Config here and injects the relevant sections.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"fxtrader/internal/model"
)

// Config is the full configuration surface of the engine.
type Config struct {
	App       App       `yaml:"app"`
	Stream    Stream    `yaml:"stream"`
	Bars      Bars      `yaml:"bars"`
	Strategy  Strategy  `yaml:"strategy"`
	Risk      Risk      `yaml:"risk"`
	Execution Execution `yaml:"execution"`
	Events    Events    `yaml:"events"`
}

// App captures process-wide runtime settings.
type App struct {
	LogLevel    string `yaml:"log_level"`
	MetricsAddr string `yaml:"metrics_addr"`
}

// Stream configures the market data gateway.
type Stream struct {
	URL            string        `yaml:"url"`
	Pairs          []model.Pair  `yaml:"pairs"`
	BackoffBase    time.Duration `yaml:"backoff_base"`
	BackoffMax     time.Duration `yaml:"backoff_max"`
	MaxAttempts    int           `yaml:"max_attempts"`
	HandshakeLimit time.Duration `yaml:"handshake_timeout"`
	QueueSize      int           `yaml:"queue_size"`

	// Paper mode tick synthesis.
	PaperCadence time.Duration          `yaml:"paper_cadence"`
	PaperSeed    int64                  `yaml:"paper_seed"`
	SeedPrices   map[model.Pair]float64 `yaml:"seed_prices"`
}

// Bars configures aggregation and persistence. An empty DBPath
// disables bar storage.
type Bars struct {
	Interval time.Duration `yaml:"interval"`
	DBPath   string        `yaml:"db_path"`
}

// Strategy configures the strategy engine.
type Strategy struct {
	Enabled       []string           `yaml:"enabled"`
	Weights       map[string]float64 `yaml:"weights"`
	MinConfidence float64            `yaml:"min_confidence"`

	FastPeriod    int     `yaml:"fast_period"`
	SlowPeriod    int     `yaml:"slow_period"`
	RSIPeriod     int     `yaml:"rsi_period"`
	RSIOversold   float64 `yaml:"rsi_oversold"`
	RSIOverbought float64 `yaml:"rsi_overbought"`
	BollPeriod    int     `yaml:"boll_period"`
	BollStdDev    float64 `yaml:"boll_std_dev"`
	ADXPeriod     int     `yaml:"adx_period"`
	ADXThreshold  float64 `yaml:"adx_threshold"`
	TrendMA       int     `yaml:"trend_ma"`
}

// Risk configures position sizing and guards.
type Risk struct {
	InitialEquity    float64 `yaml:"initial_equity"`
	RiskPerTrade     float64 `yaml:"risk_per_trade"` // fraction, e.g. 0.01
	MaxOpenPositions int     `yaml:"max_open_positions"`
	MaxDrawdown      float64 `yaml:"max_drawdown"` // fraction of peak equity
	MaxUnits         int64   `yaml:"max_units"`
	LotStep          int64   `yaml:"lot_step"`
	StopMode         string  `yaml:"stop_mode"` // "atr" or "fixed"
	ATRPeriod        int     `yaml:"atr_period"`
	ATRMultiple      float64 `yaml:"atr_multiple"`
	FixedStopPips    float64 `yaml:"fixed_stop_pips"`
	TrailingPips     float64 `yaml:"trailing_pips"` // 0 disables trailing
	RiskReward       float64 `yaml:"risk_reward"`
	PartialCloseFrac float64 `yaml:"partial_close_fraction"` // first ladder rung
	MaxTradesPerDay  int     `yaml:"max_trades_per_day"`
}

// Execution configures the order gateway.
type Execution struct {
	Mode        string        `yaml:"mode"` // "paper" or "live"
	SlippageBps int64         `yaml:"slippage_bps"`
	BrokerURL   string        `yaml:"broker_url"`
	APIKey      string        `yaml:"api_key"`
	APISecret   string        `yaml:"api_secret"`
	TOTPSecret  string        `yaml:"totp_secret"`
	RateLimit   float64       `yaml:"rate_limit"` // requests per second
	MaxRetries  int           `yaml:"max_retries"`
	Timeout     time.Duration `yaml:"timeout"`
}

// Events configures the reporting sink.
type Events struct {
	RedisAddr     string `yaml:"redis_addr"`
	RedisPassword string `yaml:"redis_password"`
	RedisStream   string `yaml:"redis_stream"`
	WebhookURL    string `yaml:"webhook_url"`
}

// Load reads a YAML config file, applies environment overrides for
// secrets, fills defaults and validates.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	// Secrets come from the environment when set, never logged.
	if v := os.Getenv("FX_API_KEY"); v != "" {
		cfg.Execution.APIKey = v
	}
	if v := os.Getenv("FX_API_SECRET"); v != "" {
		cfg.Execution.APISecret = v
	}
	if v := os.Getenv("FX_TOTP_SECRET"); v != "" {
		cfg.Execution.TOTPSecret = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.Events.RedisPassword = v
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns a config with conservative defaults suitable for
// paper trading.
func Default() *Config {
	return &Config{
		App: App{
			LogLevel:    "info",
			MetricsAddr: ":9090",
		},
		Stream: Stream{
			Pairs:          []model.Pair{model.USDJPY},
			BackoffBase:    2 * time.Second,
			BackoffMax:     30 * time.Second,
			MaxAttempts:    10,
			HandshakeLimit: 10 * time.Second,
			QueueSize:      4096,
			PaperCadence:   250 * time.Millisecond,
			SeedPrices: map[model.Pair]float64{
				model.USDJPY: 150.0,
				model.EURUSD: 1.085,
			},
		},
		Bars: Bars{Interval: time.Minute, DBPath: "data/bars.db"},
		Strategy: Strategy{
			Enabled:       []string{"ma_cross", "rsi_reversion", "macd"},
			MinConfidence: 0.3,
			FastPeriod:    20,
			SlowPeriod:    50,
			RSIPeriod:     14,
			RSIOversold:   30,
			RSIOverbought: 70,
			BollPeriod:    20,
			BollStdDev:    2.0,
			ADXPeriod:     14,
			ADXThreshold:  25,
			TrendMA:       50,
		},
		Risk: Risk{
			InitialEquity:    1_000_000,
			RiskPerTrade:     0.01,
			MaxOpenPositions: 3,
			MaxDrawdown:      0.10,
			MaxUnits:         100_000,
			LotStep:          1000,
			StopMode:         "atr",
			ATRPeriod:        14,
			ATRMultiple:      2.0,
			FixedStopPips:    30,
			TrailingPips:     20,
			RiskReward:       2.0,
			PartialCloseFrac: 0.5,
			MaxTradesPerDay:  20,
		},
		Execution: Execution{
			Mode:        "paper",
			SlippageBps: 1,
			RateLimit:   5,
			MaxRetries:  3,
			Timeout:     10 * time.Second,
		},
		Events: Events{
			RedisStream: "fx:events",
		},
	}
}

// Validate rejects configurations the engine cannot run with.
func (c *Config) Validate() error {
	if c.Bars.Interval <= 0 {
		return fmt.Errorf("config: bars.interval must be positive")
	}
	if c.Risk.RiskPerTrade <= 0 || c.Risk.RiskPerTrade > 0.05 {
		return fmt.Errorf("config: risk.risk_per_trade %.4f outside (0, 0.05]", c.Risk.RiskPerTrade)
	}
	if c.Risk.MaxDrawdown <= 0 || c.Risk.MaxDrawdown >= 1 {
		return fmt.Errorf("config: risk.max_drawdown %.4f outside (0, 1)", c.Risk.MaxDrawdown)
	}
	if c.Risk.PartialCloseFrac < 0 || c.Risk.PartialCloseFrac >= 1 {
		return fmt.Errorf("config: risk.partial_close_fraction %.4f outside [0, 1)", c.Risk.PartialCloseFrac)
	}
	if c.Risk.StopMode != "atr" && c.Risk.StopMode != "fixed" {
		return fmt.Errorf("config: risk.stop_mode %q must be atr or fixed", c.Risk.StopMode)
	}
	if c.Execution.Mode != "paper" && c.Execution.Mode != "live" {
		return fmt.Errorf("config: execution.mode %q must be paper or live", c.Execution.Mode)
	}
	if c.Execution.Mode == "live" && c.Execution.BrokerURL == "" {
		return fmt.Errorf("config: execution.broker_url required in live mode")
	}
	if len(c.Stream.Pairs) == 0 {
		return fmt.Errorf("config: stream.pairs must not be empty")
	}
	if c.Strategy.MinConfidence < 0 || c.Strategy.MinConfidence > 1 {
		return fmt.Errorf("config: strategy.min_confidence %.2f outside [0, 1]", c.Strategy.MinConfidence)
	}
	return nil
}

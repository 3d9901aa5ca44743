package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const DateLayout = "2006-01-02"

// Config represents the complete backtest configuration
type Config struct {
	Backtest   BacktestConfig    `json:"backtest" yaml:"backtest"`
	Strategy   StrategyConfig    `json:"strategy" yaml:"strategy"`
	Guardrails []GuardrailConfig `json:"guardrails,omitempty" yaml:"guardrails,omitempty"`
	Execution  ExecutionConfig   `json:"execution" yaml:"execution"`
	Data       DataConfig        `json:"data" yaml:"data"`
	Journal    JournalConfig     `json:"journal" yaml:"journal"`
	Polygon    PolygonConfig     `json:"polygon,omitempty" yaml:"polygon,omitempty"`
	Alpaca     AlpacaConfig      `json:"alpaca,omitempty" yaml:"alpaca,omitempty"`
	Logging    LoggingConfig     `json:"logging" yaml:"logging"`
}

// BacktestConfig selects the universe and the simulated period
type BacktestConfig struct {
	Name         string   `json:"name" yaml:"name"`
	Tickers      []string `json:"tickers" yaml:"tickers"`
	Benchmark    string   `json:"benchmark,omitempty" yaml:"benchmark,omitempty"`
	Start        string   `json:"start" yaml:"start"` // 2006-01-02
	End          string   `json:"end" yaml:"end"`
	StartingCash float64  `json:"starting_cash" yaml:"starting_cash"`
	Interval     string   `json:"interval,omitempty" yaml:"interval,omitempty"`
}

func (b BacktestConfig) StartDate() (time.Time, error) { return time.Parse(DateLayout, b.Start) }

func (b BacktestConfig) EndDate() (time.Time, error) { return time.Parse(DateLayout, b.End) }

// StrategyConfig names a registered strategy and its numeric parameters
type StrategyConfig struct {
	Name   string             `json:"name" yaml:"name"`
	Params map[string]float64 `json:"params,omitempty" yaml:"params,omitempty"`
}

type GuardrailConfig struct {
	Name   string             `json:"name" yaml:"name"`
	Params map[string]float64 `json:"params,omitempty" yaml:"params,omitempty"`
}

// ExecutionConfig tunes fills and pre-trade checks
type ExecutionConfig struct {
	Slippage     float64    `json:"slippage" yaml:"slippage"`
	SellPolicy   string     `json:"sell_policy" yaml:"sell_policy"`     // clamp | reject
	MissingPrice string     `json:"missing_price" yaml:"missing_price"` // error | zero
	Risk         RiskConfig `json:"risk,omitempty" yaml:"risk,omitempty"`
}

type RiskConfig struct {
	MaxPositionPct   float64 `json:"max_position_pct,omitempty" yaml:"max_position_pct,omitempty"`
	MaxOpenPositions int     `json:"max_open_positions,omitempty" yaml:"max_open_positions,omitempty"`
}

// DataConfig picks the price source and cache
type DataConfig struct {
	Source       string `json:"source" yaml:"source"` // csv | polygon | alpaca
	Dir          string `json:"dir,omitempty" yaml:"dir,omitempty"`
	CacheDir     string `json:"cache_dir,omitempty" yaml:"cache_dir,omitempty"`
	UseCache     bool   `json:"use_cache" yaml:"use_cache"`
	ForceRefresh bool   `json:"force_refresh,omitempty" yaml:"force_refresh,omitempty"`
}

// JournalConfig contains journaling parameters
type JournalConfig struct {
	Type       string `json:"type" yaml:"type"` // csv | sqlite | csv+sqlite | none
	TradesFile string `json:"trades_file,omitempty" yaml:"trades_file,omitempty"`
	EquityFile string `json:"equity_file,omitempty" yaml:"equity_file,omitempty"`
	DBPath     string `json:"db_path,omitempty" yaml:"db_path,omitempty"`
	OrgPath    string `json:"org_path,omitempty" yaml:"org_path,omitempty"`
}

type PolygonConfig struct {
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`
}

type AlpacaConfig struct {
	APIKey    string `json:"api_key,omitempty" yaml:"api_key,omitempty"`
	APISecret string `json:"api_secret,omitempty" yaml:"api_secret,omitempty"`
	BaseURL   string `json:"base_url,omitempty" yaml:"base_url,omitempty"`
	DataURL   string `json:"data_url,omitempty" yaml:"data_url,omitempty"`
	Feed      string `json:"feed,omitempty" yaml:"feed,omitempty"`
}

type LoggingConfig struct {
	Level  string `json:"level" yaml:"level"`
	Format string `json:"format" yaml:"format"` // text | json
}

// LoadEnv reads KEY=VALUE files into the process environment. Missing
// files are ignored; variables already set win.
func LoadEnv(files ...string) error {
	var existing []string
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			existing = append(existing, f)
		}
	}
	if len(existing) == 0 {
		return nil
	}
	if err := godotenv.Load(existing...); err != nil {
		return fmt.Errorf("load env: %w", err)
	}
	return nil
}

// ApplyEnv overrides secrets and paths from the environment.
func (c *Config) ApplyEnv() {
	set := func(dst *string, key string) {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			*dst = v
		}
	}
	set(&c.Polygon.APIKey, "POLYGON_API_KEY")
	set(&c.Alpaca.APIKey, "APCA_API_KEY_ID")
	set(&c.Alpaca.APISecret, "APCA_API_SECRET_KEY")
	set(&c.Alpaca.BaseURL, "ALPACA_BASE_URL")
	set(&c.Data.Dir, "DATA_DIR")
	set(&c.Data.CacheDir, "CACHE_DIR")
	set(&c.Logging.Level, "LOG_LEVEL")
}

// LoadFromFile loads configuration from a file (YAML, falling back to JSON),
// applies environment overrides and validates the result.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := &Config{}

	// Try YAML first, fall back to JSON
	err = yaml.Unmarshal(data, cfg)
	if err != nil {
		cfg = &Config{}
		err = json.Unmarshal(data, cfg)
		if err != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	cfg.fillDefaults()
	cfg.ApplyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func (c *Config) fillDefaults() {
	def := func(dst *string, v string) {
		if *dst == "" {
			*dst = v
		}
	}
	def(&c.Backtest.Interval, "1d")
	def(&c.Execution.SellPolicy, "clamp")
	def(&c.Execution.MissingPrice, "error")
	def(&c.Data.Source, "csv")
	def(&c.Journal.Type, "none")
	def(&c.Logging.Level, "info")
	def(&c.Logging.Format, "text")
}

// SaveToFile saves configuration to a file (JSON or YAML based on extension)
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error

	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}

	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if len(c.Backtest.Tickers) == 0 {
		return fmt.Errorf("backtest.tickers is required")
	}
	start, err := c.Backtest.StartDate()
	if err != nil {
		return fmt.Errorf("backtest.start must be YYYY-MM-DD: %w", err)
	}
	end, err := c.Backtest.EndDate()
	if err != nil {
		return fmt.Errorf("backtest.end must be YYYY-MM-DD: %w", err)
	}
	if end.Before(start) {
		return fmt.Errorf("backtest.end is before backtest.start")
	}
	if c.Backtest.StartingCash <= 0 {
		return fmt.Errorf("backtest.starting_cash must be positive")
	}
	if c.Strategy.Name == "" {
		return fmt.Errorf("strategy.name is required")
	}
	for i, g := range c.Guardrails {
		if g.Name == "" {
			return fmt.Errorf("guardrails[%d].name is required", i)
		}
	}
	if c.Execution.Slippage < 0 || c.Execution.Slippage >= 1 {
		return fmt.Errorf("execution.slippage must be in [0,1)")
	}
	switch c.Execution.SellPolicy {
	case "", "clamp", "reject":
	default:
		return fmt.Errorf("execution.sell_policy must be 'clamp' or 'reject'")
	}
	switch c.Execution.MissingPrice {
	case "", "error", "zero":
	default:
		return fmt.Errorf("execution.missing_price must be 'error' or 'zero'")
	}
	if p := c.Execution.Risk.MaxPositionPct; p < 0 || p > 1 {
		return fmt.Errorf("execution.risk.max_position_pct must be between 0 and 1")
	}
	switch c.Data.Source {
	case "csv":
		if c.Data.Dir == "" {
			return fmt.Errorf("data.dir required for csv source")
		}
	case "polygon", "alpaca":
	default:
		return fmt.Errorf("data.source must be 'csv', 'polygon' or 'alpaca'")
	}
	if c.Data.UseCache && c.Data.CacheDir == "" {
		return fmt.Errorf("data.cache_dir required when use_cache is set")
	}
	switch c.Journal.Type {
	case "none", "":
	case "csv":
		if c.Journal.TradesFile == "" || c.Journal.EquityFile == "" {
			return fmt.Errorf("journal trades_file and equity_file required for CSV type")
		}
	case "sqlite":
		if c.Journal.DBPath == "" {
			return fmt.Errorf("journal db_path required for SQLite type")
		}
	case "csv+sqlite":
		if c.Journal.TradesFile == "" || c.Journal.EquityFile == "" || c.Journal.DBPath == "" {
			return fmt.Errorf("journal trades_file, equity_file and db_path required for csv+sqlite type")
		}
	default:
		return fmt.Errorf("journal.type must be 'csv', 'sqlite', 'csv+sqlite' or 'none'")
	}
	switch c.Logging.Format {
	case "", "text", "json":
	default:
		return fmt.Errorf("logging.format must be 'text' or 'json'")
	}
	return nil
}

// Default returns a configuration with sensible defaults
func Default() *Config {
	return &Config{
		Backtest: BacktestConfig{
			Name:         "default",
			Tickers:      []string{"AAPL", "MSFT"},
			Benchmark:    "SPY",
			Start:        "2023-01-03",
			End:          "2023-12-29",
			StartingCash: 100000,
			Interval:     "1d",
		},
		Strategy: StrategyConfig{
			Name:   "momentum",
			Params: map[string]float64{"short_window": 10, "long_window": 20},
		},
		Guardrails: []GuardrailConfig{
			{Name: "trailing_stop_loss", Params: map[string]float64{"stop_pct": 0.05}},
		},
		Execution: ExecutionConfig{
			SellPolicy:   "clamp",
			MissingPrice: "error",
		},
		Data: DataConfig{
			Source:   "csv",
			Dir:      "./data",
			CacheDir: "./.cache",
			UseCache: true,
		},
		Journal: JournalConfig{
			Type:       "csv",
			TradesFile: "./trades.csv",
			EquityFile: "./equity.csv",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Package config loads and validates the screener configuration.
// The loaded value is constructed once at startup and passed into each
// component; nothing reads it after the run starts.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Filter modes accepted by filter_mode.
const (
	FilterVolume       = "volume"
	FilterOpenInterest = "open-interest"
	FilterBoth         = "both"
	FilterNone         = "none"
)

// Log holds logger settings.
type Log struct {
	Level  string `yaml:"level" default:"info" validate:"oneof=trace debug info warn error"`
	Format string `yaml:"format" default:"console" validate:"oneof=console json"`
}

// Exchange holds market-data provider settings.
type Exchange struct {
	BaseURL       string        `yaml:"base_url" default:"https://fapi.binance.com"`
	WSURL         string        `yaml:"ws_url" default:"wss://fstream.binance.com/ws"`
	UseWSSnapshot bool          `yaml:"use_ws_snapshot" default:"true"`
	RateLimit     float64       `yaml:"rate_limit" default:"10" validate:"gt=0"` // requests per second
	Timeout       time.Duration `yaml:"timeout" default:"30s" validate:"gt=0"`
}

// Screen is the full screening-run configuration.
type Screen struct {
	Interval              string        `yaml:"interval" default:"4h" validate:"required"`
	LookbackCount         int           `yaml:"lookback_count" default:"540" validate:"gt=0"`
	MinDataPoints         int           `yaml:"min_data_points" default:"50" validate:"gt=2"`
	FilterMode            string        `yaml:"filter_mode" default:"both" validate:"oneof=volume open-interest both none"`
	MinVolume             float64       `yaml:"min_volume" default:"500000000"`
	MinOpenInterest       float64       `yaml:"min_open_interest" default:"50000000"`
	SignificanceThreshold float64       `yaml:"significance_threshold" default:"0.05" validate:"gt=0,lte=1"`
	TopN                  int           `yaml:"top_n" default:"10" validate:"gt=0"`
	MaxConcurrentTests    int           `yaml:"max_concurrent_tests" default:"8" validate:"gt=0"`
	FetchConcurrency      int           `yaml:"fetch_concurrency" default:"16" validate:"gt=0"`
	FetchTimeout          time.Duration `yaml:"fetch_timeout" default:"30s" validate:"gt=0"`
	OutputFile            string        `yaml:"output_file" default:"pairs_to_trade.csv" validate:"required"`

	Log      Log      `yaml:"log"`
	Exchange Exchange `yaml:"exchange"`

	// Optional sinks; empty means disabled.
	PostgresDSN   string `yaml:"postgres_dsn"`
	ClickHouseDSN string `yaml:"clickhouse_dsn"`
	MetricsAddr   string `yaml:"metrics_addr"`
}

// Load reads a YAML config file, applies defaults and validates the
// result. A missing path yields the pure-default configuration.
func Load(path string) (*Screen, error) {
	cfg := &Screen{}
	if err := defaults.Set(cfg); err != nil {
		return nil, fmt.Errorf("apply defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks structural constraints plus the threshold rules that
// depend on the selected filter mode: a selected filter must carry a
// positive threshold.
func (c *Screen) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if (c.FilterMode == FilterVolume || c.FilterMode == FilterBoth) && c.MinVolume <= 0 {
		return fmt.Errorf("invalid configuration: filter_mode %q requires min_volume > 0", c.FilterMode)
	}
	if (c.FilterMode == FilterOpenInterest || c.FilterMode == FilterBoth) && c.MinOpenInterest <= 0 {
		return fmt.Errorf("invalid configuration: filter_mode %q requires min_open_interest > 0", c.FilterMode)
	}
	if c.LookbackCount < c.MinDataPoints {
		return fmt.Errorf("invalid configuration: lookback_count %d below min_data_points %d", c.LookbackCount, c.MinDataPoints)
	}
	return nil
}

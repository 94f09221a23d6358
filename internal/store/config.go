package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"fundamentals-ranker/internal/research/fundamentals"

	"gopkg.in/yaml.v3"
)

const (
	DataSourceLive = "LIVE"
	DataSourceMock = "MOCK"
)

type Config struct {
	DataSource string `yaml:"data_source"`
	Universe   struct {
		SourceURL string   `yaml:"source_url"`
		Static    []string `yaml:"static"`
	} `yaml:"universe"`
	Provider struct {
		BaseURL        string  `yaml:"base_url"`
		TimeoutSeconds int     `yaml:"timeout_seconds"`
		RateLimit      float64 `yaml:"rate_limit"`
		MaxAttempts    int     `yaml:"max_attempts"`
		UserAgent      string  `yaml:"user_agent"`
	} `yaml:"provider"`
	Engine struct {
		Granularities []string `yaml:"granularities"`
		WindowSize    int      `yaml:"window_size"`
		TrendDivisor  float64  `yaml:"trend_divisor"`
		Workers       int      `yaml:"workers"`
	} `yaml:"engine"`
	Holdings struct {
		Enabled       *bool    `yaml:"enabled"`
		Organizations []string `yaml:"organizations"`
	} `yaml:"holdings"`
	Output struct {
		Dir       string `yaml:"dir"`
		Annual    string `yaml:"annual"`
		Quarterly string `yaml:"quarterly"`
		Top       int    `yaml:"top"`
	} `yaml:"output"`
	Log struct {
		RetentionDays int `yaml:"retention_days"`
	} `yaml:"log"`
}

func (c *Config) Validate() error {
	if c.DataSource != DataSourceLive && c.DataSource != DataSourceMock {
		return fmt.Errorf("invalid data_source '%s': must be 'LIVE' or 'MOCK'", c.DataSource)
	}
	if len(c.Engine.Granularities) == 0 {
		return errors.New("engine.granularities cannot be empty")
	}
	for _, g := range c.Engine.Granularities {
		if _, err := fundamentals.ParseGranularity(g); err != nil {
			return fmt.Errorf("engine.granularities: %w", err)
		}
	}
	if c.Engine.WindowSize < 2 {
		return fmt.Errorf("engine.window_size must be at least 2, got %d", c.Engine.WindowSize)
	}
	if c.Engine.TrendDivisor <= 0 {
		return fmt.Errorf("engine.trend_divisor must be positive, got %.2f", c.Engine.TrendDivisor)
	}
	if c.Engine.Workers < 1 {
		return fmt.Errorf("engine.workers must be at least 1, got %d", c.Engine.Workers)
	}
	if c.Provider.RateLimit < 0 {
		return fmt.Errorf("provider.rate_limit cannot be negative, got %.2f", c.Provider.RateLimit)
	}
	return nil
}

// HoldingsEnabled reports whether the institutional holdings column is filled.
func (c *Config) HoldingsEnabled() bool {
	return c.Holdings.Enabled == nil || *c.Holdings.Enabled
}

// ProviderTimeout returns the per-request timeout.
func (c *Config) ProviderTimeout() time.Duration {
	return time.Duration(c.Provider.TimeoutSeconds) * time.Second
}

// OutputPath returns the configured table path for g.
func (c *Config) OutputPath(g fundamentals.Granularity) string {
	name := c.Output.Annual
	if g == fundamentals.Quarterly {
		name = c.Output.Quarterly
	}
	if c.Output.Dir == "" || filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(c.Output.Dir, name)
}

// Granularities returns the parsed engine granularities.
func (c *Config) Granularities() []fundamentals.Granularity {
	out := make([]fundamentals.Granularity, 0, len(c.Engine.Granularities))
	for _, s := range c.Engine.Granularities {
		if g, err := fundamentals.ParseGranularity(s); err == nil {
			out = append(out, g)
		}
	}
	return out
}

// EngineConfig builds the engine configuration for g.
func (c *Config) EngineConfig(g fundamentals.Granularity) fundamentals.Config {
	cfg := fundamentals.GetDefaultConfig(g)
	cfg.WindowSize = c.Engine.WindowSize
	cfg.TrendDivisor = c.Engine.TrendDivisor
	cfg.Workers = c.Engine.Workers
	return cfg
}

func (c *Config) applyDefaults() {
	if c.DataSource == "" {
		c.DataSource = DataSourceLive
	}
	c.DataSource = strings.ToUpper(c.DataSource)
	if c.Provider.TimeoutSeconds == 0 {
		c.Provider.TimeoutSeconds = 30
	}
	if c.Provider.RateLimit == 0 {
		c.Provider.RateLimit = 5
	}
	if c.Provider.MaxAttempts == 0 {
		c.Provider.MaxAttempts = 3
	}
	if len(c.Engine.Granularities) == 0 {
		c.Engine.Granularities = []string{"annual", "quarterly"}
	}
	def := fundamentals.GetDefaultConfig(fundamentals.Annual)
	if c.Engine.WindowSize == 0 {
		c.Engine.WindowSize = def.WindowSize
	}
	if c.Engine.TrendDivisor == 0 {
		c.Engine.TrendDivisor = def.TrendDivisor
	}
	if c.Engine.Workers == 0 {
		c.Engine.Workers = def.Workers
	}
	if c.Output.Annual == "" {
		c.Output.Annual = "NASDAQ_100_Annual_Analysis.xlsx"
	}
	if c.Output.Quarterly == "" {
		c.Output.Quarterly = "NASDAQ_100_Quarterly_Analysis.xlsx"
	}
	if c.Output.Top == 0 {
		c.Output.Top = 10
	}
	if c.Log.RetentionDays == 0 {
		c.Log.RetentionDays = 30
	}
}

// applyEnv lets RANKER_WORKERS and RANKER_DATA_SOURCE override the file.
func (c *Config) applyEnv() error {
	if v := os.Getenv("RANKER_WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("RANKER_WORKERS: %w", err)
		}
		c.Engine.Workers = n
	}
	if v := os.Getenv("RANKER_DATA_SOURCE"); v != "" {
		c.DataSource = strings.ToUpper(v)
	}
	return nil
}

// Default returns the configuration used when no file is given.
func Default() (*Config, error) {
	var c Config
	c.applyDefaults()
	if err := c.applyEnv(); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &c, nil
}

func LoadConfig(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, err
	}

	c.applyDefaults()
	if err := c.applyEnv(); err != nil {
		return nil, err
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &c, nil
}

package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/pelletier/go-toml/v2"
)

type ServerConfig struct {
	Port string `toml:"port"`
	// HarvestTimeout bounds one harvest; zero means no bound.
	HarvestTimeout Duration `toml:"harvest_timeout"`
}

type ReferentialConfig struct {
	BaseURL           string   `toml:"base_url"`
	Timeout           Duration `toml:"timeout"`
	UserAgent         string   `toml:"user_agent"`
	ChildRows         int      `toml:"child_rows"`
	RequestsPerSecond float64  `toml:"requests_per_second"`
	Burst             int      `toml:"burst"`
}

type ConcurrencyConfig struct {
	Enrich int `toml:"enrich"`
}

type LogConfig struct {
	Level       string `toml:"level"`
	Format      string `toml:"format"` // json | text
	ConsoleSize int    `toml:"console_size"`
}

type TracingConfig struct {
	Enabled bool `toml:"enabled"`
}

type Config struct {
	Server      ServerConfig      `toml:"server"`
	Referential ReferentialConfig `toml:"referential"`
	Concurrency ConcurrencyConfig `toml:"concurrency"`
	Log         LogConfig         `toml:"log"`
	Tracing     TracingConfig     `toml:"tracing"`
}

// Duration reads "30s"-style strings from TOML.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", text, err)
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:           "8080",
			HarvestTimeout: Duration{5 * time.Minute},
		},
		Referential: ReferentialConfig{
			BaseURL:           "https://api.archives-ouvertes.fr",
			Timeout:           Duration{30 * time.Second},
			UserAgent:         "aurehal-network/1.0",
			ChildRows:         10000,
			RequestsPerSecond: 0,
			Burst:             10,
		},
		Concurrency: ConcurrencyConfig{
			Enrich: 10,
		},
		Log: LogConfig{
			Level:       "info",
			Format:      "json",
			ConsoleSize: 500,
		},
	}
}

// Load reads a TOML file on top of Default().
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", path, err)
	}

	cfg := Default()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse TOML: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadOrDefault loads path when it exists and falls back to Default().
func LoadOrDefault(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return Default(), nil
	}
	return Load(path)
}

// ApplyEnv overrides config with environment variables when they are set.
func (c *Config) ApplyEnv() error {
	if port := os.Getenv("PORT"); port != "" {
		c.Server.Port = port
	}
	if baseURL := os.Getenv("HAL_BASE_URL"); baseURL != "" {
		c.Referential.BaseURL = baseURL
	}
	if timeout := os.Getenv("HAL_TIMEOUT"); timeout != "" {
		d, err := time.ParseDuration(timeout)
		if err != nil {
			return fmt.Errorf("invalid HAL_TIMEOUT: %w", err)
		}
		c.Referential.Timeout = Duration{d}
	}
	if workers := os.Getenv("ENRICH_WORKERS"); workers != "" {
		n, err := strconv.Atoi(workers)
		if err != nil {
			return fmt.Errorf("invalid ENRICH_WORKERS: %w", err)
		}
		c.Concurrency.Enrich = n
	}
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		c.Log.Level = level
	}
	if tracing := os.Getenv("TRACING_ENABLED"); tracing != "" {
		enabled, err := strconv.ParseBool(tracing)
		if err != nil {
			return fmt.Errorf("invalid TRACING_ENABLED: %w", err)
		}
		c.Tracing.Enabled = enabled
	}
	return c.Validate()
}

func (c *Config) Validate() error {
	if c.Concurrency.Enrich <= 0 {
		return fmt.Errorf("concurrency.enrich must be positive, got %d", c.Concurrency.Enrich)
	}
	if c.Referential.BaseURL == "" {
		return fmt.Errorf("referential.base_url is required")
	}
	if c.Referential.RequestsPerSecond < 0 {
		return fmt.Errorf("referential.requests_per_second must not be negative")
	}
	return nil
}

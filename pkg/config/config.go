// Package config provides configuration structures and loading logic for the
// gateway.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration so yaml files can use forms like "15m".
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Config holds the global configuration for the gateway.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Limits     LimitsConfig     `yaml:"limits"`
	RateLimit  RateLimitConfig  `yaml:"rate_limit"`
	Retry      RetryConfig      `yaml:"retry"`
	Downstream DownstreamConfig `yaml:"downstream"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	Address string `yaml:"address"`
}

// LimitsConfig holds the query budget, read-only after startup except via
// the reload watcher.
type LimitsConfig struct {
	MaxComplexity int `yaml:"max_complexity"`
	MaxDepth      int `yaml:"max_depth"`
	// ListFactor approximates fan-out for list-valued fields in the cost
	// estimate.
	ListFactor int `yaml:"list_factor"`
}

// RateLimitConfig holds the per-identity window settings. RedisAddr empty
// selects the in-process store.
type RateLimitConfig struct {
	Window    Duration `yaml:"window"`
	Cap       int      `yaml:"cap"`
	RedisAddr string   `yaml:"redis_addr"`
}

// RetryConfig holds the downstream retry policy.
type RetryConfig struct {
	MaxAttempts int      `yaml:"max_attempts"`
	BaseDelay   Duration `yaml:"base_delay"`
	MaxDelay    Duration `yaml:"max_delay"`
	Jitter      bool     `yaml:"jitter"`
}

// DownstreamConfig holds collaborator endpoints.
type DownstreamConfig struct {
	ActivityURL  string   `yaml:"activity_url"`
	AnalyticsURL string   `yaml:"analytics_url"`
	Timeout      Duration `yaml:"timeout"`
}

// LoggingConfig holds configuration for logging.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Pretty bool   `yaml:"pretty"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{Address: ":8080"},
		Limits: LimitsConfig{
			MaxComplexity: 100,
			MaxDepth:      6,
			ListFactor:    1,
		},
		RateLimit: RateLimitConfig{
			Window: Duration(15 * time.Minute),
			Cap:    200,
		},
		Retry: RetryConfig{
			MaxAttempts: 3,
			BaseDelay:   Duration(100 * time.Millisecond),
			MaxDelay:    Duration(5 * time.Second),
		},
		Downstream: DownstreamConfig{
			ActivityURL:  "http://localhost:5050",
			AnalyticsURL: "http://localhost:5051",
			Timeout:      Duration(10 * time.Second),
		},
		Logging: LoggingConfig{Level: "info"},
	}
}

// Load reads configuration from a file and applies environment variable
// overrides. An empty path loads defaults and environment only.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		//nolint:gosec // config file path is operator-controlled
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if val := os.Getenv("GATEWAY_ADDR"); val != "" {
		cfg.Server.Address = val
	}
	if val := os.Getenv("GATEWAY_ACTIVITY_URL"); val != "" {
		cfg.Downstream.ActivityURL = val
	}
	if val := os.Getenv("GATEWAY_ANALYTICS_URL"); val != "" {
		cfg.Downstream.AnalyticsURL = val
	}
	if val := os.Getenv("GATEWAY_REDIS_ADDR"); val != "" {
		cfg.RateLimit.RedisAddr = val
	}
	if val := os.Getenv("GATEWAY_LOG_LEVEL"); val != "" {
		cfg.Logging.Level = val
	}
	if val := os.Getenv("GATEWAY_RATE_CAP"); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			cfg.RateLimit.Cap = n
		}
	}
	if val := os.Getenv("GATEWAY_MAX_COMPLEXITY"); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			cfg.Limits.MaxComplexity = n
		}
	}
}

// Validate rejects configurations the gateway cannot run with.
func (c *Config) Validate() error {
	if c.Server.Address == "" {
		return fmt.Errorf("server.address must not be empty")
	}
	if c.Limits.MaxComplexity < 1 {
		return fmt.Errorf("limits.max_complexity must be positive")
	}
	if c.Limits.MaxDepth < 1 {
		return fmt.Errorf("limits.max_depth must be positive")
	}
	if c.RateLimit.Window <= 0 {
		return fmt.Errorf("rate_limit.window must be positive")
	}
	if c.RateLimit.Cap < 1 {
		return fmt.Errorf("rate_limit.cap must be positive")
	}
	if c.Retry.MaxAttempts < 1 {
		return fmt.Errorf("retry.max_attempts must be positive")
	}
	if c.Downstream.ActivityURL == "" || c.Downstream.AnalyticsURL == "" {
		return fmt.Errorf("downstream service urls must not be empty")
	}
	return nil
}

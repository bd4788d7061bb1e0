package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration.
type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Upstream UpstreamConfig `yaml:"upstream"`
	Sync     SyncConfig     `yaml:"sync"`
	Cache    CacheConfig    `yaml:"cache"`
	Server   ServerConfig   `yaml:"server"`
	Log      LogConfig      `yaml:"log"`
}

// DatabaseConfig configures SQLite storage.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// UpstreamConfig configures the hiscores API client.
type UpstreamConfig struct {
	BaseURL  string `yaml:"base_url"`
	Table    int    `yaml:"table"`
	Category int    `yaml:"category"`
	PageSize int    `yaml:"page_size"`
	Timeout  string `yaml:"timeout"`
	CacheTTL string `yaml:"cache_ttl"`
}

// ParseTimeout returns the upstream request timeout as time.Duration.
func (u UpstreamConfig) ParseTimeout() time.Duration {
	d, err := time.ParseDuration(u.Timeout)
	if err != nil {
		return 4 * time.Second
	}
	return d
}

// ParseCacheTTL returns the fetch-side cache TTL as time.Duration.
func (u UpstreamConfig) ParseCacheTTL() time.Duration {
	d, err := time.ParseDuration(u.CacheTTL)
	if err != nil {
		return 5 * time.Minute
	}
	return d
}

// SyncConfig configures the reconciliation cycle and its retry policy.
type SyncConfig struct {
	Interval       string `yaml:"interval"`
	MaxAttempts    int    `yaml:"max_attempts"`
	RetryDelay     string `yaml:"retry_delay"`
	OverallTimeout string `yaml:"overall_timeout"`
}

// ParseInterval returns the scheduled sync interval as time.Duration.
func (s SyncConfig) ParseInterval() time.Duration {
	d, err := time.ParseDuration(s.Interval)
	if err != nil {
		return 5 * time.Minute
	}
	return d
}

// ParseRetryDelay returns the delay between retry attempts.
func (s SyncConfig) ParseRetryDelay() time.Duration {
	d, err := time.ParseDuration(s.RetryDelay)
	if err != nil {
		return 20 * time.Second
	}
	return d
}

// ParseOverallTimeout returns the wall-clock budget for a retried cycle.
func (s SyncConfig) ParseOverallTimeout() time.Duration {
	d, err := time.ParseDuration(s.OverallTimeout)
	if err != nil {
		return 260 * time.Second
	}
	return d
}

// CacheConfig configures the read-side cache.
type CacheConfig struct {
	TTL string `yaml:"ttl"`
}

// ParseTTL returns the read cache TTL as time.Duration.
func (c CacheConfig) ParseTTL() time.Duration {
	d, err := time.ParseDuration(c.TTL)
	if err != nil {
		return 5 * time.Minute
	}
	return d
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// LogConfig configures logging output.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Database: DatabaseConfig{Path: "./rankradar.db"},
		Upstream: UpstreamConfig{
			BaseURL:  "https://secure.runescape.com",
			Table:    0,
			Category: 0,
			PageSize: 50,
			Timeout:  "4s",
			CacheTTL: "5m",
		},
		Sync: SyncConfig{
			Interval:       "5m",
			MaxAttempts:    10,
			RetryDelay:     "20s",
			OverallTimeout: "260s",
		},
		Cache:  CacheConfig{TTL: "5m"},
		Server: ServerConfig{Port: 8080},
		Log:    LogConfig{Level: "info", Format: "json"},
	}
}

// Load reads configuration from a YAML file and applies env var overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	applyEnvOverrides(cfg)
	return cfg, nil
}

// applyEnvOverrides overrides config values with environment variables.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("RANKRADAR_DB_PATH"); v != "" {
		cfg.Database.Path = v
	}
	if v := os.Getenv("RANKRADAR_UPSTREAM_BASE_URL"); v != "" {
		cfg.Upstream.BaseURL = v
	}
	if v := os.Getenv("RANKRADAR_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("RANKRADAR_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("RANKRADAR_LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
}

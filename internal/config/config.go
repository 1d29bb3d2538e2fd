// Package config provides runtime configuration values for the service.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds configuration knobs for the HTTP server, the catalog client
// and operator sessions.
type Config struct {
	HTTPAddr        string        `yaml:"http_addr"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	LogLevel        string        `yaml:"log_level"`

	CatalogBaseURL     string        `yaml:"catalog_base_url"`
	CatalogTimeout     time.Duration `yaml:"catalog_timeout"`
	CatalogDialTimeout time.Duration `yaml:"catalog_dial_timeout"`

	FlushConcurrency     int           `yaml:"flush_concurrency"`
	SessionIdleTimeout   time.Duration `yaml:"session_idle_timeout"`
	SessionSweepInterval time.Duration `yaml:"session_sweep_interval"`
	NotifyBacklog        int           `yaml:"notify_backlog"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		HTTPAddr:             ":8080",
		ShutdownTimeout:      15 * time.Second,
		LogLevel:             "info",
		CatalogBaseURL:       "http://localhost:3000/api",
		CatalogTimeout:       10 * time.Second,
		CatalogDialTimeout:   3 * time.Second,
		FlushConcurrency:     1,
		SessionIdleTimeout:   30 * time.Minute,
		SessionSweepInterval: time.Minute,
		NotifyBacklog:        100,
	}
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func atoienv(key string, def int) int {
	v := getenv(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func durenvms(key string, def time.Duration) time.Duration {
	ms := atoienv(key, int(def/time.Millisecond))
	return time.Duration(ms) * time.Millisecond
}

func durenvs(key string, def time.Duration) time.Duration {
	sec := atoienv(key, int(def/time.Second))
	return time.Duration(sec) * time.Second
}

// Load collects configuration from environment with defaults.
func Load() Config {
	return applyEnv(Default())
}

// LoadFile reads a YAML file over the defaults, then applies environment
// overrides. An empty path behaves like Load.
func LoadFile(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config: %w", err)
		}
	}
	cfg = applyEnv(cfg)
	return cfg, cfg.Validate()
}

func applyEnv(c Config) Config {
	c.HTTPAddr = getenv("HTTP_ADDR", c.HTTPAddr)
	c.ShutdownTimeout = durenvs("SHUTDOWN_TIMEOUT", c.ShutdownTimeout)
	c.LogLevel = getenv("LOG_LEVEL", c.LogLevel)
	c.CatalogBaseURL = getenv("CATALOG_BASE_URL", c.CatalogBaseURL)
	c.CatalogTimeout = durenvms("CATALOG_TIMEOUT_MS", c.CatalogTimeout)
	c.CatalogDialTimeout = durenvms("CATALOG_DIAL_TIMEOUT_MS", c.CatalogDialTimeout)
	c.FlushConcurrency = atoienv("FLUSH_CONCURRENCY", c.FlushConcurrency)
	c.SessionIdleTimeout = durenvs("SESSION_IDLE_TIMEOUT", c.SessionIdleTimeout)
	c.SessionSweepInterval = durenvms("SESSION_SWEEP_INTERVAL_MS", c.SessionSweepInterval)
	c.NotifyBacklog = atoienv("NOTIFY_BACKLOG", c.NotifyBacklog)
	return c
}

// Validate rejects values the service cannot run with.
func (c Config) Validate() error {
	if c.CatalogBaseURL == "" {
		return fmt.Errorf("catalog_base_url is required")
	}
	if c.FlushConcurrency < 1 {
		return fmt.Errorf("flush_concurrency must be >= 1, got %d", c.FlushConcurrency)
	}
	if c.NotifyBacklog < 1 {
		return fmt.Errorf("notify_backlog must be >= 1, got %d", c.NotifyBacklog)
	}
	return nil
}

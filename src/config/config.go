// Package config loads and holds the application configuration.
package config

import (
	"fmt"
	"os"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/apimgr/prospects/src/resolve"
)

// Config represents the complete application configuration.
type Config struct {
	mu         sync.RWMutex
	configPath string

	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Cache    CacheConfig    `yaml:"cache"`
	Schedule ScheduleConfig `yaml:"schedule"`
	Resolver ResolverConfig `yaml:"resolver"`
}

// ServerConfig represents HTTP server configuration.
type ServerConfig struct {
	Title    string `yaml:"title"`
	Address  string `yaml:"address"`
	Port     int    `yaml:"port"`
	Mode     string `yaml:"mode"` // production, development
	APIToken string `yaml:"api_token"`
	LogDir   string `yaml:"log_dir"`
}

// DatabaseConfig represents database configuration.
type DatabaseConfig struct {
	Driver  string `yaml:"driver"` // sqlite, postgres, mysql, mssql, turso
	DSN     string `yaml:"dsn"`
	DataDir string `yaml:"data_dir"`
	MaxOpen int    `yaml:"max_open"`
	MaxIdle int    `yaml:"max_idle"`
}

// CacheConfig represents cache configuration.
type CacheConfig struct {
	Backend  string `yaml:"backend"` // memory, redis
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	TTL      int    `yaml:"ttl"` // seconds
	MaxSize  int    `yaml:"max_size"`
}

// ProviderConfig configures a single schedule provider.
type ProviderConfig struct {
	Name     string `yaml:"name"`
	League   string `yaml:"league"`
	URL      string `yaml:"url"`
	Timezone string `yaml:"timezone"`
	Enabled  *bool  `yaml:"enabled"` // nil = enabled
}

// IsEnabled reports whether the provider should be registered.
func (p ProviderConfig) IsEnabled() bool {
	return p.Enabled == nil || *p.Enabled
}

// ScheduleConfig represents schedule ingestion configuration.
type ScheduleConfig struct {
	RefreshInterval string           `yaml:"refresh_interval"` // e.g. "30m"
	FetchTimeout    string           `yaml:"fetch_timeout"`    // per refresh, e.g. "60s"
	Providers       []ProviderConfig `yaml:"providers"`
}

// RefreshEvery returns the parsed refresh interval.
func (s ScheduleConfig) RefreshEvery() time.Duration {
	d, err := time.ParseDuration(s.RefreshInterval)
	if err != nil || d <= 0 {
		return 30 * time.Minute
	}
	return d
}

// Timeout returns the parsed fetch timeout.
func (s ScheduleConfig) Timeout() time.Duration {
	d, err := time.ParseDuration(s.FetchTimeout)
	if err != nil || d <= 0 {
		return 60 * time.Second
	}
	return d
}

// ResolverConfig holds the resolution engine's static data tables. All three
// are plain data so new collisions or shortcuts never require a code change.
type ResolverConfig struct {
	Aliases    map[string]string       `yaml:"aliases"`
	Stopwords  []string                `yaml:"stopwords"`
	Exclusions []resolve.ExclusionPair `yaml:"exclusions"`
}

// Options converts the config section into resolver options.
func (r ResolverConfig) Options() resolve.Options {
	return resolve.Options{
		Aliases:    r.Aliases,
		Stopwords:  r.Stopwords,
		Exclusions: r.Exclusions,
	}
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Title:   "Prospect Tracker",
			Address: "0.0.0.0",
			Port:    8080,
			Mode:    "production",
			LogDir:  "data/logs",
		},
		Database: DatabaseConfig{
			Driver:  "sqlite",
			DataDir: "data/db",
			MaxOpen: 10,
			MaxIdle: 5,
		},
		Cache: CacheConfig{
			Backend: "memory",
			Address: "localhost:6379",
			TTL:     300,
			MaxSize: 10000,
		},
		Schedule: ScheduleConfig{
			RefreshInterval: "30m",
			FetchTimeout:    "60s",
		},
	}
}

// Load reads configuration from a YAML file, applying defaults for anything
// unset. A missing file is not an error: defaults are returned so the server
// can start with zero configuration.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	cfg.configPath = path

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks configuration invariants.
func (c *Config) Validate() error {
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Server.Port)
	}
	switch c.Server.Mode {
	case "", "production", "development":
	default:
		return fmt.Errorf("invalid mode %q", c.Server.Mode)
	}
	for _, p := range c.Schedule.Providers {
		if p.Name == "" {
			return fmt.Errorf("provider with empty name")
		}
	}
	return nil
}

// Reload reloads the configuration from the original file. Address and port
// changes require a restart and are preserved from the running config.
func (c *Config) Reload() error {
	c.mu.RLock()
	path := c.configPath
	c.mu.RUnlock()

	if path == "" {
		return fmt.Errorf("config path not set, cannot reload")
	}

	fresh, err := Load(path)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	oldAddress := c.Server.Address
	oldPort := c.Server.Port

	c.Server = fresh.Server
	c.Database = fresh.Database
	c.Cache = fresh.Cache
	c.Schedule = fresh.Schedule
	c.Resolver = fresh.Resolver

	c.Server.Address = oldAddress
	c.Server.Port = oldPort
	return nil
}

// SetPath sets the config file path used by Reload.
func (c *Config) SetPath(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.configPath = path
}

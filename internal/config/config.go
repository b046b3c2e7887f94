// Package config provides configuration management for partscout. It
// loads values from a YAML file and PARTSCOUT_* environment variables,
// applies defaults, and validates per command.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/partscout/partscout/internal/fetch"
	"github.com/partscout/partscout/internal/logger"
)

// Interface defines read access to the application configuration.
type Interface interface {
	GetServerConfig() *ServerConfig
	GetFetchConfig() *fetch.Config
	GetCacheConfig() *CacheConfig
	GetSchedulerConfig() *SchedulerConfig
	GetLoggerConfig() *logger.Config
	Validate() error
}

// Server defaults
const (
	defaultServerAddress      = ":8080"
	defaultServerReadTimeout  = 30 * time.Second
	defaultServerWriteTimeout = 30 * time.Second
	defaultServerIdleTimeout  = 60 * time.Second
)

// Cache defaults
const (
	defaultCacheDir      = ".partscout/cache"
	defaultCacheTTL      = 24 * time.Hour
	defaultCacheMaxBytes = 256 << 20
	defaultSweepSchedule = "@every 1h"
)

// Scheduler defaults
const (
	defaultMaxWorkers   = 3
	defaultPaceDelay    = 500 * time.Millisecond
	defaultBatchTimeout = 30 * time.Minute
	defaultMinScore     = 0.3
	defaultCandidateCap = 5
)

// Ensure Config implements Interface
var _ Interface = (*Config)(nil)

// Config represents the application configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Fetch     fetch.Config    `yaml:"fetch" mapstructure:"fetch"`
	Cache     CacheConfig     `yaml:"cache" mapstructure:"cache"`
	Scheduler SchedulerConfig `yaml:"scheduler" mapstructure:"scheduler"`
	Logging   logger.Config   `yaml:"logging" mapstructure:"logging"`
}

// ServerConfig holds the HTTP API server settings.
type ServerConfig struct {
	Address      string        `yaml:"address" mapstructure:"address"`
	ReadTimeout  time.Duration `yaml:"read_timeout" mapstructure:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout" mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `yaml:"idle_timeout" mapstructure:"idle_timeout"`
}

// CacheConfig holds the response cache settings.
type CacheConfig struct {
	// Dir is the persistence directory. Empty disables persistence.
	Dir string `yaml:"dir" mapstructure:"dir"`
	// TTL bounds how long cached payloads stay valid.
	TTL time.Duration `yaml:"ttl" mapstructure:"ttl"`
	// MaxBytes bounds the in-memory footprint. Zero means unbounded.
	MaxBytes int64 `yaml:"max_bytes" mapstructure:"max_bytes"`
	// SweepSchedule is the cron spec for periodic expired-entry sweeps
	// in server mode.
	SweepSchedule string `yaml:"sweep_schedule" mapstructure:"sweep_schedule"`
}

// SchedulerConfig holds batch execution settings.
type SchedulerConfig struct {
	MaxWorkers   int           `yaml:"max_workers" mapstructure:"max_workers"`
	PaceDelay    time.Duration `yaml:"pace_delay" mapstructure:"pace_delay"`
	BatchTimeout time.Duration `yaml:"batch_timeout" mapstructure:"batch_timeout"`
	MinScore     float64       `yaml:"min_score" mapstructure:"min_score"`
	CandidateCap int           `yaml:"candidate_cap" mapstructure:"candidate_cap"`
	Retry        RetryConfig   `yaml:"retry" mapstructure:"retry"`
}

// RetryConfig holds the per-fetch retry policy settings.
type RetryConfig struct {
	MaxAttempts  int           `yaml:"max_attempts" mapstructure:"max_attempts"`
	InitialDelay time.Duration `yaml:"initial_delay" mapstructure:"initial_delay"`
	MaxDelay     time.Duration `yaml:"max_delay" mapstructure:"max_delay"`
}

// Load loads configuration from path. An empty path falls back to
// partscout.yml in the working directory; a missing file is not an
// error, defaults and environment variables still apply.
func Load(path string) (*Config, error) {
	// Optional .env for local development.
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("PARTSCOUT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("partscout")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	setDefaults(cfg)
	return cfg, nil
}

// setDefaults applies default values to the config.
func setDefaults(cfg *Config) {
	if cfg.Server.Address == "" {
		cfg.Server.Address = defaultServerAddress
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = defaultServerReadTimeout
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = defaultServerWriteTimeout
	}
	if cfg.Server.IdleTimeout == 0 {
		cfg.Server.IdleTimeout = defaultServerIdleTimeout
	}

	if cfg.Fetch.BaseURL == "" {
		cfg.Fetch.BaseURL = "https://torob.com"
	}
	if cfg.Fetch.Selectors == (fetch.Selectors{}) {
		cfg.Fetch.Selectors = fetch.DefaultSelectors()
	}

	if cfg.Cache.Dir == "" {
		cfg.Cache.Dir = defaultCacheDir
	}
	if cfg.Cache.TTL == 0 {
		cfg.Cache.TTL = defaultCacheTTL
	}
	if cfg.Cache.MaxBytes == 0 {
		cfg.Cache.MaxBytes = defaultCacheMaxBytes
	}
	if cfg.Cache.SweepSchedule == "" {
		cfg.Cache.SweepSchedule = defaultSweepSchedule
	}

	if cfg.Scheduler.MaxWorkers == 0 {
		cfg.Scheduler.MaxWorkers = defaultMaxWorkers
	}
	if cfg.Scheduler.PaceDelay == 0 {
		cfg.Scheduler.PaceDelay = defaultPaceDelay
	}
	if cfg.Scheduler.BatchTimeout == 0 {
		cfg.Scheduler.BatchTimeout = defaultBatchTimeout
	}
	if cfg.Scheduler.MinScore == 0 {
		cfg.Scheduler.MinScore = defaultMinScore
	}
	if cfg.Scheduler.CandidateCap == 0 {
		cfg.Scheduler.CandidateCap = defaultCandidateCap
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Encoding == "" {
		cfg.Logging.Encoding = "console"
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Server.Address == "" {
		return errors.New("server address is required")
	}
	if c.Fetch.BaseURL == "" {
		return errors.New("fetch base URL is required")
	}
	if c.Scheduler.MaxWorkers < 1 {
		return fmt.Errorf("scheduler max_workers must be >= 1, got %d", c.Scheduler.MaxWorkers)
	}
	if c.Scheduler.MinScore < 0 || c.Scheduler.MinScore > 1 {
		return fmt.Errorf("scheduler min_score must be in [0, 1], got %g", c.Scheduler.MinScore)
	}
	if c.Cache.TTL < 0 {
		return errors.New("cache ttl must not be negative")
	}
	return nil
}

// GetServerConfig returns the server configuration.
func (c *Config) GetServerConfig() *ServerConfig {
	return &c.Server
}

// GetFetchConfig returns the marketplace fetch configuration.
func (c *Config) GetFetchConfig() *fetch.Config {
	return &c.Fetch
}

// GetCacheConfig returns the cache configuration.
func (c *Config) GetCacheConfig() *CacheConfig {
	return &c.Cache
}

// GetSchedulerConfig returns the scheduler configuration.
func (c *Config) GetSchedulerConfig() *SchedulerConfig {
	return &c.Scheduler
}

// GetLoggerConfig returns the logger configuration.
func (c *Config) GetLoggerConfig() *logger.Config {
	return &c.Logging
}

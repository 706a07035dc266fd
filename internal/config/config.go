// Package config provides application configuration management using Viper.
// Configuration is loaded from YAML files and environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	App     AppConfig     `mapstructure:"app"`
	Logger  LoggerConfig  `mapstructure:"logger"`
	Sentry  SentryConfig  `mapstructure:"sentry"`
	Site    SiteConfig    `mapstructure:"site"`
	Index   IndexConfig   `mapstructure:"index"`
	Cache   CacheConfig   `mapstructure:"cache"`
	Search  SearchConfig  `mapstructure:"search"`
	Refresh RefreshConfig `mapstructure:"refresh"`
	Metrics MetricsConfig `mapstructure:"metrics"`
}

// AppConfig holds application-level settings.
type AppConfig struct {
	Name      string `mapstructure:"name"`
	Env       string `mapstructure:"env"` // development, staging, production
	Port      int    `mapstructure:"port"`
	Debug     bool   `mapstructure:"debug"`
	BodyLimit int    `mapstructure:"body_limit"`
}

// LoggerConfig holds logging settings.
type LoggerConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // json, console
	Output string `mapstructure:"output"` // stdout, stderr, file path
}

// SentryConfig holds Sentry error tracking settings.
type SentryConfig struct {
	Enabled     bool    `mapstructure:"enabled"`
	DSN         string  `mapstructure:"dsn"`
	Environment string  `mapstructure:"environment"`
	SampleRate  float64 `mapstructure:"sample_rate"`
}

// SiteConfig holds page rendering settings.
type SiteConfig struct {
	// Domain is used in social preview image URLs.
	Domain string `mapstructure:"domain"`
	// StaticDir is the root of the static fallback.
	StaticDir string `mapstructure:"static_dir"`
	// ViewsDir holds the page template.
	ViewsDir string `mapstructure:"views_dir"`
	Template string `mapstructure:"template"`
	// LatestFile is the latest videos catalog, relative to StaticDir.
	LatestFile         string `mapstructure:"latest_file"`
	NewVideoMaxAgeDays int    `mapstructure:"new_video_max_age_days"`
}

// LatestPath returns the location of the latest videos catalog.
func (c *SiteConfig) LatestPath() string {
	return strings.TrimRight(c.StaticDir, "/") + "/" + c.LatestFile
}

// IndexConfig holds remote video index settings.
type IndexConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	AppID   string        `mapstructure:"app_id"`
	APIKey  string        `mapstructure:"api_key"`
	Name    string        `mapstructure:"name"`
	Timeout time.Duration `mapstructure:"timeout"`
	CB      CBConfig      `mapstructure:"circuit_breaker"`
}

// CBConfig holds circuit breaker settings.
type CBConfig struct {
	MaxRequests  uint32        `mapstructure:"max_requests"`
	Interval     time.Duration `mapstructure:"interval"`
	Timeout      time.Duration `mapstructure:"timeout"`
	FailureRatio float64       `mapstructure:"failure_ratio"`
}

// CacheConfig holds video cache settings.
type CacheConfig struct {
	Capacity int           `mapstructure:"capacity"`
	TTL      time.Duration `mapstructure:"ttl"`
	Shards   int           `mapstructure:"shards"` // >1 trades exact LRU order for less lock contention
}

// SearchConfig holds embedded search settings.
type SearchConfig struct {
	Enabled       bool          `mapstructure:"enabled"`
	DatasetPath   string        `mapstructure:"dataset_path"`
	HitsPerPage   int           `mapstructure:"hits_per_page"`
	Timeout       time.Duration `mapstructure:"timeout"`
	FeaturedLimit int           `mapstructure:"featured_limit"`
	MaxConns      int           `mapstructure:"max_conns"`
}

// RefreshConfig holds dataset reload settings.
type RefreshConfig struct {
	Interval     time.Duration `mapstructure:"interval"`
	Timeout      time.Duration `mapstructure:"timeout"`
	AdminEnabled bool          `mapstructure:"admin_enabled"`
	AdminToken   string        `mapstructure:"admin_token"`
}

// MetricsConfig holds Prometheus exposition settings.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// Load reads configuration from file and environment variables.
// Priority: env vars > config file > defaults
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set defaults
	setDefaults(v)

	// Config file settings
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Config file not found, continue with defaults + env vars
	}

	// Environment variable settings
	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := bindLegacyEnv(v); err != nil {
		return nil, err
	}

	// Unmarshal config
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// bindLegacyEnv keeps the unprefixed variables of earlier deployments working.
// The prefixed variable wins when both are set.
func bindLegacyEnv(v *viper.Viper) error {
	legacy := map[string]string{
		"app.port":       "PORT",
		"app.debug":      "DEV_MODE",
		"search.enabled": "FUSE_MODE",
	}

	for key, env := range legacy {
		prefixed := "APP_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, prefixed, env); err != nil {
			return fmt.Errorf("binding %s: %w", env, err)
		}
	}

	return nil
}

// Validate rejects settings the server cannot run with.
func (c *Config) Validate() error {
	var errs []error

	if c.App.Port <= 0 || c.App.Port > 65535 {
		errs = append(errs, fmt.Errorf("app.port must be in 1..65535, got %d", c.App.Port))
	}
	if c.Cache.Capacity <= 0 {
		errs = append(errs, fmt.Errorf("cache.capacity must be positive, got %d", c.Cache.Capacity))
	}
	if c.Cache.TTL <= 0 {
		errs = append(errs, fmt.Errorf("cache.ttl must be positive, got %s", c.Cache.TTL))
	}
	if c.Search.HitsPerPage <= 0 {
		errs = append(errs, fmt.Errorf("search.hits_per_page must be positive, got %d", c.Search.HitsPerPage))
	}
	if c.Index.BaseURL == "" {
		errs = append(errs, errors.New("index.base_url is required"))
	}
	if c.Refresh.Interval < 0 {
		errs = append(errs, fmt.Errorf("refresh.interval must not be negative, got %s", c.Refresh.Interval))
	}
	if c.Refresh.AdminEnabled && c.Refresh.AdminToken == "" {
		errs = append(errs, errors.New("refresh.admin_token is required when refresh.admin_enabled is set"))
	}

	return errors.Join(errs...)
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	// App defaults
	v.SetDefault("app.name", "devtube-server")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", 8100)
	v.SetDefault("app.debug", false)
	v.SetDefault("app.body_limit", 1024*1024)

	// Logger defaults
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.output", "stdout")

	// Sentry defaults
	v.SetDefault("sentry.enabled", false)
	v.SetDefault("sentry.dsn", "")
	v.SetDefault("sentry.environment", "development")
	v.SetDefault("sentry.sample_rate", 1.0)

	// Site defaults
	v.SetDefault("site.domain", "h4k.tube")
	v.SetDefault("site.static_dir", "./dist")
	v.SetDefault("site.views_dir", "./dist")
	v.SetDefault("site.template", "index")
	v.SetDefault("site.latest_file", "latest.json")
	v.SetDefault("site.new_video_max_age_days", 1)

	// Index defaults
	v.SetDefault("index.base_url", "http://localhost:8081")
	v.SetDefault("index.app_id", "")
	v.SetDefault("index.api_key", "")
	v.SetDefault("index.name", "videos")
	v.SetDefault("index.timeout", "5s")
	v.SetDefault("index.circuit_breaker.max_requests", 3)
	v.SetDefault("index.circuit_breaker.interval", "60s")
	v.SetDefault("index.circuit_breaker.timeout", "30s")
	v.SetDefault("index.circuit_breaker.failure_ratio", 0.5)

	// Cache defaults
	v.SetDefault("cache.capacity", 500)
	v.SetDefault("cache.ttl", "1h")
	v.SetDefault("cache.shards", 1)

	// Search defaults
	v.SetDefault("search.enabled", false)
	v.SetDefault("search.dataset_path", "./backup/videos.json")
	v.SetDefault("search.hits_per_page", 21)
	v.SetDefault("search.timeout", "2s")
	v.SetDefault("search.featured_limit", 20)
	v.SetDefault("search.max_conns", 4)

	// Refresh defaults
	v.SetDefault("refresh.interval", "1h")
	v.SetDefault("refresh.timeout", "1m")
	v.SetDefault("refresh.admin_enabled", false)
	v.SetDefault("refresh.admin_token", "")

	// Metrics defaults
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")
}

package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/flowradar/flowradar/internal/notify"
	"github.com/flowradar/flowradar/internal/radar"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Sources   SourcesConfig   `mapstructure:"sources"`
	Scan      ScanConfig      `mapstructure:"scan"`
	Explainer ExplainerConfig `mapstructure:"explainer"`
	Notify    NotifyConfig    `mapstructure:"notify"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

type ServerConfig struct {
	Port            string `mapstructure:"port"`
	ReadTimeoutSec  int    `mapstructure:"read_timeout_sec"`
	WriteTimeoutSec int    `mapstructure:"write_timeout_sec"`
	WSEnabled       bool   `mapstructure:"ws_enabled"`
}

type SourcesConfig struct {
	BaseURL         string `mapstructure:"base_url"`
	APIKey          string `mapstructure:"api_key"`
	TimeoutSec      int    `mapstructure:"timeout_sec"`
	RetryCount      int    `mapstructure:"retry_count"`
	RetryDelaySec   int    `mapstructure:"retry_delay_sec"`
	RatePerSecond   int    `mapstructure:"rate_per_second"`
	FetchTimeoutSec int    `mapstructure:"fetch_timeout_sec"`
}

type ScanConfig struct {
	Workers         int      `mapstructure:"workers"`
	IntervalSeconds int      `mapstructure:"interval_seconds"`
	Timezone        string   `mapstructure:"timezone"`
	Watchlist       []string `mapstructure:"watchlist"`

	Sensitivity     int      `mapstructure:"sensitivity"`
	MinConfidence   int      `mapstructure:"min_confidence"`
	AlertTypes      []string `mapstructure:"alert_types"`
	Sectors         []string `mapstructure:"sectors"`
	MinPremium      float64  `mapstructure:"min_premium"`
	MaxTimeToExpiry int      `mapstructure:"max_time_to_expiry_days"`
	MaxAlerts       int      `mapstructure:"max_alerts"`
}

type ExplainerConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	URL       string `mapstructure:"url"`
	APIKey    string `mapstructure:"api_key"`
	TimeoutMS int    `mapstructure:"timeout_ms"`
}

type NotifyConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Server   string `mapstructure:"server"`
	Topic    string `mapstructure:"topic"`
	Priority string `mapstructure:"priority"`
	Tags     string `mapstructure:"tags"`
	Token    string `mapstructure:"token"`
}

type LoggingConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Directory string `mapstructure:"directory"`
	Level     string `mapstructure:"level"`
}

func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.read_timeout_sec", 30)
	v.SetDefault("server.write_timeout_sec", 30)
	v.SetDefault("server.ws_enabled", true)
	v.SetDefault("sources.base_url", "https://api.unusualwhales.com")
	v.SetDefault("sources.timeout_sec", 15)
	v.SetDefault("sources.retry_count", 2)
	v.SetDefault("sources.retry_delay_sec", 1)
	v.SetDefault("sources.rate_per_second", 5)
	v.SetDefault("sources.fetch_timeout_sec", 20)
	v.SetDefault("scan.workers", 4)
	v.SetDefault("scan.interval_seconds", 0) // 0 disables the background loop
	v.SetDefault("scan.timezone", "America/New_York")

	defaults := radar.DefaultSettings()
	v.SetDefault("scan.sensitivity", defaults.Sensitivity)
	v.SetDefault("scan.min_confidence", defaults.MinConfidence)
	v.SetDefault("scan.alert_types", defaults.AlertTypes)
	v.SetDefault("scan.min_premium", defaults.MinPremium)
	v.SetDefault("scan.max_time_to_expiry_days", defaults.MaxTimeToExpiry)
	v.SetDefault("scan.max_alerts", defaults.MaxAlerts)

	v.SetDefault("explainer.enabled", false)
	v.SetDefault("explainer.timeout_ms", 2000)
	v.SetDefault("notify.enabled", false)
	v.SetDefault("notify.server", "https://ntfy.sh")
	v.SetDefault("notify.priority", "default")
	v.SetDefault("notify.tags", "chart_with_upwards_trend")
	v.SetDefault("logging.enabled", true)
	v.SetDefault("logging.directory", "logs")
	v.SetDefault("logging.level", "info")

	// Environment variable support
	v.SetEnvPrefix("RADAR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	// Explicitly bind nested keys to env vars
	_ = v.BindEnv("sources.api_key", "RADAR_API_KEY")
	_ = v.BindEnv("explainer.api_key", "RADAR_EXPLAINER_API_KEY")
	_ = v.BindEnv("notify.token", "RADAR_NTFY_TOKEN")

	// Load config file
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("default")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.Sources.APIKey == "" {
		return fmt.Errorf("sources api_key is required (set RADAR_API_KEY env var)")
	}
	if c.Scan.Workers < 1 {
		return fmt.Errorf("scan workers must be >= 1")
	}
	if c.Explainer.Enabled && c.Explainer.URL == "" {
		return fmt.Errorf("explainer url is required when explainer is enabled")
	}
	if err := c.NotifySettings().Validate(); err != nil {
		return err
	}
	if err := c.ScanSettings().Validate(); err != nil {
		return fmt.Errorf("scan defaults: %w", err)
	}
	return nil
}

// ScanSettings builds the default scan settings configured for this
// deployment. Per-request query parameters override these.
func (c *Config) ScanSettings() radar.ScanSettings {
	return radar.ScanSettings{
		Sensitivity:     c.Scan.Sensitivity,
		MinConfidence:   c.Scan.MinConfidence,
		AlertTypes:      c.Scan.AlertTypes,
		Sectors:         c.Scan.Sectors,
		MinPremium:      c.Scan.MinPremium,
		MaxTimeToExpiry: c.Scan.MaxTimeToExpiry,
		MaxAlerts:       c.Scan.MaxAlerts,
	}
}

// NotifySettings builds the ntfy client config from the notify section.
func (c *Config) NotifySettings() *notify.Config {
	return &notify.Config{
		Enabled:  c.Notify.Enabled,
		Server:   c.Notify.Server,
		Topic:    c.Notify.Topic,
		Priority: c.Notify.Priority,
		Tags:     c.Notify.Tags,
		Token:    c.Notify.Token,
	}
}

// FetchTimeout is the shared deadline for one fan-out to all sources.
func (c *Config) FetchTimeout() time.Duration {
	return time.Duration(c.Sources.FetchTimeoutSec) * time.Second
}

// ExplainTimeout bounds one Explainer call.
func (c *Config) ExplainTimeout() time.Duration {
	return time.Duration(c.Explainer.TimeoutMS) * time.Millisecond
}

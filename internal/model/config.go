package model

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix namespaces environment overrides, e.g. VANTA_API_BASE_URL.
const EnvPrefix = "VANTA"

// APIConfig holds settings for the remote job-search API.
type APIConfig struct {
	// BaseURL is the root URL of the API.
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`

	// TimeoutSec bounds each cached fetch. The HTTP client itself never
	// times out.
	TimeoutSec int `mapstructure:"timeout_sec" yaml:"timeout_sec"`

	// Retries is how many times a failed read is retried. Mutations are
	// never retried.
	Retries int `mapstructure:"retries" yaml:"retries"`
}

// QueryConfig holds query cache settings.
type QueryConfig struct {
	StaleSec int `mapstructure:"stale_sec" yaml:"stale_sec"`
}

// DisplayConfig holds UI/rendering preferences.
type DisplayConfig struct {
	Theme           string `mapstructure:"theme" yaml:"theme"`
	PollIntervalSec int    `mapstructure:"poll_interval_sec" yaml:"poll_interval_sec"`
}

// CacheConfig locates the offline snapshot database.
type CacheConfig struct {
	Path string `mapstructure:"path" yaml:"path"`
}

// LogConfig controls the log file.
type LogConfig struct {
	Path  string `mapstructure:"path" yaml:"path"`
	Level string `mapstructure:"level" yaml:"level"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	API     APIConfig     `mapstructure:"api" yaml:"api"`
	Query   QueryConfig   `mapstructure:"query" yaml:"query"`
	Display DisplayConfig `mapstructure:"display" yaml:"display"`
	Cache   CacheConfig   `mapstructure:"cache" yaml:"cache"`
	Log     LogConfig     `mapstructure:"log" yaml:"log"`
}

// Timeout returns the per-fetch timeout.
func (c *AppConfig) Timeout() time.Duration {
	return time.Duration(c.API.TimeoutSec) * time.Second
}

// StaleTime returns how long a cached query result stays fresh.
func (c *AppConfig) StaleTime() time.Duration {
	return time.Duration(c.Query.StaleSec) * time.Second
}

// PollInterval returns the background sync interval.
func (c *AppConfig) PollInterval() time.Duration {
	return time.Duration(c.Display.PollIntervalSec) * time.Second
}

// ConfigDir returns ~/.config/vanta, or the working directory when the
// home directory cannot be resolved.
func ConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "vanta")
}

// DefaultConfigPath returns the default path for the configuration file,
// located at ~/.config/vanta/config.yaml.
func DefaultConfigPath() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

// defaultAppConfig returns a sensible default configuration.
func defaultAppConfig() *AppConfig {
	dir := ConfigDir()
	return &AppConfig{
		API: APIConfig{
			BaseURL:    "http://localhost:8000",
			TimeoutSec: 30,
			Retries:    1,
		},
		Query: QueryConfig{
			StaleSec: 30,
		},
		Display: DisplayConfig{
			Theme:           "default",
			PollIntervalSec: 120,
		},
		Cache: CacheConfig{
			Path: filepath.Join(dir, "cache.db"),
		},
		Log: LogConfig{
			Path:  filepath.Join(dir, "vanta.log"),
			Level: "info",
		},
	}
}

func setDefaults(v *viper.Viper, cfg *AppConfig) {
	v.SetDefault("api.base_url", cfg.API.BaseURL)
	v.SetDefault("api.timeout_sec", cfg.API.TimeoutSec)
	v.SetDefault("api.retries", cfg.API.Retries)
	v.SetDefault("query.stale_sec", cfg.Query.StaleSec)
	v.SetDefault("display.theme", cfg.Display.Theme)
	v.SetDefault("display.poll_interval_sec", cfg.Display.PollIntervalSec)
	v.SetDefault("cache.path", cfg.Cache.Path)
	v.SetDefault("log.path", cfg.Log.Path)
	v.SetDefault("log.level", cfg.Log.Level)
}

// LoadConfig reads configuration from the given YAML file path using Viper.
// Environment variables prefixed with VANTA_ override file values. If the
// file does not exist, defaults plus environment overrides are returned.
func LoadConfig(path string) (*AppConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Set defaults so missing keys resolve to sensible values.
	setDefaults(v, defaultAppConfig())

	if err := v.ReadInConfig(); err != nil {
		var pathErr *os.PathError
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &pathErr) && !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	cfg := defaultAppConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	cfg.API.BaseURL = strings.TrimRight(cfg.API.BaseURL, "/")
	if cfg.API.TimeoutSec <= 0 {
		cfg.API.TimeoutSec = 30
	}
	if cfg.API.Retries < 0 {
		cfg.API.Retries = 0
	}
	if cfg.Display.PollIntervalSec <= 0 {
		cfg.Display.PollIntervalSec = 120
	}

	return cfg, nil
}

// SaveConfig writes the given configuration to a YAML file at path,
// creating parent directories if needed.
func SaveConfig(path string, cfg *AppConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("api.base_url", cfg.API.BaseURL)
	v.Set("api.timeout_sec", cfg.API.TimeoutSec)
	v.Set("api.retries", cfg.API.Retries)
	v.Set("query.stale_sec", cfg.Query.StaleSec)
	v.Set("display.theme", cfg.Display.Theme)
	v.Set("display.poll_interval_sec", cfg.Display.PollIntervalSec)
	v.Set("cache.path", cfg.Cache.Path)
	v.Set("log.path", cfg.Log.Path)
	v.Set("log.level", cfg.Log.Level)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}

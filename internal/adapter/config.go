package adapter

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/spf13/viper"
)

// DefaultServerURL is used when neither the config file nor the environment
// names an API server
const DefaultServerURL = "http://localhost:8000"

// Config holds all application configuration
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Storage StorageConfig `mapstructure:"storage"`
	Cache   CacheConfig   `mapstructure:"cache"`
	Auth    AuthConfig    `mapstructure:"auth"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// ServerConfig holds API server configuration
type ServerConfig struct {
	URL               string        `mapstructure:"url" env:"REELCTL_API_URL"`
	Timeout           time.Duration `mapstructure:"timeout"`
	MaxRetries        int           `mapstructure:"max_retries"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second"` // 0 = unlimited
}

// StorageConfig holds local persistence configuration
type StorageConfig struct {
	Dir string `mapstructure:"dir" env:"REELCTL_STORAGE_DIR"`
}

// CacheConfig holds query cache lifetimes
type CacheConfig struct {
	ListStale time.Duration `mapstructure:"list_stale"`
	UserStale time.Duration `mapstructure:"user_stale"`
	GCAfter   time.Duration `mapstructure:"gc_after"` // entries older than this are pruned at startup
}

// AuthConfig holds session configuration
type AuthConfig struct {
	RefreshSkew time.Duration `mapstructure:"refresh_skew"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	File  string `mapstructure:"file"`
	Level string `mapstructure:"level" env:"REELCTL_LOG_LEVEL"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			URL:               DefaultServerURL,
			Timeout:           30 * time.Second,
			MaxRetries:        3,
			RequestsPerSecond: 10,
		},
		Storage: StorageConfig{
			Dir: filepath.Join(dataDir(), "data"),
		},
		Cache: CacheConfig{
			ListStale: 30 * time.Second,
			UserStale: 5 * time.Minute,
			GCAfter:   24 * time.Hour,
		},
		Auth: AuthConfig{
			RefreshSkew: time.Minute,
		},
		Logging: LoggingConfig{
			File:  filepath.Join(dataDir(), "reelctl.log"),
			Level: "INFO",
		},
	}
}

// dataDir returns the per-user data directory for the current OS
func dataDir() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("LOCALAPPDATA"), "reelctl")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".local", "share", "reelctl")
	}
}

// DefaultConfigPath returns the config file location for the current OS
func DefaultConfigPath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "reelctl", "config.yaml")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", "reelctl", "config.yaml")
	}
}

// LoadConfig reads path (the default location when empty) over the defaults,
// then applies environment overrides. A missing file is not an error.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	v := viper.New()
	v.SetConfigType("yaml")
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigFile(DefaultConfigPath())
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("error parsing environment: %w", err)
	}

	cfg.Server.URL = strings.TrimRight(strings.TrimSpace(cfg.Server.URL), "/")
	cfg.Storage.Dir = ExpandHome(cfg.Storage.Dir)
	cfg.Logging.File = ExpandHome(cfg.Logging.File)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the client cannot run with
func (c *Config) Validate() error {
	if c.Server.URL == "" {
		return errors.New("server.url must not be empty")
	}
	if !strings.HasPrefix(c.Server.URL, "http://") && !strings.HasPrefix(c.Server.URL, "https://") {
		return fmt.Errorf("server.url %q must start with http:// or https://", c.Server.URL)
	}
	if c.Server.MaxRetries < 0 {
		return errors.New("server.max_retries must not be negative")
	}
	if c.Server.RequestsPerSecond < 0 {
		return errors.New("server.requests_per_second must not be negative")
	}
	return nil
}

// SaveConfig writes cfg to path (the default location when empty)
func SaveConfig(cfg *Config, path string) error {
	if path == "" {
		path = DefaultConfigPath()
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	v := viper.New()
	v.Set("server.url", cfg.Server.URL)
	v.Set("server.timeout", cfg.Server.Timeout.String())
	v.Set("server.max_retries", cfg.Server.MaxRetries)
	v.Set("server.requests_per_second", cfg.Server.RequestsPerSecond)

	v.Set("storage.dir", cfg.Storage.Dir)

	v.Set("cache.list_stale", cfg.Cache.ListStale.String())
	v.Set("cache.user_stale", cfg.Cache.UserStale.String())
	v.Set("cache.gc_after", cfg.Cache.GCAfter.String())

	v.Set("auth.refresh_skew", cfg.Auth.RefreshSkew.String())

	v.Set("logging.file", cfg.Logging.File)
	v.Set("logging.level", cfg.Logging.Level)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// ExpandHome replaces a leading ~ with the user's home directory
func ExpandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}

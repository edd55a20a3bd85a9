// Package config loads client configuration from a YAML file with
// environment-variable overrides.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Transport values accepted for the event feed.
const (
	TransportSSE = "sse"
	TransportWS  = "ws"
)

// Config holds the gateway client settings.
type Config struct {
	BaseURL        string `mapstructure:"base_url"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
	LogStreamURL   string `mapstructure:"log_stream_url"`
	LogTransport   string `mapstructure:"log_transport"`
	LogCap         int    `mapstructure:"log_cap"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		BaseURL:        "http://localhost:8088",
		TimeoutSeconds: 60,
		LogTransport:   TransportSSE,
		LogCap:         1000,
	}
}

// DefaultPath returns the default config file location, ~/.flow/config.yaml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, ".flow", "config.yaml"), nil
}

// Load reads configuration from path. If path is empty, DefaultPath is
// used. A missing file is not an error; defaults and FLOW_* environment
// variables still apply.
func Load(path string) (Config, error) {
	if path == "" {
		defaultPath, err := DefaultPath()
		if err != nil {
			return Config{}, err
		}
		path = defaultPath
	}

	cfg := Default()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetDefault("base_url", cfg.BaseURL)
	v.SetDefault("timeout_seconds", cfg.TimeoutSeconds)
	v.SetDefault("log_stream_url", cfg.LogStreamURL)
	v.SetDefault("log_transport", cfg.LogTransport)
	v.SetDefault("log_cap", cfg.LogCap)
	v.SetEnvPrefix("FLOW")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return Config{}, err
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	if err := validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func validate(cfg Config) error {
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		return fmt.Errorf("base_url is required")
	}
	parsed, err := url.Parse(baseURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("base_url must include scheme and host (e.g. http://localhost:8088)")
	}
	if cfg.TimeoutSeconds <= 0 {
		return fmt.Errorf("timeout_seconds must be positive")
	}
	switch cfg.LogTransport {
	case TransportSSE, TransportWS:
	default:
		return fmt.Errorf("log_transport must be %q or %q", TransportSSE, TransportWS)
	}
	if cfg.LogCap <= 0 {
		return fmt.Errorf("log_cap must be positive")
	}
	return nil
}

// Timeout returns the request timeout as a duration.
func (c Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/kelseyhightower/envconfig"
	"github.com/sirupsen/logrus"
)

const (
	// PlaceholderToken is the token shipped in generated configs. It must be
	// replaced before any request is made.
	PlaceholderToken = "your_token_here"

	// EnvPrefix prefixes every environment override, e.g. FILEAPI_TOKEN.
	EnvPrefix = "FILEAPI"

	DefaultBaseURL = "https://still.richmond.edu/android"
	DefaultQuotaMB = 500

	MinQuotaMB = 1
	MaxQuotaMB = 1024 * 1024
	MinTimeout = 0
	MaxTimeout = 3600
)

// ErrTokenNotConfigured is returned by Validate while the placeholder token is still in place.
var ErrTokenNotConfigured = errors.New("token is not configured")

// Config represents the client configuration
type Config struct {
	BaseURL  string `toml:"base_url" split_words:"true"`
	Token    string `toml:"token"`
	QuotaMB  int    `toml:"quota_mb" split_words:"true"`
	Timeout  int    `toml:"timeout"`
	Loglevel string `toml:"loglevel"`
}

// DefaultConfig returns a Config with default values
func DefaultConfig() *Config {
	return &Config{
		BaseURL:  DefaultBaseURL,
		Token:    PlaceholderToken,
		QuotaMB:  DefaultQuotaMB,
		Timeout:  60,
		Loglevel: "info",
	}
}

// DefaultConfigPath returns the default configuration file path
func DefaultConfigPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	return filepath.Join(homeDir, ".config", "fileapictl", "config.toml"), nil
}

// Load reads configuration from a TOML file and applies FILEAPI_* environment
// overrides on top. A missing file leaves the defaults in place.
func Load(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(configPath)
	switch {
	case err == nil:
		if _, err := toml.Decode(string(data), cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to apply environment overrides: %w", err)
	}

	return cfg, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("base_url is required")
	}
	if _, err := url.ParseRequestURI(c.BaseURL); err != nil {
		return fmt.Errorf("base_url is invalid: %v", err)
	}

	if c.Token == "" {
		return fmt.Errorf("token is required")
	}
	if c.Token == PlaceholderToken {
		return ErrTokenNotConfigured
	}

	if c.QuotaMB < MinQuotaMB || c.QuotaMB > MaxQuotaMB {
		return fmt.Errorf("quota_mb must be between %d and %d", MinQuotaMB, MaxQuotaMB)
	}
	if c.Timeout < MinTimeout || c.Timeout > MaxTimeout {
		return fmt.Errorf("timeout must be between %d and %d seconds", MinTimeout, MaxTimeout)
	}
	if _, err := logrus.ParseLevel(c.Loglevel); err != nil {
		return fmt.Errorf("loglevel must be one of: panic, fatal, error, warn, info, debug, trace")
	}

	return nil
}

// RequestTimeout returns the HTTP timeout; zero means no timeout.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.Timeout) * time.Second
}

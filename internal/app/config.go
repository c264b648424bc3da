package app

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/aussiebroadwan/authkit/pkg/authsdk"
	"github.com/aussiebroadwan/authkit/pkg/httpx"
)

type Config struct {
	Env       string `mapstructure:"env"`        // Environment (dev, staging, prod) (default: dev)
	LogLevel  string `mapstructure:"log_level"`  // Log level (debug, info, warn, error) (default: info)
	LogFormat string `mapstructure:"log_format"` // Log format (json, text) (default: text)

	APIKey   string `mapstructure:"api_key"`   // Required: identity backend web API key
	BaseURL  string `mapstructure:"base_url"`  // Optional: accounts API root
	TokenURL string `mapstructure:"token_url"` // Optional: secure token service root

	RefreshInterval time.Duration `mapstructure:"refresh_interval"` // Token auto-refresh period (default: 50m)
	MetricsAddr     string        `mapstructure:"metrics_addr"`     // Optional: serve Prometheus metrics here while watching

	Auth authsdk.Config `mapstructure:"auth"`

	// RateLimit is read from RATELIMIT_BACKEND_* rather than the config file
	RateLimit httpx.RateLimitConfig `mapstructure:"-"`
}

// LoadConfig reads cfgFile (or ./authkit.yaml, $HOME/.config/authkit/authkit.yaml)
// and AUTHKIT_* environment variables. A missing config file is fine.
func LoadConfig(cfgFile string) (Config, error) {
	v := viper.New()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("authkit")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/authkit")
	}

	v.SetEnvPrefix("AUTHKIT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshaling config: %w", err)
	}
	cfg.RateLimit = httpx.ParseRateLimitFromEnv("BACKEND", httpx.DefaultLimit)

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

// setDefaults registers every key so AutomaticEnv can override nested values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("env", "dev")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")

	v.SetDefault("api_key", "")
	v.SetDefault("base_url", "")
	v.SetDefault("token_url", "")
	v.SetDefault("refresh_interval", authsdk.DefaultRefreshInterval)
	v.SetDefault("metrics_addr", "")

	v.SetDefault("auth.providers.email_password.enabled", true)
	v.SetDefault("auth.providers.email_password.require_email_verification", false)
	v.SetDefault("auth.providers.google.enabled", false)
	v.SetDefault("auth.providers.google.web_client_id", "")
	v.SetDefault("auth.providers.apple.enabled", false)

	v.SetDefault("auth.ui.theme", authsdk.ThemeAuto)
	v.SetDefault("auth.ui.primary_color", "")
	v.SetDefault("auth.ui.logo", "")
}

// Validate checks the configuration for errors.
func (c Config) Validate() error {
	if c.APIKey == "" {
		return errors.New("api_key is required (set AUTHKIT_API_KEY)")
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.LogLevel)
	}

	validFormats := map[string]bool{"text": true, "json": true}
	if !validFormats[c.LogFormat] {
		return fmt.Errorf("invalid log format: %s (must be text or json)", c.LogFormat)
	}

	if c.Auth.Providers.Google.Enabled && c.Auth.Providers.Google.WebClientID == "" {
		return errors.New("auth.providers.google.web_client_id is required when google is enabled")
	}

	return nil
}

package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server  ServerConfig
	API     APIConfig
	Log     LogConfig
	Scanner ScannerConfig
}

// ServerConfig holds configuration for the reference inventory service
type ServerConfig struct {
	Port           int           `mapstructure:"port"`
	Host           string        `mapstructure:"host"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	Environment    string        `mapstructure:"environment"`
	AllowedOrigins []string      `mapstructure:"allowed_origins"`
	RateLimit      int           `mapstructure:"rate_limit"` // requests per minute per IP, 0 disables
}

// APIConfig holds settings for calls to the remote inventory service
type APIConfig struct {
	BaseURL   string        `mapstructure:"base_url"`
	Timeout   time.Duration `mapstructure:"timeout"`
	UserAgent string        `mapstructure:"user_agent"`
}

// Validate checks the API configuration for the given environment.
func (c *APIConfig) Validate(environment string) error {
	if c.BaseURL == "" {
		return errors.New("INVTRACK_API_BASE_URL must be set")
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("INVTRACK_API_BASE_URL must be an absolute http(s) URL, got %q", c.BaseURL)
	}
	if c.Timeout <= 0 {
		return errors.New("INVTRACK_API_TIMEOUT must be positive")
	}
	if environment == EnvProduction || environment == EnvStaging {
		host := u.Hostname()
		if host == "localhost" || host == "127.0.0.1" {
			return errors.New("localhost inventory service not allowed in " + environment + " - set INVTRACK_API_BASE_URL")
		}
	}
	return nil
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// ScannerConfig selects the barcode capture mechanism
type ScannerConfig struct {
	Command        string        `mapstructure:"command"`
	Args           []string      `mapstructure:"args"`
	Timeout        time.Duration `mapstructure:"timeout"`
	ManualFallback bool          `mapstructure:"manual_fallback"`
}

// Load loads configuration from environment and config files.
// For command entrypoints, prefer LoadWithValidation which enforces required configuration.
func Load(serviceName string) (*Config, error) {
	return loadConfig(serviceName)
}

// LoadWithValidation loads configuration and validates it for the current environment.
func LoadWithValidation(serviceName string) (*Config, error) {
	cfg, err := loadConfig(serviceName)
	if err != nil {
		return nil, err
	}

	if err := cfg.API.Validate(cfg.Server.Environment); err != nil {
		return nil, fmt.Errorf("api configuration error: %w", err)
	}

	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return nil, fmt.Errorf("INVTRACK_SERVER_PORT out of range: %d", cfg.Server.Port)
	}

	return cfg, nil
}

// loadConfig is the internal configuration loader
func loadConfig(serviceName string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	// Read from environment variables
	v.SetEnvPrefix("INVTRACK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read from config file if exists
	v.SetConfigName(serviceName)
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/inventory-tracker")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.API.BaseURL = strings.TrimRight(cfg.API.BaseURL, "/")
	cfg.Server.Environment = strings.ToLower(cfg.Server.Environment)

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", 8787)
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.environment", EnvDevelopment)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("server.rate_limit", 600)

	// API defaults
	v.SetDefault("api.base_url", "http://localhost:8787")
	v.SetDefault("api.timeout", 10*time.Second)
	v.SetDefault("api.user_agent", "inventory-tracker")

	v.SetDefault("log.level", "info")

	// Scanner defaults
	v.SetDefault("scanner.command", "")
	v.SetDefault("scanner.args", []string{})
	v.SetDefault("scanner.timeout", 30*time.Second)
	v.SetDefault("scanner.manual_fallback", true)
}

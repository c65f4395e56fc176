package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Session store kinds.
const (
	StoreFile     = "file"
	StoreMemory   = "memory"
	StorePostgres = "postgres"
)

type Config struct {
	APIBaseURL          string        `mapstructure:"API_BASE_URL"`
	APIPrefix           string        `mapstructure:"API_PREFIX"`
	Env                 string        `mapstructure:"ENV"`
	LogLevel            string        `mapstructure:"LOG_LEVEL"`
	HTTPTimeout         time.Duration `mapstructure:"HTTP_TIMEOUT"`
	SessionStore        string        `mapstructure:"SESSION_STORE"`
	SessionDir          string        `mapstructure:"SESSION_DIR"`
	SessionProfile      string        `mapstructure:"SESSION_PROFILE"`
	DatabaseURL         string        `mapstructure:"DATABASE_URL"`
	DBMaxConns          int32         `mapstructure:"DB_MAX_CONNS"`
	DBMinConns          int32         `mapstructure:"DB_MIN_CONNS"`
	RateLimitRPS        float64       `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst      int           `mapstructure:"RATE_LIMIT_BURST"`
	LabBatchConcurrency int           `mapstructure:"LAB_BATCH_CONCURRENCY"`
	PreviewAddr         string        `mapstructure:"PREVIEW_ADDR"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("API_BASE_URL", "http://localhost:8080")
	v.SetDefault("API_PREFIX", "/api")
	v.SetDefault("ENV", "production")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("HTTP_TIMEOUT", "15s")
	v.SetDefault("SESSION_STORE", StoreFile)
	v.SetDefault("SESSION_DIR", defaultSessionDir())
	v.SetDefault("SESSION_PROFILE", "default")
	v.SetDefault("DB_MAX_CONNS", 4)
	v.SetDefault("DB_MIN_CONNS", 1)
	v.SetDefault("RATE_LIMIT_RPS", 0)
	v.SetDefault("RATE_LIMIT_BURST", 10)
	v.SetDefault("LAB_BATCH_CONCURRENCY", 0)
	v.SetDefault("PREVIEW_ADDR", "127.0.0.1:0")

	// Bind env vars explicitly so Unmarshal picks them up
	v.BindEnv("API_BASE_URL")
	v.BindEnv("API_PREFIX")
	v.BindEnv("ENV")
	v.BindEnv("LOG_LEVEL")
	v.BindEnv("HTTP_TIMEOUT")
	v.BindEnv("SESSION_STORE")
	v.BindEnv("SESSION_DIR")
	v.BindEnv("SESSION_PROFILE")
	v.BindEnv("DATABASE_URL")
	v.BindEnv("DB_MAX_CONNS")
	v.BindEnv("DB_MIN_CONNS")
	v.BindEnv("RATE_LIMIT_RPS")
	v.BindEnv("RATE_LIMIT_BURST")
	v.BindEnv("LAB_BATCH_CONCURRENCY")
	v.BindEnv("PREVIEW_ADDR")

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg.APIBaseURL = strings.TrimRight(cfg.APIBaseURL, "/")
	cfg.SessionStore = strings.ToLower(strings.TrimSpace(cfg.SessionStore))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func defaultSessionDir() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return ".diagnote"
	}
	return filepath.Join(home, ".diagnote")
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// BaseURL joins the API base URL with the API prefix.
func (c *Config) BaseURL() string {
	prefix := strings.Trim(c.APIPrefix, "/")
	if prefix == "" {
		return c.APIBaseURL
	}
	return c.APIBaseURL + "/" + prefix
}

// Validate checks that the configuration is usable. The postgres session
// store needs DATABASE_URL; the file store needs SESSION_DIR.
func (c *Config) Validate() error {
	if c.APIBaseURL == "" {
		return fmt.Errorf("API_BASE_URL is required")
	}
	u, err := url.Parse(c.APIBaseURL)
	if err != nil {
		return fmt.Errorf("API_BASE_URL is not a valid url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("API_BASE_URL scheme must be http or https, got %q", u.Scheme)
	}
	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("HTTP_TIMEOUT must be positive, got %s", c.HTTPTimeout)
	}

	switch c.SessionStore {
	case StoreFile:
		if c.SessionDir == "" {
			return fmt.Errorf("SESSION_DIR is required when SESSION_STORE is %q", StoreFile)
		}
	case StorePostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when SESSION_STORE is %q", StorePostgres)
		}
	case StoreMemory:
	default:
		return fmt.Errorf("SESSION_STORE must be %q, %q, or %q, got %q", StoreFile, StorePostgres, StoreMemory, c.SessionStore)
	}

	if c.RateLimitRPS < 0 {
		return fmt.Errorf("RATE_LIMIT_RPS must not be negative")
	}
	if c.RateLimitRPS > 0 && c.RateLimitBurst <= 0 {
		return fmt.Errorf("RATE_LIMIT_BURST must be positive when RATE_LIMIT_RPS is set")
	}
	if c.LabBatchConcurrency < 0 {
		return fmt.Errorf("LAB_BATCH_CONCURRENCY must not be negative")
	}
	return nil
}

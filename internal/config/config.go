// Package config provides configuration loading and validation for the
// pizza ordering API server.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultStageInterval is the wait between order status transitions.
	DefaultStageInterval = 5 * time.Second

	// DefaultStoreTimeout bounds each status persistence call so a stalled
	// database cannot wedge a sequencer.
	DefaultStoreTimeout = 10 * time.Second

	// DefaultAccessTokenTTL is the lifetime of issued access tokens.
	DefaultAccessTokenTTL = 30 * time.Minute

	// DefaultRefreshTokenTTL is the lifetime of issued refresh tokens.
	DefaultRefreshTokenTTL = 7 * 24 * time.Hour
)

// Config represents the root configuration structure.
type Config struct {
	// Address is the listen address for the HTTP server.
	Address string `yaml:"address,omitempty"`

	Database DatabaseConfig `yaml:"database"`
	Auth     AuthConfig     `yaml:"auth"`

	// Tracking configures the order status sequencer.
	Tracking TrackingConfig `yaml:"tracking,omitempty"`

	// Payments configures the Stripe payment provider. Optional; when
	// omitted the payment endpoints return 501.
	Payments *PaymentsConfig `yaml:"payments,omitempty"`
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Database string `yaml:"database"`
	SSLMode  string `yaml:"sslMode,omitempty"`

	// Password can be set directly, but PasswordFile and the
	// PIZZA_DB_PASSWORD environment variable take priority.
	Password     string `yaml:"password,omitempty"`
	PasswordFile string `yaml:"passwordFile,omitempty"`

	MaxConns int `yaml:"maxConns,omitempty"`
}

// AuthConfig holds JWT signing settings.
type AuthConfig struct {
	// Secret is the HMAC signing key. SecretFile and the
	// PIZZA_JWT_SECRET environment variable take priority.
	Secret     string `yaml:"secret,omitempty"`
	SecretFile string `yaml:"secretFile,omitempty"`

	AccessTokenTTL  string `yaml:"accessTokenTTL,omitempty"`
	RefreshTokenTTL string `yaml:"refreshTokenTTL,omitempty"`
}

// TrackingConfig holds order lifecycle sequencer settings.
type TrackingConfig struct {
	// StageInterval is the wait between status transitions (e.g. "5s").
	StageInterval string `yaml:"stageInterval,omitempty"`

	// StoreTimeout bounds each status write (e.g. "10s").
	StoreTimeout string `yaml:"storeTimeout,omitempty"`
}

// PaymentsConfig holds Stripe settings.
type PaymentsConfig struct {
	// SecretKey is the Stripe API key. SecretKeyFile and the
	// PIZZA_STRIPE_KEY environment variable take priority.
	SecretKey     string `yaml:"secretKey,omitempty"`
	SecretKeyFile string `yaml:"secretKeyFile,omitempty"`

	// WebhookSecret verifies webhook signatures. The
	// PIZZA_STRIPE_WEBHOOK_SECRET environment variable takes priority.
	WebhookSecret string `yaml:"webhookSecret,omitempty"`
}

// Load reads and parses the configuration file at path.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is required")
	}

	// Resolve symlinks to prevent symlink attacks.
	realPath, err := filepath.EvalSymlinks(path)
	if err != nil {
		return nil, fmt.Errorf("failed to evaluate symlinks: %w", err)
	}

	data, err := os.ReadFile(realPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if cfg.Address == "" {
		cfg.Address = ":8080"
	}

	return &cfg, nil
}

// Validate checks that required fields are present and durations parse.
func (c *Config) Validate() error {
	if c.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}
	if c.Database.Port == 0 {
		return fmt.Errorf("database port is required")
	}
	if c.Database.User == "" {
		return fmt.Errorf("database user is required")
	}
	if c.Database.Database == "" {
		return fmt.Errorf("database name is required")
	}
	if _, err := c.Auth.GetSecret(); err != nil {
		return fmt.Errorf("invalid auth config: %w", err)
	}
	if _, err := c.Tracking.GetStageInterval(); err != nil {
		return fmt.Errorf("invalid tracking config: %w", err)
	}
	if _, err := c.Tracking.GetStoreTimeout(); err != nil {
		return fmt.Errorf("invalid tracking config: %w", err)
	}
	return nil
}

// GetPassword returns the database password using a secure priority order:
// environment variable, password file, then inline config value.
func (d *DatabaseConfig) GetPassword() (string, error) {
	if pw := os.Getenv("PIZZA_DB_PASSWORD"); pw != "" {
		return pw, nil
	}
	if d.PasswordFile != "" {
		data, err := os.ReadFile(d.PasswordFile)
		if err != nil {
			return "", fmt.Errorf("failed to read password file: %w", err)
		}
		return strings.TrimSpace(string(data)), nil
	}
	return d.Password, nil
}

// GetSSLMode returns the SSL mode, defaulting to "require".
func (d *DatabaseConfig) GetSSLMode() string {
	if d.SSLMode == "" {
		return "require"
	}
	return d.SSLMode
}

// GetSecret returns the JWT signing key using the same priority order as
// the database password: environment, file, inline value.
func (a *AuthConfig) GetSecret() (string, error) {
	if s := os.Getenv("PIZZA_JWT_SECRET"); s != "" {
		return s, nil
	}
	if a.SecretFile != "" {
		data, err := os.ReadFile(a.SecretFile)
		if err != nil {
			return "", fmt.Errorf("failed to read secret file: %w", err)
		}
		return strings.TrimSpace(string(data)), nil
	}
	if a.Secret == "" {
		return "", fmt.Errorf("jwt secret is required")
	}
	return a.Secret, nil
}

// GetAccessTokenTTL returns the access token lifetime.
func (a *AuthConfig) GetAccessTokenTTL() time.Duration {
	return parseDurationOr(a.AccessTokenTTL, DefaultAccessTokenTTL)
}

// GetRefreshTokenTTL returns the refresh token lifetime.
func (a *AuthConfig) GetRefreshTokenTTL() time.Duration {
	return parseDurationOr(a.RefreshTokenTTL, DefaultRefreshTokenTTL)
}

// GetStageInterval returns the configured inter-stage delay.
func (t *TrackingConfig) GetStageInterval() (time.Duration, error) {
	return parseDurationStrict(t.StageInterval, DefaultStageInterval)
}

// GetStoreTimeout returns the configured per-write timeout.
func (t *TrackingConfig) GetStoreTimeout() (time.Duration, error) {
	return parseDurationStrict(t.StoreTimeout, DefaultStoreTimeout)
}

// GetSecretKey returns the Stripe API key.
func (p *PaymentsConfig) GetSecretKey() (string, error) {
	if k := os.Getenv("PIZZA_STRIPE_KEY"); k != "" {
		return k, nil
	}
	if p.SecretKeyFile != "" {
		data, err := os.ReadFile(p.SecretKeyFile)
		if err != nil {
			return "", fmt.Errorf("failed to read stripe key file: %w", err)
		}
		return strings.TrimSpace(string(data)), nil
	}
	if p.SecretKey == "" {
		return "", fmt.Errorf("stripe secret key is required")
	}
	return p.SecretKey, nil
}

// GetWebhookSecret returns the Stripe webhook signing secret.
func (p *PaymentsConfig) GetWebhookSecret() string {
	if s := os.Getenv("PIZZA_STRIPE_WEBHOOK_SECRET"); s != "" {
		return s
	}
	return p.WebhookSecret
}

func parseDurationOr(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func parseDurationStrict(s string, fallback time.Duration) (time.Duration, error) {
	if s == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q: %w", s, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("duration must be positive, got %q", s)
	}
	return d, nil
}

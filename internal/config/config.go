// Package config provides application configuration management.
// Configuration is loaded from environment variables following 12-factor principles.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
)

// MinSessionSecretLength is the minimum accepted length of SESSION_SECRET in bytes.
const MinSessionSecretLength = 32

// Config holds all application configuration.
// All fields are populated from environment variables.
type Config struct {
	// Application settings
	AppEnv  string `env:"APP_ENV" envDefault:"development"`
	AppPort int    `env:"APP_PORT" envDefault:"8080"`

	// Database (PostgreSQL)
	DatabaseURL string `env:"DATABASE_URL,required,notEmpty"`
	AutoMigrate bool   `env:"AUTO_MIGRATE" envDefault:"true"`

	// Sessions, single-use codes and rate limits (Redis)
	RedisURL string `env:"REDIS_URL,required,notEmpty"`

	// Public origin used in magic links and join links (e.g., https://splitkar.app)
	BaseURL string `env:"BASE_URL" envDefault:"http://localhost:8080"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	// Server timeouts
	ReadTimeout     time.Duration `env:"READ_TIMEOUT" envDefault:"5s"`
	WriteTimeout    time.Duration `env:"WRITE_TIMEOUT" envDefault:"10s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s"`
	RequestTimeout  time.Duration `env:"REQUEST_TIMEOUT" envDefault:"15s"`

	// Sessions
	SessionSecret        string        `env:"SESSION_SECRET,required,notEmpty"`
	SessionCookieName    string        `env:"SESSION_COOKIE_NAME" envDefault:"splitkar_session"`
	SessionTTL           time.Duration `env:"SESSION_TTL" envDefault:"168h"`
	SessionRefreshWindow time.Duration `env:"SESSION_REFRESH_WINDOW" envDefault:"24h"`

	// Magic links
	MagicLinkTTL    time.Duration `env:"MAGIC_LINK_TTL" envDefault:"15m"`
	MailRelayURL    string        `env:"MAIL_RELAY_URL" envDefault:""`
	MailRelaySecret string        `env:"MAIL_RELAY_SECRET" envDefault:""`

	// Rate limiting of magic-link requests (per client IP)
	RateLimitMagicLinkEnabled   bool `env:"RATE_LIMIT_MAGIC_LINK_ENABLED" envDefault:"true"`
	RateLimitMagicLinkPerMinute int  `env:"RATE_LIMIT_MAGIC_LINK_PER_MINUTE" envDefault:"5"`
	RateLimitMagicLinkBurst     int  `env:"RATE_LIMIT_MAGIC_LINK_BURST" envDefault:"3"`

	// CORS configuration
	// Comma-separated list of allowed origins (e.g., "https://example.com,https://app.example.com")
	CORSAllowedOrigins string `env:"CORS_ALLOWED_ORIGINS" envDefault:""`

	// Request body size limit in bytes (default 1MB)
	MaxRequestBodySize int64 `env:"MAX_REQUEST_BODY_SIZE" envDefault:"1048576"`
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// GetCORSAllowedOrigins parses the comma-separated origins string into a slice.
func (c *Config) GetCORSAllowedOrigins() []string {
	if c.CORSAllowedOrigins == "" {
		return nil
	}

	origins := strings.Split(c.CORSAllowedOrigins, ",")
	result := make([]string, 0, len(origins))

	for _, origin := range origins {
		trimmed := strings.TrimSpace(origin)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}

// Validate checks cross-field constraints that struct tags cannot express.
func (c *Config) Validate() error {
	var errs []error

	if len(c.SessionSecret) < MinSessionSecretLength {
		errs = append(errs, fmt.Errorf("SESSION_SECRET must be at least %d bytes", MinSessionSecretLength))
	}
	if c.SessionCookieName == "" {
		errs = append(errs, errors.New("SESSION_COOKIE_NAME must not be empty"))
	}
	if c.SessionTTL <= 0 {
		errs = append(errs, errors.New("SESSION_TTL must be positive"))
	}
	if c.SessionRefreshWindow < 0 || c.SessionRefreshWindow > c.SessionTTL {
		errs = append(errs, errors.New("SESSION_REFRESH_WINDOW must be between 0 and SESSION_TTL"))
	}
	if c.MagicLinkTTL <= 0 {
		errs = append(errs, errors.New("MAGIC_LINK_TTL must be positive"))
	}
	if c.IsProduction() && c.MailRelayURL == "" {
		errs = append(errs, errors.New("MAIL_RELAY_URL is required in production"))
	}
	if c.MailRelayURL != "" && c.MailRelaySecret == "" {
		errs = append(errs, errors.New("MAIL_RELAY_SECRET is required when MAIL_RELAY_URL is set"))
	}
	if c.RateLimitMagicLinkEnabled && (c.RateLimitMagicLinkPerMinute <= 0 || c.RateLimitMagicLinkBurst <= 0) {
		errs = append(errs, errors.New("magic link rate limit and burst must be positive"))
	}

	return errors.Join(errs...)
}

// Load parses environment variables and returns a validated Config.
// Returns an error if required variables are missing or invalid.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

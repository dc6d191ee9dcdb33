// Package config provides application configuration management.
// Configuration is loaded from environment variables following 12-factor principles.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/caarlos0/env/v10"

	"github.com/parishdesk/reporting/internal/auth"
)

// Source kinds.
const (
	SourceREST     = "rest"
	SourcePostgres = "postgres"
	SourceNone     = "none"
)

// SourceConfig describes where one collaborator's records come from.
// Defaults differ per collaborator and are seeded before parsing.
type SourceConfig struct {
	Enabled bool `env:"ENABLED"`

	// REST listing endpoint relative to BACKEND_BASE_URL
	Path            string   `env:"PATH"`
	TimestampFields []string `env:"TIMESTAMP_FIELDS" envSeparator:","`
	AmountField     string   `env:"AMOUNT_FIELD"`

	// Direct read from the backend database, used when DATABASE_URL is set
	Table           string   `env:"TABLE"`
	TimestampColumn string   `env:"TIMESTAMP_COLUMN"`
	AmountColumn    string   `env:"AMOUNT_COLUMN"`
	StatusColumn    string   `env:"STATUS_COLUMN"`
	Statuses        []string `env:"STATUSES" envSeparator:","`
}

// Config holds all application configuration.
// All fields are populated from environment variables.
type Config struct {
	// Application settings
	AppEnv  string `env:"APP_ENV" envDefault:"development"`
	AppPort int    `env:"APP_PORT" envDefault:"8080"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	// Server timeouts
	ReadTimeout     time.Duration `env:"READ_TIMEOUT" envDefault:"5s"`
	WriteTimeout    time.Duration `env:"WRITE_TIMEOUT" envDefault:"30s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s"`

	// Parish backend REST API
	BackendBaseURL   string        `env:"BACKEND_BASE_URL"`
	BackendToken     string        `env:"BACKEND_TOKEN"`
	BackendTimeout   time.Duration `env:"BACKEND_TIMEOUT" envDefault:"10s"`
	BackendRetries   int           `env:"BACKEND_RETRIES" envDefault:"2"`
	BuildTimeout     time.Duration `env:"BUILD_TIMEOUT" envDefault:"45s"`
	FetchConcurrency int           `env:"FETCH_CONCURRENCY" envDefault:"4"`

	// Optional read replica of the backend database (PostgreSQL)
	DatabaseURL      string `env:"DATABASE_URL"`
	DatabaseMaxConns int32  `env:"DATABASE_MAX_CONNS" envDefault:"4"`

	// Optional snapshot cache and notice stream (Redis)
	RedisURL    string        `env:"REDIS_URL"`
	SnapshotTTL time.Duration `env:"SNAPSHOT_TTL" envDefault:"15m"`

	// Reporting
	ReportWindowMonths int    `env:"REPORT_WINDOW_MONTHS" envDefault:"12"`
	ReportTimezone     string `env:"REPORT_TIMEZONE" envDefault:"UTC"`
	ReportLocale       string `env:"REPORT_LOCALE" envDefault:"en"`
	PlaceholderMode    string `env:"PLACEHOLDER_MODE" envDefault:"off"`
	PlaceholderSeed    int64  `env:"PLACEHOLDER_SEED" envDefault:"42"`

	// Build a snapshot at startup so the first console visit is served from
	// cache; a positive REFRESH_INTERVAL keeps rebuilding it in the background.
	WarmOnStart     bool          `env:"WARM_ON_START" envDefault:"true"`
	RefreshInterval time.Duration `env:"REFRESH_INTERVAL" envDefault:"0s"`

	// Admin key gate; empty disables it
	AdminAPIKeyHash string `env:"ADMIN_API_KEY_HASH"`

	// Browser origins of the admin console
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:","`

	// Collaborators
	Donations     SourceConfig `envPrefix:"DONATIONS_"`
	Registrations SourceConfig `envPrefix:"REGISTRATIONS_"`
	Attendances   SourceConfig `envPrefix:"ATTENDANCES_"`
	Users         SourceConfig `envPrefix:"USERS_"`
	Families      SourceConfig `envPrefix:"FAMILIES_"`
}

// defaults returns a Config with per-collaborator defaults that struct tags
// cannot express.
func defaults() *Config {
	return &Config{
		Donations: SourceConfig{
			Enabled:         true,
			Path:            "/donations",
			TimestampFields: []string{"date", "donationDate", "createdAt", "created_at"},
			AmountField:     "amount",
			TimestampColumn: "created_at",
			AmountColumn:    "amount",
		},
		Registrations: SourceConfig{
			Enabled:         true,
			Path:            "/registrations",
			TimestampFields: []string{"registeredAt", "createdAt", "created_at", "date"},
			TimestampColumn: "created_at",
		},
		Attendances: SourceConfig{
			Enabled:         true,
			Path:            "/attendances",
			TimestampFields: []string{"date", "attendedAt", "createdAt", "created_at"},
			TimestampColumn: "date",
		},
		Users: SourceConfig{
			Enabled:         true,
			Path:            "/users",
			TimestampFields: []string{"createdAt", "created_at", "dateJoined"},
			TimestampColumn: "created_at",
		},
		Families: SourceConfig{
			Enabled:         true,
			Path:            "/families",
			TimestampFields: []string{"createdAt", "created_at"},
			TimestampColumn: "created_at",
		},
	}
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// Location loads the reporting time zone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.ReportTimezone)
	if err != nil {
		return nil, fmt.Errorf("invalid REPORT_TIMEZONE %q: %w", c.ReportTimezone, err)
	}
	return loc, nil
}

// Source returns the configuration of the named collaborator.
func (c *Config) Source(name string) (SourceConfig, bool) {
	switch name {
	case "donations":
		return c.Donations, true
	case "registrations":
		return c.Registrations, true
	case "attendances":
		return c.Attendances, true
	case "users":
		return c.Users, true
	case "families":
		return c.Families, true
	default:
		return SourceConfig{}, false
	}
}

// SourceKind decides how a collaborator is read: directly from the database
// when a table is configured and DATABASE_URL is set, otherwise over REST.
func (c *Config) SourceKind(sc SourceConfig) string {
	switch {
	case !sc.Enabled:
		return SourceNone
	case c.DatabaseURL != "" && sc.Table != "":
		return SourcePostgres
	case c.BackendBaseURL != "" && sc.Path != "":
		return SourceREST
	default:
		return SourceNone
	}
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error

	if c.AppPort <= 0 || c.AppPort > 65535 {
		errs = append(errs, fmt.Errorf("APP_PORT must be between 1 and 65535, got %d", c.AppPort))
	}
	if c.LogFormat != "json" && c.LogFormat != "text" {
		errs = append(errs, fmt.Errorf("LOG_FORMAT must be json or text, got %q", c.LogFormat))
	}
	if c.BackendBaseURL == "" && c.DatabaseURL == "" {
		errs = append(errs, errors.New("one of BACKEND_BASE_URL or DATABASE_URL is required"))
	}
	if c.BackendBaseURL != "" {
		u, err := url.Parse(c.BackendBaseURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			errs = append(errs, fmt.Errorf("BACKEND_BASE_URL must be an absolute http(s) URL, got %q", c.BackendBaseURL))
		}
	}
	if c.FetchConcurrency <= 0 {
		errs = append(errs, fmt.Errorf("FETCH_CONCURRENCY must be positive, got %d", c.FetchConcurrency))
	}
	if c.BackendTimeout <= 0 {
		errs = append(errs, fmt.Errorf("BACKEND_TIMEOUT must be positive, got %s", c.BackendTimeout))
	}
	if c.BuildTimeout <= 0 || c.BuildTimeout < c.BackendTimeout {
		errs = append(errs, fmt.Errorf("BUILD_TIMEOUT must be at least BACKEND_TIMEOUT (%s), got %s", c.BackendTimeout, c.BuildTimeout))
	}
	if c.BackendRetries < 0 || c.BackendRetries > 5 {
		errs = append(errs, fmt.Errorf("BACKEND_RETRIES must be between 0 and 5, got %d", c.BackendRetries))
	}
	if c.RefreshInterval < 0 || (c.RefreshInterval > 0 && c.RefreshInterval < 30*time.Second) {
		errs = append(errs, fmt.Errorf("REFRESH_INTERVAL must be 0 or at least 30s, got %s", c.RefreshInterval))
	}
	if c.ReportWindowMonths <= 0 || c.ReportWindowMonths > 120 {
		errs = append(errs, fmt.Errorf("REPORT_WINDOW_MONTHS must be between 1 and 120, got %d", c.ReportWindowMonths))
	}
	if _, err := c.Location(); err != nil {
		errs = append(errs, err)
	}
	switch c.PlaceholderMode {
	case "off", "seeded", "random":
	default:
		errs = append(errs, fmt.Errorf("PLACEHOLDER_MODE must be off, seeded or random, got %q", c.PlaceholderMode))
	}
	if c.AdminAPIKeyHash != "" {
		if _, err := auth.NewVerifier(c.AdminAPIKeyHash); err != nil {
			errs = append(errs, fmt.Errorf("ADMIN_API_KEY_HASH must be an argon2id hash from cmd/keygen: %w", err))
		}
	}

	return errors.Join(errs...)
}

// Load parses environment variables and returns a validated Config.
func Load() (*Config, error) {
	cfg := defaults()
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoad_WithBackendURL(t *testing.T) {
	t.Setenv("BACKEND_BASE_URL", "https://api.parish.test/v1")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if cfg.BackendBaseURL != "https://api.parish.test/v1" {
		t.Errorf("expected BackendBaseURL to be set, got %s", cfg.BackendBaseURL)
	}
}

func TestLoad_MissingDataSource(t *testing.T) {
	t.Setenv("BACKEND_BASE_URL", "")
	t.Setenv("DATABASE_URL", "")

	_, err := Load()
	if err == nil {
		t.Fatal("expected error when neither BACKEND_BASE_URL nor DATABASE_URL is set, got nil")
	}
}

func TestConfig_Defaults(t *testing.T) {
	t.Setenv("BACKEND_BASE_URL", "http://localhost:3000")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if cfg.AppEnv != "development" {
		t.Errorf("expected default AppEnv 'development', got %s", cfg.AppEnv)
	}
	if cfg.AppPort != 8080 {
		t.Errorf("expected default AppPort 8080, got %d", cfg.AppPort)
	}
	if cfg.LogFormat != "json" {
		t.Errorf("expected default LogFormat 'json', got %s", cfg.LogFormat)
	}
	if cfg.ReportWindowMonths != 12 {
		t.Errorf("expected default window 12, got %d", cfg.ReportWindowMonths)
	}
	if cfg.PlaceholderMode != "off" {
		t.Errorf("expected placeholders off by default, got %s", cfg.PlaceholderMode)
	}
	if cfg.SnapshotTTL != 15*time.Minute {
		t.Errorf("expected default SnapshotTTL 15m, got %s", cfg.SnapshotTTL)
	}
	if cfg.Donations.Path != "/donations" || cfg.Donations.AmountField != "amount" {
		t.Errorf("unexpected donations defaults: %+v", cfg.Donations)
	}
	if cfg.Users.AmountField != "" {
		t.Errorf("users should be count-only, got amount field %q", cfg.Users.AmountField)
	}
	if !cfg.Families.Enabled {
		t.Error("expected families enabled by default")
	}
	if !cfg.WarmOnStart {
		t.Error("expected WarmOnStart by default")
	}
	if cfg.BackendRetries != 2 {
		t.Errorf("expected default BackendRetries 2, got %d", cfg.BackendRetries)
	}
	if cfg.RefreshInterval != 0 {
		t.Errorf("expected background refresh off by default, got %s", cfg.RefreshInterval)
	}
	if cfg.BuildTimeout != 45*time.Second {
		t.Errorf("expected default BuildTimeout 45s, got %s", cfg.BuildTimeout)
	}
	if cfg.DatabaseMaxConns != 4 {
		t.Errorf("expected default DatabaseMaxConns 4, got %d", cfg.DatabaseMaxConns)
	}
}

func TestLoad_CORSOrigins(t *testing.T) {
	t.Setenv("BACKEND_BASE_URL", "http://localhost:3000")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://console.parish.test,http://localhost:5173")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(cfg.CORSAllowedOrigins) != 2 || cfg.CORSAllowedOrigins[1] != "http://localhost:5173" {
		t.Errorf("unexpected origins %v", cfg.CORSAllowedOrigins)
	}
}

func TestLoad_NestedSourceOverrides(t *testing.T) {
	t.Setenv("BACKEND_BASE_URL", "http://localhost:3000")
	t.Setenv("DONATIONS_PATH", "/finance/gifts")
	t.Setenv("DONATIONS_TIMESTAMP_FIELDS", "receivedOn,createdAt")
	t.Setenv("DONATIONS_STATUSES", "completed,settled")
	t.Setenv("FAMILIES_ENABLED", "false")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if cfg.Donations.Path != "/finance/gifts" {
		t.Errorf("DONATIONS_PATH not applied, got %s", cfg.Donations.Path)
	}
	if strings.Join(cfg.Donations.TimestampFields, "|") != "receivedOn|createdAt" {
		t.Errorf("DONATIONS_TIMESTAMP_FIELDS not applied, got %v", cfg.Donations.TimestampFields)
	}
	if len(cfg.Donations.Statuses) != 2 {
		t.Errorf("DONATIONS_STATUSES not applied, got %v", cfg.Donations.Statuses)
	}
	if cfg.Users.Path != "/users" {
		t.Errorf("other sources must keep their defaults, got %s", cfg.Users.Path)
	}
	if cfg.Families.Enabled {
		t.Error("FAMILIES_ENABLED=false not applied")
	}
}

func TestConfig_Validate(t *testing.T) {
	valid := func() *Config {
		cfg := defaults()
		cfg.AppPort = 8080
		cfg.LogFormat = "json"
		cfg.BackendBaseURL = "https://api.parish.test"
		cfg.BackendTimeout = time.Second
		cfg.BuildTimeout = 30 * time.Second
		cfg.FetchConcurrency = 2
		cfg.ReportWindowMonths = 12
		cfg.ReportTimezone = "UTC"
		cfg.PlaceholderMode = "off"
		return cfg
	}

	if err := valid().Validate(); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantMsg string
	}{
		{"bad port", func(c *Config) { c.AppPort = 0 }, "APP_PORT"},
		{"bad log format", func(c *Config) { c.LogFormat = "xml" }, "LOG_FORMAT"},
		{"relative backend url", func(c *Config) { c.BackendBaseURL = "/api" }, "BACKEND_BASE_URL"},
		{"zero concurrency", func(c *Config) { c.FetchConcurrency = 0 }, "FETCH_CONCURRENCY"},
		{"zero window", func(c *Config) { c.ReportWindowMonths = 0 }, "REPORT_WINDOW_MONTHS"},
		{"unknown timezone", func(c *Config) { c.ReportTimezone = "Mars/Olympus" }, "REPORT_TIMEZONE"},
		{"unknown placeholder", func(c *Config) { c.PlaceholderMode = "demo" }, "PLACEHOLDER_MODE"},
		{"build shorter than one fetch", func(c *Config) { c.BuildTimeout = 500 * time.Millisecond }, "BUILD_TIMEOUT"},
		{"too many retries", func(c *Config) { c.BackendRetries = 9 }, "BACKEND_RETRIES"},
		{"refresh too often", func(c *Config) { c.RefreshInterval = time.Second }, "REFRESH_INTERVAL"},
		{"plaintext admin key", func(c *Config) { c.AdminAPIKeyHash = "rk_live_abc123_00112233445566778899aabbccddeeff" }, "ADMIN_API_KEY_HASH"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("error %q does not mention %s", err, tt.wantMsg)
			}
		})
	}
}

func TestConfig_ValidateAggregatesErrors(t *testing.T) {
	cfg := &Config{AppPort: -1, LogFormat: "xml", ReportTimezone: "UTC", PlaceholderMode: "off"}

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error, got nil")
	}
	for _, key := range []string{"APP_PORT", "LOG_FORMAT", "BACKEND_BASE_URL or DATABASE_URL", "FETCH_CONCURRENCY", "REPORT_WINDOW_MONTHS"} {
		if !strings.Contains(err.Error(), key) {
			t.Errorf("aggregated error missing %s: %v", key, err)
		}
	}
}

func TestConfig_SourceKind(t *testing.T) {
	cfg := &Config{BackendBaseURL: "https://api.parish.test"}

	donations := SourceConfig{Enabled: true, Path: "/donations", Table: "donations"}
	if got := cfg.SourceKind(donations); got != SourceREST {
		t.Errorf("without DATABASE_URL expected rest, got %s", got)
	}

	cfg.DatabaseURL = "postgres://localhost/parish"
	if got := cfg.SourceKind(donations); got != SourcePostgres {
		t.Errorf("with table and DATABASE_URL expected postgres, got %s", got)
	}

	if got := cfg.SourceKind(SourceConfig{Enabled: true, Path: "/users"}); got != SourceREST {
		t.Errorf("without table expected rest, got %s", got)
	}
	if got := cfg.SourceKind(SourceConfig{Enabled: false, Path: "/users"}); got != SourceNone {
		t.Errorf("disabled source expected none, got %s", got)
	}
}

func TestConfig_Source(t *testing.T) {
	cfg := defaults()
	for _, name := range []string{"donations", "registrations", "attendances", "users", "families"} {
		if _, ok := cfg.Source(name); !ok {
			t.Errorf("Source(%q) not found", name)
		}
	}
	if _, ok := cfg.Source("sacraments"); ok {
		t.Error("unknown source should not be found")
	}
}

func TestConfig_IsDevelopment(t *testing.T) {
	cfg := &Config{AppEnv: "development"}
	if !cfg.IsDevelopment() {
		t.Error("expected IsDevelopment to return true")
	}

	cfg.AppEnv = "production"
	if cfg.IsDevelopment() {
		t.Error("expected IsDevelopment to return false")
	}
	if !cfg.IsProduction() {
		t.Error("expected IsProduction to return true")
	}
}

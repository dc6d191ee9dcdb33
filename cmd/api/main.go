// Package main is the entrypoint for the reporting API server.
package main

import (
	"context"
	"log/slog"
	"net/url"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	"github.com/parishdesk/reporting/internal/auth"
	"github.com/parishdesk/reporting/internal/cache"
	"github.com/parishdesk/reporting/internal/config"
	"github.com/parishdesk/reporting/internal/handler"
	"github.com/parishdesk/reporting/internal/metrics"
	"github.com/parishdesk/reporting/internal/middleware"
	"github.com/parishdesk/reporting/internal/notify"
	"github.com/parishdesk/reporting/internal/report"
	"github.com/parishdesk/reporting/internal/repository"
	"github.com/parishdesk/reporting/internal/server"
	"github.com/parishdesk/reporting/internal/service"
	"github.com/parishdesk/reporting/internal/source"
)

func main() {
	ctx := context.Background()

	// A missing .env is normal outside development.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := initLogger(cfg)

	// Validate already parsed the zone.
	loc, _ := cfg.Location()

	placeholder, err := report.NewEmptyStateStrategy(cfg.PlaceholderMode, cfg.PlaceholderSeed)
	if err != nil {
		logger.Error("invalid placeholder mode", "error", err)
		os.Exit(1)
	}

	recorder := metrics.NewInMemory()

	var (
		repo     *repository.Repository
		dbHealth handler.HealthChecker
	)
	if cfg.DatabaseURL != "" {
		repo, err = repository.New(ctx, cfg.DatabaseURL, repository.Options{MaxConns: cfg.DatabaseMaxConns})
		if err != nil {
			logger.Error("failed to connect to database",
				slog.String("error", sanitizeError(err, cfg.DatabaseURL)),
				slog.String("database_url", redactURL(cfg.DatabaseURL)),
			)
			os.Exit(1)
		}
		dbHealth = repo
		logger.Info("connected to database", "database_url", redactURL(cfg.DatabaseURL))
	}

	var (
		store       service.SnapshotStore
		notifier    notify.Notifier
		cacheHealth handler.HealthChecker
		redisCache  *cache.Cache
	)
	if cfg.RedisURL != "" {
		redisCache, err = cache.New(ctx, cfg.RedisURL, cfg.SnapshotTTL)
		if err != nil {
			logger.Error("failed to connect to Redis",
				slog.String("error", sanitizeError(err, cfg.RedisURL)),
				slog.String("redis_url", redactURL(cfg.RedisURL)),
			)
			os.Exit(1)
		}
		store = redisCache
		notifier = notify.NewStreamPublisher(redisCache.Client(), logger, recorder)
		cacheHealth = redisCache
		logger.Info("connected to Redis", "redis_url", redactURL(cfg.RedisURL))
	} else {
		store = cache.NewMemoryStore(cfg.SnapshotTTL, cache.DefaultMemoryEntries)
		notifier = notify.NewMemory(notify.MaxRecentLimit)
		logger.Info("REDIS_URL not set; snapshots and notices are kept in memory")
	}

	defs := metricDefinitions(cfg, repo, loc, logger)

	dashboard, err := service.NewDashboardService(defs, store, notifier, recorder, logger, service.DashboardOptions{
		WindowMonths: cfg.ReportWindowMonths,
		Location:     loc,
		FetchTimeout: cfg.BackendTimeout,
		BuildTimeout: cfg.BuildTimeout,
		Concurrency:  cfg.FetchConcurrency,
		Placeholder:  placeholder,
		Formatter:    report.NewPercentFormatter(cfg.ReportLocale),
		Labeler:      report.NewLabeler(cfg.ReportLocale),
	})
	if err != nil {
		logger.Error("failed to create dashboard service", "error", err)
		os.Exit(1)
	}

	var verifier middleware.KeyVerifier
	if cfg.AdminAPIKeyHash != "" {
		v, err := auth.NewVerifier(cfg.AdminAPIKeyHash)
		if err != nil {
			logger.Error("invalid ADMIN_API_KEY_HASH", "error", err)
			os.Exit(1)
		}
		verifier = v
	} else {
		logger.Warn("ADMIN_API_KEY_HASH not set; API is unauthenticated")
	}

	r := setupRouter(routes{
		root:      handler.New(),
		health:    handler.NewHealthHandler(dbHealth, cacheHealth, logger),
		dashboard: handler.NewDashboardHandler(dashboard, logger),
		notices:   handler.NewNoticeHandler(notifier, logger),
		metrics:   handler.NewMetricsHandler(recorder),
	}, verifier, cfg, logger)

	srv := server.New(r, server.Options{
		Port:            cfg.AppPort,
		ReadTimeout:     cfg.ReadTimeout,
		WriteTimeout:    cfg.WriteTimeout,
		ShutdownTimeout: cfg.ShutdownTimeout,
	}, logger)

	if repo != nil {
		srv.OnShutdown("postgres", func(context.Context) error {
			repo.Close()
			return nil
		})
	}
	if redisCache != nil {
		// Give in-flight notice publishes their timeout before the client closes.
		srv.OnShutdown("redis", func(context.Context) error {
			time.Sleep(notify.PublishTimeout)
			return redisCache.Close()
		})
	}

	if cfg.WarmOnStart || cfg.RefreshInterval > 0 {
		refresher := service.NewRefresher(dashboard, cfg.RefreshInterval, cfg.BuildTimeout, logger)
		go func() {
			if err := refresher.Run(ctx); err != nil {
				logger.Error("refresher stopped", "error", err)
			}
		}()
		srv.OnShutdown("refresher", refresher.Shutdown)
	}

	logger.Info("starting server",
		"port", cfg.AppPort,
		"env", cfg.AppEnv,
		"window_months", cfg.ReportWindowMonths,
		"timezone", loc.String(),
		"placeholder_mode", cfg.PlaceholderMode,
	)

	if err := srv.Run(ctx); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

// metricDefinitions binds every catalog entry to its configured source.
func metricDefinitions(cfg *config.Config, repo *repository.Repository, loc *time.Location, logger *slog.Logger) []service.MetricDefinition {
	client := source.NewHTTPClient(cfg.BackendTimeout)
	windowStart := func() time.Time {
		return report.KeyOf(time.Now().In(loc)).AddMonths(-(cfg.ReportWindowMonths - 1)).Start(loc)
	}

	defs := make([]service.MetricDefinition, 0, len(service.DefaultCatalog))
	for _, kind := range service.DefaultCatalog {
		sc, _ := cfg.Source(kind.Name)

		var (
			src source.Source
			acc source.FieldAccessor
		)
		switch cfg.SourceKind(sc) {
		case config.SourcePostgres:
			src = source.NewPostgresSource(kind.Name, repo, source.TableConfig{
				Table:           sc.Table,
				TimestampColumn: sc.TimestampColumn,
				AmountColumn:    sc.AmountColumn,
				StatusColumn:    sc.StatusColumn,
				Statuses:        sc.Statuses,
				Location:        loc,
			}, windowStart)
			acc = source.FieldAccessor{TimestampFields: []string{sc.TimestampColumn}, AmountField: sc.AmountColumn, Location: loc}
		case config.SourceREST:
			src = source.NewRESTSource(kind.Name, cfg.BackendBaseURL, sc.Path, cfg.BackendToken, client)
			if cfg.BackendRetries > 0 {
				src = source.WithRetry(src, source.RetryDelays(cfg.BackendRetries), logger)
			}
			acc = source.FieldAccessor{TimestampFields: sc.TimestampFields, AmountField: sc.AmountField, Location: loc}
		default:
			src = source.Unconfigured(kind.Name)
			acc = source.FieldAccessor{AmountField: sc.AmountField}
		}

		logger.Info("metric source", "metric", kind.Name, "kind", cfg.SourceKind(sc))
		defs = append(defs, kind.Define(src, acc))
	}
	return defs
}

func initLogger(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLogLevel(cfg.LogLevel)}

	var h slog.Handler
	if cfg.LogFormat == "json" {
		h = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		h = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(h)
	slog.SetDefault(logger)
	return logger
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

type routes struct {
	root      *handler.Handler
	health    *handler.HealthHandler
	dashboard *handler.DashboardHandler
	notices   *handler.NoticeHandler
	metrics   *handler.MetricsHandler
}

func setupRouter(h routes, verifier middleware.KeyVerifier, cfg *config.Config, logger *slog.Logger) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recoverer(logger))
	r.Use(middleware.Security(cfg.IsDevelopment()))
	r.Use(middleware.CORS(cfg.CORSAllowedOrigins))

	r.Get("/healthz", h.health.Healthz)
	r.Get("/readyz", h.health.Readyz)
	r.Get("/metrics", h.metrics.Metrics)
	r.Get("/", h.root.Info)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.AdminKey(verifier, logger))

		r.Route("/dashboard", func(r chi.Router) {
			r.Get("/", h.dashboard.Latest)
			r.Get("/periods", h.dashboard.Periods)
			r.Get("/compare", h.dashboard.Compare)
			r.Get("/{id}", h.dashboard.Get)
		})
		r.Get("/notices", h.notices.Recent)
	})

	r.NotFound(h.root.NotFound)
	r.MethodNotAllowed(h.root.MethodNotAllowed)

	return r
}

var passwordPattern = regexp.MustCompile(`(?i)password=[^\s]+`)

func redactURL(raw string) string {
	if raw == "" {
		return ""
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return "[redacted]"
	}
	if parsed.User != nil {
		if name := parsed.User.Username(); name != "" {
			parsed.User = url.User(name)
		} else {
			parsed.User = url.User("redacted")
		}
	}
	return parsed.String()
}

func sanitizeError(err error, secrets ...string) string {
	if err == nil {
		return ""
	}

	msg := err.Error()
	for _, secret := range secrets {
		if secret == "" {
			continue
		}
		msg = strings.ReplaceAll(msg, secret, redactURL(secret))
	}
	return passwordPattern.ReplaceAllString(msg, "password=redacted")
}

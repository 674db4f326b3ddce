// Package main is the entrypoint for the SplitKar web server.
package main

import (
	"context"
	"log/slog"
	"net/url"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/lmittmann/tint"

	"github.com/splitkar/splitkar/internal/auth"
	"github.com/splitkar/splitkar/internal/cache"
	"github.com/splitkar/splitkar/internal/config"
	"github.com/splitkar/splitkar/internal/gate"
	"github.com/splitkar/splitkar/internal/handler"
	"github.com/splitkar/splitkar/internal/identity"
	"github.com/splitkar/splitkar/internal/metrics"
	"github.com/splitkar/splitkar/internal/middleware"
	"github.com/splitkar/splitkar/internal/repository"
	"github.com/splitkar/splitkar/internal/server"
	"github.com/splitkar/splitkar/internal/service"
	"github.com/splitkar/splitkar/internal/web"
)

func main() {
	// Initialize context
	ctx := context.Background()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Initialize logger
	logger := initLogger(cfg)

	// Apply migrations before the pool is opened
	if cfg.AutoMigrate {
		if err := repository.Migrate(ctx, cfg.DatabaseURL); err != nil {
			logger.Error(
				"failed to apply migrations",
				slog.String("error", sanitizeError(err, cfg.DatabaseURL)),
			)
			os.Exit(1)
		}
		logger.Info("database migrations applied")
	}

	// Initialize database
	repo, err := repository.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error(
			"failed to connect to database",
			slog.String("error", sanitizeError(err, cfg.DatabaseURL)),
			slog.String("database_url", redactURL(cfg.DatabaseURL)),
		)
		os.Exit(1)
	}
	logger.Info("connected to database")

	// Initialize cache
	cacheClient, err := cache.New(ctx, cfg.RedisURL)
	if err != nil {
		repo.Close()
		logger.Error(
			"failed to connect to Redis",
			slog.String("error", sanitizeError(err, cfg.RedisURL)),
			slog.String("redis_url", redactURL(cfg.RedisURL)),
		)
		os.Exit(1)
	}
	logger.Info("connected to Redis")

	// Initialize identity
	digester, err := auth.NewDigester(auth.DeriveKey(cfg.SessionSecret, "session"))
	if err != nil {
		logger.Error("failed to initialize session digester", "error", err)
		os.Exit(1)
	}
	issuer := auth.NewMagicLinkIssuer(auth.DeriveKey(cfg.SessionSecret, "magic-link"), cfg.MagicLinkTTL)

	recorder := metrics.NewPrometheus()
	identityStore := identity.NewStore(cacheClient, repo, newMailer(cfg, logger), issuer, digester, identity.Options{
		BaseURL:       cfg.BaseURL,
		SessionTTL:    cfg.SessionTTL,
		RefreshWindow: cfg.SessionRefreshWindow,
		Logger:        logger,
		Metrics:       recorder,
	})

	// Initialize services
	groupService := service.NewGroupService(repo, cfg.BaseURL, recorder, logger)
	profileService := service.NewProfileService(repo, logger)

	renderer, err := web.NewRenderer()
	if err != nil {
		logger.Error("failed to parse templates", "error", err)
		os.Exit(1)
	}

	// Initialize handlers
	cookie := identity.CookieConfig{
		Name:   cfg.SessionCookieName,
		Secure: !cfg.IsDevelopment(),
	}
	r := handler.NewRouter(handler.RouterConfig{
		Logger:  logger,
		Handler: handler.New(),
		Health: handler.NewHealthHandler(logger,
			handler.Dependency{Name: "postgres", Checker: repo},
			handler.Dependency{Name: "redis", Checker: cacheClient},
		),
		Groups:   handler.NewGroupHandler(groupService, logger),
		Profiles: handler.NewProfileHandler(profileService, logger),
		Auth:     handler.NewAuthHandler(identityStore, cookie, gate.LoginPath, logger),
		Pages:    handler.NewPageHandler(renderer, identityStore, groupService, profileService, gate.LoginPath, logger),
		Metrics:  recorder.Handler(),
		Security: middleware.SecurityConfig{IsDevelopment: cfg.IsDevelopment()},
		CORS:     middleware.DefaultCORSConfig(cfg.GetCORSAllowedOrigins()),
		SessionGate: middleware.SessionGateConfig{
			Logger:   logger,
			Identity: identityStore,
			Cookie:   cookie,
			Policy:   gate.DefaultPolicy(),
			Metrics:  recorder,
		},
		RateLimit: middleware.RateLimitConfig{
			Logger:        logger,
			Limiter:       cacheClient,
			Enabled:       cfg.RateLimitMagicLinkEnabled,
			Scope:         "magic_link",
			RatePerMinute: cfg.RateLimitMagicLinkPerMinute,
			Burst:         cfg.RateLimitMagicLinkBurst,
		},
		MaxBodySize:    cfg.MaxRequestBodySize,
		RequestTimeout: cfg.RequestTimeout,
	})

	// Create and run server
	srv := server.New(r, server.Config{
		Port:            cfg.AppPort,
		ReadTimeout:     cfg.ReadTimeout,
		WriteTimeout:    cfg.WriteTimeout,
		ShutdownTimeout: cfg.ShutdownTimeout,
	}, logger)
	srv.OnShutdown("postgres", func(ctx context.Context) error {
		repo.Close()
		return nil
	})
	srv.OnShutdown("redis", func(ctx context.Context) error {
		return cacheClient.Close()
	})

	logger.Info("starting server",
		"port", cfg.AppPort,
		"base_url", cfg.BaseURL,
		"env", cfg.AppEnv,
	)

	if err := srv.Run(ctx); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

// newMailer picks the relay when one is configured. Without a relay, links
// are only logged; config.Validate refuses that in production.
func newMailer(cfg *config.Config, logger *slog.Logger) identity.Mailer {
	if cfg.MailRelayURL != "" {
		logger.Info("magic links delivered through mail relay", slog.String("relay_url", redactURL(cfg.MailRelayURL)))
		return identity.NewRelayMailer(cfg.MailRelayURL, cfg.MailRelaySecret)
	}
	return identity.NewLogMailer(logger)
}

// initLogger initializes the slog logger based on configuration.
func initLogger(cfg *config.Config) *slog.Logger {
	var h slog.Handler

	level := parseLogLevel(cfg.LogLevel)

	if cfg.LogFormat == "json" {
		h = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	} else {
		h = tint.NewHandler(os.Stdout, &tint.Options{
			Level:      level,
			TimeFormat: time.Kitchen,
		})
	}

	logger := slog.New(h)
	slog.SetDefault(logger)

	return logger
}

// parseLogLevel converts string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
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
		username := parsed.User.Username()
		if username == "" {
			parsed.User = url.User("redacted")
		} else {
			parsed.User = url.User(username)
		}
	}
	parsed.RawQuery = ""

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
		redacted := redactURL(secret)
		if redacted == "" {
			redacted = "[redacted]"
		}
		msg = strings.ReplaceAll(msg, secret, redacted)
	}

	return passwordPattern.ReplaceAllString(msg, "password=redacted")
}

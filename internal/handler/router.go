package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/splitkar/splitkar/internal/middleware"
)

// RouterConfig holds the handlers and middleware settings of the HTTP surface.
type RouterConfig struct {
	Logger *slog.Logger

	Handler  *Handler
	Health   *HealthHandler
	Groups   *GroupHandler
	Profiles *ProfileHandler
	Auth     *AuthHandler
	Pages    *PageHandler
	// Metrics serves /metrics when set.
	Metrics http.Handler

	Security       middleware.SecurityConfig
	CORS           middleware.CORSConfig
	SessionGate    middleware.SessionGateConfig
	RateLimit      middleware.RateLimitConfig
	MaxBodySize    int64
	RequestTimeout time.Duration
}

// NewRouter configures the chi router with all routes and middleware.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(cfg.Logger))
	r.Use(middleware.Recoverer(cfg.Logger))
	r.Use(middleware.Security(cfg.Security))
	r.Use(middleware.CORS(cfg.CORS))
	if cfg.MaxBodySize > 0 {
		r.Use(middleware.MaxBodySize(cfg.MaxBodySize))
	}
	if cfg.RequestTimeout > 0 {
		r.Use(chimiddleware.Timeout(cfg.RequestTimeout))
	}
	r.Use(middleware.SessionGate(cfg.SessionGate))

	// Operational endpoints
	r.Get("/healthz", cfg.Health.Healthz)
	r.Get("/readyz", cfg.Health.Readyz)
	if cfg.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", cfg.Metrics)
	}

	limitSignIn := middleware.RateLimitIP(cfg.RateLimit)

	// Sign-in
	r.Route("/auth", func(r chi.Router) {
		r.With(limitSignIn).Post("/magic-link", cfg.Auth.SendMagicLink)
		r.Get("/callback", cfg.Auth.Callback)
		r.Post("/signout", cfg.Auth.SignOut)
	})

	// JSON API; endpoints needing a caller answer 401 themselves
	r.Route("/api", func(r chi.Router) {
		r.Route("/groups", func(r chi.Router) {
			r.Get("/", cfg.Groups.List)
			r.Post("/", cfg.Groups.Create)
			r.Get("/{token}", cfg.Groups.Get)
			r.Post("/{token}", cfg.Groups.Join)
		})
		r.Get("/profile", cfg.Profiles.Get)
		r.Put("/profile", cfg.Profiles.Update)
	})

	// Pages
	r.Get("/", cfg.Pages.Root)
	r.Get("/login", cfg.Pages.Login)
	r.With(limitSignIn).Post("/login", cfg.Pages.LoginSubmit)
	r.Get("/dashboard", cfg.Pages.Dashboard)
	r.Get("/profile", cfg.Pages.Profile)
	r.Post("/profile", cfg.Pages.ProfileSubmit)
	r.Get("/groups", cfg.Pages.Groups)
	r.Post("/groups", cfg.Pages.GroupsSubmit)
	r.Get("/groups/join/{token}", cfg.Pages.Join)
	r.Post("/groups/join/{token}", cfg.Pages.JoinSubmit)
	r.Get("/offline", cfg.Pages.Offline)
	r.Get("/manifest.webmanifest", cfg.Pages.Manifest)
	r.Get("/manifest.json", cfg.Pages.Manifest)

	// 404 and 405 handlers
	r.NotFound(cfg.Handler.NotFound)
	r.MethodNotAllowed(cfg.Handler.MethodNotAllowed)

	return r
}

package middleware

import (
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/splitkar/splitkar/internal/auth"
	"github.com/splitkar/splitkar/internal/gate"
	"github.com/splitkar/splitkar/internal/identity"
	"github.com/splitkar/splitkar/internal/metrics"
)

// SessionGateConfig holds configuration for the Session Gate.
type SessionGateConfig struct {
	Logger   *slog.Logger
	Identity identity.Provider
	Cookie   identity.CookieConfig
	Policy   gate.Policy
	Metrics  metrics.Recorder
	// Now is used for cookie lifetimes. Defaults to time.Now.
	Now func() time.Time
}

// SessionGate resolves the session cookie on every request, keeps the cookie
// in sync with the identity store and enforces the route policy.
//
// Any refreshed or clearing cookie is written before the request is passed
// on or redirected. The resolved session is available downstream through
// auth.SessionFromContext.
func SessionGate(cfg SessionGateConfig) func(http.Handler) http.Handler {
	if cfg.Metrics == nil {
		cfg.Metrics = metrics.NewNoop()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			token := cfg.Cookie.TokenFromRequest(r)

			res, err := cfg.Identity.GetSession(ctx, token)
			if err != nil {
				// Treat the visitor as signed out but keep their cookie;
				// the store may only be briefly unavailable.
				cfg.Logger.Error("session resolution failed",
					slog.String("error", err.Error()),
					slog.String("request_id", GetRequestID(ctx)),
				)
				res = &identity.Resolution{}
			}

			switch {
			case res.Refreshed && res.Session != nil:
				http.SetCookie(w, cfg.Cookie.SessionCookie(res.Session, cfg.Now()))
			case res.Invalid:
				http.SetCookie(w, cfg.Cookie.ClearCookie())
			}

			decision := cfg.Policy.Decide(r.URL.Path, res.Session != nil)
			if decision.Action == gate.Redirect {
				cfg.Metrics.IncGateRedirect(decision.Location)
				http.Redirect(w, r, redirectTarget(decision.Location, cfg.Policy.LoginPath, r), redirectStatus(r))
				return
			}

			if res.Session != nil {
				ctx = auth.ContextWithSession(ctx, res.Session)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// redirectTarget carries the original page in redirect= when sending a
// visitor to the login page, so they come back after signing in.
func redirectTarget(location, loginPath string, r *http.Request) string {
	if location != loginPath || r.Method != http.MethodGet {
		return location
	}
	original := r.URL.Path
	if original == "/" {
		return location
	}
	if r.URL.RawQuery != "" {
		original += "?" + r.URL.RawQuery
	}
	return location + "?" + url.Values{"redirect": {original}}.Encode()
}

// redirectStatus returns 303 for non-GET requests so browsers follow with GET.
func redirectStatus(r *http.Request) int {
	if r.Method == http.MethodGet || r.Method == http.MethodHead {
		return http.StatusFound
	}
	return http.StatusSeeOther
}

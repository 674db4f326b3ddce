package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/splitkar/splitkar/internal/handler/dto"
	"github.com/splitkar/splitkar/internal/identity"
	"github.com/splitkar/splitkar/internal/middleware"
)

// Sign-in failure reasons carried to the login page in ?error=.
const (
	LoginErrorExpired     = "expired"
	LoginErrorUsed        = "used"
	LoginErrorInvalid     = "invalid"
	LoginErrorUnavailable = "unavailable"
)

// AuthHandler handles magic-link sign-in and sign-out.
type AuthHandler struct {
	identity  identity.Provider
	cookie    identity.CookieConfig
	loginPath string
	logger    *slog.Logger
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(provider identity.Provider, cookie identity.CookieConfig, loginPath string, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		identity:  provider,
		cookie:    cookie,
		loginPath: loginPath,
		logger:    logger,
	}
}

// SendMagicLink handles POST /auth/magic-link.
func (h *AuthHandler) SendMagicLink(w http.ResponseWriter, r *http.Request) {
	var req dto.MagicLinkRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, CodeInvalidJSON, "Invalid request body")
		return
	}

	if err := h.identity.SendMagicLink(r.Context(), req.Email, identity.LocalRedirect(req.Redirect)); err != nil {
		if errors.Is(err, identity.ErrInvalidEmail) {
			writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{
				Error: "Please enter a valid email address",
				Code:  CodeValidation,
				Field: "email",
			})
			return
		}
		h.logger.Error("magic link request failed",
			slog.String("error", err.Error()),
			slog.String("request_id", middleware.GetRequestID(r.Context())),
		)
		writeError(w, http.StatusInternalServerError, CodeInternal, "Could not send magic link")
		return
	}

	writeJSON(w, http.StatusOK, dto.MessageResponse{Message: dto.MagicLinkSentMessage})
}

// Callback handles GET /auth/callback, the target of magic links.
// On success the session cookie is set and the visitor is sent on to the
// redirect target; on failure they go back to the login page.
func (h *AuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	code := query.Get("code")
	if code == "" {
		http.Redirect(w, r, h.loginPath, http.StatusFound)
		return
	}

	session, err := h.identity.ExchangeCodeForSession(r.Context(), code)
	if err != nil {
		reason := signInFailureReason(err)
		if reason == LoginErrorUnavailable {
			h.logger.Error("code exchange failed",
				slog.String("error", err.Error()),
				slog.String("request_id", middleware.GetRequestID(r.Context())),
			)
		}
		http.Redirect(w, r, h.loginPath+"?"+url.Values{"error": {reason}}.Encode(), http.StatusFound)
		return
	}

	http.SetCookie(w, h.cookie.SessionCookie(session, session.CreatedAt))
	http.Redirect(w, r, identity.LocalRedirect(query.Get("redirect")), http.StatusFound)
}

// SignOut handles POST /auth/signout.
func (h *AuthHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	if err := h.identity.SignOut(r.Context(), h.cookie.TokenFromRequest(r)); err != nil {
		h.logger.Error("sign out failed",
			slog.String("error", err.Error()),
			slog.String("request_id", middleware.GetRequestID(r.Context())),
		)
	}

	http.SetCookie(w, h.cookie.ClearCookie())
	http.Redirect(w, r, h.loginPath, http.StatusFound)
}

func signInFailureReason(err error) string {
	switch {
	case errors.Is(err, identity.ErrCodeExpired):
		return LoginErrorExpired
	case errors.Is(err, identity.ErrCodeUsed):
		return LoginErrorUsed
	case errors.Is(err, identity.ErrInvalidCode):
		return LoginErrorInvalid
	default:
		return LoginErrorUnavailable
	}
}

// Package identity implements passwordless sign-in: magic-link issuance,
// single-use code exchange and cookie-backed sessions.
package identity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"net/url"
	"strings"
	"time"

	"github.com/splitkar/splitkar/internal/auth"
	"github.com/splitkar/splitkar/internal/cache"
	"github.com/splitkar/splitkar/internal/metrics"
	"github.com/splitkar/splitkar/internal/model"
)

// DefaultRedirect is where a signed-in user lands when no usable target was given.
const DefaultRedirect = "/dashboard"

// CallbackPath is the endpoint magic links point at.
const CallbackPath = "/auth/callback"

// Identity errors.
var (
	ErrInvalidEmail = errors.New("invalid email address")
	ErrInvalidCode  = auth.ErrInvalidCode
	ErrCodeExpired  = auth.ErrCodeExpired
	ErrCodeUsed     = errors.New("sign-in code already used")
)

// Provider is the identity backend consumed by handlers and the Session Gate.
type Provider interface {
	// SendMagicLink emails a sign-in link that returns the user to continueURL.
	SendMagicLink(ctx context.Context, email, continueURL string) error
	// ExchangeCodeForSession trades a magic-link code for a new session.
	// The returned session carries the plaintext cookie token.
	ExchangeCodeForSession(ctx context.Context, code string) (*model.Session, error)
	// GetSession resolves a cookie token.
	GetSession(ctx context.Context, token string) (*Resolution, error)
	// SignOut ends the session behind token. Unknown tokens are ignored.
	SignOut(ctx context.Context, token string) error
}

// Resolution is the outcome of resolving a session cookie.
// Session is nil when the cookie does not carry a live session.
type Resolution struct {
	Session *model.Session
	// Refreshed is set when the session expiry was extended and the cookie
	// must be rewritten.
	Refreshed bool
	// Invalid is set when a cookie was presented but did not resolve,
	// so the cookie should be cleared.
	Invalid bool
}

// SessionStore persists sessions by token digest and remembers used codes.
type SessionStore interface {
	SetSession(ctx context.Context, digest string, session *model.Session) error
	GetSession(ctx context.Context, digest string) (*model.Session, error)
	DeleteSession(ctx context.Context, digest string) error
	ConsumeCode(ctx context.Context, codeID string, ttl time.Duration) (bool, error)
}

// UserStore resolves the user record for a verified email.
type UserStore interface {
	GetOrCreateUser(ctx context.Context, email string) (*model.User, error)
}

// Options configures a Store.
type Options struct {
	BaseURL       string
	SessionTTL    time.Duration
	RefreshWindow time.Duration
	Logger        *slog.Logger
	Metrics       metrics.Recorder
}

// Store is the in-process Provider backed by Redis sessions and Postgres users.
type Store struct {
	sessions SessionStore
	users    UserStore
	mailer   Mailer
	issuer   *auth.MagicLinkIssuer
	digester *auth.Digester

	baseURL       string
	sessionTTL    time.Duration
	refreshWindow time.Duration
	logger        *slog.Logger
	metrics       metrics.Recorder
	now           func() time.Time
}

var _ Provider = (*Store)(nil)

// NewStore creates a Store.
func NewStore(sessions SessionStore, users UserStore, mailer Mailer, issuer *auth.MagicLinkIssuer, digester *auth.Digester, opts Options) *Store {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.NewNoop()
	}
	return &Store{
		sessions:      sessions,
		users:         users,
		mailer:        mailer,
		issuer:        issuer,
		digester:      digester,
		baseURL:       strings.TrimSuffix(opts.BaseURL, "/"),
		sessionTTL:    opts.SessionTTL,
		refreshWindow: opts.RefreshWindow,
		logger:        opts.Logger,
		metrics:       opts.Metrics,
		now:           time.Now,
	}
}

// SendMagicLink implements Provider.
func (s *Store) SendMagicLink(ctx context.Context, email, continueURL string) error {
	addr, err := NormalizeEmail(email)
	if err != nil {
		return err
	}

	code, claims, err := s.issuer.Issue(addr)
	if err != nil {
		return err
	}

	msg := MagicLinkMessage{
		To:        addr,
		Link:      s.callbackURL(code, LocalRedirect(continueURL)),
		ExpiresAt: claims.ExpiresAt.Time,
	}
	if err := s.mailer.SendMagicLink(ctx, msg); err != nil {
		s.metrics.IncMagicLink(metrics.MagicLinkFailed)
		return fmt.Errorf("failed to deliver magic link: %w", err)
	}

	s.metrics.IncMagicLink(metrics.MagicLinkSent)
	s.logger.Info("magic_link_sent",
		slog.String("code_id", claims.ID),
	)
	return nil
}

// ExchangeCodeForSession implements Provider.
func (s *Store) ExchangeCodeForSession(ctx context.Context, code string) (*model.Session, error) {
	if code == "" {
		return nil, ErrInvalidCode
	}

	claims, err := s.issuer.Verify(code)
	if err != nil {
		return nil, err
	}

	// A failed user lookup must leave the code unused.
	user, err := s.users.GetOrCreateUser(ctx, claims.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve user: %w", err)
	}

	now := s.now().UTC()
	fresh, err := s.sessions.ConsumeCode(ctx, claims.ID, claims.ExpiresAt.Time.Sub(now))
	if err != nil {
		return nil, fmt.Errorf("failed to consume code: %w", err)
	}
	if !fresh {
		return nil, ErrCodeUsed
	}

	token, err := auth.GenerateSessionToken()
	if err != nil {
		return nil, err
	}

	session := &model.Session{
		Token:     token,
		UserID:    user.ID,
		Email:     user.Email,
		CreatedAt: now,
		ExpiresAt: now.Add(s.sessionTTL),
	}
	if err := s.sessions.SetSession(ctx, s.digester.Digest(token), session); err != nil {
		return nil, fmt.Errorf("failed to store session: %w", err)
	}

	s.logger.Info("session_created",
		slog.String("user_id", user.ID),
		slog.String("code_id", claims.ID),
	)
	return session, nil
}

// GetSession implements Provider.
func (s *Store) GetSession(ctx context.Context, token string) (*Resolution, error) {
	if token == "" {
		s.metrics.IncSessionResolution(metrics.SessionMissing)
		return &Resolution{}, nil
	}
	if err := auth.ValidateTokenFormat(token); err != nil {
		s.metrics.IncSessionResolution(metrics.SessionInvalid)
		return &Resolution{Invalid: true}, nil
	}

	digest := s.digester.Digest(token)
	session, err := s.sessions.GetSession(ctx, digest)
	if err != nil {
		if errors.Is(err, cache.ErrSessionNotFound) {
			s.metrics.IncSessionResolution(metrics.SessionInvalid)
			return &Resolution{Invalid: true}, nil
		}
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	now := s.now().UTC()
	if session.IsExpired(now) {
		if err := s.sessions.DeleteSession(ctx, digest); err != nil {
			s.logger.Warn("expired session cleanup failed",
				slog.String("user_id", session.UserID),
				slog.String("error", err.Error()),
			)
		}
		s.metrics.IncSessionResolution(metrics.SessionInvalid)
		return &Resolution{Invalid: true}, nil
	}
	session.Token = token

	if session.Remaining(now) >= s.refreshWindow {
		s.metrics.IncSessionResolution(metrics.SessionValid)
		return &Resolution{Session: session}, nil
	}

	refreshed := *session
	refreshed.ExpiresAt = now.Add(s.sessionTTL)
	if err := s.sessions.SetSession(ctx, digest, &refreshed); err != nil {
		// The current session is still valid; retry on the next request.
		s.logger.Warn("session refresh failed",
			slog.String("user_id", session.UserID),
			slog.String("error", err.Error()),
		)
		s.metrics.IncSessionResolution(metrics.SessionValid)
		return &Resolution{Session: session}, nil
	}

	s.metrics.IncSessionResolution(metrics.SessionRefreshed)
	return &Resolution{Session: &refreshed, Refreshed: true}, nil
}

// SignOut implements Provider.
func (s *Store) SignOut(ctx context.Context, token string) error {
	if auth.ValidateTokenFormat(token) != nil {
		return nil
	}
	if err := s.sessions.DeleteSession(ctx, s.digester.Digest(token)); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

func (s *Store) callbackURL(code, redirect string) string {
	q := url.Values{}
	q.Set("code", code)
	q.Set("redirect", redirect)
	return s.baseURL + CallbackPath + "?" + q.Encode()
}

// NormalizeEmail validates a bare email address and lower-cases it.
func NormalizeEmail(email string) (string, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return "", ErrInvalidEmail
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email || addr.Name != "" {
		return "", ErrInvalidEmail
	}
	if !strings.Contains(addr.Address[strings.LastIndex(addr.Address, "@")+1:], ".") {
		return "", ErrInvalidEmail
	}
	return strings.ToLower(addr.Address), nil
}

// LocalRedirect returns target when it is a same-origin path and
// DefaultRedirect otherwise.
func LocalRedirect(target string) string {
	if target == "" || !strings.HasPrefix(target, "/") {
		return DefaultRedirect
	}
	if strings.HasPrefix(target, "//") || strings.HasPrefix(target, "/\\") {
		return DefaultRedirect
	}
	u, err := url.Parse(target)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return DefaultRedirect
	}
	return target
}

package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/splitkar/splitkar/internal/handler/dto"
	"github.com/splitkar/splitkar/internal/identity"
	"github.com/splitkar/splitkar/internal/model"
)

func sessionCookie(rec interface{ Result() *http.Response }) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == testCookieName {
			return c
		}
	}
	return nil
}

func TestAuthHandler_SendMagicLink(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		sendErr    error
		wantStatus int
		wantSent   string
	}{
		{"valid", `{"email":"rohan@example.com","redirect":"/groups/join/abc?name=Goa"}`, nil, http.StatusOK, "rohan@example.com|/groups/join/abc?name=Goa"},
		{"default redirect", `{"email":"rohan@example.com"}`, nil, http.StatusOK, "rohan@example.com|/dashboard"},
		{"external redirect", `{"email":"rohan@example.com","redirect":"https://evil.example"}`, nil, http.StatusOK, "rohan@example.com|/dashboard"},
		{"invalid email", `{"email":"not-an-email"}`, nil, http.StatusBadRequest, ""},
		{"malformed", `{"email":`, nil, http.StatusBadRequest, ""},
		{"delivery failure", `{"email":"rohan@example.com"}`, errors.New("relay returned 502"), http.StatusInternalServerError, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newTestApp(t)
			app.identity.sendErr = tt.sendErr

			rec := app.do(http.MethodPost, "/auth/magic-link", tt.body, false)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (body %s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if tt.wantSent != "" {
				if len(app.identity.sent) != 1 || app.identity.sent[0] != tt.wantSent {
					t.Errorf("sent = %v, want %q", app.identity.sent, tt.wantSent)
				}
				if !strings.Contains(rec.Body.String(), dto.MagicLinkSentMessage) {
					t.Errorf("unexpected body: %s", rec.Body.String())
				}
			}
			if strings.Contains(rec.Body.String(), "502") {
				t.Error("delivery error leaked into response")
			}
		})
	}
}

func TestAuthHandler_Callback(t *testing.T) {
	created := time.Now().UTC()
	session := &model.Session{
		Token:     "new-session-token",
		UserID:    testUserID,
		Email:     "rohan@example.com",
		CreatedAt: created,
		ExpiresAt: created.Add(168 * time.Hour),
	}

	tests := []struct {
		name         string
		target       string
		exchErr      error
		wantLocation string
		wantCookie   bool
	}{
		{"missing code", "/auth/callback", nil, "/login", false},
		{"success default", "/auth/callback?code=abc", nil, "/dashboard", true},
		{"success redirect", "/auth/callback?code=abc&redirect=%2Fgroups%2Fjoin%2Fx%3Fname%3DGoa", nil, "/groups/join/x?name=Goa", true},
		{"open redirect refused", "/auth/callback?code=abc&redirect=%2F%2Fevil.example", nil, "/dashboard", true},
		{"expired", "/auth/callback?code=abc", identity.ErrCodeExpired, "/login?error=expired", false},
		{"used", "/auth/callback?code=abc", identity.ErrCodeUsed, "/login?error=used", false},
		{"invalid", "/auth/callback?code=abc", fmt.Errorf("%w: signature", identity.ErrInvalidCode), "/login?error=invalid", false},
		{"store down", "/auth/callback?code=abc", errors.New("redis: connection refused"), "/login?error=unavailable", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newTestApp(t)
			app.identity.exchanged = session
			app.identity.exchErr = tt.exchErr

			rec := app.do(http.MethodGet, tt.target, "", false)

			if rec.Code != http.StatusFound {
				t.Fatalf("status = %d, want 302", rec.Code)
			}
			if got := rec.Header().Get("Location"); got != tt.wantLocation {
				t.Errorf("Location = %q, want %q", got, tt.wantLocation)
			}

			c := sessionCookie(rec)
			if tt.wantCookie {
				if c == nil || c.Value != "new-session-token" || !c.HttpOnly || c.Path != "/" {
					t.Fatalf("unexpected session cookie: %+v", c)
				}
				if c.MaxAge != int((168 * time.Hour).Seconds()) {
					t.Errorf("MaxAge = %d", c.MaxAge)
				}
			} else if c != nil && c.Value != "" {
				t.Errorf("unexpected cookie on failure: %+v", c)
			}
		})
	}
}

func TestAuthHandler_SignOut(t *testing.T) {
	app := newTestApp(t)

	rec := app.do(http.MethodPost, "/auth/signout", "", true)

	if rec.Code != http.StatusFound || rec.Header().Get("Location") != "/login" {
		t.Fatalf("unexpected response %d %q", rec.Code, rec.Header().Get("Location"))
	}
	if len(app.identity.signedOut) != 1 || app.identity.signedOut[0] != testToken {
		t.Errorf("signed out tokens = %v", app.identity.signedOut)
	}
	if c := sessionCookie(rec); c == nil || c.MaxAge >= 0 {
		t.Errorf("expected clearing cookie, got %+v", c)
	}
}

func TestAuthHandler_SignOutStoreFailureStillClears(t *testing.T) {
	app := newTestApp(t)
	app.identity.signOutErr = errors.New("redis down")

	rec := app.do(http.MethodPost, "/auth/signout", "", true)

	if c := sessionCookie(rec); c == nil || c.MaxAge >= 0 {
		t.Errorf("expected clearing cookie, got %+v", c)
	}
}

package identity

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/splitkar/splitkar/internal/model"
)

func TestCookieConfig(t *testing.T) {
	cfg := CookieConfig{Name: "splitkar_session", Secure: true}
	now := time.Now()
	session := &model.Session{Token: "tok", ExpiresAt: now.Add(time.Hour)}

	c := cfg.SessionCookie(session, now)
	if c.Name != "splitkar_session" || c.Value != "tok" || c.Path != "/" {
		t.Errorf("unexpected cookie: %+v", c)
	}
	if !c.HttpOnly || !c.Secure || c.SameSite != http.SameSiteLaxMode {
		t.Errorf("cookie attributes not hardened: %+v", c)
	}
	if c.MaxAge < 3590 || c.MaxAge > 3600 {
		t.Errorf("MaxAge = %d, want about 3600", c.MaxAge)
	}

	cleared := cfg.ClearCookie()
	if cleared.MaxAge >= 0 || cleared.Value != "" {
		t.Errorf("clear cookie must expire immediately: %+v", cleared)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if cfg.TokenFromRequest(req) != "" {
		t.Error("expected empty token without cookie")
	}
	req.AddCookie(&http.Cookie{Name: "splitkar_session", Value: "abc"})
	if got := cfg.TokenFromRequest(req); got != "abc" {
		t.Errorf("TokenFromRequest = %q", got)
	}
}

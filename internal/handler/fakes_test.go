package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/splitkar/splitkar/internal/gate"
	"github.com/splitkar/splitkar/internal/identity"
	"github.com/splitkar/splitkar/internal/middleware"
	"github.com/splitkar/splitkar/internal/model"
	"github.com/splitkar/splitkar/internal/service"
	"github.com/splitkar/splitkar/internal/web"
)

const (
	testCookieName = "splitkar_session"
	testToken      = "session-token"
	testUserID     = "01HZZZUSER0000000000000001"
	testGroupID    = "6f1c2a8e-4b7d-4c1e-9a3f-2d5e8b7c9a01"
)

// fakeGroups is a scripted GroupService.
type fakeGroups struct {
	mu sync.Mutex

	createInputs []service.CreateGroupInput
	createErr    error

	detail *model.GroupWithMembers
	getErr error

	joinCalls []string
	joinErr   error
	already   bool

	list    []*model.GroupSummary
	listErr error
}

func (f *fakeGroups) CreateGroup(ctx context.Context, input service.CreateGroupInput) (*service.CreateGroupResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createInputs = append(f.createInputs, input)
	if f.createErr != nil {
		return nil, f.createErr
	}
	if input.CreatorID == "" {
		return nil, service.ErrUnauthorized
	}
	if strings.TrimSpace(input.Name) == "" {
		return nil, service.NewValidationError("name", "name is required")
	}
	days, err := service.ParseDurationDays(input.Duration)
	if err != nil {
		return nil, err
	}
	group := &model.Group{ID: testGroupID, Name: strings.TrimSpace(input.Name), CreatedBy: input.CreatorID}
	return &service.CreateGroupResult{
		Group:   group,
		JoinURL: model.JoinURL("http://localhost:8080", group.ID, group.Name, days),
	}, nil
}

func (f *fakeGroups) GetGroupWithMembers(ctx context.Context, token string) (*model.GroupWithMembers, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	if f.detail == nil || token != f.detail.Group.ID {
		return nil, service.ErrGroupNotFound
	}
	return f.detail, nil
}

func (f *fakeGroups) JoinGroup(ctx context.Context, token, userID string) (*service.JoinResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.joinCalls = append(f.joinCalls, token+"|"+userID)
	if userID == "" {
		return nil, service.ErrUnauthorized
	}
	if f.joinErr != nil {
		return nil, f.joinErr
	}
	if f.detail == nil || token != f.detail.Group.ID {
		return nil, service.ErrGroupNotFound
	}
	return &service.JoinResult{AlreadyMember: f.already}, nil
}

func (f *fakeGroups) ListGroupsForUser(ctx context.Context, userID string) ([]*model.GroupSummary, error) {
	if userID == "" {
		return nil, service.ErrUnauthorized
	}
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.list, nil
}

// fakeProfiles is a scripted ProfileService.
type fakeProfiles struct {
	profile   *model.Profile
	getErr    error
	updateErr error
	updates   []service.UpdateProfileInput
}

func (f *fakeProfiles) Get(ctx context.Context, userID string) (*model.Profile, error) {
	if userID == "" {
		return nil, service.ErrUnauthorized
	}
	return f.profile, f.getErr
}

func (f *fakeProfiles) Update(ctx context.Context, userID string, input service.UpdateProfileInput) (*model.Profile, error) {
	if userID == "" {
		return nil, service.ErrUnauthorized
	}
	f.updates = append(f.updates, input)
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	trim := func(s *string) *string {
		if s == nil || strings.TrimSpace(*s) == "" {
			return nil
		}
		v := strings.TrimSpace(*s)
		return &v
	}
	f.profile = &model.Profile{
		ID:        userID,
		FullName:  trim(input.FullName),
		UpiID:     trim(input.UpiID),
		AvatarURL: trim(input.AvatarURL),
	}
	return f.profile, nil
}

// fakeIdentity is a scripted identity.Provider.
type fakeIdentity struct {
	mu sync.Mutex

	sessions map[string]*model.Session

	sendErr error
	sent    []string

	exchanged *model.Session
	exchErr   error

	signOutErr error
	signedOut  []string
}

func newFakeIdentity() *fakeIdentity {
	return &fakeIdentity{sessions: map[string]*model.Session{
		testToken: {
			Token:     testToken,
			UserID:    testUserID,
			Email:     "rohan@example.com",
			CreatedAt: time.Now(),
			ExpiresAt: time.Now().Add(time.Hour * 100),
		},
	}}
}

func (f *fakeIdentity) SendMagicLink(ctx context.Context, email, continueURL string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, err := identity.NormalizeEmail(email); err != nil {
		return err
	}
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent = append(f.sent, email+"|"+continueURL)
	return nil
}

func (f *fakeIdentity) ExchangeCodeForSession(ctx context.Context, code string) (*model.Session, error) {
	if f.exchErr != nil {
		return nil, f.exchErr
	}
	return f.exchanged, nil
}

func (f *fakeIdentity) GetSession(ctx context.Context, token string) (*identity.Resolution, error) {
	if token == "" {
		return &identity.Resolution{}, nil
	}
	session, ok := f.sessions[token]
	if !ok {
		return &identity.Resolution{Invalid: true}, nil
	}
	return &identity.Resolution{Session: session}, nil
}

func (f *fakeIdentity) SignOut(ctx context.Context, token string) error {
	f.signedOut = append(f.signedOut, token)
	return f.signOutErr
}

type testApp struct {
	groups   *fakeGroups
	profiles *fakeProfiles
	identity *fakeIdentity
	router   http.Handler
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	renderer, err := web.NewRenderer()
	if err != nil {
		t.Fatalf("failed to parse templates: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	app := &testApp{
		groups:   &fakeGroups{},
		profiles: &fakeProfiles{},
		identity: newFakeIdentity(),
	}
	cookie := identity.CookieConfig{Name: testCookieName}

	app.router = NewRouter(RouterConfig{
		Logger:   logger,
		Handler:  New(),
		Health:   NewHealthHandler(logger),
		Groups:   NewGroupHandler(app.groups, logger),
		Profiles: NewProfileHandler(app.profiles, logger),
		Auth:     NewAuthHandler(app.identity, cookie, gate.LoginPath, logger),
		Pages:    NewPageHandler(renderer, app.identity, app.groups, app.profiles, gate.LoginPath, logger),
		Security: middleware.SecurityConfig{IsDevelopment: true},
		CORS:     middleware.DefaultCORSConfig(nil),
		SessionGate: middleware.SessionGateConfig{
			Logger:   logger,
			Identity: app.identity,
			Cookie:   cookie,
			Policy:   gate.DefaultPolicy(),
		},
		RateLimit:      middleware.RateLimitConfig{Logger: logger},
		MaxBodySize:    1 << 20,
		RequestTimeout: 5 * time.Second,
	})
	return app
}

// do sends a request through the full router. A signed-in request carries
// the session cookie of the test user.
func (a *testApp) do(method, target, body string, signedIn bool) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		if strings.HasPrefix(body, "{") {
			req.Header.Set("Content-Type", "application/json")
		} else {
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		}
	}
	if signedIn {
		req.AddCookie(&http.Cookie{Name: testCookieName, Value: testToken})
	}
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func strPtr(s string) *string {
	return &s
}

func sampleGroup() *model.GroupWithMembers {
	joined := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	return &model.GroupWithMembers{
		Group:   &model.Group{ID: testGroupID, Name: "Trip to Goa", CreatedBy: "creator-1"},
		Creator: &model.Profile{ID: "creator-1", FullName: strPtr("Priya Nair"), UpiID: strPtr("priya@upi")},
		Members: []model.MemberWithProfile{
			{UserID: "member-1", JoinedAt: joined, Profile: &model.Profile{ID: "member-1", FullName: strPtr("Arjun Rao"), UpiID: strPtr("arjun@upi")}},
			{UserID: "member-2", JoinedAt: joined.Add(time.Hour)},
		},
	}
}

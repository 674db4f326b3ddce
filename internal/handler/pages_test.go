package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/splitkar/splitkar/internal/model"
	"github.com/splitkar/splitkar/internal/service"
	"github.com/splitkar/splitkar/internal/web"
)

func TestPages_SignedOutRedirects(t *testing.T) {
	app := newTestApp(t)

	tests := []struct {
		method       string
		target       string
		wantStatus   int
		wantLocation string
	}{
		{http.MethodGet, "/", http.StatusFound, "/login"},
		{http.MethodGet, "/dashboard", http.StatusFound, "/login?redirect=%2Fdashboard"},
		{http.MethodGet, "/profile", http.StatusFound, "/login?redirect=%2Fprofile"},
		{http.MethodPost, "/groups", http.StatusSeeOther, "/login"},
		{http.MethodGet, "/groups/join/" + testGroupID + "?name=Trip+to+Goa&duration=7", http.StatusFound,
			"/login?redirect=" + url.QueryEscape("/groups/join/"+testGroupID+"?duration=7&name=Trip+to+Goa")},
		{http.MethodGet, "/groups/join/" + testGroupID, http.StatusFound,
			"/login?redirect=" + url.QueryEscape("/groups/join/"+testGroupID)},
		{http.MethodPost, "/groups/join/" + testGroupID, http.StatusSeeOther,
			"/login?redirect=" + url.QueryEscape("/groups/join/"+testGroupID)},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.target, func(t *testing.T) {
			rec := app.do(tt.method, tt.target, "", false)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if got := rec.Header().Get("Location"); got != tt.wantLocation {
				t.Errorf("Location = %q, want %q", got, tt.wantLocation)
			}
		})
	}
	if len(app.groups.joinCalls) != 0 {
		t.Error("signed-out join reached the service")
	}
}

func TestPages_SignedInLoginGoesToDashboard(t *testing.T) {
	app := newTestApp(t)

	rec := app.do(http.MethodGet, "/login", "", true)
	if rec.Code != http.StatusFound || rec.Header().Get("Location") != "/dashboard" {
		t.Errorf("unexpected response %d %q", rec.Code, rec.Header().Get("Location"))
	}

	rec = app.do(http.MethodGet, "/", "", true)
	if rec.Code != http.StatusFound || rec.Header().Get("Location") != "/dashboard" {
		t.Errorf("root: unexpected response %d %q", rec.Code, rec.Header().Get("Location"))
	}
}

func TestPages_Login(t *testing.T) {
	app := newTestApp(t)

	rec := app.do(http.MethodGet, "/login?redirect=%2Fgroups&error=used", "", false)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, `name="redirect" value="/groups"`) {
		t.Error("login form should carry the redirect target")
	}
	if !strings.Contains(body, "already used") {
		t.Error("expected sign-in error message")
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/html; charset=utf-8" {
		t.Errorf("Content-Type = %q", ct)
	}
}

func TestPages_LoginSubmit(t *testing.T) {
	tests := []struct {
		name       string
		form       url.Values
		sendErr    error
		wantStatus int
		wantBody   string
		wantSent   string
	}{
		{"sent", url.Values{"email": {"rohan@example.com"}, "redirect": {"/groups/join/x"}}, nil, http.StatusOK, "Check your email", "rohan@example.com|/groups/join/x"},
		{"invalid email", url.Values{"email": {"rohan"}}, nil, http.StatusBadRequest, "valid email", ""},
		{"delivery failure", url.Values{"email": {"rohan@example.com"}}, errors.New("smtp down"), http.StatusInternalServerError, "Could not send", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newTestApp(t)
			app.identity.sendErr = tt.sendErr

			rec := app.do(http.MethodPost, "/login", tt.form.Encode(), false)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if !strings.Contains(rec.Body.String(), tt.wantBody) {
				t.Errorf("body does not contain %q", tt.wantBody)
			}
			if tt.wantSent != "" && (len(app.identity.sent) != 1 || app.identity.sent[0] != tt.wantSent) {
				t.Errorf("sent = %v", app.identity.sent)
			}
		})
	}
}

func TestPages_Dashboard(t *testing.T) {
	app := newTestApp(t)
	app.profiles.profile = &model.Profile{ID: testUserID, FullName: strPtr("Rohan Sharma")}
	app.groups.list = []*model.GroupSummary{
		{Group: model.Group{ID: testGroupID, Name: "Trip to Goa"}, IsCreator: true},
	}

	rec := app.do(http.MethodGet, "/dashboard", "", true)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{"Hi, Rohan", "Trip to Goa", "/groups/join/" + testGroupID, "Sign out"} {
		if !strings.Contains(body, want) {
			t.Errorf("dashboard missing %q", want)
		}
	}
	if strings.Contains(body, "Complete your profile") {
		t.Error("profile banner shown for a user with a profile")
	}
}

func TestPages_DashboardDegradesOnErrors(t *testing.T) {
	app := newTestApp(t)
	app.profiles.getErr = &service.StoreError{Op: "get profile", Err: errors.New("down")}
	app.groups.listErr = &service.StoreError{Op: "list groups", Err: errors.New("down")}

	rec := app.do(http.MethodGet, "/dashboard", "", true)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "Welcome to SplitKar") || !strings.Contains(body, "Complete your profile") {
		t.Error("expected generic greeting and profile banner")
	}
}

func TestPages_ProfileSubmit(t *testing.T) {
	app := newTestApp(t)

	form := url.Values{"full_name": {" Rohan Sharma "}, "upi_id": {""}, "avatar_url": {""}}
	rec := app.do(http.MethodPost, "/profile", form.Encode(), true)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Profile updated successfully.") {
		t.Error("expected success message")
	}
	if !strings.Contains(rec.Body.String(), `value="Rohan Sharma"`) {
		t.Error("expected trimmed name in the form")
	}
	if app.profiles.profile.UpiID != nil {
		t.Error("blank UPI ID should be stored as null")
	}
}

func TestPages_ProfileSubmitValidation(t *testing.T) {
	app := newTestApp(t)
	app.profiles.updateErr = service.NewValidationError("avatar_url", "must be an http or https URL")

	form := url.Values{"full_name": {"Rohan"}, "avatar_url": {"javascript:alert(1)"}}
	rec := app.do(http.MethodPost, "/profile", form.Encode(), true)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "must be an http or https URL") {
		t.Error("expected validation message")
	}
}

func TestPages_GroupsSubmit(t *testing.T) {
	app := newTestApp(t)

	rec := app.do(http.MethodPost, "/groups", url.Values{"name": {"Trip to Goa"}, "duration": {"7"}}.Encode(), true)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "/groups/join/"+testGroupID+"?duration=7&amp;name=Trip&#43;to&#43;Goa") {
		t.Errorf("expected join link in page, got %s", rec.Body.String())
	}

	rec = app.do(http.MethodPost, "/groups", url.Values{"name": {"Trip"}, "duration": {"-1"}}.Encode(), true)
	if rec.Code != http.StatusBadRequest || !strings.Contains(rec.Body.String(), "greater than zero") {
		t.Errorf("expected validation error, got %d", rec.Code)
	}
}

func TestPages_Join(t *testing.T) {
	app := newTestApp(t)
	app.groups.detail = sampleGroup()

	rec := app.do(http.MethodGet, "/groups/join/"+testGroupID+"?name=Trip+to+Goa&duration=7", "", true)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{"Trip to Goa", "Duration: 7 days", "Created by Priya Nair", "Arjun Rao", "Unknown User", "Join Group"} {
		if !strings.Contains(body, want) {
			t.Errorf("join page missing %q", want)
		}
	}
	if strings.Contains(body, "priya@upi") {
		t.Error("UPI IDs must not be shown to other members")
	}
}

func TestPages_JoinAsMember(t *testing.T) {
	app := newTestApp(t)
	detail := sampleGroup()
	detail.Members = append(detail.Members, model.MemberWithProfile{UserID: testUserID})
	app.groups.detail = detail

	rec := app.do(http.MethodGet, "/groups/join/"+testGroupID, "", true)

	body := rec.Body.String()
	if !strings.Contains(body, "Go to Dashboard") || strings.Contains(body, "Join Group") {
		t.Error("members should not be offered the join button")
	}
}

func TestPages_JoinNotFound(t *testing.T) {
	app := newTestApp(t)

	rec := app.do(http.MethodGet, "/groups/join/not-a-token", "", true)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Group not found") {
		t.Error("expected not found message")
	}
}

func TestPages_JoinSubmit(t *testing.T) {
	app := newTestApp(t)
	app.groups.detail = sampleGroup()

	target := "/groups/join/" + testGroupID + "?name=Trip+to+Goa&duration=7"
	rec := app.do(http.MethodPost, target, "", true)

	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != target {
		t.Errorf("unexpected response %d %q", rec.Code, rec.Header().Get("Location"))
	}
	if len(app.groups.joinCalls) != 1 || app.groups.joinCalls[0] != testGroupID+"|"+testUserID {
		t.Errorf("join calls = %v", app.groups.joinCalls)
	}
}

func TestPages_Manifest(t *testing.T) {
	app := newTestApp(t)

	for _, path := range []string{"/manifest.webmanifest", "/manifest.json"} {
		rec := app.do(http.MethodGet, path, "", false)
		if rec.Code != http.StatusOK {
			t.Fatalf("%s: status = %d", path, rec.Code)
		}
		var m web.AppManifest
		if err := json.Unmarshal(rec.Body.Bytes(), &m); err != nil {
			t.Fatalf("%s: decode: %v", path, err)
		}
		if m.Name != "SplitKar" || m.ThemeColor != "#16a34a" || len(m.Icons) != 2 {
			t.Errorf("%s: unexpected manifest %+v", path, m)
		}
	}
}

func TestPages_Offline(t *testing.T) {
	app := newTestApp(t)

	rec := app.do(http.MethodGet, "/offline", "", false)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "offline") {
		t.Errorf("unexpected offline page: %d", rec.Code)
	}
}

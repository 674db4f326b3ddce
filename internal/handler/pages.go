package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/splitkar/splitkar/internal/auth"
	"github.com/splitkar/splitkar/internal/handler/dto"
	"github.com/splitkar/splitkar/internal/identity"
	"github.com/splitkar/splitkar/internal/middleware"
	"github.com/splitkar/splitkar/internal/model"
	"github.com/splitkar/splitkar/internal/service"
	"github.com/splitkar/splitkar/internal/web"
)

// PageHandler serves the server-rendered pages and their form posts.
type PageHandler struct {
	renderer  *web.Renderer
	identity  identity.Provider
	groups    GroupService
	profiles  ProfileService
	loginPath string
	logger    *slog.Logger
}

// NewPageHandler creates a new PageHandler.
func NewPageHandler(renderer *web.Renderer, provider identity.Provider, groups GroupService, profiles ProfileService, loginPath string, logger *slog.Logger) *PageHandler {
	return &PageHandler{
		renderer:  renderer,
		identity:  provider,
		groups:    groups,
		profiles:  profiles,
		loginPath: loginPath,
		logger:    logger,
	}
}

var loginErrorMessages = map[string]string{
	LoginErrorExpired:     "That sign-in link has expired. Request a new one.",
	LoginErrorUsed:        "That sign-in link was already used. Request a new one.",
	LoginErrorInvalid:     "That sign-in link is not valid. Request a new one.",
	LoginErrorUnavailable: "Sign-in is temporarily unavailable. Please try again.",
}

// Root handles GET /. The gate has already sent signed-out visitors to login.
func (h *PageHandler) Root(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, identity.DefaultRedirect, http.StatusFound)
}

// Login handles GET /login.
func (h *PageHandler) Login(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	h.render(w, r, http.StatusOK, web.PageLogin, "Sign in", web.LoginView{
		Redirect: query.Get("redirect"),
		Error:    loginErrorMessages[query.Get("error")],
	})
}

// LoginSubmit handles POST /login.
func (h *PageHandler) LoginSubmit(w http.ResponseWriter, r *http.Request) {
	view := web.LoginView{
		Email:    r.PostFormValue("email"),
		Redirect: r.PostFormValue("redirect"),
	}

	err := h.identity.SendMagicLink(r.Context(), view.Email, identity.LocalRedirect(view.Redirect))
	switch {
	case err == nil:
		view.Sent = true
		h.render(w, r, http.StatusOK, web.PageLogin, "Sign in", view)
	case errors.Is(err, identity.ErrInvalidEmail):
		view.Error = "Please enter a valid email address."
		h.render(w, r, http.StatusBadRequest, web.PageLogin, "Sign in", view)
	default:
		h.logError(r, "magic link request failed", err)
		view.Error = "Could not send the magic link. Please try again."
		h.render(w, r, http.StatusInternalServerError, web.PageLogin, "Sign in", view)
	}
}

// Dashboard handles GET /dashboard. Lookup failures degrade to the
// generic greeting instead of failing the page.
func (h *PageHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())
	view := web.DashboardView{
		Greeting: "Welcome to SplitKar 👋",
		Subtitle: "Get started by creating a group for your expenses.",
	}

	profile, err := h.profiles.Get(r.Context(), userID)
	if err != nil {
		h.logError(r, "dashboard profile lookup failed", err)
	}
	if profile != nil {
		view.HasProfile = true
		if first := profile.FirstName(); first != "" {
			view.Greeting = "Hi, " + first + " 👋"
			view.Subtitle = "Track, split, and settle your Indian expenses with ease."
		}
	}

	groups, err := h.groups.ListGroupsForUser(r.Context(), userID)
	if err != nil {
		h.logError(r, "dashboard group lookup failed", err)
	}
	view.Groups = dto.ToGroupListResponse(groups).Groups

	h.render(w, r, http.StatusOK, web.PageDashboard, "Dashboard", view)
}

// Profile handles GET /profile.
func (h *PageHandler) Profile(w http.ResponseWriter, r *http.Request) {
	profile, err := h.profiles.Get(r.Context(), auth.UserIDFromContext(r.Context()))
	if err != nil {
		h.logError(r, "profile lookup failed", err)
		h.render(w, r, errorStatus(err), web.PageProfile, "Profile", web.ProfileView{
			Error: "Could not load your profile.",
		})
		return
	}
	h.render(w, r, http.StatusOK, web.PageProfile, "Profile", profileView(profile))
}

// ProfileSubmit handles POST /profile.
func (h *PageHandler) ProfileSubmit(w http.ResponseWriter, r *http.Request) {
	input := service.UpdateProfileInput{
		FullName:  formValue(r, "full_name"),
		UpiID:     formValue(r, "upi_id"),
		AvatarURL: formValue(r, "avatar_url"),
	}

	profile, err := h.profiles.Update(r.Context(), auth.UserIDFromContext(r.Context()), input)
	if err != nil {
		view := web.ProfileView{
			FullName:  r.PostFormValue("full_name"),
			UpiID:     r.PostFormValue("upi_id"),
			AvatarURL: r.PostFormValue("avatar_url"),
			Error:     h.errorMessage(r, err, "Something went wrong while saving your profile."),
		}
		h.render(w, r, errorStatus(err), web.PageProfile, "Profile", view)
		return
	}

	view := profileView(profile)
	view.Saved = true
	h.render(w, r, http.StatusOK, web.PageProfile, "Profile", view)
}

// Groups handles GET /groups.
func (h *PageHandler) Groups(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, web.PageGroups, "Groups", web.GroupsView{Duration: "7"})
}

// GroupsSubmit handles POST /groups.
func (h *PageHandler) GroupsSubmit(w http.ResponseWriter, r *http.Request) {
	view := web.GroupsView{
		Name:     r.PostFormValue("name"),
		Duration: r.PostFormValue("duration"),
	}

	result, err := h.groups.CreateGroup(r.Context(), service.CreateGroupInput{
		Name:      view.Name,
		Duration:  view.Duration,
		CreatorID: auth.UserIDFromContext(r.Context()),
	})
	if err != nil {
		view.Error = h.errorMessage(r, err, "Could not create the group. Please try again.")
		h.render(w, r, errorStatus(err), web.PageGroups, "Groups", view)
		return
	}

	view.JoinURL = result.JoinURL
	h.render(w, r, http.StatusOK, web.PageGroups, "Groups", view)
}

// Join handles GET /groups/join/{token}. The path is public so that
// invitations can be opened by anyone; signed-out visitors are sent to
// the login page and brought back afterwards.
func (h *PageHandler) Join(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())
	if userID == "" {
		http.Redirect(w, r, h.joinLoginRedirect(r), http.StatusFound)
		return
	}
	h.renderJoin(w, r, http.StatusOK, userID, "")
}

// JoinSubmit handles POST /groups/join/{token}.
func (h *PageHandler) JoinSubmit(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())
	if userID == "" {
		http.Redirect(w, r, h.joinLoginRedirect(r), http.StatusSeeOther)
		return
	}

	if _, err := h.groups.JoinGroup(r.Context(), chi.URLParam(r, "token"), userID); err != nil {
		h.renderJoin(w, r, errorStatus(err), userID, h.errorMessage(r, err, "Failed to join group. Please try again."))
		return
	}

	http.Redirect(w, r, r.URL.RequestURI(), http.StatusSeeOther)
}

// Offline handles GET /offline.
func (h *PageHandler) Offline(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, web.PageOffline, "Offline", nil)
}

// Manifest handles GET /manifest.webmanifest and /manifest.json.
func (h *PageHandler) Manifest(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/manifest+json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(web.Manifest())
}

func (h *PageHandler) renderJoin(w http.ResponseWriter, r *http.Request, status int, userID, message string) {
	query := r.URL.Query()
	view := web.JoinView{
		Name:     query.Get("name"),
		Duration: query.Get("duration"),
		Error:    message,
	}

	group, err := h.groups.GetGroupWithMembers(r.Context(), chi.URLParam(r, "token"))
	if err != nil {
		view.Error = h.errorMessage(r, err, "Failed to fetch group details. Please try again.")
		h.render(w, r, errorStatus(err), web.PageJoin, "Join group", view)
		return
	}

	view.Group = dto.ToGroupDetailResponse(group)
	view.IsMember = group.HasMember(userID)
	h.render(w, r, status, web.PageJoin, group.Group.Name, view)
}

// joinLoginRedirect returns the login URL that brings a visitor back to
// the join page, keeping the name and duration hints.
func (h *PageHandler) joinLoginRedirect(r *http.Request) string {
	returnTo := "/groups/join/" + url.PathEscape(chi.URLParam(r, "token"))
	query := r.URL.Query()
	if name := query.Get("name"); name != "" {
		hints := url.Values{}
		hints.Set("name", name)
		hints.Set("duration", query.Get("duration"))
		returnTo += "?" + hints.Encode()
	}
	return h.loginPath + "?" + url.Values{"redirect": {returnTo}}.Encode()
}

func (h *PageHandler) render(w http.ResponseWriter, r *http.Request, status int, page, title string, data any) {
	p := web.Page{Title: title, Data: data}
	if session := auth.SessionFromContext(r.Context()); session != nil {
		p.Email = session.Email
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := h.renderer.Render(w, page, p); err != nil {
		h.logError(r, "page render failed", err)
	}
}

// errorMessage returns a message safe to show on a page. Store and
// unexpected failures are logged and replaced with fallback.
func (h *PageHandler) errorMessage(r *http.Request, err error, fallback string) string {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		return verr.Message
	case errors.Is(err, service.ErrUnauthorized):
		return "You must be signed in to do that."
	case errors.Is(err, service.ErrGroupNotFound):
		return "Group not found"
	default:
		h.logError(r, "page request failed", err)
		return fallback
	}
}

func (h *PageHandler) logError(r *http.Request, msg string, err error) {
	h.logger.Error(msg,
		slog.String("error", err.Error()),
		slog.String("request_id", middleware.GetRequestID(r.Context())),
		slog.String("path", r.URL.Path),
	)
}

// errorStatus maps a service error to its HTTP status.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, service.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrGroupNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func profileView(p *model.Profile) web.ProfileView {
	var view web.ProfileView
	if p == nil {
		return view
	}
	view.FullName = deref(p.FullName)
	view.UpiID = deref(p.UpiID)
	view.AvatarURL = deref(p.AvatarURL)
	return view
}

// formValue returns a pointer to the posted field, or nil when it is absent.
func formValue(r *http.Request, key string) *string {
	if err := r.ParseForm(); err != nil {
		return nil
	}
	values, ok := r.PostForm[key]
	if !ok || len(values) == 0 {
		return nil
	}
	return &values[0]
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

package web

import "github.com/splitkar/splitkar/internal/handler/dto"

// LoginView backs the login page.
type LoginView struct {
	Email    string
	Redirect string
	Sent     bool
	Error    string
}

// DashboardView backs the dashboard.
type DashboardView struct {
	Greeting   string
	Subtitle   string
	HasProfile bool
	Groups     []dto.GroupSummaryResponse
}

// ProfileView backs the profile form.
type ProfileView struct {
	FullName  string
	UpiID     string
	AvatarURL string
	Saved     bool
	Error     string
}

// GroupsView backs the create-group form.
type GroupsView struct {
	Name     string
	Duration string
	JoinURL  string
	Error    string
}

// JoinView backs the join page.
type JoinView struct {
	Name     string
	Duration string
	Group    *dto.GroupDetailResponse
	IsMember bool
	Error    string
}

package model

import (
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Group is a set of people sharing expenses. Its ID doubles as the
// invitation token embedded in join links.
type Group struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedBy string    `json:"created_by"`
	CreatedAt time.Time `json:"-"`
}

// GroupMember records that a user joined a group.
// At most one row exists per (GroupID, UserID).
type GroupMember struct {
	ID       string    `json:"id"`
	GroupID  string    `json:"group_id"`
	UserID   string    `json:"user_id"`
	JoinedAt time.Time `json:"joined_at"`
}

// MemberWithProfile pairs a membership with the member's profile, if any.
type MemberWithProfile struct {
	UserID   string
	JoinedAt time.Time
	Profile  *Profile
}

// GroupWithMembers is a group together with its creator and members.
// Creator and member profiles are nil when the user has not completed one.
type GroupWithMembers struct {
	Group   *Group
	Creator *Profile
	Members []MemberWithProfile
}

// HasMember reports whether userID appears in the member list.
func (g *GroupWithMembers) HasMember(userID string) bool {
	for _, m := range g.Members {
		if m.UserID == userID {
			return true
		}
	}
	return false
}

// GroupSummary is a group as listed on a user's dashboard.
type GroupSummary struct {
	Group
	IsCreator bool `json:"is_creator"`
}

// JoinPath returns the path of the join page for a group, carrying the
// display-only name and duration hints.
func JoinPath(groupID, name string, durationDays float64) string {
	q := url.Values{}
	q.Set("name", name)
	q.Set("duration", strconv.FormatFloat(durationDays, 'f', -1, 64))
	return "/groups/join/" + url.PathEscape(groupID) + "?" + q.Encode()
}

// JoinURL returns the absolute shareable join link for a group.
func JoinURL(baseURL, groupID, name string, durationDays float64) string {
	return strings.TrimSuffix(baseURL, "/") + JoinPath(groupID, name, durationDays)
}

package dto

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/splitkar/splitkar/internal/model"
)

// CreateGroupRequest represents the request body for creating a group.
// Duration accepts a JSON number or a numeric string.
type CreateGroupRequest struct {
	Name     string          `json:"name"`
	Duration json.RawMessage `json:"duration"`
}

// DurationText returns the duration as text for the service to parse.
// Missing or null durations yield "", anything that is neither a number
// nor a string yields a value that fails to parse.
func (r *CreateGroupRequest) DurationText() string {
	raw := bytes.TrimSpace(r.Duration)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return string(raw)
		}
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return string(raw)
	}
	return n.String()
}

// CreateGroupResponse is returned after a group is created.
type CreateGroupResponse struct {
	ID      string `json:"id"`
	JoinURL string `json:"join_url"`
}

// GroupResponse is a group with its creator's public profile.
type GroupResponse struct {
	ID        string               `json:"id"`
	Name      string               `json:"name"`
	CreatedBy string               `json:"created_by"`
	Creator   *model.PublicProfile `json:"creator"`
}

// MemberResponse is one membership with the member's public profile.
type MemberResponse struct {
	UserID   string               `json:"user_id"`
	JoinedAt time.Time            `json:"joined_at"`
	Profile  *model.PublicProfile `json:"profile"`
}

// GroupDetailResponse represents GET /api/groups/{token}.
type GroupDetailResponse struct {
	Group   GroupResponse    `json:"group"`
	Members []MemberResponse `json:"members"`
}

// GroupSummaryResponse is a group as listed on the dashboard.
type GroupSummaryResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	CreatedBy string `json:"created_by"`
	IsCreator bool   `json:"is_creator"`
}

// GroupListResponse represents GET /api/groups.
type GroupListResponse struct {
	Groups []GroupSummaryResponse `json:"groups"`
}

// JoinGroupResponse represents POST /api/groups/{token}.
type JoinGroupResponse struct {
	Message       string `json:"message"`
	Joined        bool   `json:"joined"`
	AlreadyMember bool   `json:"already_member"`
}

// Join acknowledgements.
const (
	MessageJoined        = "Successfully joined group"
	MessageAlreadyMember = "Already a member"
)

// ToGroupDetailResponse converts a group and its members to the response DTO.
func ToGroupDetailResponse(g *model.GroupWithMembers) *GroupDetailResponse {
	resp := &GroupDetailResponse{
		Group: GroupResponse{
			ID:        g.Group.ID,
			Name:      g.Group.Name,
			CreatedBy: g.Group.CreatedBy,
			Creator:   g.Creator.Public(),
		},
		Members: make([]MemberResponse, 0, len(g.Members)),
	}
	for _, m := range g.Members {
		resp.Members = append(resp.Members, MemberResponse{
			UserID:   m.UserID,
			JoinedAt: m.JoinedAt,
			Profile:  m.Profile.Public(),
		})
	}
	return resp
}

// ToGroupListResponse converts dashboard summaries to the response DTO.
func ToGroupListResponse(groups []*model.GroupSummary) *GroupListResponse {
	resp := &GroupListResponse{Groups: make([]GroupSummaryResponse, 0, len(groups))}
	for _, g := range groups {
		resp.Groups = append(resp.Groups, GroupSummaryResponse{
			ID:        g.ID,
			Name:      g.Name,
			CreatedBy: g.CreatedBy,
			IsCreator: g.IsCreator,
		})
	}
	return resp
}

// ToJoinGroupResponse converts a join outcome to the response DTO.
func ToJoinGroupResponse(alreadyMember bool) *JoinGroupResponse {
	msg := MessageJoined
	if alreadyMember {
		msg = MessageAlreadyMember
	}
	return &JoinGroupResponse{Message: msg, Joined: true, AlreadyMember: alreadyMember}
}

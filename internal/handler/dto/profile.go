package dto

import "github.com/splitkar/splitkar/internal/model"

// UpdateProfileRequest represents the request body for PUT /api/profile.
type UpdateProfileRequest struct {
	FullName  *string `json:"full_name"`
	UpiID     *string `json:"upi_id"`
	AvatarURL *string `json:"avatar_url"`
}

// ProfileResponse represents GET and PUT /api/profile.
// Profile is null until the user saves one.
type ProfileResponse struct {
	Profile  *model.Profile `json:"profile"`
	Complete bool           `json:"complete"`
}

// ToProfileResponse converts a possibly nil profile to the response DTO.
func ToProfileResponse(p *model.Profile) *ProfileResponse {
	return &ProfileResponse{Profile: p, Complete: p.IsComplete()}
}

package model

import "time"

// Profile holds the self-service details of a user. It is keyed by the user ID
// and may not exist yet for a freshly signed-in user.
type Profile struct {
	ID        string    `json:"id"`
	FullName  *string   `json:"full_name"`
	UpiID     *string   `json:"upi_id"`
	AvatarURL *string   `json:"avatar_url"`
	UpdatedAt time.Time `json:"-"`
}

// IsComplete reports whether the profile has the details other members need
// to recognise and settle with the user.
func (p *Profile) IsComplete() bool {
	return p != nil && p.FullName != nil && *p.FullName != ""
}

// FirstName returns the first word of the full name, or "" when unset.
func (p *Profile) FirstName() string {
	if p == nil || p.FullName == nil {
		return ""
	}
	name := *p.FullName
	for i, r := range name {
		if r == ' ' {
			return name[:i]
		}
	}
	return name
}

// PublicProfile is the subset of a profile shown to other group members.
// The UPI ID is deliberately left out.
type PublicProfile struct {
	ID        string  `json:"id"`
	FullName  *string `json:"full_name"`
	AvatarURL *string `json:"avatar_url"`
}

// Public converts a Profile to its member-visible form. A nil profile stays nil.
func (p *Profile) Public() *PublicProfile {
	if p == nil {
		return nil
	}
	return &PublicProfile{
		ID:        p.ID,
		FullName:  p.FullName,
		AvatarURL: p.AvatarURL,
	}
}

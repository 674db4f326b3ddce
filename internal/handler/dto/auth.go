package dto

// MagicLinkRequest represents the request body for POST /auth/magic-link.
type MagicLinkRequest struct {
	Email    string `json:"email"`
	Redirect string `json:"redirect,omitempty"`
}

// MagicLinkSentMessage acknowledges a magic-link request.
const MagicLinkSentMessage = "Check your email for a magic link to sign in."

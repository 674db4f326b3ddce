// Package model defines domain entities for the application.
package model

import "time"

// User is the identity record created on the first successful magic-link sign-in.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

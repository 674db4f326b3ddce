package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/oklog/ulid/v2"
)

const (
	magicLinkIssuer   = "splitkar"
	magicLinkAudience = "magic-link"
)

var (
	// ErrInvalidCode is returned for codes that fail signature or claim checks.
	ErrInvalidCode = errors.New("invalid sign-in code")
	// ErrCodeExpired is returned for codes past their expiry.
	ErrCodeExpired = errors.New("sign-in code expired")
)

// MagicLinkClaims are the claims carried by a magic-link code.
type MagicLinkClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// MagicLinkIssuer issues and verifies signed, short-lived magic-link codes.
// Single use is enforced by the caller using the claims' ID.
type MagicLinkIssuer struct {
	key []byte
	ttl time.Duration
	now func() time.Time
}

// NewMagicLinkIssuer creates a MagicLinkIssuer signing with HS256.
func NewMagicLinkIssuer(key []byte, ttl time.Duration) *MagicLinkIssuer {
	return &MagicLinkIssuer{
		key: key,
		ttl: ttl,
		now: time.Now,
	}
}

// Issue creates a code for email.
func (m *MagicLinkIssuer) Issue(email string) (string, *MagicLinkClaims, error) {
	now := m.now()
	claims := &MagicLinkClaims{
		Email: strings.ToLower(email),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        ulid.Make().String(),
			Issuer:    magicLinkIssuer,
			Audience:  jwt.ClaimStrings{magicLinkAudience},
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}

	code, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.key)
	if err != nil {
		return "", nil, fmt.Errorf("failed to sign code: %w", err)
	}
	return code, claims, nil
}

// Verify parses code and checks its signature, issuer, audience and expiry.
func (m *MagicLinkIssuer) Verify(code string) (*MagicLinkClaims, error) {
	claims := &MagicLinkClaims{}
	token, err := jwt.ParseWithClaims(code, claims,
		func(token *jwt.Token) (interface{}, error) {
			return m.key, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(magicLinkIssuer),
		jwt.WithAudience(magicLinkAudience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrCodeExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidCode, err)
	}
	if !token.Valid || claims.Email == "" || claims.ID == "" {
		return nil, ErrInvalidCode
	}
	return claims, nil
}

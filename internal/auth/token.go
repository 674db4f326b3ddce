// Package auth provides session token and magic-link code primitives.
package auth

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"

	"golang.org/x/crypto/blake2b"
)

// SessionTokenBytes is the amount of entropy in a session token.
const SessionTokenBytes = 32

var (
	// ErrInvalidTokenFormat indicates a cookie value that cannot be a session token.
	ErrInvalidTokenFormat = errors.New("invalid session token format")
	// ErrInvalidKey indicates a digest key of unusable length.
	ErrInvalidKey = errors.New("digest key must be 1 to 64 bytes")
)

// GenerateSessionToken returns a new random, URL-safe session token.
func GenerateSessionToken() (string, error) {
	b := make([]byte, SessionTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate session token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// ValidateTokenFormat rejects values that were not produced by GenerateSessionToken.
// It avoids a store round trip for garbage cookies.
func ValidateTokenFormat(token string) error {
	if token == "" {
		return ErrInvalidTokenFormat
	}
	b, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil || len(b) != SessionTokenBytes {
		return ErrInvalidTokenFormat
	}
	return nil
}

// Digester computes keyed BLAKE2b-256 digests of secrets.
// Session tokens are only ever stored under their digest.
type Digester struct {
	key []byte
}

// NewDigester creates a Digester with the given key.
func NewDigester(key []byte) (*Digester, error) {
	if len(key) == 0 || len(key) > blake2b.Size {
		return nil, ErrInvalidKey
	}
	return &Digester{key: append([]byte(nil), key...)}, nil
}

// Digest returns the hex-encoded keyed digest of value.
func (d *Digester) Digest(value string) string {
	h, err := blake2b.New256(d.key)
	if err != nil {
		// key length is checked in NewDigester
		panic(err)
	}
	h.Write([]byte(value))
	return hex.EncodeToString(h.Sum(nil))
}

// DeriveKey derives a 32-byte key for one purpose from the master secret,
// so that session digests and magic-link signatures never share a key.
func DeriveKey(secret, purpose string) []byte {
	master := blake2b.Sum256([]byte(secret))
	h, err := blake2b.New256(master[:])
	if err != nil {
		panic(err)
	}
	h.Write([]byte(purpose))
	return h.Sum(nil)
}

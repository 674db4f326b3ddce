package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/splitkar/splitkar/internal/model"
)

const (
	// sessionKeyPrefix is the Redis key prefix for sessions, keyed by token digest.
	sessionKeyPrefix = "session:"
)

// ErrSessionNotFound is returned when no live session exists for a digest.
var ErrSessionNotFound = errors.New("session not found")

// cachedSession is the JSON form of a session stored in Redis.
type cachedSession struct {
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// SetSession stores a session under the digest of its token.
// The key expires together with the session.
func (c *Cache) SetSession(ctx context.Context, digest string, session *model.Session) error {
	ttl := time.Until(session.ExpiresAt)
	if ttl <= 0 {
		return c.DeleteSession(ctx, digest)
	}

	data, err := json.Marshal(cachedSession{
		UserID:    session.UserID,
		Email:     session.Email,
		CreatedAt: session.CreatedAt,
		ExpiresAt: session.ExpiresAt,
	})
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	if err := c.client.Set(ctx, sessionKeyPrefix+digest, data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set session: %w", err)
	}
	return nil
}

// GetSession retrieves a session by token digest.
// Returns ErrSessionNotFound if absent or expired.
func (c *Cache) GetSession(ctx context.Context, digest string) (*model.Session, error) {
	data, err := c.client.Get(ctx, sessionKeyPrefix+digest).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("redis get session: %w", err)
	}

	var cached cachedSession
	if err := json.Unmarshal(data, &cached); err != nil {
		// Corrupted entry - treat as absent
		return nil, ErrSessionNotFound
	}

	return &model.Session{
		UserID:    cached.UserID,
		Email:     cached.Email,
		CreatedAt: cached.CreatedAt,
		ExpiresAt: cached.ExpiresAt,
	}, nil
}

// DeleteSession removes a session. Deleting an absent session is not an error.
func (c *Cache) DeleteSession(ctx context.Context, digest string) error {
	if err := c.client.Del(ctx, sessionKeyPrefix+digest).Err(); err != nil {
		return fmt.Errorf("redis delete session: %w", err)
	}
	return nil
}

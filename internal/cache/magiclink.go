package cache

import (
	"context"
	"fmt"
	"time"
)

const (
	// usedCodeKeyPrefix marks magic-link code IDs that were already exchanged.
	usedCodeKeyPrefix = "magiclink:used:"
	// minUsedCodeTTL keeps markers around for codes that are about to expire.
	minUsedCodeTTL = time.Second
)

// ConsumeCode atomically marks a code ID as used for ttl.
// It returns false if the code had already been consumed.
func (c *Cache) ConsumeCode(ctx context.Context, codeID string, ttl time.Duration) (bool, error) {
	if ttl < minUsedCodeTTL {
		ttl = minUsedCodeTTL
	}

	ok, err := c.client.SetNX(ctx, usedCodeKeyPrefix+codeID, 1, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis setnx code: %w", err)
	}
	return ok, nil
}

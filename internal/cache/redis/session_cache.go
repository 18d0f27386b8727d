package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/betswarm/betswarm/internal/domain"
)

// SessionCache implements domain.SessionCache. The last known-good session
// artifacts per account are stored as JSON under the caller's TTL, and
// evicted when a handshake fails so stale tokens never outlive the account's
// standing with the bookmaker.
type SessionCache struct {
	rdb *redis.Client
}

// NewSessionCache creates a SessionCache backed by the given Client.
func NewSessionCache(c *Client) *SessionCache {
	return &SessionCache{rdb: c.rdb}
}

func sessionKey(accountID string) string {
	return "session:" + accountID
}

// Put stores an account session with the given TTL.
func (sc *SessionCache) Put(ctx context.Context, accountID string, sess domain.Session, ttl time.Duration) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("redis: encode session %s: %w", accountID, err)
	}
	if err := sc.rdb.Set(ctx, sessionKey(accountID), data, ttl).Err(); err != nil {
		return fmt.Errorf("redis: put session %s: %w", accountID, err)
	}
	return nil
}

// Invalidate drops the cached session after a failed handshake.
func (sc *SessionCache) Invalidate(ctx context.Context, accountID string) error {
	if err := sc.rdb.Del(ctx, sessionKey(accountID)).Err(); err != nil {
		return fmt.Errorf("redis: invalidate session %s: %w", accountID, err)
	}
	return nil
}

// Compile-time interface check.
var _ domain.SessionCache = (*SessionCache)(nil)

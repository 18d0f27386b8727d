package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/betswarm/betswarm/internal/domain"
)

// authFailTTL bounds how long a failure streak is remembered. A streak that
// goes quiet for a day starts over.
const authFailTTL = 24 * time.Hour

// FailureCounter implements domain.FailureCounter with a per-account Redis
// counter, shared across processes so every worker sees the same streak.
type FailureCounter struct {
	rdb *redis.Client
}

// NewFailureCounter creates a FailureCounter backed by the given Client.
func NewFailureCounter(c *Client) *FailureCounter {
	return &FailureCounter{rdb: c.rdb}
}

func authFailKey(accountID string) string {
	return "authfail:" + accountID
}

// Bump increments the account's consecutive auth-failure streak and returns
// the new count.
func (fc *FailureCounter) Bump(ctx context.Context, accountID string) (int, error) {
	key := authFailKey(accountID)

	pipe := fc.rdb.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, authFailTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("redis: bump auth failures %s: %w", accountID, err)
	}
	return int(incr.Val()), nil
}

// Reset clears the account's streak.
func (fc *FailureCounter) Reset(ctx context.Context, accountID string) error {
	if err := fc.rdb.Del(ctx, authFailKey(accountID)).Err(); err != nil {
		return fmt.Errorf("redis: reset auth failures %s: %w", accountID, err)
	}
	return nil
}

// Compile-time interface check.
var _ domain.FailureCounter = (*FailureCounter)(nil)

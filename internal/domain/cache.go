package domain

import (
	"context"
	"time"
)

// SessionCache keeps the last known-good session artifacts per account with
// a TTL. Every pipeline reruns the full handshake, so there is no read path:
// the pipeline writes fresh artifacts after placing and evicts them when the
// handshake fails.
type SessionCache interface {
	Put(ctx context.Context, accountID string, sess Session, ttl time.Duration) error
	Invalidate(ctx context.Context, accountID string) error
}

// RateLimiter provides distributed rate limiting for outbound platform
// calls, keyed per site.
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
	Wait(ctx context.Context, key string) error
}

// LockManager provides distributed locking. The placement pipeline holds a
// per-account lock for its duration so concurrent rounds never share an
// account's mutable session state.
type LockManager interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (unlock func(), err error)
}

// FailureCounter tracks consecutive authentication failures per account so
// repeated offenders can be deactivated. Bump returns the new count; Reset
// clears it after any successful handshake.
type FailureCounter interface {
	Bump(ctx context.Context, accountID string) (int, error)
	Reset(ctx context.Context, accountID string) error
}

// EventBus provides pub/sub fan-out of round progress events to the
// WebSocket hub and any other subscriber.
type EventBus interface {
	Publish(ctx context.Context, channel string, payload []byte) error
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)
}

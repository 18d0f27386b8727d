package domain

import (
	"context"
	"time"
)

// ListOpts provides pagination for list queries.
type ListOpts struct {
	Limit  int
	Offset int
	Since  *time.Time
	Until  *time.Time
}

// AccountStore persists the account directory. Save writes back the mutated
// session artifacts and last known balance after each auth/balance call.
type AccountStore interface {
	Find(ctx context.Context, filter AccountFilter) ([]Account, error)
	GetByID(ctx context.Context, id string) (Account, error)
	Create(ctx context.Context, acct Account) error
	Save(ctx context.Context, acct Account) error
	Deactivate(ctx context.Context, id string) error
}

// RoundStore persists placement round aggregates.
type RoundStore interface {
	Create(ctx context.Context, round Round) error
	GetByID(ctx context.Context, id string) (Round, error)
	// UpdateStats recomputes the round's counters, average price, potential
	// win, status, and per-platform summary from its tickets inside one
	// transaction, and returns the refreshed round.
	UpdateStats(ctx context.Context, roundID string) (Round, error)
	SetOddsAdjusted(ctx context.Context, roundID string) error
	SetWallTime(ctx context.Context, roundID string, wallTimeMs int64) error
	ListRecent(ctx context.Context, opts ListOpts) ([]Round, error)
}

// TicketStore persists per-account placement tickets.
type TicketStore interface {
	Create(ctx context.Context, t Ticket) error
	GetByID(ctx context.Context, id string) (Ticket, error)
	ListByRound(ctx context.Context, roundID string) ([]Ticket, error)
	SetArchiveKey(ctx context.Context, id string, key string) error
}

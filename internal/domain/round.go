package domain

import "time"

// RoundStatus tracks the lifecycle of one multi-account placement round.
type RoundStatus string

const (
	RoundStatusPending   RoundStatus = "pending"
	RoundStatusCompleted RoundStatus = "completed"
	RoundStatusPartial   RoundStatus = "partial"
	RoundStatusFailed    RoundStatus = "failed"
)

// Round is the aggregate record for one decision to place the same wager
// across multiple accounts. Counters and derived statistics are recomputed
// from the round's tickets as they land; once terminal the round is frozen.
type Round struct {
	ID    string
	Owner string
	Kind  WagerKind

	StakeCents      int64 // per-account stake
	TotalStakeCents int64 // sum over all attempted tickets

	// Legs is the wager definition this round fanned out, kept so a failed
	// ticket can be retried without the original request.
	Legs []Leg

	TicketsTotal     int
	TicketsSucceeded int
	TicketsFailed    int

	AveragePrice      float64 // mean realized price over succeeded tickets
	PotentialWinCents int64   // sum over succeeded tickets
	ActualWinCents    int64   // filled by settlement, out of scope here
	WallTimeMs        int64   // fan-out wall clock, bounded by the slowest pipeline

	Status       RoundStatus
	OddsAdjusted bool

	// Config is the free-form placement configuration snapshot, and
	// PlatformSummary the per-platform success/failure breakdown. Both are
	// persisted as JSONB.
	Config          map[string]any
	PlatformSummary map[string]PlatformStat

	CreatedAt   time.Time
	UpdatedAt   time.Time
	CompletedAt *time.Time
}

// PlatformStat is the per-platform slice of a round summary.
type PlatformStat struct {
	Attempted int `json:"attempted"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
}

// Terminal reports whether every attempted ticket has landed.
func (r Round) Terminal() bool {
	return r.TicketsTotal > 0 && r.TicketsSucceeded+r.TicketsFailed == r.TicketsTotal
}

// SuccessRatio returns succeeded/total, or 0 for an empty round.
func (r Round) SuccessRatio() float64 {
	if r.TicketsTotal == 0 {
		return 0
	}
	return float64(r.TicketsSucceeded) / float64(r.TicketsTotal)
}

// RoundStatusFor derives the round status from its counters. A round stays
// pending until every ticket has landed; there is no transition back.
func RoundStatusFor(succeeded, failed, total int) RoundStatus {
	if total == 0 || succeeded+failed < total {
		return RoundStatusPending
	}
	switch {
	case failed == 0:
		return RoundStatusCompleted
	case succeeded == 0:
		return RoundStatusFailed
	default:
		return RoundStatusPartial
	}
}

package domain

import (
	"encoding/json"
	"time"
)

// TicketStatus tracks the per-account receipt lifecycle. Placement only ever
// creates pending or failed tickets; won/lost/cancelled/refunded transitions
// belong to the settlement collaborator.
type TicketStatus string

const (
	TicketStatusPending   TicketStatus = "pending"
	TicketStatusWon       TicketStatus = "won"
	TicketStatusLost      TicketStatus = "lost"
	TicketStatusCancelled TicketStatus = "cancelled"
	TicketStatusRefunded  TicketStatus = "refunded"
	TicketStatusFailed    TicketStatus = "failed"
)

// Ticket is the per-account receipt of one attempted wager placement. Every
// ticket references exactly one round and one account; the stake is fixed at
// creation. A failed ticket keeps its intended stake so the round's exposure
// accounting stays accurate.
type Ticket struct {
	ID         string
	RoundID    string
	AccountID  string
	Platform   PlatformFamily
	Site       string
	ExternalID string // platform-issued ticket id, empty on failure

	StakeCents        int64
	Price             float64 // realized combined price
	PotentialWinCents int64
	ActualWinCents    int64

	BalanceBeforeCents int64
	BalanceAfterCents  int64

	Status TicketStatus

	// RawPayload is the adapter response exactly as received; the archived
	// copy in blob storage is keyed by ArchiveKey.
	RawPayload json.RawMessage
	ArchiveKey string

	ErrorKind string // classified kind, empty on success
	ErrorText string

	// Legs carries the normalized event/market/selection display metadata.
	Legs []TicketLeg

	ElapsedMs int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TicketLeg is the normalized leg metadata attached to a ticket.
type TicketLeg struct {
	EventName     string  `json:"event_name"`
	LeagueName    string  `json:"league_name"`
	SportName     string  `json:"sport_name"`
	MarketName    string  `json:"market_name"`
	SelectionName string  `json:"selection_name"`
	Price         float64 `json:"price"`
}

// Succeeded reports whether the placement attempt produced a live ticket.
func (t Ticket) Succeeded() bool {
	return t.Status == TicketStatusPending && t.ExternalID != ""
}

package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/betswarm/betswarm/internal/domain"
)

// QueryService serves the read-only surface: rounds, tickets, accounts, and
// archived payloads.
type QueryService struct {
	accounts domain.AccountStore
	rounds   domain.RoundStore
	tickets  domain.TicketStore
	archiver domain.PayloadArchiver // optional
	logger   *slog.Logger
}

// NewQueryService creates a QueryService. The archiver is optional.
func NewQueryService(
	accounts domain.AccountStore,
	rounds domain.RoundStore,
	tickets domain.TicketStore,
	archiver domain.PayloadArchiver,
	logger *slog.Logger,
) *QueryService {
	return &QueryService{
		accounts: accounts,
		rounds:   rounds,
		tickets:  tickets,
		archiver: archiver,
		logger:   logger.With(slog.String("component", "query_service")),
	}
}

// Round returns one round with its tickets.
func (s *QueryService) Round(ctx context.Context, id string) (RoundResult, error) {
	round, err := s.rounds.GetByID(ctx, id)
	if err != nil {
		return RoundResult{}, err
	}
	tickets, err := s.tickets.ListByRound(ctx, id)
	if err != nil {
		return RoundResult{}, err
	}
	return RoundResult{Round: round, Tickets: tickets}, nil
}

// Rounds lists recent rounds.
func (s *QueryService) Rounds(ctx context.Context, opts domain.ListOpts) ([]domain.Round, error) {
	return s.rounds.ListRecent(ctx, opts)
}

// RoundTickets lists a round's tickets, verifying the round exists first.
func (s *QueryService) RoundTickets(ctx context.Context, roundID string) ([]domain.Ticket, error) {
	if _, err := s.rounds.GetByID(ctx, roundID); err != nil {
		return nil, err
	}
	return s.tickets.ListByRound(ctx, roundID)
}

// Accounts returns the account directory view.
func (s *QueryService) Accounts(ctx context.Context, filter domain.AccountFilter) ([]domain.Account, error) {
	return s.accounts.Find(ctx, filter)
}

// TicketPayload returns the raw platform payload for a ticket, preferring
// the archived copy and falling back to the hot row.
func (s *QueryService) TicketPayload(ctx context.Context, ticketID string) ([]byte, error) {
	t, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}

	if t.ArchiveKey != "" && s.archiver != nil {
		data, err := s.archiver.FetchPayload(ctx, t.ArchiveKey)
		if err == nil {
			return data, nil
		}
		s.logger.WarnContext(ctx, "archived payload fetch failed, using hot copy",
			slog.String("ticket_id", ticketID),
			slog.String("error", err.Error()),
		)
	}

	if len(t.RawPayload) == 0 {
		return nil, fmt.Errorf("service: ticket %s has no payload: %w", ticketID, domain.ErrNotFound)
	}
	return []byte(t.RawPayload), nil
}

// Package service wires the placement machinery to the stores, the archive,
// and the event surfaces. Handlers call services; services never touch HTTP.
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/betswarm/betswarm/internal/domain"
	"github.com/betswarm/betswarm/internal/normalize"
	"github.com/betswarm/betswarm/internal/notify"
	"github.com/betswarm/betswarm/internal/placement"
)

// EventChannel is the pub/sub channel all round progress events go out on.
const EventChannel = "rounds.events"

// defaultAuthFailLimit deactivates an account after this many consecutive
// authentication failures.
const defaultAuthFailLimit = 3

// Placer runs one multi-account fan-out. The orchestrator implements it.
type Placer interface {
	Place(ctx context.Context, accounts []domain.Account, spec *domain.WagerSpec) (*placement.Result, error)
}

// PlaceRequest describes one round to run.
type PlaceRequest struct {
	Owner      string
	Site       string   // optional site filter
	AccountIDs []string // optional explicit account set
	Legs       []domain.Leg
	StakeCents int64
	Kind       domain.WagerKind // derived from leg count when empty
}

// RoundResult is the consolidated outcome handed back to the caller.
type RoundResult struct {
	Round   domain.Round
	Tickets []domain.Ticket
}

// PlacementService runs rounds end to end: account selection, fan-out,
// normalization, persistence, archival, and event fan-out.
type PlacementService struct {
	accounts domain.AccountStore
	rounds   domain.RoundStore
	tickets  domain.TicketStore
	placer   Placer
	archiver domain.PayloadArchiver // optional
	bus      domain.EventBus        // optional
	failures domain.FailureCounter  // optional
	notifier *notify.Notifier       // optional

	authFailLimit int
	logger        *slog.Logger
}

// NewPlacementService creates a PlacementService. Archiver, event bus,
// failure counter, and notifier are optional; pass nil to run without them.
func NewPlacementService(
	accounts domain.AccountStore,
	rounds domain.RoundStore,
	tickets domain.TicketStore,
	placer Placer,
	archiver domain.PayloadArchiver,
	bus domain.EventBus,
	failures domain.FailureCounter,
	notifier *notify.Notifier,
	logger *slog.Logger,
) *PlacementService {
	return &PlacementService{
		accounts:      accounts,
		rounds:        rounds,
		tickets:       tickets,
		placer:        placer,
		archiver:      archiver,
		bus:           bus,
		failures:      failures,
		notifier:      notifier,
		authFailLimit: defaultAuthFailLimit,
		logger:        logger.With(slog.String("component", "placement_service")),
	}
}

// PlaceRound runs one full round and returns the consolidated result. The
// round record exists before any pipeline starts, so a crash mid-round
// leaves an inspectable pending round rather than orphaned tickets.
func (s *PlacementService) PlaceRound(ctx context.Context, req PlaceRequest) (RoundResult, error) {
	spec, err := buildSpec(req)
	if err != nil {
		return RoundResult{}, err
	}

	accounts, err := s.accounts.Find(ctx, domain.AccountFilter{
		Site:       req.Site,
		IDs:        req.AccountIDs,
		ActiveOnly: true,
	})
	if err != nil {
		return RoundResult{}, fmt.Errorf("service: select accounts: %w", err)
	}
	if len(accounts) == 0 {
		return RoundResult{}, fmt.Errorf("service: no active accounts match the request: %w", domain.ErrNotFound)
	}

	round := domain.Round{
		ID:           uuid.New().String(),
		Owner:        req.Owner,
		Kind:         spec.Kind(),
		StakeCents:   spec.StakeCents(),
		Legs:         spec.Legs(),
		TicketsTotal: len(accounts),
		Status:       domain.RoundStatusPending,
		Config: map[string]any{
			"site_filter": req.Site,
			"account_ids": req.AccountIDs,
			"legs":        len(spec.Legs()),
		},
	}
	if err := s.rounds.Create(ctx, round); err != nil {
		return RoundResult{}, fmt.Errorf("service: create round: %w", err)
	}

	s.logger.InfoContext(ctx, "round started",
		slog.String("round_id", round.ID),
		slog.Int("accounts", len(accounts)),
		slog.Int64("stake_cents", round.StakeCents),
		slog.String("kind", string(round.Kind)),
	)

	result, err := s.placer.Place(ctx, accounts, spec)
	if err != nil {
		return RoundResult{}, fmt.Errorf("service: place round %s: %w", round.ID, err)
	}

	byID := make(map[string]domain.Account, len(accounts))
	for _, a := range accounts {
		byID[a.ID] = a
	}

	var ticketList []domain.Ticket
	for _, out := range result.Outcomes {
		ticket := normalize.Normalize(normalize.Input{
			RoundID:       round.ID,
			AccountID:     out.AccountID,
			Site:          out.Site,
			Family:        out.Family,
			StakeCents:    round.StakeCents,
			BalanceBefore: out.BalanceBefore,
			BalanceAfter:  out.BalanceAfter,
			Raw:           out.Raw,
			Err:           out.Err,
			Elapsed:       out.Elapsed,
		})
		if err := s.tickets.Create(ctx, ticket); err != nil {
			return RoundResult{}, fmt.Errorf("service: persist ticket for account %s: %w", out.AccountID, err)
		}
		ticketList = append(ticketList, ticket)

		s.writeBackAccount(ctx, byID[out.AccountID], out)
		s.trackAuthFailures(ctx, out.AccountID, ticket)
		s.archiveTicket(ctx, ticket)
		s.publishEvent(ctx, "ticket", round.ID, ticket)
	}

	if result.OddsAdjusted {
		if err := s.rounds.SetOddsAdjusted(ctx, round.ID); err != nil {
			s.logger.WarnContext(ctx, "set odds adjusted failed",
				slog.String("round_id", round.ID),
				slog.String("error", err.Error()),
			)
		}
	}

	if err := s.rounds.SetWallTime(ctx, round.ID, result.WallTime.Milliseconds()); err != nil {
		s.logger.WarnContext(ctx, "set wall time failed",
			slog.String("round_id", round.ID),
			slog.String("error", err.Error()),
		)
	}

	refreshed, err := s.rounds.UpdateStats(ctx, round.ID)
	if err != nil {
		return RoundResult{}, fmt.Errorf("service: finalize round %s: %w", round.ID, err)
	}

	s.publishEvent(ctx, "round", refreshed.ID, refreshed)
	s.notifyRound(ctx, refreshed)

	s.logger.InfoContext(ctx, "round finished",
		slog.String("round_id", refreshed.ID),
		slog.String("status", string(refreshed.Status)),
		slog.Int("succeeded", refreshed.TicketsSucceeded),
		slog.Int("failed", refreshed.TicketsFailed),
		slog.Float64("avg_price", refreshed.AveragePrice),
		slog.Int64("potential_win_cents", refreshed.PotentialWinCents),
		slog.Int64("wall_time_ms", refreshed.WallTimeMs),
	)
	return RoundResult{Round: refreshed, Tickets: ticketList}, nil
}

// RetryTicket reruns the pipeline for one failed ticket. Only failed tickets
// with a recoverable error kind may be retried; the rerun lands as a new
// ticket in the same round and the round's statistics are recomputed.
func (s *PlacementService) RetryTicket(ctx context.Context, ticketID string) (RoundResult, error) {
	orig, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return RoundResult{}, err
	}
	if orig.Status != domain.TicketStatusFailed {
		return RoundResult{}, fmt.Errorf("service: ticket %s is not failed: %w", ticketID, domain.ErrNotRecoverable)
	}
	if !recoverableKind(orig.ErrorKind) {
		return RoundResult{}, fmt.Errorf("service: error kind %s: %w", orig.ErrorKind, domain.ErrNotRecoverable)
	}

	round, err := s.rounds.GetByID(ctx, orig.RoundID)
	if err != nil {
		return RoundResult{}, err
	}
	if round.Status == domain.RoundStatusCompleted {
		return RoundResult{}, fmt.Errorf("service: round %s has no failures left: %w", round.ID, domain.ErrRoundTerminal)
	}

	acct, err := s.accounts.GetByID(ctx, orig.AccountID)
	if err != nil {
		return RoundResult{}, err
	}
	if !acct.Active {
		return RoundResult{}, fmt.Errorf("service: account %s is deactivated: %w", acct.ID, domain.ErrNotRecoverable)
	}

	spec, err := specFromRound(round)
	if err != nil {
		return RoundResult{}, err
	}

	result, err := s.placer.Place(ctx, []domain.Account{acct}, spec)
	if err != nil {
		return RoundResult{}, fmt.Errorf("service: retry ticket %s: %w", ticketID, err)
	}

	out := result.Outcomes[0]
	ticket := normalize.Normalize(normalize.Input{
		RoundID:       round.ID,
		AccountID:     out.AccountID,
		Site:          out.Site,
		Family:        out.Family,
		StakeCents:    orig.StakeCents,
		BalanceBefore: out.BalanceBefore,
		BalanceAfter:  out.BalanceAfter,
		Raw:           out.Raw,
		Err:           out.Err,
		Elapsed:       out.Elapsed,
	})
	if err := s.tickets.Create(ctx, ticket); err != nil {
		return RoundResult{}, fmt.Errorf("service: persist retry ticket: %w", err)
	}

	s.writeBackAccount(ctx, acct, out)
	s.trackAuthFailures(ctx, out.AccountID, ticket)
	s.archiveTicket(ctx, ticket)
	s.publishEvent(ctx, "ticket", round.ID, ticket)

	refreshed, err := s.rounds.UpdateStats(ctx, round.ID)
	if err != nil {
		return RoundResult{}, fmt.Errorf("service: finalize round %s: %w", round.ID, err)
	}
	s.publishEvent(ctx, "round", refreshed.ID, refreshed)

	return RoundResult{Round: refreshed, Tickets: []domain.Ticket{ticket}}, nil
}

// buildSpec validates the request into an immutable wager spec.
func buildSpec(req PlaceRequest) (*domain.WagerSpec, error) {
	b := domain.NewWagerBuilder()
	for _, leg := range req.Legs {
		b.AddLeg(leg)
	}
	spec, err := b.Stake(req.StakeCents).Build()
	if err != nil {
		return nil, fmt.Errorf("service: invalid wager: %w", err)
	}
	return spec, nil
}

// specFromRound rebuilds the wager spec a retry needs from the legs the
// round persisted at creation.
func specFromRound(round domain.Round) (*domain.WagerSpec, error) {
	if len(round.Legs) == 0 {
		return nil, fmt.Errorf("service: round %s carries no legs to retry: %w", round.ID, domain.ErrNotRecoverable)
	}
	b := domain.NewWagerBuilder()
	for _, leg := range round.Legs {
		b.AddLeg(leg)
	}
	spec, err := b.Stake(round.StakeCents).Build()
	if err != nil {
		return nil, fmt.Errorf("service: rebuild wager for retry: %w", err)
	}
	return spec, nil
}

// writeBackAccount persists refreshed session artifacts and the last
// observed balance. Best effort: a write-back failure never fails the round.
func (s *PlacementService) writeBackAccount(ctx context.Context, acct domain.Account, out placement.Outcome) {
	if acct.ID == "" {
		return
	}
	changed := false
	if !out.Session.Empty() {
		acct.Session = out.Session
		changed = true
	}
	if out.Success {
		now := time.Now().UTC()
		acct.BalanceCents = out.BalanceAfter
		acct.BalanceAt = &now
		changed = true
	}
	if !changed {
		return
	}
	if err := s.accounts.Save(ctx, acct); err != nil {
		s.logger.WarnContext(ctx, "account write-back failed",
			slog.String("account_id", acct.ID),
			slog.String("error", err.Error()),
		)
	}
}

// trackAuthFailures bumps the consecutive auth-failure streak on
// authentication errors and deactivates the account once the streak reaches
// the limit. Any other outcome resets the streak.
func (s *PlacementService) trackAuthFailures(ctx context.Context, accountID string, t domain.Ticket) {
	if s.failures == nil {
		return
	}

	if t.ErrorKind != string(domain.KindAuthentication) {
		if err := s.failures.Reset(ctx, accountID); err != nil {
			s.logger.WarnContext(ctx, "auth failure reset failed",
				slog.String("account_id", accountID),
				slog.String("error", err.Error()),
			)
		}
		return
	}

	count, err := s.failures.Bump(ctx, accountID)
	if err != nil {
		s.logger.WarnContext(ctx, "auth failure bump failed",
			slog.String("account_id", accountID),
			slog.String("error", err.Error()),
		)
		return
	}
	if count < s.authFailLimit {
		return
	}

	if err := s.accounts.Deactivate(ctx, accountID); err != nil {
		s.logger.ErrorContext(ctx, "account deactivation failed",
			slog.String("account_id", accountID),
			slog.String("error", err.Error()),
		)
		return
	}
	s.logger.WarnContext(ctx, "account deactivated after repeated auth failures",
		slog.String("account_id", accountID),
		slog.Int("failures", count),
	)
}

// archiveTicket uploads the raw payload to cold storage and records the key.
// Best effort: the hot row already carries the payload.
func (s *PlacementService) archiveTicket(ctx context.Context, t domain.Ticket) {
	if s.archiver == nil || len(t.RawPayload) == 0 {
		return
	}
	key, err := s.archiver.ArchiveTicket(ctx, t)
	if err != nil {
		s.logger.WarnContext(ctx, "payload archive failed",
			slog.String("ticket_id", t.ID),
			slog.String("error", err.Error()),
		)
		return
	}
	if key == "" {
		return
	}
	if err := s.tickets.SetArchiveKey(ctx, t.ID, key); err != nil {
		s.logger.WarnContext(ctx, "archive key write failed",
			slog.String("ticket_id", t.ID),
			slog.String("error", err.Error()),
		)
	}
}

// Event is the envelope published on EventChannel as tickets land and
// rounds finish.
type Event struct {
	Type    string          `json:"type"` // "ticket" or "round"
	RoundID string          `json:"round_id"`
	At      time.Time       `json:"at"`
	Payload json.RawMessage `json:"payload"`
}

func (s *PlacementService) publishEvent(ctx context.Context, kind, roundID string, payload any) {
	if s.bus == nil {
		return
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return
	}
	ev, err := json.Marshal(Event{
		Type:    kind,
		RoundID: roundID,
		At:      time.Now().UTC(),
		Payload: body,
	})
	if err != nil {
		return
	}
	if err := s.bus.Publish(ctx, EventChannel, ev); err != nil {
		s.logger.WarnContext(ctx, "event publish failed",
			slog.String("round_id", roundID),
			slog.String("error", err.Error()),
		)
	}
}

func (s *PlacementService) notifyRound(ctx context.Context, r domain.Round) {
	if s.notifier == nil {
		return
	}
	title, message := notify.RoundMessage(r)
	if err := s.notifier.Notify(ctx, notify.RoundEvent(r), title, message); err != nil {
		s.logger.WarnContext(ctx, "round notification failed",
			slog.String("round_id", r.ID),
			slog.String("error", err.Error()),
		)
	}
}

func recoverableKind(kind string) bool {
	switch domain.ErrorKind(kind) {
	case domain.KindOddsChanged, domain.KindNetworkError:
		return true
	default:
		return false
	}
}

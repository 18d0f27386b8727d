package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/betswarm/betswarm/internal/domain"
)

// TicketStore implements domain.TicketStore using PostgreSQL.
type TicketStore struct {
	pool *pgxpool.Pool
}

// NewTicketStore creates a new TicketStore backed by the given pool.
func NewTicketStore(pool *pgxpool.Pool) *TicketStore {
	return &TicketStore{pool: pool}
}

const ticketSelectCols = `id, round_id, account_id, platform, site, external_id,
	stake_cents, price, potential_win_cents, actual_win_cents,
	balance_before_cents, balance_after_cents,
	status, raw_payload, archive_key, error_kind, error_text,
	legs, elapsed_ms, created_at, updated_at`

// Create inserts a new ticket.
func (s *TicketStore) Create(ctx context.Context, t domain.Ticket) error {
	legsJSON, err := json.Marshal(t.Legs)
	if err != nil {
		return fmt.Errorf("postgres: encode ticket legs: %w", err)
	}

	var raw []byte
	if len(t.RawPayload) > 0 && json.Valid(t.RawPayload) {
		raw = t.RawPayload
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO tickets (
			id, round_id, account_id, platform, site, external_id,
			stake_cents, price, potential_win_cents, actual_win_cents,
			balance_before_cents, balance_after_cents,
			status, raw_payload, archive_key, error_kind, error_text,
			legs, elapsed_ms, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10,
			$11, $12, $13, $14, $15, $16, $17, $18, $19, NOW(), NOW())`,
		t.ID, t.RoundID, t.AccountID, string(t.Platform), t.Site, t.ExternalID,
		t.StakeCents, t.Price, t.PotentialWinCents, t.ActualWinCents,
		t.BalanceBeforeCents, t.BalanceAfterCents,
		string(t.Status), raw, t.ArchiveKey, t.ErrorKind, t.ErrorText,
		legsJSON, t.ElapsedMs,
	)
	if err != nil {
		return fmt.Errorf("postgres: create ticket %s: %w", t.ID, err)
	}
	return nil
}

// GetByID returns one ticket or domain.ErrNotFound.
func (s *TicketStore) GetByID(ctx context.Context, id string) (domain.Ticket, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+ticketSelectCols+` FROM tickets WHERE id = $1`, id)

	t, err := scanTicket(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Ticket{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Ticket{}, fmt.Errorf("postgres: get ticket %s: %w", id, err)
	}
	return t, nil
}

// ListByRound returns every ticket of a round in creation order.
func (s *TicketStore) ListByRound(ctx context.Context, roundID string) ([]domain.Ticket, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+ticketSelectCols+` FROM tickets WHERE round_id = $1 ORDER BY created_at`, roundID)
	if err != nil {
		return nil, fmt.Errorf("postgres: list tickets for round %s: %w", roundID, err)
	}
	defer rows.Close()

	var tickets []domain.Ticket
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		tickets = append(tickets, t)
	}
	return tickets, rows.Err()
}

// SetArchiveKey records where the raw payload was archived.
func (s *TicketStore) SetArchiveKey(ctx context.Context, id string, key string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE tickets SET archive_key = $1, updated_at = NOW() WHERE id = $2`, key, id)
	if err != nil {
		return fmt.Errorf("postgres: set archive key for ticket %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func scanTicket(scanner interface{ Scan(dest ...any) error }) (domain.Ticket, error) {
	var t domain.Ticket
	var platform, status string
	var raw, legsJSON []byte

	err := scanner.Scan(
		&t.ID, &t.RoundID, &t.AccountID, &platform, &t.Site, &t.ExternalID,
		&t.StakeCents, &t.Price, &t.PotentialWinCents, &t.ActualWinCents,
		&t.BalanceBeforeCents, &t.BalanceAfterCents,
		&status, &raw, &t.ArchiveKey, &t.ErrorKind, &t.ErrorText,
		&legsJSON, &t.ElapsedMs, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return domain.Ticket{}, err
	}

	t.Platform = domain.PlatformFamily(platform)
	t.Status = domain.TicketStatus(status)
	if len(raw) > 0 {
		t.RawPayload = json.RawMessage(raw)
	}
	if len(legsJSON) > 0 {
		if err := json.Unmarshal(legsJSON, &t.Legs); err != nil {
			return domain.Ticket{}, fmt.Errorf("decode ticket legs: %w", err)
		}
	}
	return t, nil
}

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

// RoundStore implements domain.RoundStore using PostgreSQL.
type RoundStore struct {
	pool *pgxpool.Pool
}

// NewRoundStore creates a new RoundStore backed by the given pool.
func NewRoundStore(pool *pgxpool.Pool) *RoundStore {
	return &RoundStore{pool: pool}
}

const roundSelectCols = `id, owner_id, kind, stake_cents, total_stake_cents,
	legs, tickets_total, tickets_succeeded, tickets_failed,
	average_price, potential_win_cents, actual_win_cents, wall_time_ms,
	status, odds_adjusted, config, platform_summary,
	created_at, updated_at, completed_at`

// Create inserts a new round. TicketsTotal carries the planned attempt count
// so the status derivation knows when every ticket has landed.
func (s *RoundStore) Create(ctx context.Context, r domain.Round) error {
	configJSON, err := json.Marshal(r.Config)
	if err != nil {
		return fmt.Errorf("postgres: encode round config: %w", err)
	}
	summaryJSON, err := json.Marshal(r.PlatformSummary)
	if err != nil {
		return fmt.Errorf("postgres: encode platform summary: %w", err)
	}
	legsJSON, err := json.Marshal(r.Legs)
	if err != nil {
		return fmt.Errorf("postgres: encode round legs: %w", err)
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO rounds (
			id, owner_id, kind, stake_cents, total_stake_cents,
			legs, tickets_total, tickets_succeeded, tickets_failed,
			average_price, potential_win_cents, actual_win_cents, wall_time_ms,
			status, odds_adjusted, config, platform_summary,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, NOW(), NOW())`,
		r.ID, r.Owner, string(r.Kind), r.StakeCents, r.TotalStakeCents,
		legsJSON, r.TicketsTotal, r.TicketsSucceeded, r.TicketsFailed,
		r.AveragePrice, r.PotentialWinCents, r.ActualWinCents, r.WallTimeMs,
		string(r.Status), r.OddsAdjusted, configJSON, summaryJSON,
	)
	if err != nil {
		return fmt.Errorf("postgres: create round %s: %w", r.ID, err)
	}
	return nil
}

// GetByID returns one round or domain.ErrNotFound.
func (s *RoundStore) GetByID(ctx context.Context, id string) (domain.Round, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+roundSelectCols+` FROM rounds WHERE id = $1`, id)

	r, err := scanRound(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Round{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Round{}, fmt.Errorf("postgres: get round %s: %w", id, err)
	}
	return r, nil
}

// UpdateStats recomputes the round's counters, average price, potential win,
// status, and per-platform summary from its persisted tickets, then returns
// the refreshed round. The aggregation itself is domain.RecomputeStats; this
// method only reads the ticket set under a row lock and writes the result
// back, all in one transaction.
func (s *RoundStore) UpdateStats(ctx context.Context, roundID string) (domain.Round, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return domain.Round{}, fmt.Errorf("postgres: begin update stats: %w", err)
	}
	defer tx.Rollback(ctx)

	var planned int
	err = tx.QueryRow(ctx,
		`SELECT tickets_total FROM rounds WHERE id = $1 FOR UPDATE`, roundID).Scan(&planned)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Round{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Round{}, fmt.Errorf("postgres: lock round %s: %w", roundID, err)
	}

	tickets, err := statsTickets(ctx, tx, roundID)
	if err != nil {
		return domain.Round{}, err
	}

	stats := domain.RecomputeStats(planned, tickets)
	summaryJSON, err := json.Marshal(stats.PlatformSummary)
	if err != nil {
		return domain.Round{}, fmt.Errorf("postgres: encode platform summary: %w", err)
	}

	_, err = tx.Exec(ctx, `
		UPDATE rounds SET
			tickets_total       = $2,
			tickets_succeeded   = $3,
			tickets_failed      = $4,
			total_stake_cents   = $5,
			average_price       = $6,
			potential_win_cents = $7,
			platform_summary    = $8,
			status              = $9,
			completed_at        = CASE WHEN $10 AND completed_at IS NULL THEN NOW() ELSE completed_at END,
			updated_at          = NOW()
		WHERE id = $1`,
		roundID, stats.TicketsTotal, stats.TicketsSucceeded, stats.TicketsFailed,
		stats.TotalStakeCents, stats.AveragePrice, stats.PotentialWinCents,
		summaryJSON, string(stats.Status), stats.Terminal(),
	)
	if err != nil {
		return domain.Round{}, fmt.Errorf("postgres: update round stats %s: %w", roundID, err)
	}

	row := tx.QueryRow(ctx, `SELECT `+roundSelectCols+` FROM rounds WHERE id = $1`, roundID)
	r, err := scanRound(row)
	if err != nil {
		return domain.Round{}, fmt.Errorf("postgres: reload round %s: %w", roundID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.Round{}, fmt.Errorf("postgres: commit update stats: %w", err)
	}
	return r, nil
}

// statsTickets reads the slice of each ticket that the aggregation needs.
func statsTickets(ctx context.Context, tx pgx.Tx, roundID string) ([]domain.Ticket, error) {
	rows, err := tx.Query(ctx, `
		SELECT platform, status, stake_cents, price, potential_win_cents
		FROM tickets WHERE round_id = $1`, roundID)
	if err != nil {
		return nil, fmt.Errorf("postgres: load round tickets %s: %w", roundID, err)
	}
	defer rows.Close()

	var tickets []domain.Ticket
	for rows.Next() {
		var t domain.Ticket
		var platform, status string
		if err := rows.Scan(&platform, &status, &t.StakeCents, &t.Price, &t.PotentialWinCents); err != nil {
			return nil, fmt.Errorf("postgres: scan round ticket: %w", err)
		}
		t.Platform = domain.PlatformFamily(platform)
		t.Status = domain.TicketStatus(status)
		tickets = append(tickets, t)
	}
	return tickets, rows.Err()
}

// SetWallTime records the fan-out wall clock once the round's pipelines have
// joined.
func (s *RoundStore) SetWallTime(ctx context.Context, roundID string, wallTimeMs int64) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE rounds SET wall_time_ms = $2, updated_at = NOW() WHERE id = $1`, roundID, wallTimeMs)
	if err != nil {
		return fmt.Errorf("postgres: set wall time %s: %w", roundID, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// SetOddsAdjusted flags the round as having placed at refreshed prices.
func (s *RoundStore) SetOddsAdjusted(ctx context.Context, roundID string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE rounds SET odds_adjusted = TRUE, updated_at = NOW() WHERE id = $1`, roundID)
	if err != nil {
		return fmt.Errorf("postgres: set odds adjusted %s: %w", roundID, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ListRecent returns rounds newest first, honoring the pagination options.
func (s *RoundStore) ListRecent(ctx context.Context, opts domain.ListOpts) ([]domain.Round, error) {
	query := `SELECT ` + roundSelectCols + ` FROM rounds WHERE 1=1`
	args := []any{}

	if opts.Since != nil {
		args = append(args, *opts.Since)
		query += fmt.Sprintf(" AND created_at >= $%d", len(args))
	}
	if opts.Until != nil {
		args = append(args, *opts.Until)
		query += fmt.Sprintf(" AND created_at < $%d", len(args))
	}
	query += " ORDER BY created_at DESC"
	if opts.Limit > 0 {
		args = append(args, opts.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if opts.Offset > 0 {
		args = append(args, opts.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: list rounds: %w", err)
	}
	defer rows.Close()

	var rounds []domain.Round
	for rows.Next() {
		r, err := scanRound(rows)
		if err != nil {
			return nil, err
		}
		rounds = append(rounds, r)
	}
	return rounds, rows.Err()
}

func scanRound(scanner interface{ Scan(dest ...any) error }) (domain.Round, error) {
	var r domain.Round
	var kind, status string
	var legsJSON, configJSON, summaryJSON []byte

	err := scanner.Scan(
		&r.ID, &r.Owner, &kind, &r.StakeCents, &r.TotalStakeCents,
		&legsJSON, &r.TicketsTotal, &r.TicketsSucceeded, &r.TicketsFailed,
		&r.AveragePrice, &r.PotentialWinCents, &r.ActualWinCents, &r.WallTimeMs,
		&status, &r.OddsAdjusted, &configJSON, &summaryJSON,
		&r.CreatedAt, &r.UpdatedAt, &r.CompletedAt,
	)
	if err != nil {
		return domain.Round{}, err
	}

	r.Kind = domain.WagerKind(kind)
	r.Status = domain.RoundStatus(status)
	if len(legsJSON) > 0 {
		if err := json.Unmarshal(legsJSON, &r.Legs); err != nil {
			return domain.Round{}, fmt.Errorf("decode round legs: %w", err)
		}
	}
	if len(configJSON) > 0 {
		if err := json.Unmarshal(configJSON, &r.Config); err != nil {
			return domain.Round{}, fmt.Errorf("decode round config: %w", err)
		}
	}
	if len(summaryJSON) > 0 {
		if err := json.Unmarshal(summaryJSON, &r.PlatformSummary); err != nil {
			return domain.Round{}, fmt.Errorf("decode platform summary: %w", err)
		}
	}
	return r, nil
}

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

// AccountStore implements domain.AccountStore using PostgreSQL.
type AccountStore struct {
	pool *pgxpool.Pool
}

// NewAccountStore creates a new AccountStore backed by the given pool.
func NewAccountStore(pool *pgxpool.Pool) *AccountStore {
	return &AccountStore{pool: pool}
}

const accountSelectCols = `id, site, family, username, secret_cipher, base_url,
	session, balance_cents, balance_at, active, created_at, updated_at`

// Find returns accounts matching the filter, newest first.
func (s *AccountStore) Find(ctx context.Context, f domain.AccountFilter) ([]domain.Account, error) {
	query := `SELECT ` + accountSelectCols + ` FROM accounts WHERE 1=1`
	args := []any{}

	if f.Site != "" {
		args = append(args, f.Site)
		query += fmt.Sprintf(" AND site = $%d", len(args))
	}
	if f.Family != "" {
		args = append(args, string(f.Family))
		query += fmt.Sprintf(" AND family = $%d", len(args))
	}
	if f.ActiveOnly {
		query += " AND active"
	}
	if len(f.IDs) > 0 {
		args = append(args, f.IDs)
		query += fmt.Sprintf(" AND id = ANY($%d)", len(args))
	}
	query += " ORDER BY created_at DESC"

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: find accounts: %w", err)
	}
	defer rows.Close()

	return scanAccountRows(rows)
}

// GetByID returns one account or domain.ErrNotFound.
func (s *AccountStore) GetByID(ctx context.Context, id string) (domain.Account, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+accountSelectCols+` FROM accounts WHERE id = $1`, id)

	acct, err := scanAccount(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Account{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Account{}, fmt.Errorf("postgres: get account %s: %w", id, err)
	}
	return acct, nil
}

// Create inserts a new account.
func (s *AccountStore) Create(ctx context.Context, a domain.Account) error {
	sessionJSON, err := json.Marshal(a.Session)
	if err != nil {
		return fmt.Errorf("postgres: encode session: %w", err)
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO accounts (
			id, site, family, username, secret_cipher, base_url,
			session, balance_cents, balance_at, active, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW(), NOW())`,
		a.ID, a.Site, string(a.Family), a.Username, a.SecretCipher, a.BaseURL,
		sessionJSON, a.BalanceCents, a.BalanceAt, a.Active,
	)
	if err != nil {
		return fmt.Errorf("postgres: create account %s: %w", a.ID, err)
	}
	return nil
}

// Save writes back mutable account state: session artifacts, balance, and
// the active flag. Identity fields never change after creation.
func (s *AccountStore) Save(ctx context.Context, a domain.Account) error {
	sessionJSON, err := json.Marshal(a.Session)
	if err != nil {
		return fmt.Errorf("postgres: encode session: %w", err)
	}

	tag, err := s.pool.Exec(ctx, `
		UPDATE accounts SET
			session = $1, balance_cents = $2, balance_at = $3,
			active = $4, updated_at = NOW()
		WHERE id = $5`,
		sessionJSON, a.BalanceCents, a.BalanceAt, a.Active, a.ID,
	)
	if err != nil {
		return fmt.Errorf("postgres: save account %s: %w", a.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Deactivate marks an account inactive. Accounts are never deleted.
func (s *AccountStore) Deactivate(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE accounts SET active = FALSE, updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("postgres: deactivate account %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func scanAccount(scanner interface{ Scan(dest ...any) error }) (domain.Account, error) {
	var a domain.Account
	var family string
	var sessionJSON []byte

	err := scanner.Scan(
		&a.ID, &a.Site, &family, &a.Username, &a.SecretCipher, &a.BaseURL,
		&sessionJSON, &a.BalanceCents, &a.BalanceAt, &a.Active,
		&a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return domain.Account{}, err
	}

	a.Family = domain.PlatformFamily(family)
	if len(sessionJSON) > 0 {
		if err := json.Unmarshal(sessionJSON, &a.Session); err != nil {
			return domain.Account{}, fmt.Errorf("decode session: %w", err)
		}
	}
	return a, nil
}

func scanAccountRows(rows pgx.Rows) ([]domain.Account, error) {
	var accounts []domain.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

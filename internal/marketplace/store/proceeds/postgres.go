package proceeds

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"nftmarket/internal/marketplace/models"
	txcontext "nftmarket/pkg/platform/tx"
)

const lockPrefix = "nftmarket.proceeds:"

// PostgresStore persists balances in the proceeds table.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *PostgresStore) execer(ctx context.Context) (dbExecutor, bool) {
	if tx, ok := txcontext.From(ctx); ok {
		return tx, true
	}
	return s.db, false
}

// Balance reads an account balance. Inside a transaction it first takes an
// advisory lock on the account, held until commit, so read-then-set sequences
// on one account are serialized even before its row exists.
func (s *PostgresStore) Balance(ctx context.Context, account models.Address) (models.Amount, error) {
	exec, inTx := s.execer(ctx)
	query := `SELECT balance FROM proceeds WHERE account = $1`
	if inTx {
		if _, err := exec.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`, lockPrefix+string(account)); err != nil {
			return 0, fmt.Errorf("lock proceeds: %w", err)
		}
		query += " FOR UPDATE"
	}

	var balance models.Amount
	err := exec.QueryRowContext(ctx, query, string(account)).Scan(&balance)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("read proceeds: %w", err)
	}
	return balance, nil
}

// SetBalance upserts a balance; zero removes the row.
func (s *PostgresStore) SetBalance(ctx context.Context, account models.Address, amount models.Amount) error {
	exec, _ := s.execer(ctx)
	if amount == 0 {
		if _, err := exec.ExecContext(ctx, `DELETE FROM proceeds WHERE account = $1`, string(account)); err != nil {
			return fmt.Errorf("clear proceeds: %w", err)
		}
		return nil
	}

	query := `
		INSERT INTO proceeds (account, balance, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (account) DO UPDATE SET
			balance = EXCLUDED.balance,
			updated_at = EXCLUDED.updated_at
	`
	if _, err := exec.ExecContext(ctx, query, string(account), strconv.FormatUint(amount, 10)); err != nil {
		return fmt.Errorf("set proceeds: %w", err)
	}
	return nil
}

package listing

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"github.com/lib/pq"

	"nftmarket/internal/marketplace/models"
	"nftmarket/pkg/platform/sentinel"
	txcontext "nftmarket/pkg/platform/tx"
)

// pgUniqueViolation is the SQLSTATE for unique_violation.
const pgUniqueViolation = "23505"

// PostgresStore persists listings in the listings table. Prices are stored as
// NUMERIC(20,0) so the full uint64 range round-trips.
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

// Find loads a listing. Inside a transaction the row is locked until commit.
func (s *PostgresStore) Find(ctx context.Context, key models.ItemKey) (*models.Listing, error) {
	exec, inTx := s.execer(ctx)
	query := `SELECT collection, item_id, price, seller FROM listings WHERE collection = $1 AND item_id = $2`
	if inTx {
		query += " FOR UPDATE"
	}

	var l models.Listing
	err := exec.QueryRowContext(ctx, query, string(key.Collection), string(key.ItemID)).
		Scan(&l.Collection, &l.ItemID, &l.Price, &l.Seller)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find listing: %w", err)
	}
	return &l, nil
}

func (s *PostgresStore) Create(ctx context.Context, listing *models.Listing) error {
	exec, _ := s.execer(ctx)
	_, err := exec.ExecContext(ctx,
		`INSERT INTO listings (collection, item_id, price, seller) VALUES ($1, $2, $3, $4)`,
		string(listing.Collection), string(listing.ItemID), formatAmount(listing.Price), string(listing.Seller),
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == pgUniqueViolation {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert listing: %w", err)
	}
	return nil
}

func (s *PostgresStore) UpdatePrice(ctx context.Context, key models.ItemKey, price models.Amount) error {
	exec, _ := s.execer(ctx)
	res, err := exec.ExecContext(ctx,
		`UPDATE listings SET price = $3, updated_at = NOW() WHERE collection = $1 AND item_id = $2`,
		string(key.Collection), string(key.ItemID), formatAmount(price),
	)
	if err != nil {
		return fmt.Errorf("update listing price: %w", err)
	}
	return requireOneRow(res)
}

func (s *PostgresStore) Delete(ctx context.Context, key models.ItemKey) error {
	exec, _ := s.execer(ctx)
	res, err := exec.ExecContext(ctx,
		`DELETE FROM listings WHERE collection = $1 AND item_id = $2`,
		string(key.Collection), string(key.ItemID),
	)
	if err != nil {
		return fmt.Errorf("delete listing: %w", err)
	}
	return requireOneRow(res)
}

// formatAmount sends amounts as decimal text; database/sql rejects uint64
// values with the high bit set.
func formatAmount(a models.Amount) string {
	return strconv.FormatUint(a, 10)
}

func requireOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

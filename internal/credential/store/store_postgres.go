package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	id "verimint/pkg/domain"
	"verimint/pkg/platform/sentinel"
	txcontext "verimint/pkg/platform/tx"
)

// PostgresStore uses profiles.has_verification_nft.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *PostgresStore) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

func (s *PostgresStore) Set(ctx context.Context, userID id.UserID) error {
	res, err := s.execer(ctx).ExecContext(ctx,
		`UPDATE profiles SET has_verification_nft = TRUE, updated_at = NOW() WHERE id = $1`,
		uuid.UUID(userID),
	)
	if err != nil {
		return fmt.Errorf("set credential flag: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("set credential flag: %w", err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) Has(ctx context.Context, userID id.UserID) (bool, error) {
	var has bool
	err := s.db.QueryRowContext(ctx,
		`SELECT has_verification_nft FROM profiles WHERE id = $1`,
		uuid.UUID(userID),
	).Scan(&has)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("get credential flag: %w", err)
	}
	return has, nil
}

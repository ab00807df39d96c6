package status

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"verimint/internal/verification/models"
	id "verimint/pkg/domain"
	"verimint/pkg/platform/sentinel"
	txcontext "verimint/pkg/platform/tx"
)

// PostgresStore reads and writes the profiles table.
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

func (s *PostgresStore) Get(ctx context.Context, userID id.UserID) (*models.StatusRecord, error) {
	record := models.StatusRecord{UserID: userID}
	err := s.db.QueryRowContext(ctx,
		`SELECT kyc_verified, updated_at FROM profiles WHERE id = $1`,
		uuid.UUID(userID),
	).Scan(&record.KYCVerified, &record.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("get profile status: %w", err)
	}
	return &record, nil
}

func (s *PostgresStore) SetKYCVerified(ctx context.Context, userID id.UserID) error {
	res, err := s.execer(ctx).ExecContext(ctx,
		`UPDATE profiles SET kyc_verified = TRUE, updated_at = NOW() WHERE id = $1`,
		uuid.UUID(userID),
	)
	if err != nil {
		return fmt.Errorf("set kyc verified: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("set kyc verified: %w", err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

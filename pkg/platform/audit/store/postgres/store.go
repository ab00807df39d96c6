package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	id "verimint/pkg/domain"
	audit "verimint/pkg/platform/audit"
	txcontext "verimint/pkg/platform/tx"
)

// Store persists audit events to the audit_events table. Appends join a
// transaction carried in the context so overrides and their audit record
// commit together.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *Store) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

func (s *Store) Append(ctx context.Context, event audit.Event) error {
	category := event.Category
	if category == "" {
		category = audit.AuditEvent(event.Action).Category()
	}
	var userID any
	if !event.UserID.IsNil() {
		userID = uuid.UUID(event.UserID)
	}

	_, err := s.execer(ctx).ExecContext(ctx, `
		INSERT INTO audit_events (id, category, action, user_id, subject, decision, reason, request_id, actor_id, device, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, uuid.New(), string(category), event.Action, userID, event.Subject,
		event.Decision, event.Reason, event.RequestID, event.ActorID, event.Device, event.Timestamp)
	if err != nil {
		return fmt.Errorf("append audit event: %w", err)
	}
	return nil
}

func (s *Store) ListByUser(ctx context.Context, userID id.UserID) ([]audit.Event, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT category, action, subject, decision, reason, request_id, actor_id, device, created_at
		FROM audit_events
		WHERE user_id = $1
		ORDER BY created_at
	`, uuid.UUID(userID))
	if err != nil {
		return nil, fmt.Errorf("list audit events: %w", err)
	}
	defer rows.Close()

	var events []audit.Event
	for rows.Next() {
		var (
			event    audit.Event
			category string
		)
		if err := rows.Scan(&category, &event.Action, &event.Subject, &event.Decision,
			&event.Reason, &event.RequestID, &event.ActorID, &event.Device, &event.Timestamp); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		event.Category = audit.EventCategory(category)
		event.UserID = userID
		events = append(events, event)
	}
	return events, rows.Err()
}

package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/keyfront/keyfront/store"
	"go.uber.org/zap"
)

// defaultListLimit caps unbounded listings.
const defaultListLimit = 50

// LoginEventStore implements store.LoginEventStore on PostgreSQL.
type LoginEventStore struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewLoginEventStore creates a new login-event store
func NewLoginEventStore(db *sql.DB, logger *zap.Logger) store.LoginEventStore {
	return &LoginEventStore{
		db:     db,
		logger: logger,
	}
}

// Create inserts a new login event
func (s *LoginEventStore) Create(ctx context.Context, event *store.LoginEvent) error {
	query := `
		INSERT INTO login_events (id, username, kind, success, error_code, request_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := s.db.ExecContext(ctx, query,
		event.ID,
		event.Username,
		string(event.Kind),
		event.Success,
		event.ErrorCode,
		event.RequestID,
		event.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert login event: %w", err)
	}

	s.logger.Debug("login event inserted",
		zap.String("id", event.ID.String()),
		zap.String("kind", string(event.Kind)),
		zap.Bool("success", event.Success))
	return nil
}

// GetByID retrieves a login event by ID
func (s *LoginEventStore) GetByID(ctx context.Context, id uuid.UUID) (*store.LoginEvent, error) {
	query := `
		SELECT id, username, kind, success, error_code, request_id, created_at
		FROM login_events
		WHERE id = $1
	`

	event := &store.LoginEvent{}
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&event.ID,
		&event.Username,
		&event.Kind,
		&event.Success,
		&event.ErrorCode,
		&event.RequestID,
		&event.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("login event %s: %w", id, store.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get login event: %w", err)
	}

	return event, nil
}

// List retrieves login events matching the filter, newest first
func (s *LoginEventStore) List(ctx context.Context, filter store.ListFilter) ([]*store.LoginEvent, error) {
	query := `
		SELECT id, username, kind, success, error_code, request_id, created_at
		FROM login_events
		WHERE ($1 = '' OR username = $1)
		  AND ($2 = '' OR kind = $2)
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4
	`

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}

	rows, err := s.db.QueryContext(ctx, query, filter.Username, string(filter.Kind), limit, filter.Offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list login events: %w", err)
	}
	defer rows.Close()

	var events []*store.LoginEvent
	for rows.Next() {
		event := &store.LoginEvent{}
		if err := rows.Scan(
			&event.ID,
			&event.Username,
			&event.Kind,
			&event.Success,
			&event.ErrorCode,
			&event.RequestID,
			&event.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan login event: %w", err)
		}
		events = append(events, event)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate login events: %w", err)
	}

	return events, nil
}

// Delete removes a login event by ID
func (s *LoginEventStore) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM login_events WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete login event: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("login event %s: %w", id, store.ErrNotFound)
	}

	return nil
}

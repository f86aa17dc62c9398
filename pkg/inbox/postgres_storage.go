package inbox

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/jobkit/pkg/pg"
)

// PostgresStorage implements EventRepository over the webhook_events table.
// The (provider, event_id) idempotency key is enforced by a unique index;
// schema lives in the migrations directory.
type PostgresStorage struct {
	pool *pgxpool.Pool
}

// NewPostgresStorage creates storage over an existing connection pool
func NewPostgresStorage(pool *pgxpool.Pool) (*PostgresStorage, error) {
	if pool == nil {
		return nil, ErrRepositoryNil
	}
	return &PostgresStorage{pool: pool}, nil
}

// CreateEvent implements EventRepository
func (ps *PostgresStorage) CreateEvent(ctx context.Context, event *Event) error {
	_, err := ps.pool.Exec(ctx, `
		INSERT INTO webhook_events
			(id, provider, event_id, event_type, payload, headers, status,
			 error_message, created_at, processed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		event.ID, event.Provider, event.EventID, event.EventType, event.Payload,
		event.Headers, event.Status, event.ErrorMessage, event.CreatedAt, event.ProcessedAt,
	)
	if err != nil {
		// unique violation on the (provider, event_id) index
		if pg.IsDuplicateKeyError(err) {
			return ErrDuplicateEvent
		}
		return fmt.Errorf("failed to insert webhook event: %w", err)
	}
	return nil
}

// GetEvent implements EventRepository
func (ps *PostgresStorage) GetEvent(ctx context.Context, id uuid.UUID) (*Event, error) {
	return ps.queryOne(ctx, `
		SELECT id, provider, event_id, event_type, payload, headers, status,
		       error_message, created_at, processed_at
		FROM webhook_events
		WHERE id = $1`, id)
}

// FindByProviderEventID implements EventRepository
func (ps *PostgresStorage) FindByProviderEventID(ctx context.Context, provider, eventID string) (*Event, error) {
	return ps.queryOne(ctx, `
		SELECT id, provider, event_id, event_type, payload, headers, status,
		       error_message, created_at, processed_at
		FROM webhook_events
		WHERE provider = $1 AND event_id = $2`, provider, eventID)
}

// UpdateEvent implements EventRepository
func (ps *PostgresStorage) UpdateEvent(ctx context.Context, event *Event) error {
	tag, err := ps.pool.Exec(ctx, `
		UPDATE webhook_events
		SET status = $2, error_message = $3, processed_at = $4
		WHERE id = $1`,
		event.ID, event.Status, event.ErrorMessage, event.ProcessedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update webhook event: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrEventNotFound
	}
	return nil
}

// ListEvents implements EventRepository
func (ps *PostgresStorage) ListEvents(ctx context.Context, status Status, limit int) ([]*Event, error) {
	rows, err := ps.pool.Query(ctx, `
		SELECT id, provider, event_id, event_type, payload, headers, status,
		       error_message, created_at, processed_at
		FROM webhook_events
		WHERE status = $1
		ORDER BY created_at
		LIMIT $2`,
		status, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query webhook events: %w", err)
	}
	defer rows.Close()

	var events []*Event
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	return events, rows.Err()
}

func (ps *PostgresStorage) queryOne(ctx context.Context, sql string, args ...any) (*Event, error) {
	rows, err := ps.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query webhook event: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("failed to query webhook event: %w", err)
		}
		return nil, ErrEventNotFound
	}
	return scanEvent(rows)
}

func scanEvent(row pgx.Row) (*Event, error) {
	var event Event
	if err := row.Scan(&event.ID, &event.Provider, &event.EventID, &event.EventType,
		&event.Payload, &event.Headers, &event.Status, &event.ErrorMessage,
		&event.CreatedAt, &event.ProcessedAt); err != nil {
		return nil, fmt.Errorf("failed to scan webhook event: %w", err)
	}
	return &event, nil
}

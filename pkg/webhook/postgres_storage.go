package webhook

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/jobkit/pkg/pg"
)

// PostgresStorage implements ConfigRepository and DeliveryRepository over
// the webhook_configs, webhook_deliveries, and webhook_failures tables.
// Schema lives in the migrations directory.
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

// CreateConfig stores a subscription config
func (ps *PostgresStorage) CreateConfig(ctx context.Context, cfg *Config) error {
	_, err := ps.pool.Exec(ctx, `
		INSERT INTO webhook_configs (id, url, secret, event_type_patterns, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		cfg.ID, cfg.URL, cfg.Secret, cfg.EventTypePatterns, cfg.IsActive, cfg.CreatedAt, cfg.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert webhook config: %w", err)
	}
	return nil
}

// UpdateConfig overwrites an existing config
func (ps *PostgresStorage) UpdateConfig(ctx context.Context, cfg *Config) error {
	tag, err := ps.pool.Exec(ctx, `
		UPDATE webhook_configs
		SET url = $2, secret = $3, event_type_patterns = $4, is_active = $5, updated_at = $6
		WHERE id = $1`,
		cfg.ID, cfg.URL, cfg.Secret, cfg.EventTypePatterns, cfg.IsActive, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("failed to update webhook config: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrConfigNotFound
	}
	return nil
}

// ActiveConfigs implements ConfigRepository
func (ps *PostgresStorage) ActiveConfigs(ctx context.Context) ([]*Config, error) {
	rows, err := ps.pool.Query(ctx, `
		SELECT id, url, secret, event_type_patterns, is_active, created_at, updated_at
		FROM webhook_configs
		WHERE is_active
		ORDER BY created_at`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query active configs: %w", err)
	}
	defer rows.Close()

	var configs []*Config
	for rows.Next() {
		var cfg Config
		if err := rows.Scan(&cfg.ID, &cfg.URL, &cfg.Secret, &cfg.EventTypePatterns,
			&cfg.IsActive, &cfg.CreatedAt, &cfg.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan config: %w", err)
		}
		configs = append(configs, &cfg)
	}
	return configs, rows.Err()
}

// GetConfig implements ConfigRepository
func (ps *PostgresStorage) GetConfig(ctx context.Context, id uuid.UUID) (*Config, error) {
	var cfg Config
	err := ps.pool.QueryRow(ctx, `
		SELECT id, url, secret, event_type_patterns, is_active, created_at, updated_at
		FROM webhook_configs
		WHERE id = $1`,
		id,
	).Scan(&cfg.ID, &cfg.URL, &cfg.Secret, &cfg.EventTypePatterns,
		&cfg.IsActive, &cfg.CreatedAt, &cfg.UpdatedAt)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return nil, ErrConfigNotFound
		}
		return nil, fmt.Errorf("failed to query config: %w", err)
	}
	return &cfg, nil
}

// CreateDelivery implements DeliveryRepository
func (ps *PostgresStorage) CreateDelivery(ctx context.Context, d *Delivery) error {
	_, err := ps.pool.Exec(ctx, `
		INSERT INTO webhook_deliveries
			(id, config_id, event_type, payload, status, response_status,
			 attempt_count, next_retry_at, last_error, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		d.ID, d.ConfigID, d.EventType, d.Payload, d.Status, d.ResponseStatus,
		d.AttemptCount, d.NextRetryAt, d.LastError, d.CreatedAt, d.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert webhook delivery: %w", err)
	}
	return nil
}

// UpdateDelivery implements DeliveryRepository
func (ps *PostgresStorage) UpdateDelivery(ctx context.Context, d *Delivery) error {
	tag, err := ps.pool.Exec(ctx, `
		UPDATE webhook_deliveries
		SET status = $2, response_status = $3, attempt_count = $4,
		    next_retry_at = $5, last_error = $6, updated_at = $7
		WHERE id = $1`,
		d.ID, d.Status, d.ResponseStatus, d.AttemptCount,
		d.NextRetryAt, d.LastError, d.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update webhook delivery: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrDeliveryNotFound
	}
	return nil
}

// GetDelivery implements DeliveryRepository
func (ps *PostgresStorage) GetDelivery(ctx context.Context, id uuid.UUID) (*Delivery, error) {
	var d Delivery
	err := ps.pool.QueryRow(ctx, `
		SELECT id, config_id, event_type, payload, status, response_status,
		       attempt_count, next_retry_at, last_error, created_at, updated_at
		FROM webhook_deliveries
		WHERE id = $1`,
		id,
	).Scan(&d.ID, &d.ConfigID, &d.EventType, &d.Payload, &d.Status, &d.ResponseStatus,
		&d.AttemptCount, &d.NextRetryAt, &d.LastError, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return nil, ErrDeliveryNotFound
		}
		return nil, fmt.Errorf("failed to query delivery: %w", err)
	}
	return &d, nil
}

// PendingDue implements DeliveryRepository
func (ps *PostgresStorage) PendingDue(ctx context.Context, now time.Time, limit int) ([]*Delivery, error) {
	rows, err := ps.pool.Query(ctx, `
		SELECT id, config_id, event_type, payload, status, response_status,
		       attempt_count, next_retry_at, last_error, created_at, updated_at
		FROM webhook_deliveries
		WHERE status = $1 AND next_retry_at IS NOT NULL AND next_retry_at <= $2
		ORDER BY next_retry_at
		LIMIT $3`,
		DeliveryPending, now, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query due deliveries: %w", err)
	}
	defer rows.Close()

	var due []*Delivery
	for rows.Next() {
		var d Delivery
		if err := rows.Scan(&d.ID, &d.ConfigID, &d.EventType, &d.Payload, &d.Status, &d.ResponseStatus,
			&d.AttemptCount, &d.NextRetryAt, &d.LastError, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan delivery: %w", err)
		}
		due = append(due, &d)
	}
	return due, rows.Err()
}

// CreateFailure implements DeliveryRepository
func (ps *PostgresStorage) CreateFailure(ctx context.Context, f *Failure) error {
	_, err := ps.pool.Exec(ctx, `
		INSERT INTO webhook_failures (id, delivery_id, config_id, event_type, payload, error, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		f.ID, f.DeliveryID, f.ConfigID, f.EventType, f.Payload, f.Error, f.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert webhook failure: %w", err)
	}
	return nil
}

// ListFailures implements DeliveryRepository
func (ps *PostgresStorage) ListFailures(ctx context.Context, limit int) ([]*Failure, error) {
	rows, err := ps.pool.Query(ctx, `
		SELECT id, delivery_id, config_id, event_type, payload, error, created_at
		FROM webhook_failures
		ORDER BY created_at DESC
		LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query webhook failures: %w", err)
	}
	defer rows.Close()

	var failures []*Failure
	for rows.Next() {
		var f Failure
		if err := rows.Scan(&f.ID, &f.DeliveryID, &f.ConfigID, &f.EventType,
			&f.Payload, &f.Error, &f.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan failure: %w", err)
		}
		failures = append(failures, &f)
	}
	return failures, rows.Err()
}

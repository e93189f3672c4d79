// internal/infra/postgres/health_repository.go
package postgres

import (
	"context"
	"fmt"

	"workqueue-lambdas/internal/domain"

	"github.com/jackc/pgx/v5"
)

const createHealthTable = `
CREATE TABLE IF NOT EXISTS health_check (
    id        SERIAL PRIMARY KEY,
    timestamp TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    message   TEXT
)`

type HealthRepository struct {
	db querier
}

func NewHealthRepository(db querier) *HealthRepository {
	return &HealthRepository{db: db}
}

func (r *HealthRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, createHealthTable); err != nil {
		return fmt.Errorf("failed to create health_check: %w", err)
	}
	return nil
}

func (r *HealthRepository) Insert(ctx context.Context, message string) error {
	if _, err := r.db.Exec(ctx, `INSERT INTO health_check (message) VALUES ($1)`, message); err != nil {
		return fmt.Errorf("failed to insert health record: %w", err)
	}
	return nil
}

// Recent returns the newest rows first.
func (r *HealthRepository) Recent(ctx context.Context, limit int) ([]domain.HealthRecord, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, timestamp, message FROM health_check ORDER BY timestamp DESC, id DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query health records: %w", err)
	}
	records, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.HealthRecord, error) {
		var rec domain.HealthRecord
		err := row.Scan(&rec.ID, &rec.Timestamp, &rec.Message)
		return rec, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read health records: %w", err)
	}
	return records, nil
}

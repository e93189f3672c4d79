// internal/infra/postgres/work_log_repository.go
package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"workqueue-lambdas/internal/domain"
)

const createWorkLogTable = `
CREATE TABLE IF NOT EXISTS work_item_log (
    id          SERIAL PRIMARY KEY,
    work_id     INTEGER,
    work_type   VARCHAR(50) NOT NULL,
    message_id  VARCHAR(255) NOT NULL,
    status      VARCHAR(20) NOT NULL,
    payload     JSONB,
    duration_ms BIGINT NOT NULL,
    error       TEXT,
    created_at  TIMESTAMPTZ DEFAULT NOW()
)`

// WorkLogRepository appends processing attempts to work_item_log.
type WorkLogRepository struct {
	db querier
}

func NewWorkLogRepository(db querier) *WorkLogRepository {
	return &WorkLogRepository{db: db}
}

func (r *WorkLogRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, createWorkLogTable); err != nil {
		return fmt.Errorf("failed to create work_item_log: %w", err)
	}
	return nil
}

func (r *WorkLogRepository) Append(ctx context.Context, e domain.WorkLogEntry) error {
	var payload []byte
	if e.Payload != nil {
		var err error
		if payload, err = json.Marshal(e.Payload); err != nil {
			return fmt.Errorf("failed to marshal payload of message %s: %w", e.MessageID, err)
		}
	}
	var errText *string
	if e.Error != "" {
		errText = &e.Error
	}

	_, err := r.db.Exec(ctx,
		`INSERT INTO work_item_log (work_id, work_type, message_id, status, payload, duration_ms, error)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		e.WorkID, string(e.WorkType), e.MessageID, string(e.Status), payload, e.DurationMs, errText)
	if err != nil {
		return fmt.Errorf("failed to insert work log for message %s: %w", e.MessageID, err)
	}
	return nil
}

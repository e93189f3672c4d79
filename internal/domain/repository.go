// internal/domain/repository.go
package domain

import (
	"context"
	"time"
)

// WorkLogEntry is one row of per-message processing bookkeeping.
type WorkLogEntry struct {
	WorkID     *int
	WorkType   WorkType
	MessageID  string
	Status     ProcessingOutcome
	Payload    Payload
	DurationMs int64
	Error      string
}

// WorkLogRepository persists processing attempts.
type WorkLogRepository interface {
	EnsureSchema(ctx context.Context) error
	Append(ctx context.Context, entry WorkLogEntry) error
}

// HealthRecord is a row of the health check table.
type HealthRecord struct {
	ID        int64     `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Message   string    `json:"message"`
}

// HealthRepository backs the database health check.
type HealthRepository interface {
	EnsureSchema(ctx context.Context) error
	Insert(ctx context.Context, message string) error
	Recent(ctx context.Context, limit int) ([]HealthRecord, error)
}

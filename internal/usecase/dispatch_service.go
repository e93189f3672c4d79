// internal/usecase/dispatch_service.go
package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"workqueue-lambdas/internal/dispatcher"
	"workqueue-lambdas/internal/domain"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// DispatchService runs on-demand dispatches against the configured queue.
type DispatchService struct {
	dispatcher *dispatcher.Dispatcher
	openSink   domain.SinkOpener
	queueID    string
	locker     domain.Locker
	logger     *slog.Logger
	tracer     trace.Tracer
}

// NewDispatchService creates a DispatchService. With a non-nil locker a
// dispatch fails with domain.ErrLockNotAcquired while another one runs.
func NewDispatchService(d *dispatcher.Dispatcher, openSink domain.SinkOpener, queueID string, locker domain.Locker, logger *slog.Logger) *DispatchService {
	if openSink == nil {
		openSink = func(context.Context) (domain.MetricsSink, error) { return domain.NopSink{}, nil }
	}
	return &DispatchService{
		dispatcher: d,
		openSink:   openSink,
		queueID:    queueID,
		locker:     locker,
		logger:     logger.With("component", "dispatch-service"),
		tracer:     otel.Tracer("workqueue-usecase"),
	}
}

// Dispatch publishes items, or the default batch when items is empty.
func (s *DispatchService) Dispatch(ctx context.Context, items []domain.WorkItem) ([]domain.DispatchRecord, error) {
	ctx, span := s.tracer.Start(ctx, "service.Dispatch")
	defer span.End()

	if len(items) == 0 {
		items = dispatcher.DefaultBatch()
	}
	span.SetAttributes(attribute.Int("batch.size", len(items)))

	var records []domain.DispatchRecord
	err := runExclusive(ctx, s.locker, DispatchLockName, s.logger, func(ctx context.Context) error {
		sink, err := s.openSink(ctx)
		if err != nil {
			return fmt.Errorf("setup failed: %w", err)
		}
		defer func() {
			sink.Flush(ctx)
			sink.Close()
		}()

		records, err = s.dispatcher.Dispatch(ctx, s.queueID, items, sink)
		return err
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "dispatch failed")
		return records, err
	}
	s.logger.Info("manual dispatch completed", "messages_sent", len(records))
	return records, nil
}

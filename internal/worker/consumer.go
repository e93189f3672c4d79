// internal/worker/consumer.go
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"workqueue-lambdas/internal/domain"
	"workqueue-lambdas/internal/metrics"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

// Consumer processes batches of received messages. A failing message never
// affects the others: every message yields exactly one record.
type Consumer struct {
	registry    *Registry
	workLog     domain.WorkLogRepository
	concurrency int
	logger      *slog.Logger
	tracer      trace.Tracer
	now         func() time.Time
}

type ConsumerOption func(*Consumer)

// WithConcurrency bounds how many messages of a batch run at once.
func WithConcurrency(n int) ConsumerOption {
	return func(c *Consumer) {
		if n > 0 {
			c.concurrency = n
		}
	}
}

// WithWorkLog records every processing attempt in repo.
func WithWorkLog(repo domain.WorkLogRepository) ConsumerOption {
	return func(c *Consumer) { c.workLog = repo }
}

func NewConsumer(registry *Registry, logger *slog.Logger, opts ...ConsumerOption) *Consumer {
	c := &Consumer{
		registry:    registry,
		concurrency: 1,
		logger:      logger.With("component", "consumer"),
		tracer:      otel.Tracer("workqueue-worker"),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ProcessBatch handles msgs and returns their records in input order.
func (c *Consumer) ProcessBatch(ctx context.Context, msgs []domain.ReceivedMessage, sink domain.MetricsSink) domain.BatchResult {
	ctx, span := c.tracer.Start(ctx, "consumer.ProcessBatch", trace.WithAttributes(
		attribute.Int("batch.size", len(msgs)),
		attribute.Int("batch.concurrency", c.concurrency),
	))
	defer span.End()

	if sink == nil {
		sink = domain.NopSink{}
	}
	start := c.now()
	records := make([]domain.ProcessingRecord, len(msgs))

	if c.concurrency <= 1 {
		for i, msg := range msgs {
			records[i] = c.processOne(ctx, msg, sink)
		}
	} else {
		var g errgroup.Group
		g.SetLimit(c.concurrency)
		for i, msg := range msgs {
			g.Go(func() error {
				records[i] = c.processOne(ctx, msg, sink)
				return nil
			})
		}
		_ = g.Wait()
	}

	result := domain.NewBatchResult(records)
	metrics.WorkerBatchDuration.Observe(c.now().Sub(start).Seconds())
	span.SetAttributes(
		attribute.Int("batch.succeeded", result.SucceededCount),
		attribute.Int("batch.failed", result.FailedCount),
	)
	if result.FailedCount > 0 {
		span.SetStatus(codes.Error, "partial failure")
	}
	return result
}

func (c *Consumer) processOne(ctx context.Context, msg domain.ReceivedMessage, sink domain.MetricsSink) (rec domain.ProcessingRecord) {
	ctx, span := c.tracer.Start(ctx, "consumer.processOne", trace.WithAttributes(
		attribute.String("message.id", msg.MessageID),
	))
	defer span.End()

	start := c.now()
	c.logger.Info("processing message", "message_id", msg.MessageID)

	rec = domain.ProcessingRecord{MessageID: msg.MessageID, Type: domain.WorkTypeUnknown}
	var payload domain.Payload

	item, err := domain.DecodeWorkItem(msg.Body)
	if err == nil {
		id := item.ID
		rec.WorkID = &id
		rec.Type = item.Type
		payload = item.Payload
		span.SetAttributes(attribute.Int("work.id", item.ID), attribute.String("work.type", string(item.Type)))
		err = c.run(ctx, item, sink)
	}

	duration := c.now().Sub(start)
	if err != nil {
		rec.Status = domain.ProcessingError
		rec.Error = err.Error()
		span.RecordError(err)
		span.SetStatus(codes.Error, "processing failed")
		c.logger.Error("failed to process message", "message_id", msg.MessageID, "work_type", rec.Type, "error", err)
	} else {
		rec.Status = domain.ProcessingSuccess
		c.logger.Info("processed message", "message_id", msg.MessageID, "work_type", rec.Type, "duration_ms", duration.Milliseconds())
	}
	metrics.WorkItemsProcessedTotal.WithLabelValues(string(rec.Type), string(rec.Status)).Inc()

	workID := 0
	if rec.WorkID != nil {
		workID = *rec.WorkID
	}
	fields := map[string]any{"work_id": workID, "duration_ms": duration.Milliseconds()}
	if rec.Error != "" {
		fields["error_message"] = rec.Error
	}
	sink.WritePoint(domain.Point{
		Measurement: "work_item_processing",
		Tags: map[string]string{
			"work_type":  string(rec.Type),
			"status":     string(rec.Status),
			"message_id": msg.MessageID,
		},
		Fields: fields,
		Time:   c.now(),
	})

	if c.workLog != nil {
		entry := domain.WorkLogEntry{
			WorkID:     rec.WorkID,
			WorkType:   rec.Type,
			MessageID:  msg.MessageID,
			Status:     rec.Status,
			Payload:    payload,
			DurationMs: duration.Milliseconds(),
			Error:      rec.Error,
		}
		if err := c.workLog.Append(ctx, entry); err != nil {
			c.logger.Warn("failed to record work log entry", "message_id", msg.MessageID, "error", err)
		}
	}
	return rec
}

// run dispatches item to its processor. A panicking processor fails only
// its own item.
func (c *Consumer) run(ctx context.Context, item *domain.WorkItem, sink domain.MetricsSink) (err error) {
	proc, err := c.registry.Lookup(item.Type)
	if err != nil {
		return err
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("processor for %s panicked: %v", item.Type, r)
		}
	}()

	start := c.now()
	result, err := proc.Process(ctx, item, sink)
	if err != nil {
		return err
	}

	sink.WritePoint(domain.Point{
		Measurement: "work_item_completed",
		Tags:        map[string]string{"work_type": string(item.Type)},
		Fields: map[string]any{
			"work_id":                item.ID,
			"processing_duration_ms": c.now().Sub(start).Milliseconds(),
		},
		Time: c.now(),
	})
	c.logger.Debug("processor result", "work_id", item.ID, "result", result)
	return nil
}

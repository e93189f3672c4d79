// internal/worker/handler.go
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"workqueue-lambdas/internal/domain"
)

// Response is returned to the queue trigger after a batch.
type Response struct {
	StatusCode  int                `json:"statusCode"`
	Timestamp   string             `json:"timestamp"`
	Environment string             `json:"environment"`
	Processing  domain.BatchResult `json:"processing"`
}

// Handler is the queue-triggered entry point.
type Handler struct {
	consumer    *Consumer
	openSink    domain.SinkOpener
	environment string
	logger      *slog.Logger
	now         func() time.Time
}

// NewHandler wires a Handler. A nil openSink disables time-series output.
func NewHandler(consumer *Consumer, openSink domain.SinkOpener, environment string, logger *slog.Logger) *Handler {
	if openSink == nil {
		openSink = func(context.Context) (domain.MetricsSink, error) { return domain.NopSink{}, nil }
	}
	return &Handler{
		consumer:    consumer,
		openSink:    openSink,
		environment: environment,
		logger:      logger.With("component", "worker-handler"),
		now:         time.Now,
	}
}

// Handle processes one batch. Per-message failures only show up in the
// response; an error is returned only when the batch could not start.
func (h *Handler) Handle(ctx context.Context, msgs []domain.ReceivedMessage) (*Response, error) {
	h.logger.Info("worker triggered", "at", h.now().UTC().Format(time.RFC3339), "messages", len(msgs))

	sink, err := h.openSink(ctx)
	if err != nil {
		h.logger.Error("failed to open metrics sink", "error", err)
		return nil, fmt.Errorf("setup failed: %w", err)
	}
	defer func() {
		sink.Flush(ctx)
		sink.Close()
	}()

	result := h.consumer.ProcessBatch(ctx, msgs, sink)
	resp := &Response{
		StatusCode:  result.StatusCode(),
		Timestamp:   h.now().UTC().Format(time.RFC3339),
		Environment: h.environment,
		Processing:  result,
	}
	h.logger.Info("worker processing completed",
		"status_code", resp.StatusCode,
		"total", result.Total,
		"succeeded", result.SucceededCount,
		"failed", result.FailedCount)
	return resp, nil
}

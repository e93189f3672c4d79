// internal/dispatcher/dispatcher.go
package dispatcher

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"workqueue-lambdas/internal/domain"
	"workqueue-lambdas/internal/metrics"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Dispatcher publishes work items to a queue, one message per item.
type Dispatcher struct {
	publisher domain.Publisher
	logger    *slog.Logger
	tracer    trace.Tracer
	now       func() time.Time
}

// New creates a Dispatcher publishing through publisher.
func New(publisher domain.Publisher, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		publisher: publisher,
		logger:    logger.With("component", "dispatcher"),
		tracer:    otel.Tracer("workqueue-dispatcher"),
		now:       time.Now,
	}
}

// Dispatch publishes items in order. The first failure stops the batch: the
// failing item is recorded as failed, nothing after it is published, and the
// error is returned together with the records produced so far.
func (d *Dispatcher) Dispatch(ctx context.Context, queueID string, items []domain.WorkItem, sink domain.MetricsSink) ([]domain.DispatchRecord, error) {
	ctx, span := d.tracer.Start(ctx, "dispatcher.Dispatch", trace.WithAttributes(
		attribute.String("queue.id", queueID),
		attribute.Int("batch.size", len(items)),
	))
	defer span.End()

	if queueID == "" {
		span.SetStatus(codes.Error, "queue not configured")
		return nil, domain.ErrMissingQueue
	}
	if sink == nil {
		sink = domain.NopSink{}
	}

	records := make([]domain.DispatchRecord, 0, len(items))
	for _, item := range items {
		messageID, err := d.publish(ctx, queueID, item)
		if err != nil {
			records = append(records, domain.DispatchRecord{
				WorkID:  item.ID,
				Type:    item.Type,
				Outcome: domain.DispatchFailed,
			})
			metrics.WorkItemsDispatchedTotal.WithLabelValues(string(item.Type), string(domain.DispatchFailed)).Inc()
			d.logger.Error("failed to send work item", "work_id", item.ID, "work_type", item.Type, "error", err)

			span.RecordError(err)
			span.SetStatus(codes.Error, "publish failed")
			return records, domain.NewItemError(item.ID, err)
		}

		records = append(records, domain.DispatchRecord{
			WorkID:    item.ID,
			MessageID: messageID,
			Type:      item.Type,
			Outcome:   domain.DispatchSent,
		})
		metrics.WorkItemsDispatchedTotal.WithLabelValues(string(item.Type), string(domain.DispatchSent)).Inc()
		d.logger.Info("sent work item", "work_id", item.ID, "work_type", item.Type, "message_id", messageID)

		sink.WritePoint(domain.Point{
			Measurement: "sqs_messages",
			Tags:        map[string]string{"work_type": string(item.Type), "status": string(domain.DispatchSent)},
			Fields:      map[string]any{"work_id": item.ID, "message_id": messageID},
			Time:        d.now(),
		})
	}

	span.SetAttributes(attribute.Int("messages.sent", len(records)))
	return records, nil
}

func (d *Dispatcher) publish(ctx context.Context, queueID string, item domain.WorkItem) (string, error) {
	if err := item.Validate(); err != nil {
		return "", err
	}
	body, err := item.Encode()
	if err != nil {
		return "", err
	}

	messageID, err := d.publisher.Publish(ctx, queueID, domain.OutboundMessage{
		Body: body,
		Attributes: map[string]string{
			domain.AttrWorkType: string(item.Type),
			domain.AttrWorkID:   strconv.Itoa(item.ID),
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to send work item %d to queue: %w", item.ID, err)
	}
	return messageID, nil
}

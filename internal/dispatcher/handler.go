package dispatcher

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"workqueue-lambdas/internal/domain"
)

const functionName = "lambda-cron-go"

// Response is returned to the scheduler that invoked the dispatcher.
type Response struct {
	StatusCode  int     `json:"statusCode"`
	Timestamp   string  `json:"timestamp"`
	Environment string  `json:"environment"`
	CronJob     CronJob `json:"cronJob"`
}

// CronJob reports the dispatch. Error is always null in a returned
// Response: a failed run returns an error instead.
type CronJob struct {
	Success       bool           `json:"success"`
	Error         *string        `json:"error"`
	ProcessedData *ProcessedData `json:"processedData"`
}

type ProcessedData struct {
	MessagesSent    []domain.DispatchRecord `json:"messagesSent"`
	ExecutionTimeMs int64                   `json:"executionTimeMs"`
	Timestamp       string                  `json:"timestamp"`
}

// HandlerConfig carries the per-process settings of a Handler.
type HandlerConfig struct {
	QueueID     string
	Environment string
	Items       []domain.WorkItem
}

// Handler is the cron-triggered entry point: it opens a metrics sink,
// publishes the configured batch and reports what was sent.
type Handler struct {
	dispatcher *Dispatcher
	openSink   domain.SinkOpener
	cfg        HandlerConfig
	logger     *slog.Logger
	now        func() time.Time
}

// NewHandler wires a Handler. A nil openSink disables time-series output.
func NewHandler(d *Dispatcher, openSink domain.SinkOpener, cfg HandlerConfig, logger *slog.Logger) *Handler {
	if openSink == nil {
		openSink = func(context.Context) (domain.MetricsSink, error) { return domain.NopSink{}, nil }
	}
	if cfg.Items == nil {
		cfg.Items = DefaultBatch()
	}
	return &Handler{
		dispatcher: d,
		openSink:   openSink,
		cfg:        cfg,
		logger:     logger.With("component", "dispatcher-handler"),
		now:        time.Now,
	}
}

// Handle runs one dispatch. Any error is returned as is so the invoking
// platform applies its retry policy; no partial response is produced.
func (h *Handler) Handle(ctx context.Context, event json.RawMessage) (*Response, error) {
	start := h.now()
	h.logger.Info("cron job triggered", "at", start.UTC().Format(time.RFC3339), "event", string(event))

	sink, err := h.openSink(ctx)
	if err != nil {
		h.logger.Error("failed to open metrics sink", "error", err)
		return nil, fmt.Errorf("setup failed: %w", err)
	}
	defer func() {
		sink.Flush(ctx)
		sink.Close()
	}()

	sink.WritePoint(domain.Point{
		Measurement: "cron_job_execution",
		Tags:        map[string]string{"status": "started", "function_name": functionName},
		Fields:      map[string]any{"execution_start": 1},
		Time:        start,
	})

	records, err := h.dispatcher.Dispatch(ctx, h.cfg.QueueID, h.cfg.Items, sink)
	if err != nil {
		sink.WritePoint(domain.Point{
			Measurement: "cron_job_execution",
			Tags:        map[string]string{"status": "error", "function_name": functionName},
			Fields:      map[string]any{"error_message": err.Error(), "messages_sent": countSent(records)},
			Time:        h.now(),
		})
		h.logger.Error("cron job failed", "error", err, "messages_sent", countSent(records))
		return nil, err
	}

	elapsed := h.now().Sub(start)
	sink.WritePoint(domain.Point{
		Measurement: "cron_job_execution",
		Tags:        map[string]string{"status": "completed", "function_name": functionName},
		Fields: map[string]any{
			"messages_sent":         len(records),
			"execution_duration_ms": elapsed.Milliseconds(),
		},
		Time: h.now(),
	})

	resp := &Response{
		StatusCode:  http.StatusOK,
		Timestamp:   h.now().UTC().Format(time.RFC3339),
		Environment: h.cfg.Environment,
		CronJob: CronJob{
			Success: true,
			ProcessedData: &ProcessedData{
				MessagesSent:    records,
				ExecutionTimeMs: elapsed.Milliseconds(),
				Timestamp:       h.now().UTC().Format(time.RFC3339),
			},
		},
	}
	h.logger.Info("cron job completed", "messages_sent", len(records), "duration_ms", elapsed.Milliseconds())
	return resp, nil
}

func countSent(records []domain.DispatchRecord) int {
	n := 0
	for _, r := range records {
		if r.Outcome == domain.DispatchSent {
			n++
		}
	}
	return n
}

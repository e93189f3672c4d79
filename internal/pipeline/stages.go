// internal/pipeline/stages.go
package pipeline

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"
	"time"

	"workqueue-lambdas/internal/metrics"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	StageProcess  = "process"
	StageValidate = "validate"
	StageNotify   = "notify"
)

const (
	processDelay  = 1000 * time.Millisecond
	validateDelay = 500 * time.Millisecond
	notifyDelay   = 300 * time.Millisecond
)

// Stages implements the three pipeline steps. Each step is invoked on its
// own; sequencing is left to the caller.
type Stages struct {
	logger     *slog.Logger
	tracer     trace.Tracer
	validate   *validator.Validate
	delayScale float64
	intN       func(n int) int
	now        func() time.Time
}

type Option func(*Stages)

// WithDelayScale multiplies every stage delay; 0 disables sleeping.
func WithDelayScale(scale float64) Option {
	return func(s *Stages) { s.delayScale = scale }
}

// WithRand replaces the random source of the process stage.
func WithRand(intN func(n int) int) Option {
	return func(s *Stages) { s.intN = intN }
}

func New(logger *slog.Logger, opts ...Option) *Stages {
	s := &Stages{
		logger:     logger.With("component", "pipeline"),
		tracer:     otel.Tracer("workqueue-pipeline"),
		validate:   validator.New(validator.WithRequiredStructEnabled()),
		delayScale: 1,
		intN:       rand.IntN,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Process enriches the input with simulated counts. recordCount and
// processedRecords are drawn independently, so the consistency check of the
// validate stage may fail.
func (s *Stages) Process(ctx context.Context, event Document) (doc Document, err error) {
	ctx, span := s.tracer.Start(ctx, "pipeline.Process")
	defer func() { s.finish(span, StageProcess, err) }()

	s.logger.Info("processing data", "event", event)
	if err := s.pause(ctx, processDelay); err != nil {
		return nil, fmt.Errorf("processing failed: %w", err)
	}

	doc = event.Input().Clone()
	doc["processedAt"] = s.timestamp()
	doc["processedBy"] = "step-processor"
	doc["status"] = "processed"
	doc["result"] = map[string]any{
		"recordCount":      s.intN(1000) + 1,
		"processedRecords": s.intN(950) + 1,
	}
	s.logger.Info("processing completed", "result", doc["result"])
	return doc, nil
}

// Validate runs the record count checks against the result of Process.
func (s *Stages) Validate(ctx context.Context, event Document) (doc Document, err error) {
	ctx, span := s.tracer.Start(ctx, "pipeline.Validate")
	defer func() { s.finish(span, StageValidate, err) }()

	s.logger.Info("validating data", "event", event)
	if err := s.pause(ctx, validateDelay); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	data := event.Input()
	result := RunChecks(data.readCounts())
	isValid := true
	for _, c := range result.Checks {
		isValid = isValid && c.Passed
	}

	doc = data.Clone()
	doc["validatedAt"] = s.timestamp()
	doc["validatedBy"] = "step-validator"
	doc["isValid"] = isValid
	doc["validationResult"] = result
	span.SetAttributes(attribute.Bool("pipeline.valid", isValid))
	s.logger.Info("validation completed", "is_valid", isValid)
	return doc, nil
}

// RunChecks evaluates the three named checks on the counts as given. A
// missing count fails every check that reads it.
func RunChecks(c Counts) ValidationResult {
	countOK := c.RecordCount != nil && *c.RecordCount > 0
	processedOK := c.ProcessedRecords != nil && *c.ProcessedRecords > 0
	consistent := c.RecordCount != nil && c.ProcessedRecords != nil && *c.ProcessedRecords <= *c.RecordCount

	return ValidationResult{Checks: []Check{
		check("record_count_check", countOK, "Record count is valid", "Invalid record count"),
		check("processed_records_check", processedOK, "Processed records count is valid", "Invalid processed records count"),
		check("consistency_check", consistent, "Data consistency check passed", "Data consistency check failed"),
	}}
}

func check(name string, passed bool, ok, failed string) Check {
	msg := failed
	if passed {
		msg = ok
	}
	return Check{Name: name, Passed: passed, Message: msg}
}

// NotifyRequest is the input of the notify stage.
type NotifyRequest struct {
	Status  string   `json:"status" validate:"omitempty,oneof=success error info"`
	Message string   `json:"message"`
	Data    Document `json:"data"`
	Error   string   `json:"error"`
}

// Notification is the record emitted by the notify stage.
type Notification struct {
	NotificationID string `json:"notificationId"`
	Timestamp      string `json:"timestamp"`
	Status         string `json:"status"`
	Message        string `json:"message"`
	SentBy         string `json:"sentBy"`
	Delivered      bool   `json:"delivered"`
}

// Notify emits a notification for req. It does not alter req.Data.
func (s *Stages) Notify(ctx context.Context, req NotifyRequest) (n *Notification, err error) {
	ctx, span := s.tracer.Start(ctx, "pipeline.Notify", trace.WithAttributes(
		attribute.String("notification.status", req.Status),
	))
	defer func() { s.finish(span, StageNotify, err) }()

	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("notification failed: %w", err)
	}
	if err := s.pause(ctx, notifyDelay); err != nil {
		return nil, fmt.Errorf("notification failed: %w", err)
	}

	now := s.now()
	n = &Notification{
		NotificationID: fmt.Sprintf("notif-%d-%s", now.UnixMilli(), strings.ReplaceAll(uuid.NewString(), "-", "")[:9]),
		Timestamp:      now.UTC().Format(time.RFC3339Nano),
		Status:         cmp.Or(req.Status, "info"),
		Message:        cmp.Or(req.Message, "Notification sent"),
		SentBy:         "step-notifier",
		Delivered:      true,
	}

	switch n.Status {
	case "success":
		counts := req.Data.readCounts()
		isValid, _ := req.Data["isValid"].(bool)
		s.logger.Info("success notification",
			"notification_id", n.NotificationID,
			"message", n.Message,
			"records_processed", deref(counts.ProcessedRecords),
			"total_records", deref(counts.RecordCount),
			"validation_passed", isValid)
	case "error":
		var result ValidationResult
		if _, err := req.Data.decodeField("validationResult", &result); err != nil {
			s.logger.Warn("unreadable validation result", "error", err)
		}
		s.logger.Error("error notification",
			"notification_id", n.NotificationID,
			"message", n.Message,
			"error", cmp.Or(req.Error, "Unknown error occurred"),
			"failed_checks", result.Failed())
	default:
		s.logger.Info("info notification", "notification_id", n.NotificationID, "message", n.Message)
	}
	return n, nil
}

func (s *Stages) finish(span trace.Span, stage string, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.logger.Error("stage failed", "stage", stage, "error", err)
	}
	metrics.PipelineStageTotal.WithLabelValues(stage, outcome).Inc()
	span.End()
}

func (s *Stages) pause(ctx context.Context, d time.Duration) error {
	d = time.Duration(float64(d) * s.delayScale)
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (s *Stages) timestamp() string {
	return s.now().UTC().Format(time.RFC3339Nano)
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}

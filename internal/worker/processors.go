// internal/worker/processors.go
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"workqueue-lambdas/internal/domain"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
)

type dataProcessingPayload struct {
	Action string `mapstructure:"action" validate:"required"`
	UserID *int   `mapstructure:"userId" validate:"required_if=Action update_profile"`
}

type emailPayload struct {
	Email    string `mapstructure:"email" validate:"required"`
	Template string `mapstructure:"template" validate:"required"`
}

type cleanupPayload struct {
	Table string `mapstructure:"table" validate:"required"`
	Days  *int   `mapstructure:"days" validate:"required"`
}

type reportPayload struct {
	ReportType string `mapstructure:"reportType" validate:"required"`
	UserID     *int   `mapstructure:"userId" validate:"required"`
}

type backupPayload struct {
	Database  string `mapstructure:"database" validate:"required"`
	Retention *int   `mapstructure:"retention" validate:"required"`
}

// Simulator provides the built-in processors. Each one checks its payload,
// sleeps for a fixed simulated duration and reports a measurement.
type Simulator struct {
	logger     *slog.Logger
	validate   *validator.Validate
	delayScale float64
	intN       func(n int) int
	now        func() time.Time
}

type SimulatorOption func(*Simulator)

// WithDelayScale multiplies every simulated duration; 0 disables sleeping.
func WithDelayScale(scale float64) SimulatorOption {
	return func(s *Simulator) { s.delayScale = scale }
}

// WithIntN replaces the random source used for simulated counts and sizes.
func WithIntN(intN func(n int) int) SimulatorOption {
	return func(s *Simulator) { s.intN = intN }
}

func NewSimulator(logger *slog.Logger, opts ...SimulatorOption) *Simulator {
	s := &Simulator{
		logger:     logger.With("component", "processor"),
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

// Processors returns the processor table for every work type.
func (s *Simulator) Processors() map[domain.WorkType]Processor {
	return map[domain.WorkType]Processor{
		domain.WorkTypeDataProcessing:    ProcessorFunc(s.processData),
		domain.WorkTypeEmailNotification: ProcessorFunc(s.sendEmail),
		domain.WorkTypeDataCleanup:       ProcessorFunc(s.cleanup),
		domain.WorkTypeReportGeneration:  ProcessorFunc(s.generateReport),
		domain.WorkTypeBackupTask:        ProcessorFunc(s.backup),
	}
}

// NewDefaultRegistry builds a Registry backed by a Simulator.
func NewDefaultRegistry(logger *slog.Logger, opts ...SimulatorOption) (*Registry, error) {
	return NewRegistry(NewSimulator(logger, opts...).Processors())
}

func (s *Simulator) processData(ctx context.Context, item *domain.WorkItem, sink domain.MetricsSink) (Result, error) {
	var p dataProcessingPayload
	if err := s.decode(item.Payload, &p); err != nil {
		return nil, err
	}
	if p.Action != "update_profile" {
		s.logger.Info("no-op data action", "work_id", item.ID, "action", p.Action)
		return Result{"action": p.Action}, nil
	}

	const took = 100 * time.Millisecond
	if err := s.pause(ctx, took); err != nil {
		return nil, err
	}
	userID := *p.UserID
	s.logger.Info("updated profile", "work_id", item.ID, "user_id", userID)

	sink.WritePoint(domain.Point{
		Measurement: "user_activity",
		Tags:        map[string]string{"action": p.Action},
		Fields:      map[string]any{"user_id": userID, "processing_time_ms": took.Milliseconds()},
		Time:        s.now(),
	})
	return Result{"action": p.Action, "user_id": userID}, nil
}

func (s *Simulator) sendEmail(ctx context.Context, item *domain.WorkItem, sink domain.MetricsSink) (Result, error) {
	var p emailPayload
	if err := s.decode(item.Payload, &p); err != nil {
		return nil, err
	}

	const took = 200 * time.Millisecond
	if err := s.pause(ctx, took); err != nil {
		return nil, err
	}
	s.logger.Info("email notification sent", "work_id", item.ID, "recipient", p.Email, "template", p.Template)

	sink.WritePoint(domain.Point{
		Measurement: "email_notifications",
		Tags:        map[string]string{"template": p.Template, "status": "sent"},
		Fields:      map[string]any{"recipient": p.Email, "delivery_time_ms": took.Milliseconds()},
		Time:        s.now(),
	})
	return Result{"recipient": p.Email, "template": p.Template}, nil
}

func (s *Simulator) cleanup(ctx context.Context, item *domain.WorkItem, sink domain.MetricsSink) (Result, error) {
	var p cleanupPayload
	if err := s.decode(item.Payload, &p); err != nil {
		return nil, err
	}
	// only old_logs has a retention policy
	if p.Table != "old_logs" {
		s.logger.Info("no cleanup policy for table", "work_id", item.ID, "table", p.Table)
		return Result{"table": p.Table, "records_deleted": 0}, nil
	}

	const took = 150 * time.Millisecond
	if err := s.pause(ctx, took); err != nil {
		return nil, err
	}
	deleted := s.intN(100)
	s.logger.Info("cleaned up records", "work_id", item.ID, "table", p.Table, "older_than_days", *p.Days, "deleted", deleted)

	sink.WritePoint(domain.Point{
		Measurement: "data_cleanup",
		Tags:        map[string]string{"table": p.Table},
		Fields: map[string]any{
			"records_deleted": deleted,
			"retention_days":  *p.Days,
			"cleanup_time_ms": took.Milliseconds(),
		},
		Time: s.now(),
	})
	return Result{"table": p.Table, "records_deleted": deleted}, nil
}

func (s *Simulator) generateReport(ctx context.Context, item *domain.WorkItem, sink domain.MetricsSink) (Result, error) {
	var p reportPayload
	if err := s.decode(item.Payload, &p); err != nil {
		return nil, err
	}

	const took = 300 * time.Millisecond
	if err := s.pause(ctx, took); err != nil {
		return nil, err
	}
	sizeKB := s.intN(1000) + 100
	s.logger.Info("generated report", "work_id", item.ID, "report_type", p.ReportType, "user_id", *p.UserID, "size_kb", sizeKB)

	sink.WritePoint(domain.Point{
		Measurement: "report_generation",
		Tags:        map[string]string{"report_type": p.ReportType},
		Fields: map[string]any{
			"user_id":            *p.UserID,
			"report_size_kb":     sizeKB,
			"generation_time_ms": took.Milliseconds(),
		},
		Time: s.now(),
	})
	return Result{"report_type": p.ReportType, "report_size_kb": sizeKB}, nil
}

func (s *Simulator) backup(ctx context.Context, item *domain.WorkItem, sink domain.MetricsSink) (Result, error) {
	var p backupPayload
	if err := s.decode(item.Payload, &p); err != nil {
		return nil, err
	}

	const took = 500 * time.Millisecond
	if err := s.pause(ctx, took); err != nil {
		return nil, err
	}
	sizeMB := s.intN(10000) + 1000
	s.logger.Info("backup completed", "work_id", item.ID, "database", p.Database, "retention_days", *p.Retention, "size_mb", sizeMB)

	sink.WritePoint(domain.Point{
		Measurement: "database_backup",
		Tags:        map[string]string{"database": p.Database},
		Fields: map[string]any{
			"backup_size_mb": sizeMB,
			"retention_days": *p.Retention,
			"backup_time_ms": took.Milliseconds(),
		},
		Time: s.now(),
	})
	return Result{"database": p.Database, "backup_size_mb": sizeMB}, nil
}

// decode maps a payload onto out and validates it. Numeric fields accept any
// JSON number but not numeric strings; required numbers may be zero.
func (s *Simulator) decode(payload domain.Payload, out any) error {
	if err := mapstructure.Decode(map[string]any(payload), out); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidPayload, err)
	}
	if err := s.validate.Struct(out); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidPayload, err)
	}
	return nil
}

func (s *Simulator) pause(ctx context.Context, d time.Duration) error {
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

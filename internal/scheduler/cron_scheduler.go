// internal/scheduler/cron_scheduler.go
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"workqueue-lambdas/internal/domain"

	"github.com/robfig/cron/v3"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// cronScheduler fires triggers on six-field (seconds first) cron expressions.
type cronScheduler struct {
	cron    *cron.Cron
	mu      sync.Mutex
	entries map[string]cron.EntryID
	logger  *slog.Logger
	tracer  trace.Tracer

	ctxMu  sync.Mutex
	parent context.Context
	cancel context.CancelFunc
}

func NewCronScheduler(logger *slog.Logger) domain.Scheduler {
	return &cronScheduler{
		cron:    cron.New(cron.WithSeconds()),
		entries: make(map[string]cron.EntryID),
		logger:  logger.With("component", "cron-scheduler"),
		tracer:  otel.Tracer("workqueue-scheduler"),
		parent:  context.Background(),
	}
}

// Start runs the cron loop until ctx ends or Stop is called. Triggers fired
// while running inherit ctx.
func (s *cronScheduler) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	s.ctxMu.Lock()
	s.parent = ctx
	s.cancel = cancel
	s.ctxMu.Unlock()

	s.logger.Info("cron scheduler started")
	s.cron.Start()
	<-ctx.Done()
	s.logger.Info("cron scheduler stopping...")
	stopCtx := s.cron.Stop()
	<-stopCtx.Done()
	s.logger.Info("cron scheduler stopped")
	return ctx.Err()
}

func (s *cronScheduler) Stop() {
	s.ctxMu.Lock()
	defer s.ctxMu.Unlock()
	if s.cancel != nil {
		s.cancel()
	}
}

// AddTrigger registers t, replacing any trigger with the same name.
func (s *cronScheduler) AddTrigger(t domain.Trigger) error {
	if t.Run == nil {
		return fmt.Errorf("trigger %s has no run function", t.Name)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if entryID, ok := s.entries[t.Name]; ok {
		s.cron.Remove(entryID)
	}
	entryID, err := s.cron.AddJob(t.CronExpr, &triggerJob{
		trigger: t,
		parent:  s.runContext,
		logger:  s.logger.With("trigger", t.Name),
		tracer:  s.tracer,
	})
	if err != nil {
		s.logger.Error("failed to add trigger to cron", "trigger", t.Name, "error", err)
		return fmt.Errorf("invalid schedule %q for trigger %s: %w", t.CronExpr, t.Name, err)
	}

	s.entries[t.Name] = entryID
	s.logger.Info("added trigger to scheduler", "trigger", t.Name, "schedule", t.CronExpr)
	return nil
}

func (s *cronScheduler) RemoveTrigger(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if entryID, ok := s.entries[name]; ok {
		s.cron.Remove(entryID)
		delete(s.entries, name)
		s.logger.Info("removed trigger from scheduler", "trigger", name)
	}
	return nil
}

func (s *cronScheduler) runContext() context.Context {
	s.ctxMu.Lock()
	defer s.ctxMu.Unlock()
	return s.parent
}

// triggerJob adapts a Trigger to cron.Job.
type triggerJob struct {
	trigger domain.Trigger
	parent  func() context.Context
	logger  *slog.Logger
	tracer  trace.Tracer
}

func (j *triggerJob) Run() {
	ctx, span := j.tracer.Start(j.parent(), "scheduler.Fire",
		trace.WithAttributes(attribute.String("trigger.name", j.trigger.Name)))
	defer span.End()

	j.logger.Info("firing trigger")
	if err := j.trigger.Run(ctx); err != nil {
		j.logger.Error("trigger failed", "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "trigger failed")
	}
}

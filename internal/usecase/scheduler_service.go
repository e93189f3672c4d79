// internal/usecase/scheduler_service.go
package usecase

import (
	"context"
	"log/slog"
	"time"

	"workqueue-lambdas/internal/domain"
	"workqueue-lambdas/internal/metrics"
)

// SchedulerService runs the triggers only while this node holds leadership,
// so a fleet of replicas fires each schedule once.
type SchedulerService struct {
	leaderManager domain.LeaderElectionManager
	scheduler     domain.Scheduler
	triggers      []domain.Trigger
	nodeID        string
	retryDelay    time.Duration
	logger        *slog.Logger
}

func NewSchedulerService(leaderManager domain.LeaderElectionManager, scheduler domain.Scheduler, triggers []domain.Trigger, nodeID string, logger *slog.Logger) *SchedulerService {
	return &SchedulerService{
		leaderManager: leaderManager,
		scheduler:     scheduler,
		triggers:      triggers,
		nodeID:        nodeID,
		retryDelay:    5 * time.Second,
		logger:        logger.With("component", "scheduler-service", "node_id", nodeID),
	}
}

// Start campaigns for leadership until ctx ends, running the scheduler for
// each term won.
func (s *SchedulerService) Start(ctx context.Context) error {
	s.logger.Info("scheduler service starting")
	gauge := metrics.IsLeader.WithLabelValues(s.nodeID)
	gauge.Set(0)

	for {
		if ctx.Err() != nil {
			s.logger.Info("scheduler service shutting down")
			return ctx.Err()
		}

		s.logger.Info("attempting to campaign for leadership")
		lost, err := s.leaderManager.Campaign(ctx)
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			s.logger.Error("leadership campaign failed", "error", err, "retry_in", s.retryDelay)
			select {
			case <-time.After(s.retryDelay):
			case <-ctx.Done():
			}
			continue
		}

		s.logger.Info("became the leader, starting the scheduler")
		gauge.Set(1)
		s.lead(ctx, lost)
		gauge.Set(0)
	}
}

// lead runs the scheduler until leadership is lost or ctx ends.
func (s *SchedulerService) lead(ctx context.Context, lost <-chan struct{}) {
	termCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	for _, t := range s.triggers {
		if err := s.scheduler.AddTrigger(t); err != nil {
			s.logger.Error("failed to register trigger", "trigger", t.Name, "error", err)
		}
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = s.scheduler.Start(termCtx)
	}()

	select {
	case <-lost:
		s.logger.Warn("leadership lost, stopping the scheduler")
	case <-ctx.Done():
		resignCtx, resignCancel := context.WithTimeout(context.Background(), 3*time.Second)
		if err := s.leaderManager.Resign(resignCtx); err != nil {
			s.logger.Error("failed to resign leadership", "error", err)
		}
		resignCancel()
	}
	s.scheduler.Stop()
	cancel()
	<-done
}

package scheduler

import (
	"context"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"workqueue-lambdas/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestCronSchedulerFiresTriggers(t *testing.T) {
	s := NewCronScheduler(discardLogger())
	var fired atomic.Int32
	require.NoError(t, s.AddTrigger(domain.Trigger{
		Name:     "dispatch",
		CronExpr: "* * * * * *",
		Run: func(ctx context.Context) error {
			fired.Add(1)
			return ctx.Err()
		},
	}))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Start(ctx) }()

	assert.Eventually(t, func() bool { return fired.Load() > 0 }, 3*time.Second, 20*time.Millisecond)
	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}

func TestCronSchedulerStop(t *testing.T) {
	s := NewCronScheduler(discardLogger())
	done := make(chan error, 1)
	go func() { done <- s.Start(context.Background()) }()

	assert.Eventually(t, func() bool {
		s.Stop()
		select {
		case err := <-done:
			return assert.ErrorIs(t, err, context.Canceled)
		default:
			return false
		}
	}, 2*time.Second, 20*time.Millisecond)
}

func TestAddTriggerRejectsBadSchedule(t *testing.T) {
	s := NewCronScheduler(discardLogger())

	err := s.AddTrigger(domain.Trigger{Name: "bad", CronExpr: "every minute", Run: func(context.Context) error { return nil }})
	assert.ErrorContains(t, err, "invalid schedule")

	err = s.AddTrigger(domain.Trigger{Name: "norun", CronExpr: "0 * * * * *"})
	assert.Error(t, err)
}

func TestAddTriggerReplacesByName(t *testing.T) {
	s := NewCronScheduler(discardLogger()).(*cronScheduler)
	run := func(context.Context) error { return nil }

	require.NoError(t, s.AddTrigger(domain.Trigger{Name: "dispatch", CronExpr: "0 * * * * *", Run: run}))
	require.NoError(t, s.AddTrigger(domain.Trigger{Name: "dispatch", CronExpr: "30 * * * * *", Run: run}))
	assert.Len(t, s.cron.Entries(), 1)

	require.NoError(t, s.RemoveTrigger("dispatch"))
	assert.Empty(t, s.cron.Entries())
	assert.NoError(t, s.RemoveTrigger("missing"))
}

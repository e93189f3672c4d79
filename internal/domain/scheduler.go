package domain

import "context"

// Trigger is a named piece of work fired on a cron schedule.
type Trigger struct {
	Name     string
	CronExpr string
	Run      func(ctx context.Context) error
}

// Scheduler fires triggers on their schedules until its context ends.
type Scheduler interface {
	Start(ctx context.Context) error
	Stop()

	AddTrigger(t Trigger) error
	RemoveTrigger(name string) error
}

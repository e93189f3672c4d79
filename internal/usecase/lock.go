// internal/usecase/lock.go
package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"workqueue-lambdas/internal/domain"
)

// runExclusive runs fn while holding the named lock. A nil locker runs fn
// directly. ErrLockNotAcquired is returned untouched when another node is
// already running.
func runExclusive(ctx context.Context, locker domain.Locker, name string, logger *slog.Logger, fn func(ctx context.Context) error) error {
	if locker == nil {
		return fn(ctx)
	}
	lock, err := locker.Lock(ctx, name)
	if err != nil {
		return err
	}
	defer func() {
		unlockCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := lock.Unlock(unlockCtx); err != nil {
			logger.Error("failed to release lock", "lock", name, "error", err)
		}
	}()
	return fn(ctx)
}

// DispatchLockName is shared by scheduled and manual dispatches.
const DispatchLockName = "dispatch"

// ExclusiveTrigger wraps t so a run is skipped while the named lock is held
// elsewhere.
func ExclusiveTrigger(t domain.Trigger, lockName string, locker domain.Locker, logger *slog.Logger) domain.Trigger {
	run := t.Run
	t.Run = func(ctx context.Context) error {
		err := runExclusive(ctx, locker, lockName, logger, run)
		if errors.Is(err, domain.ErrLockNotAcquired) {
			logger.Info("skipping trigger, another run is in progress", "trigger", t.Name)
			return nil
		}
		return err
	}
	return t
}

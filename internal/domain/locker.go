package domain

import (
	"context"
	"errors"
)

// ErrLockNotAcquired is returned when another holder owns the lock.
var ErrLockNotAcquired = errors.New("lock is held by another node")

// Lock is a held distributed lock.
type Lock interface {
	Unlock(ctx context.Context) error
}

// Locker hands out named, non-blocking distributed locks.
type Locker interface {
	Lock(ctx context.Context, name string) (Lock, error)
}

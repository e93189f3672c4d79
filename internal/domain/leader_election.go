package domain

import "context"

// LeaderElectionManager lets one scheduler replica at a time fire triggers.
type LeaderElectionManager interface {
	Campaign(ctx context.Context) (<-chan struct{}, error)
	Resign(ctx context.Context) error
	IsLeader() bool
}

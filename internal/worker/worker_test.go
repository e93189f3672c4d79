package worker

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"

	"workqueue-lambdas/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type recordingSink struct {
	mu      sync.Mutex
	points  []domain.Point
	flushed int
	closed  bool
}

func (s *recordingSink) WritePoint(p domain.Point) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.points = append(s.points, p)
}

func (s *recordingSink) Flush(context.Context) { s.flushed++ }
func (s *recordingSink) Close()                { s.closed = true }

func (s *recordingSink) byMeasurement(name string) []domain.Point {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Point
	for _, p := range s.points {
		if p.Measurement == name {
			out = append(out, p)
		}
	}
	return out
}

// instantSimulator never sleeps and always draws the largest value.
func instantSimulator() *Simulator {
	return NewSimulator(discardLogger(), WithDelayScale(0), WithIntN(func(n int) int { return n - 1 }))
}

func TestNewRegistryRequiresEveryWorkType(t *testing.T) {
	procs := instantSimulator().Processors()
	delete(procs, domain.WorkTypeBackupTask)

	_, err := NewRegistry(procs)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "backup_task")
}

func TestNewRegistryRejectsUnknownType(t *testing.T) {
	procs := instantSimulator().Processors()
	procs["teleport"] = ProcessorFunc(func(context.Context, *domain.WorkItem, domain.MetricsSink) (Result, error) {
		return nil, nil
	})

	_, err := NewRegistry(procs)
	assert.ErrorIs(t, err, domain.ErrUnknownWorkType)
}

func TestRegistryCoversAllWorkTypes(t *testing.T) {
	reg, err := NewDefaultRegistry(discardLogger(), WithDelayScale(0))
	require.NoError(t, err)

	for _, wt := range domain.AllWorkTypes {
		p, err := reg.Lookup(wt)
		assert.NoError(t, err, wt)
		assert.NotNil(t, p, wt)
	}

	_, err = reg.Lookup("teleport")
	assert.ErrorIs(t, err, domain.ErrUnknownWorkType)
	assert.EqualError(t, err, "unknown work item type: teleport")
}

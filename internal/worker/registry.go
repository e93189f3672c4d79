// internal/worker/registry.go
package worker

import (
	"context"
	"fmt"

	"workqueue-lambdas/internal/domain"
)

// Result holds the opaque metrics a processor reports for one item.
type Result map[string]any

// Processor performs the work for one work type.
type Processor interface {
	Process(ctx context.Context, item *domain.WorkItem, sink domain.MetricsSink) (Result, error)
}

// ProcessorFunc adapts a function to Processor.
type ProcessorFunc func(ctx context.Context, item *domain.WorkItem, sink domain.MetricsSink) (Result, error)

func (f ProcessorFunc) Process(ctx context.Context, item *domain.WorkItem, sink domain.MetricsSink) (Result, error) {
	return f(ctx, item, sink)
}

// Registry maps each work type to exactly one processor.
type Registry struct {
	processors map[domain.WorkType]Processor
}

// NewRegistry requires a processor for every known work type and rejects
// entries for types outside the enumeration.
func NewRegistry(processors map[domain.WorkType]Processor) (*Registry, error) {
	table := make(map[domain.WorkType]Processor, len(processors))
	for t, p := range processors {
		if !t.Known() {
			return nil, fmt.Errorf("%w: %s", domain.ErrUnknownWorkType, t)
		}
		if p == nil {
			return nil, fmt.Errorf("nil processor for work type %s", t)
		}
		table[t] = p
	}
	for _, t := range domain.AllWorkTypes {
		if _, ok := table[t]; !ok {
			return nil, fmt.Errorf("no processor registered for work type %s", t)
		}
	}
	return &Registry{processors: table}, nil
}

// Lookup returns the processor for t by exact match.
func (r *Registry) Lookup(t domain.WorkType) (Processor, error) {
	p, ok := r.processors[t]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownWorkType, t)
	}
	return p, nil
}

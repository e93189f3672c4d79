// internal/domain/telemetry.go
package domain

import (
	"context"
	"time"
)

// Point is a single time-series sample.
type Point struct {
	Measurement string
	Tags        map[string]string
	Fields      map[string]any
	Time        time.Time
}

// MetricsSink is a best-effort time-series writer. Implementations log their
// own failures; callers never see them.
type MetricsSink interface {
	WritePoint(p Point)
	Flush(ctx context.Context)
	Close()
}

// SinkOpener builds a sink for one invocation. Failures are setup failures.
type SinkOpener func(ctx context.Context) (MetricsSink, error)

// NopSink discards every point.
type NopSink struct{}

func (NopSink) WritePoint(Point)      {}
func (NopSink) Flush(context.Context) {}
func (NopSink) Close()                {}

// SecretStore resolves credentials by id.
type SecretStore interface {
	// GetToken returns the "token" field of the secret.
	GetToken(ctx context.Context, secretID string) (string, error)
}

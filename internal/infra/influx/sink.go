// internal/infra/influx/sink.go
package influx

import (
	"context"
	"fmt"
	"log/slog"

	"workqueue-lambdas/internal/domain"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
)

// Settings locates the bucket points are written to.
type Settings struct {
	URL      string
	Org      string
	Bucket   string
	SecretID string

	// DefaultTags are added to every point written through the sink.
	DefaultTags map[string]string
}

// Sink writes points through the non-blocking write API. Write errors are
// logged and never returned.
type Sink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPI
	logger   *slog.Logger
}

// NewSink takes ownership of client; Close closes it.
func NewSink(client influxdb2.Client, org, bucket string, logger *slog.Logger) *Sink {
	s := &Sink{
		client:   client,
		writeAPI: client.WriteAPI(org, bucket),
		logger:   logger.With("component", "influx-sink"),
	}
	go s.drainErrors()
	return s
}

// drainErrors ends when the write API closes its error channel.
func (s *Sink) drainErrors() {
	for err := range s.writeAPI.Errors() {
		s.logger.Error("failed to write points", "error", err)
	}
}

func (s *Sink) WritePoint(p domain.Point) {
	s.writeAPI.WritePoint(influxdb2.NewPoint(p.Measurement, p.Tags, p.Fields, p.Time))
}

// Flush blocks until buffered points have been sent.
func (s *Sink) Flush(context.Context) {
	s.writeAPI.Flush()
}

func (s *Sink) Close() {
	s.client.Close()
	s.logger.Debug("influxdb connection closed")
}

// NewOpener returns a SinkOpener that resolves the API token from secrets on
// every call. Without a URL the opener yields a NopSink.
func NewOpener(settings Settings, secrets domain.SecretStore, logger *slog.Logger) domain.SinkOpener {
	return func(ctx context.Context) (domain.MetricsSink, error) {
		if settings.URL == "" {
			logger.Warn("influxdb url not configured, metrics are discarded")
			return domain.NopSink{}, nil
		}
		token, err := secrets.GetToken(ctx, settings.SecretID)
		if err != nil {
			return nil, fmt.Errorf("influxdb credentials: %w", err)
		}
		opts := influxdb2.DefaultOptions().SetUseGZip(true)
		for k, v := range settings.DefaultTags {
			opts.AddDefaultTag(k, v)
		}
		client := influxdb2.NewClientWithOptions(settings.URL, token, opts)
		logger.Info("connected to influxdb", "url", settings.URL, "bucket", settings.Bucket)
		return NewSink(client, settings.Org, settings.Bucket, logger), nil
	}
}

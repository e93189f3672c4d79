// Package bootstrap holds the process wiring shared by the cmd entry points.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"workqueue-lambdas/internal/config"
	"workqueue-lambdas/internal/domain"
	"workqueue-lambdas/internal/infra/influx"
	"workqueue-lambdas/internal/infra/kafka"
	"workqueue-lambdas/internal/infra/postgres"
	"workqueue-lambdas/internal/infra/redisq"
	"workqueue-lambdas/internal/infra/secrets"
	sqsinfra "workqueue-lambdas/internal/infra/sqs"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// ErrUnknownBackend is returned for an unsupported queue.backend value.
	ErrUnknownBackend = errors.New("unknown queue backend")
	// ErrDatabaseNotConfigured is returned by NewPool without db.host.
	ErrDatabaseNotConfigured = errors.New("database host not configured")
)

// SetupGracefulShutdown cancels the root context on SIGINT or SIGTERM.
func SetupGracefulShutdown(cancel context.CancelFunc, logger *slog.Logger) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		logger.Info("received signal, initiating graceful shutdown", "signal", sig.String())
		cancel()
	}()
}

// NewPublisher builds the publisher for cfg.Queue.Backend. The returned
// close function releases the backend connection and is never nil.
func NewPublisher(ctx context.Context, cfg *config.Config, logger *slog.Logger) (domain.Publisher, func(), error) {
	switch cfg.Queue.Backend {
	case "sqs":
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to load aws config: %w", err)
		}
		return sqsinfra.NewPublisher(sqs.NewFromConfig(awsCfg), logger), func() {}, nil
	case "redis":
		client, err := redisq.NewClient(ctx, cfg.Redis.Addr)
		if err != nil {
			return nil, nil, err
		}
		return redisq.NewQueue(client, cfg.Worker.PollWait), func() { _ = client.Close() }, nil
	case "kafka":
		producer, err := kafka.NewSyncProducer(cfg.Kafka.Brokers)
		if err != nil {
			return nil, nil, err
		}
		pub := kafka.NewPublisher(producer, logger)
		return pub, func() {
			if err := pub.Close(); err != nil {
				logger.Error("failed to close kafka producer", "error", err)
			}
		}, nil
	default:
		return nil, nil, fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.Queue.Backend)
	}
}

// NewSinkOpener returns the InfluxDB opener with its token read from
// Secrets Manager. Every point is tagged with host and environment. Without
// an InfluxDB URL no AWS config is loaded.
func NewSinkOpener(ctx context.Context, cfg *config.Config, host string, logger *slog.Logger) (domain.SinkOpener, error) {
	settings := influx.Settings{
		URL:         cfg.InfluxDB.URL,
		Org:         cfg.InfluxDB.Org,
		Bucket:      cfg.InfluxDB.Bucket,
		SecretID:    cfg.InfluxDB.SecretARN,
		DefaultTags: map[string]string{"host": host, "environment": cfg.Environment},
	}
	if settings.URL == "" {
		return influx.NewOpener(settings, nil, logger), nil
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}
	store := secrets.NewStore(secretsmanager.NewFromConfig(awsCfg))
	return influx.NewOpener(settings, store, logger), nil
}

// ConnConfig maps the db section onto postgres connection parameters.
func ConnConfig(cfg *config.Config) postgres.ConnConfig {
	return postgres.ConnConfig{
		Host:     cfg.DB.Host,
		Port:     cfg.DB.Port,
		Name:     cfg.DB.Name,
		Username: cfg.DB.Username,
		Password: cfg.DB.Password,
		SSLMode:  cfg.DB.SSLMode,
	}
}

// NewPool opens the postgres pool for the db section.
func NewPool(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	if !cfg.DBEnabled() {
		return nil, ErrDatabaseNotConfigured
	}
	return postgres.NewPool(ctx, ConnConfig(cfg))
}

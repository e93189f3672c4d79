// cmd/worker/main.go
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"log/slog"
	"net"
	"net/http"
	"time"

	"workqueue-lambdas/internal/bootstrap"
	"workqueue-lambdas/internal/config"
	"workqueue-lambdas/internal/domain"
	"workqueue-lambdas/internal/infra/postgres"
	"workqueue-lambdas/internal/infra/redisq"
	sqsinfra "workqueue-lambdas/internal/infra/sqs"
	"workqueue-lambdas/internal/logging"
	"workqueue-lambdas/internal/tracing"
	"workqueue-lambdas/internal/worker"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	otelgrpc "go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

func main() {
	local := flag.Bool("local", false, "poll the redis queue instead of serving queue events")
	flag.Parse()

	// 1. Load configuration, logger and tracer
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := logging.New(cfg.Log.Format, cfg.Log.Level)
	shutdown := tracing.Setup(cfg.Tracing.Enabled, "workqueue-worker", cfg.Environment)
	defer func() {
		if err := shutdown(context.Background()); err != nil {
			logger.Error("failed to shutdown tracer", "error", err)
		}
	}()

	// 2. Create root context for lifecycle management
	rootCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 3. Processors and optional work log
	registry, err := worker.NewDefaultRegistry(logger)
	if err != nil {
		log.Fatalf("Failed to build processor registry: %v", err)
	}

	opts := []worker.ConsumerOption{worker.WithConcurrency(cfg.Worker.Concurrency)}
	if cfg.Worker.WorkLogEnabled {
		pool, err := bootstrap.NewPool(rootCtx, cfg)
		if err != nil {
			log.Fatalf("Failed to create database pool: %v", err)
		}
		defer pool.Close()

		workLog := postgres.NewWorkLogRepository(pool)
		if err := workLog.EnsureSchema(rootCtx); err != nil {
			log.Fatalf("Failed to prepare work log table: %v", err)
		}
		opts = append(opts, worker.WithWorkLog(workLog))
	}

	openSink, err := bootstrap.NewSinkOpener(rootCtx, cfg, "workqueue-worker", logger)
	if err != nil {
		log.Fatalf("Failed to create metrics sink: %v", err)
	}

	consumer := worker.NewConsumer(registry, logger, opts...)
	handler := worker.NewHandler(consumer, openSink, cfg.Environment, logger)

	if !*local {
		logger.Info("starting worker", "concurrency", cfg.Worker.Concurrency, "environment", cfg.Environment)
		lambda.Start(func(ctx context.Context, event events.SQSEvent) (*worker.Response, error) {
			return handler.Handle(ctx, sqsinfra.ReceivedMessages(event))
		})
		return
	}

	bootstrap.SetupGracefulShutdown(cancel, logger)
	runLocal(rootCtx, cfg, handler, logger)
}

// runLocal polls the redis queue and serves gRPC health and /metrics until ctx ends.
func runLocal(ctx context.Context, cfg *config.Config, handler *worker.Handler, logger *slog.Logger) {
	client, err := redisq.NewClient(ctx, cfg.Redis.Addr)
	if err != nil {
		log.Fatalf("Failed to connect to redis: %v", err)
	}
	defer client.Close()
	queue := redisq.NewQueue(client, cfg.Worker.PollWait)

	// gRPC health service
	lis, err := net.Listen("tcp", cfg.Worker.GRPCListenAddr)
	if err != nil {
		log.Fatalf("Failed to listen for gRPC: %v", err)
	}
	grpcServer := grpc.NewServer(
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
	)
	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)

	go func() {
		logger.Info("gRPC health server listening", "addr", cfg.Worker.GRPCListenAddr)
		if err := grpcServer.Serve(lis); err != nil {
			log.Fatalf("gRPC server failed: %v", err)
		}
	}()

	// Prometheus endpoint
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	metricsServer := &http.Server{Addr: cfg.Worker.MetricsListenAddr, Handler: mux}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Metrics server failed: %v", err)
		}
	}()

	logger.Info("polling redis queue", "addr", cfg.Redis.Addr, "key", cfg.Redis.QueueKey, "batch_size", cfg.Worker.BatchSize)
	poll(ctx, queue, cfg.Redis.QueueKey, cfg.Worker.BatchSize, handler, logger)

	logger.Info("shutting down worker gracefully")
	healthServer.Shutdown()
	grpcServer.GracefulStop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("metrics server shutdown failed", "error", err)
	}
	logger.Info("worker shut down")
}

func poll(ctx context.Context, queue domain.Receiver, key string, batchSize int, handler *worker.Handler, logger *slog.Logger) {
	for ctx.Err() == nil {
		msgs, err := queue.Receive(ctx, key, batchSize)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logger.Error("failed to receive messages", "error", err)
			time.Sleep(time.Second)
			continue
		}
		if len(msgs) == 0 {
			continue
		}
		resp, err := handler.Handle(ctx, msgs)
		if err != nil {
			logger.Error("batch failed", "error", err)
			continue
		}
		logger.Info("batch processed",
			"status_code", resp.StatusCode,
			"successful", resp.Processing.SucceededCount,
			"failed", resp.Processing.FailedCount)
	}
}

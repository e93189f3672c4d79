// cmd/dispatcher/main.go
package main

import (
	"context"
	"log"

	"workqueue-lambdas/internal/bootstrap"
	"workqueue-lambdas/internal/config"
	"workqueue-lambdas/internal/dispatcher"
	"workqueue-lambdas/internal/logging"
	"workqueue-lambdas/internal/tracing"

	"github.com/aws/aws-lambda-go/lambda"
)

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// 2. Initialize logger and tracer
	logger := logging.New(cfg.Log.Format, cfg.Log.Level)
	shutdown := tracing.Setup(cfg.Tracing.Enabled, "workqueue-dispatcher", cfg.Environment)
	defer func() {
		if err := shutdown(context.Background()); err != nil {
			logger.Error("failed to shutdown tracer", "error", err)
		}
	}()

	ctx := context.Background()

	// 3. Queue backend and metrics sink
	publisher, closePublisher, err := bootstrap.NewPublisher(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("Failed to create publisher: %v", err)
	}
	defer closePublisher()

	openSink, err := bootstrap.NewSinkOpener(ctx, cfg, "workqueue-dispatcher", logger)
	if err != nil {
		log.Fatalf("Failed to create metrics sink: %v", err)
	}

	// 4. Serve scheduled events
	handler := dispatcher.NewHandler(
		dispatcher.New(publisher, logger),
		openSink,
		dispatcher.HandlerConfig{QueueID: cfg.QueueID(), Environment: cfg.Environment},
		logger,
	)
	logger.Info("starting dispatcher", "backend", cfg.Queue.Backend, "environment", cfg.Environment)
	lambda.Start(handler.Handle)
}

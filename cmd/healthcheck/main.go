// cmd/healthcheck/main.go
package main

import (
	"context"
	"log"

	"workqueue-lambdas/internal/bootstrap"
	"workqueue-lambdas/internal/config"
	"workqueue-lambdas/internal/health"
	"workqueue-lambdas/internal/infra/postgres"
	"workqueue-lambdas/internal/logging"
	"workqueue-lambdas/internal/tracing"

	"github.com/aws/aws-lambda-go/lambda"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := logging.New(cfg.Log.Format, cfg.Log.Level)
	shutdown := tracing.Setup(cfg.Tracing.Enabled, "workqueue-healthcheck", cfg.Environment)
	defer func() {
		if err := shutdown(context.Background()); err != nil {
			logger.Error("failed to shutdown tracer", "error", err)
		}
	}()

	// The pool connects lazily, so an unreachable database is reported
	// per request instead of failing the cold start.
	pool, err := bootstrap.NewPool(context.Background(), cfg)
	if err != nil {
		log.Fatalf("Failed to create database pool: %v", err)
	}
	defer pool.Close()

	handler := health.NewHandler(postgres.NewHealthRepository(pool), cfg.Environment, logger)
	logger.Info("starting health check", "db_host", cfg.DB.Host, "environment", cfg.Environment)
	lambda.Start(handler.Handle)
}

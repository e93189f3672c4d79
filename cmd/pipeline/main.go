// cmd/pipeline/main.go
package main

import (
	"context"
	"log"

	"workqueue-lambdas/internal/config"
	"workqueue-lambdas/internal/logging"
	"workqueue-lambdas/internal/pipeline"
	"workqueue-lambdas/internal/tracing"

	"github.com/aws/aws-lambda-go/lambda"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := logging.New(cfg.Log.Format, cfg.Log.Level)
	shutdown := tracing.Setup(cfg.Tracing.Enabled, "workqueue-pipeline-"+cfg.Pipeline.Stage, cfg.Environment)
	defer func() {
		if err := shutdown(context.Background()); err != nil {
			logger.Error("failed to shutdown tracer", "error", err)
		}
	}()

	stages := pipeline.New(logger, pipeline.WithDelayScale(cfg.Pipeline.DelayScale))

	// One binary serves every stage; the deployment picks it.
	var handler any
	switch cfg.Pipeline.Stage {
	case pipeline.StageProcess:
		handler = stages.Process
	case pipeline.StageValidate:
		handler = stages.Validate
	case pipeline.StageNotify:
		handler = stages.Notify
	default:
		log.Fatalf("Unknown pipeline stage %q (want process, validate or notify)", cfg.Pipeline.Stage)
	}

	logger.Info("starting pipeline stage", "stage", cfg.Pipeline.Stage, "environment", cfg.Environment)
	lambda.Start(handler)
}

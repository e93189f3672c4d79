// cmd/scheduler/main.go
package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"time"

	http_api "workqueue-lambdas/internal/api/http"
	"workqueue-lambdas/internal/bootstrap"
	"workqueue-lambdas/internal/config"
	"workqueue-lambdas/internal/dispatcher"
	"workqueue-lambdas/internal/domain"
	"workqueue-lambdas/internal/infra/etcd"
	"workqueue-lambdas/internal/logging"
	"workqueue-lambdas/internal/scheduler"
	"workqueue-lambdas/internal/tracing"
	"workqueue-lambdas/internal/usecase"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// corsMiddleware wraps an http.Handler with CORS headers for local development.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type, Content-Length, Accept-Encoding, Authorization")

		// Pre-flight
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func main() {
	// 1. Load configuration, logger and tracer
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := logging.New(cfg.Log.Format, cfg.Log.Level)
	slog.SetDefault(logger)

	tracerShutdown := tracing.Setup(cfg.Tracing.Enabled, "workqueue-scheduler", cfg.Environment)
	defer func() {
		if err := tracerShutdown(context.Background()); err != nil {
			logger.Error("failed to shutdown tracer", "error", err)
		}
	}()

	nodeID := uuid.New().String()
	logger.Info("starting scheduler node", "node_id", nodeID, "cron_expr", cfg.Scheduler.CronExpr)

	// 2. Create root context and setup graceful shutdown
	rootCtx, cancel := context.WithCancel(context.Background())
	defer cancel()
	bootstrap.SetupGracefulShutdown(cancel, logger)

	// 3. Init etcd client
	etcdClient, err := etcd.NewClient(rootCtx, cfg.Etcd.Endpoints, cfg.Etcd.Timeout)
	if err != nil {
		log.Fatalf("Failed to create etcd client: %v", err)
	}
	defer etcdClient.Close()
	logger.Info("connected to etcd", "endpoints", cfg.Etcd.Endpoints)

	// 4. Queue backend and metrics sink
	publisher, closePublisher, err := bootstrap.NewPublisher(rootCtx, cfg, logger)
	if err != nil {
		log.Fatalf("Failed to create publisher: %v", err)
	}
	defer closePublisher()

	openSink, err := bootstrap.NewSinkOpener(rootCtx, cfg, "workqueue-scheduler", logger)
	if err != nil {
		log.Fatalf("Failed to create metrics sink: %v", err)
	}

	// 5. Instantiate components
	d := dispatcher.New(publisher, logger)
	cronHandler := dispatcher.NewHandler(d, openSink,
		dispatcher.HandlerConfig{QueueID: cfg.QueueID(), Environment: cfg.Environment}, logger)

	locker := etcd.NewEtcdLocker(etcdClient)
	leaderManager := etcd.NewEtcdLeaderElectionManager(etcdClient, nodeID, cfg.LeaderElectionTTL, logger)
	cronScheduler := scheduler.NewCronScheduler(logger)

	trigger := usecase.ExclusiveTrigger(domain.Trigger{
		Name:     "dispatch",
		CronExpr: cfg.Scheduler.CronExpr,
		Run: func(ctx context.Context) error {
			_, err := cronHandler.Handle(ctx, nil)
			return err
		},
	}, usecase.DispatchLockName, locker, logger)

	schedulerService := usecase.NewSchedulerService(leaderManager, cronScheduler, []domain.Trigger{trigger}, nodeID, logger)
	dispatchService := usecase.NewDispatchService(d, openSink, cfg.QueueID(), locker, logger)
	dispatchHandler := http_api.NewDispatchHandler(dispatchService, leaderManager, nodeID, logger)

	// 6. Register routes and metrics endpoint
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	dispatchHandler.RegisterRoutes(mux)

	// 7. Start SchedulerService
	go func() {
		if err := schedulerService.Start(rootCtx); err != nil && !errors.Is(err, context.Canceled) {
			log.Fatalf("SchedulerService stopped with error: %v", err)
		}
	}()

	// 8. Start HTTP API server with CORS middleware
	server := &http.Server{
		Addr:    cfg.Scheduler.HTTPListenAddr,
		Handler: corsMiddleware(mux),
	}
	go func() {
		logger.Info("starting HTTP API server", "addr", cfg.Scheduler.HTTPListenAddr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("HTTP server failed: %v", err)
		}
	}()

	// 9. Block until shutdown
	<-rootCtx.Done()
	logger.Info("shutting down scheduler gracefully")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown failed", "error", err)
	}
	logger.Info("scheduler shut down")
}

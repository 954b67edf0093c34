package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"

	"github.com/securecicd/backend/internal/database"
	"github.com/securecicd/backend/internal/tasks"
	"github.com/securecicd/backend/pkg/config"
	"github.com/securecicd/backend/pkg/queue"
	"github.com/securecicd/backend/pkg/util"
)

func main() {
	// Load .env file
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := util.NewLogger(cfg.Server.Env)
	slog.SetDefault(logger)

	logger.Info("starting secure-cicd worker")

	db, err := database.Connect(&cfg.Database, logger)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}

	srv := queue.NewServer(&cfg.Redis, 5)

	handler := tasks.NewHandler(db, logger)
	mux := asynq.NewServeMux()
	handler.Register(mux)

	// Periodic stale-scan reaper. A scan left in running by a crashed API
	// process is failed once it exceeds the configured age.
	scheduler := queue.NewScheduler(&cfg.Redis)
	reapTask, err := tasks.NewReapStaleScansTask(tasks.ReapStaleScansPayload{
		MaxAgeMinutes: cfg.Scans.StaleAfterMinutes,
	})
	if err != nil {
		logger.Error("failed to build reap task", "error", err)
		os.Exit(1)
	}
	if _, err := scheduler.Register("@every 10m", reapTask); err != nil {
		logger.Error("failed to register reap schedule", "error", err)
		os.Exit(1)
	}

	go func() {
		if err := scheduler.Run(); err != nil {
			logger.Error("scheduler error", "error", err)
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		logger.Info("shutting down worker...")
		scheduler.Shutdown()
		srv.Shutdown()
		cancel()
	}()

	logger.Info("worker started, waiting for tasks...")

	if err := srv.Run(mux); err != nil {
		logger.Error("worker error", "error", err)
	}

	<-ctx.Done()

	sqlDB, _ := db.DB()
	sqlDB.Close()

	logger.Info("worker stopped")
}

package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/meridian-erp/meridian-erp/internal/app"
	"github.com/meridian-erp/meridian-erp/internal/platform/db"
	"github.com/meridian-erp/meridian-erp/internal/shared"
	"github.com/meridian-erp/meridian-erp/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
		return
	}
	if err := run(); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("worker exited", slog.Any("error", err))
		os.Exit(1)
	}
}

func run() error {
	cfg, err := app.LoadConfig()
	if err != nil {
		return err
	}
	logger := app.NewLogger(cfg)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		return err
	}
	defer pool.Close()

	maintenance := jobs.NewMaintenance(pool, shared.NewIdempotencyStore(pool), logger)

	now := time.Now()
	cleanupTask, err := jobs.NewIdempotencyCleanupTask(now)
	if err != nil {
		return err
	}
	sweepTask, err := jobs.NewStalePassSweepTask(now)
	if err != nil {
		return err
	}
	reminderTask, err := jobs.NewApprovalReminderTask(now)
	if err != nil {
		return err
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts:   asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:      logger,
		Maintenance: maintenance,
		Cron: []jobs.CronRegistration{
			{Spec: "0 3 * * *", Task: cleanupTask},
			{Spec: "0 * * * *", Task: sweepTask},
			{Spec: "30 8 * * *", Task: reminderTask},
		},
	})
	if err != nil {
		return err
	}

	logger.Info("worker started", "redis", cfg.RedisAddr)
	return worker.Run(ctx)
}

package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/meridian-erp/meridian-erp/internal/app"
	"github.com/meridian-erp/meridian-erp/internal/auth"
	"github.com/meridian-erp/meridian-erp/internal/finance"
	"github.com/meridian-erp/meridian-erp/internal/gate"
	"github.com/meridian-erp/meridian-erp/internal/inventory"
	"github.com/meridian-erp/meridian-erp/internal/platform/cache"
	"github.com/meridian-erp/meridian-erp/internal/platform/db"
	"github.com/meridian-erp/meridian-erp/internal/production"
	"github.com/meridian-erp/meridian-erp/internal/purchase"
	"github.com/meridian-erp/meridian-erp/internal/sales"
	"github.com/meridian-erp/meridian-erp/internal/shared"
	"github.com/meridian-erp/meridian-erp/internal/showroom"
	"github.com/meridian-erp/meridian-erp/internal/transport"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}
	if err := run(); err != nil {
		slog.Error("server exited", slog.Any("error", err))
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

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		return err
	}
	defer redisClient.Close()

	tokens := shared.NewTokenStore(redisClient, cfg.TokenTTL)
	auditLogger := shared.NewAuditLogger(pool)
	approvals := shared.NewApprovalRecorder(pool, logger)
	idempotency := shared.NewIdempotencyStore(pool)

	authService := auth.NewService(auth.NewRepository(pool), tokens, auditLogger, logger)
	salesService := sales.NewService(sales.NewRepository(pool), auditLogger, logger)
	transportService := transport.NewService(transport.NewRepository(pool), approvals, logger)
	financeService := finance.NewService(finance.NewRepository(pool), idempotency, approvals, logger)
	gateService := gate.NewService(gate.NewRepository(pool), redisClient, logger)
	showroomService := showroom.NewService(showroom.NewRepository(pool), logger)
	productionService := production.NewService(production.NewRepository(pool), logger)
	purchaseService := purchase.NewService(purchase.NewRepository(pool), approvals, logger)
	inventoryService := inventory.NewService(inventory.NewRepository(pool), logger)

	router := app.NewRouter(app.RouterParams{
		Logger: logger,
		Config: cfg,
		Tokens: tokens,

		Auth:       auth.NewHandler(logger, authService),
		Sales:      sales.NewHandler(logger, salesService),
		Transport:  transport.NewHandler(logger, transportService),
		Finance:    finance.NewHandler(logger, financeService),
		Gate:       gate.NewHandler(logger, gateService),
		Showroom:   showroom.NewHandler(logger, showroomService),
		Production: production.NewHandler(logger, productionService),
		Purchase:   purchase.NewHandler(logger, purchaseService),
		Inventory:  inventory.NewHandler(logger, inventoryService),
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", "addr", cfg.AppAddr, "env", cfg.AppEnv)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

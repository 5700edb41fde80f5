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

	"github.com/redis/go-redis/v9"

	"github.com/atelier-erp/atelier/internal/app"
	"github.com/atelier-erp/atelier/internal/approvals"
	"github.com/atelier-erp/atelier/internal/files"
	"github.com/atelier-erp/atelier/internal/invoices"
	"github.com/atelier-erp/atelier/internal/numbering"
	"github.com/atelier-erp/atelier/internal/platform/db"
	"github.com/atelier-erp/atelier/internal/projects"
	"github.com/atelier-erp/atelier/internal/tickets"
	"github.com/atelier-erp/atelier/internal/variations"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Warn("redis ping", slog.Any("error", err))
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	registry := numbering.NewPGRegistry(pool)

	projectRepo := projects.NewRepository(pool)
	projectCache := projects.NewCache(redisClient, cfg.OverviewTTL)
	projectService := projects.NewService(projectRepo, projectCache)

	fileRepo := files.NewRepository(pool)

	invoiceRepo := invoices.NewRepository(pool)
	invoiceService := invoices.NewService(invoiceRepo, registry, projectRepo)

	variationRepo := variations.NewRepository(pool)
	variationService := variations.NewService(variationRepo, registry, projectRepo, invoiceService)

	ticketRepo := tickets.NewRepository(pool)
	ticketService := tickets.NewService(ticketRepo, registry, projectRepo, fileRepo)

	approvalRepo := approvals.NewRepository(pool)
	approvalService := approvals.NewService(approvalRepo, registry, projectRepo, fileRepo)

	router := app.NewRouter(app.RouterParams{
		Logger:           logger,
		Config:           cfg,
		ProjectsHandler:  projects.NewHandler(logger, projectService),
		FilesHandler:     files.NewHandler(logger, fileRepo),
		InvoicesHandler:  invoices.NewHandler(logger, invoiceService),
		VariationHandler: variations.NewHandler(logger, variationService),
		TicketsHandler:   tickets.NewHandler(logger, ticketService),
		ApprovalsHandler: approvals.NewHandler(logger, approvalService),
	})

	srv := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", slog.String("addr", cfg.AppAddr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown", slog.Any("error", err))
		}
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", slog.Any("error", err))
			os.Exit(1)
		}
	}
}

package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/helpdesk-portal/internal/api/http"
	"github.com/spec-kit/helpdesk-portal/internal/api/http/handlers"
	"github.com/spec-kit/helpdesk-portal/internal/app"
	"github.com/spec-kit/helpdesk-portal/internal/auth"
	"github.com/spec-kit/helpdesk-portal/internal/config"
	"github.com/spec-kit/helpdesk-portal/internal/observability"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c, err := app.Build(ctx, *cfg, logger, app.Options{Async: true})
	if err != nil {
		logger.Fatal("failed to initialise services", zap.Error(err))
	}
	defer c.Close()

	server := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(server, logger, c.Metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(server, httptransport.RouteConfig{
		Health:          handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, c.Postgres, c.Redis, c.Tracker, c.Metrics),
		Auth:            handlers.NewAuthHandler(c.Auth),
		Tickets:         handlers.NewTicketsHandler(c.Tickets),
		Sync:            handlers.NewSyncHandler(c.Sync, c.Reconcile, c.Metrics, logger),
		Bulk:            handlers.NewBulkHandler(c.Reconcile, c.Metrics),
		Chat:            handlers.NewChatHandler(c.Messages),
		Acknowledgement: handlers.NewAcknowledgementHandler(c.Acks),
		Pending:         handlers.NewPendingHandler(c.Pending),
		History:         handlers.NewHistoryHandler(c.History),
		AuthMiddleware:  auth.NewAuthMiddleware(c.Tokens),
		Portal:          cfg.Portal,
	})

	go func() {
		if err := server.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := server.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}
	if err := c.Drain(shutdownCtx); err != nil {
		logger.Warn("event handlers still running at shutdown", zap.Error(err))
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}

// Package app assembles the portal's services from configuration.
package app

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-portal/internal/auth"
	"github.com/spec-kit/helpdesk-portal/internal/cache"
	"github.com/spec-kit/helpdesk-portal/internal/config"
	"github.com/spec-kit/helpdesk-portal/internal/events"
	"github.com/spec-kit/helpdesk-portal/internal/observability"
	"github.com/spec-kit/helpdesk-portal/internal/persistence"
	"github.com/spec-kit/helpdesk-portal/internal/repository"
	"github.com/spec-kit/helpdesk-portal/internal/service"
	"github.com/spec-kit/helpdesk-portal/internal/tracker"
	"github.com/spec-kit/helpdesk-portal/internal/worker"
)

const eventHandlerTimeout = 30 * time.Second

// Container holds the wired services and the connections they share.
type Container struct {
	Config     config.Config
	Logger     *zap.Logger
	Postgres   *persistence.Postgres
	Redis      *persistence.Redis
	Tracker    tracker.Client
	Dispatcher events.Dispatcher
	Metrics    *observability.Metrics
	Tokens     *auth.TokenManager

	Sync          *service.CategorySyncService
	Engine        *service.TransitionEngine
	Reconcile     *service.ReconcileService
	Messages      *service.MessageService
	Tickets       *service.TicketService
	Acks          *service.AcknowledgementService
	Pending       *service.PendingTicketService
	Auth          *service.AuthService
	Notifications *service.NotificationService
	History       *service.HistoryService
}

// Options tune how the container is built.
type Options struct {
	// Async publishes events off the request path. The CLI leaves it false so
	// handlers finish before the process exits.
	Async bool
}

// Build connects storage, runs migrations when enabled and wires every service.
func Build(ctx context.Context, cfg config.Config, logger *zap.Logger, opts Options) (*Container, error) {
	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		return nil, err
	}
	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			pg.Close()
			return nil, err
		}
	}
	rdb := persistence.NewRedis(cfg.Redis, logger)

	var dispatcher events.Dispatcher
	if opts.Async {
		dispatcher = events.NewAsyncDispatcher(logger, eventHandlerTimeout)
	} else {
		dispatcher = events.NewInMemoryDispatcher(logger)
	}

	pool := pg.PoolHandle()
	categoryRepo := repository.NewCategoryRepository(pool)
	messageRepo := repository.NewChatMessageRepository(pool)
	ackRepo := repository.NewAcknowledgementRepository(pool)
	pendingRepo := repository.NewPendingTicketRepository(pool)
	historyRepo := repository.NewCategoryHistoryRepository(pool)

	trackerClient := tracker.NewClient(cfg.Tracker, logger.Named("tracker"))
	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)

	syncSvc := service.NewCategorySyncService(service.CategorySyncDependencies{
		Tracker:      trackerClient,
		CategoryRepo: categoryRepo,
		Dispatcher:   dispatcher,
		Logger:       logger,
	})
	c := &Container{
		Config:     cfg,
		Logger:     logger,
		Postgres:   pg,
		Redis:      rdb,
		Tracker:    trackerClient,
		Dispatcher: dispatcher,
		Metrics:    observability.NewMetrics(),
		Tokens:     tokens,
		Sync:       syncSvc,
	}
	c.Engine = service.NewTransitionEngine(service.TransitionEngineDependencies{
		Sync:         syncSvc,
		Tracker:      trackerClient,
		CategoryRepo: categoryRepo,
		Portal:       cfg.Portal,
		Dispatcher:   dispatcher,
		Logger:       logger,
	})
	c.Reconcile = service.NewReconcileService(service.ReconcileDependencies{
		Sync:         syncSvc,
		Tracker:      trackerClient,
		CategoryRepo: categoryRepo,
		Portal:       cfg.Portal,
		Logger:       logger,
	})
	c.Messages = service.NewMessageService(service.MessageDependencies{
		MessageRepo: messageRepo,
		Tracker:     trackerClient,
		Portal:      cfg.Portal,
		Dispatcher:  dispatcher,
		Logger:      logger,
	})
	c.Tickets = service.NewTicketService(service.TicketDependencies{
		Tracker:      trackerClient,
		CategoryRepo: categoryRepo,
		MessageRepo:  messageRepo,
		Sync:         syncSvc,
		Portal:       cfg.Portal,
		Logger:       logger,
	})
	c.Acks = service.NewAcknowledgementService(service.AcknowledgementDependencies{
		Tracker:    trackerClient,
		AckRepo:    ackRepo,
		Cache:      cache.New(cfg.Cache, rdb, logger),
		CacheTTL:   cfg.Cache.TTL,
		Portal:     cfg.Portal,
		Dispatcher: dispatcher,
		Logger:     logger,
	})
	c.Pending = service.NewPendingTicketService(service.PendingTicketDependencies{
		PendingRepo: pendingRepo,
		Tracker:     trackerClient,
		Portal:      cfg.Portal,
		Dispatcher:  dispatcher,
		Logger:      logger,
	})
	c.Auth = service.NewAuthService(cfg, service.AuthDependencies{Tokens: tokens, Logger: logger})
	c.Notifications = service.NewNotificationService(dispatcher, logger, cfg.Notification)
	c.History = service.NewHistoryService(historyRepo, dispatcher, logger)

	// the comment mirror must run before the engine for the same message
	worker.StartEventWorkers(logger, c.Notifications, c.History, c.Messages, c.Engine)

	if err := cfg.Tracker.Validate(); err != nil {
		logger.Warn("tracker features disabled", zap.Error(err))
	}
	if err := cfg.Portal.Validate(); err != nil {
		logger.Warn("bulk operations disabled", zap.Error(err))
	}
	return c, nil
}

// Drain waits for in-flight event handlers when the dispatcher is asynchronous.
func (c *Container) Drain(ctx context.Context) error {
	if d, ok := c.Dispatcher.(*events.AsyncDispatcher); ok {
		return d.Wait(ctx)
	}
	return nil
}

// Close releases connections.
func (c *Container) Close() {
	c.Redis.Close()
	c.Postgres.Close()
}

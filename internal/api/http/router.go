package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-portal/internal/api/http/handlers"
	"github.com/spec-kit/helpdesk-portal/internal/auth"
	"github.com/spec-kit/helpdesk-portal/internal/config"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health          *handlers.HealthHandler
	Auth            *handlers.AuthHandler
	Tickets         *handlers.TicketsHandler
	Sync            *handlers.SyncHandler
	Bulk            *handlers.BulkHandler
	Chat            *handlers.ChatHandler
	Acknowledgement *handlers.AcknowledgementHandler
	Pending         *handlers.PendingHandler
	History         *handlers.HistoryHandler
	AuthMiddleware  *auth.AuthMiddleware
	Portal          config.PortalConfig
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/health/metrics", cfg.Health.Metrics)

	authGroup := app.Group("/auth")
	authGroup.Get("/login", cfg.Auth.Login)
	authGroup.Get("/callback", cfg.Auth.Callback)

	api := app.Group("", cfg.AuthMiddleware.Optional)

	master := []fiber.Handler{cfg.AuthMiddleware.Handle, auth.RequireMaster(cfg.Portal)}
	api.Post("/jira/bulk-resolve", append(master, cfg.Bulk.ResolveAll)...)
	api.Post("/tickets/bulk-resolve", append(master, cfg.Bulk.ResolveTickets)...)

	api.Post("/sync-jira-status", cfg.Sync.SyncJiraStatus)
	api.Post("/jira/sync-category", cfg.Sync.SyncCategory)

	api.Get("/tickets", cfg.Tickets.ListTickets)
	api.Get("/tickets/:key", cfg.Tickets.GetTicket)
	api.Get("/tickets/:key/category", cfg.Sync.GetCategory)
	if cfg.History != nil {
		api.Get("/tickets/:key/category/history", cfg.History.List)
	}
	api.Post("/tickets/:key/resolve", cfg.AuthMiddleware.Handle, cfg.Tickets.Resolve)
	api.Get("/attachments/:id", cfg.Tickets.Attachment)

	api.Post("/chat-messages", cfg.Chat.Create)
	api.Get("/chat-messages", cfg.Chat.List)

	api.Post("/verify-acknowledgement", cfg.Acknowledgement.Verify)
	api.Get("/acknowledgement/status", cfg.Acknowledgement.Status)

	api.Post("/pending-tickets", cfg.Pending.Create)
	api.Get("/pending-tickets", cfg.Pending.List)
	api.Get("/pending-tickets/:id", cfg.Pending.Get)
}

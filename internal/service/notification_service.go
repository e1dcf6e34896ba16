package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-portal/internal/config"
	"github.com/spec-kit/helpdesk-portal/internal/events"
)

// NotificationService handles emitting notifications for domain events.
// Nothing is sent; intended messages are logged.
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	cfg        config.NotificationConfig
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, logger *zap.Logger, cfg config.NotificationConfig) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		logger:     nopLogger(logger),
		cfg:        cfg,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventAcknowledgementVerified, n.handleAcknowledgementVerified)
	n.dispatcher.Subscribe(events.EventCategoryChanged, n.handleCategoryChanged)
	n.dispatcher.Subscribe(events.EventPendingTicketSettled, n.handlePendingTicketSettled)
}

// AutoAckEmail renders the acknowledgement a customer would receive.
func AutoAckEmail(ticketKey, summary string) (subject, body string) {
	subject = fmt.Sprintf("[%s] We received your request", ticketKey)
	body = fmt.Sprintf("Thanks for contacting support. Your request %q is tracked as %s. "+
		"Reply to this email or use the portal to add details.", summary, ticketKey)
	return subject, body
}

func (n *NotificationService) handleAcknowledgementVerified(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.AcknowledgementVerifiedPayload)
	if !ok {
		return nil
	}
	subject, body := AutoAckEmail(event.TicketKey, payload.TicketSummary)
	n.logger.Info("AcknowledgementVerified",
		zap.String("ticket_key", event.TicketKey),
		zap.String("customer_email", payload.CustomerEmail))
	n.sendEmailNotificationStub(ctx, event, payload.CustomerEmail, subject, body)
	return nil
}

func (n *NotificationService) handleCategoryChanged(ctx context.Context, event events.Event) error {
	n.logger.Info("CategoryChanged", zap.String("ticket_key", event.TicketKey), zap.Any("payload", event.Payload))
	n.sendWebhookNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) handlePendingTicketSettled(ctx context.Context, event events.Event) error {
	n.logger.Info("PendingTicketSettled", zap.String("ticket_key", event.TicketKey), zap.Any("payload", event.Payload))
	n.sendWebhookNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) sendEmailNotificationStub(_ context.Context, event events.Event, to, subject, body string) {
	if strings.TrimSpace(n.cfg.EmailFrom) == "" {
		return
	}
	n.logger.Info("auto-acknowledgement email (not sent)",
		zap.String("from", n.cfg.EmailFrom),
		zap.String("to", to),
		zap.String("subject", subject),
		zap.String("body", body),
		zap.String("ticket_key", event.TicketKey),
		zap.String("event_type", string(event.Type)))
}

func (n *NotificationService) sendWebhookNotificationStub(_ context.Context, event events.Event) {
	if strings.TrimSpace(n.cfg.WebhookURL) == "" {
		return
	}
	n.logger.Debug("sendWebhookNotificationStub",
		zap.String("url", n.cfg.WebhookURL),
		zap.String("ticket_key", event.TicketKey),
		zap.String("event_type", string(event.Type)))
}

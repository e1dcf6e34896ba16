package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-portal/internal/config"
	"github.com/spec-kit/helpdesk-portal/internal/domain"
	"github.com/spec-kit/helpdesk-portal/internal/events"
	"github.com/spec-kit/helpdesk-portal/internal/repository"
	"github.com/spec-kit/helpdesk-portal/internal/tracker"
	apperrors "github.com/spec-kit/helpdesk-portal/pkg/util/errorutil"
)

// MessageService stores chat messages and fans them out to the tracker.
type MessageService struct {
	messages   repository.ChatMessageRepository
	tracker    tracker.Client
	portal     config.PortalConfig
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// MessageDependencies bundles collaborators for the message service.
type MessageDependencies struct {
	MessageRepo repository.ChatMessageRepository
	Tracker     tracker.Client
	Portal      config.PortalConfig
	Dispatcher  events.Dispatcher
	Logger      *zap.Logger
}

// PostMessageInput describes a new chat message.
type PostMessageInput struct {
	TicketKey string
	UserEmail string
	Message   string
	Role      domain.MessageRole
}

// NewMessageService constructs the service.
func NewMessageService(deps MessageDependencies) *MessageService {
	return &MessageService{
		messages:   deps.MessageRepo,
		tracker:    deps.Tracker,
		portal:     deps.Portal,
		dispatcher: deps.Dispatcher,
		logger:     nopLogger(deps.Logger),
	}
}

// RegisterHandlers subscribes the tracker comment mirror.
func (s *MessageService) RegisterHandlers() {
	if s.dispatcher == nil {
		return
	}
	s.dispatcher.Subscribe(events.EventChatMessagePosted, s.handleMirrorComment)
}

// PostMessage persists the message and publishes it. Only the store write can fail the call.
func (s *MessageService) PostMessage(ctx context.Context, input PostMessageInput) (*domain.ChatMessage, error) {
	input.TicketKey = strings.TrimSpace(input.TicketKey)
	input.UserEmail = strings.ToLower(strings.TrimSpace(input.UserEmail))
	input.Message = strings.TrimSpace(input.Message)

	missing := []string{}
	if input.TicketKey == "" {
		missing = append(missing, "ticketKey")
	}
	if input.UserEmail == "" {
		missing = append(missing, "userEmail")
	}
	if input.Message == "" {
		missing = append(missing, "message")
	}
	if len(missing) > 0 {
		return nil, apperrors.NewValidationError("missing required fields", map[string]any{"fields": missing})
	}

	senderIsMaster := s.portal.IsMaster(input.UserEmail)
	if input.Role == "" {
		input.Role = domain.RoleUser
		if senderIsMaster {
			input.Role = domain.RoleSupport
		}
	}
	if !input.Role.Valid() {
		return nil, apperrors.NewValidationError("invalid role", map[string]any{"role": input.Role})
	}

	msg := &domain.ChatMessage{
		TicketKey: input.TicketKey,
		UserEmail: input.UserEmail,
		Message:   input.Message,
		Role:      input.Role,
	}
	if err := s.messages.Create(ctx, msg); err != nil {
		return nil, classify(err)
	}

	publish(ctx, s.dispatcher, s.logger, events.New(events.EventChatMessagePosted, msg.TicketKey, msg.UserEmail,
		events.ChatMessagePostedPayload{Message: *msg, SenderIsMaster: senderIsMaster}))
	return msg, nil
}

// ListMessages returns the stored conversation for a ticket.
func (s *MessageService) ListMessages(ctx context.Context, ticketKey string) ([]domain.ChatMessage, error) {
	msgs, err := s.messages.ListByTicket(ctx, ticketKey)
	if err != nil {
		return nil, classify(err)
	}
	return msgs, nil
}

func (s *MessageService) handleMirrorComment(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.ChatMessagePostedPayload)
	if !ok {
		return nil
	}
	msg := payload.Message
	body := tracker.FormatMirroredComment(msg.UserEmail, msg.Message)
	if _, err := s.tracker.AddComment(ctx, msg.TicketKey, body); err != nil {
		s.logger.Warn("comment mirror failed", zap.String("ticket_key", msg.TicketKey), zap.Error(err))
		return nil
	}
	s.logger.Debug("comment mirrored", zap.String("ticket_key", msg.TicketKey))
	return nil
}

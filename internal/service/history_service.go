package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-portal/internal/domain"
	"github.com/spec-kit/helpdesk-portal/internal/events"
	"github.com/spec-kit/helpdesk-portal/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-portal/pkg/util/errorutil"
)

// HistoryService keeps the category audit trail.
type HistoryService struct {
	history    repository.CategoryHistoryRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// NewHistoryService constructs the service.
func NewHistoryService(history repository.CategoryHistoryRepository, dispatcher events.Dispatcher, logger *zap.Logger) *HistoryService {
	return &HistoryService{history: history, dispatcher: dispatcher, logger: nopLogger(logger)}
}

// RegisterHandlers subscribes to category changes.
func (s *HistoryService) RegisterHandlers() {
	if s.dispatcher == nil {
		return
	}
	s.dispatcher.Subscribe(events.EventCategoryChanged, s.handleCategoryChanged)
}

func (s *HistoryService) handleCategoryChanged(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.CategoryChangedPayload)
	if !ok {
		return nil
	}
	change := &domain.CategoryChange{
		TicketKey:   event.TicketKey,
		OldCategory: payload.OldCategory,
		NewCategory: payload.NewCategory,
		Reason:      payload.Reason,
		Actor:       event.Actor,
	}
	if err := s.history.Create(ctx, change); err != nil {
		s.logger.Warn("category history not recorded", zap.String("ticket_key", event.TicketKey), zap.Error(err))
		return err
	}
	return nil
}

// List returns a ticket's category changes, oldest first.
func (s *HistoryService) List(ctx context.Context, ticketKey string) ([]domain.CategoryChange, error) {
	if strings.TrimSpace(ticketKey) == "" {
		return nil, apperrors.NewValidationError("ticketKey is required", nil)
	}
	changes, err := s.history.ListByTicket(ctx, ticketKey)
	if err != nil {
		return nil, classify(err)
	}
	return changes, nil
}

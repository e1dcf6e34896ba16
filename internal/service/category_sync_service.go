package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-portal/internal/category"
	"github.com/spec-kit/helpdesk-portal/internal/domain"
	"github.com/spec-kit/helpdesk-portal/internal/events"
	"github.com/spec-kit/helpdesk-portal/internal/repository"
	"github.com/spec-kit/helpdesk-portal/internal/tracker"
	apperrors "github.com/spec-kit/helpdesk-portal/pkg/util/errorutil"
)

// CategorySyncService pushes categories between the store and the tracker.
type CategorySyncService struct {
	tracker    tracker.Client
	categories repository.CategoryRepository
	mapper     *category.Mapper
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// CategorySyncDependencies bundles collaborators for the sync service.
type CategorySyncDependencies struct {
	Tracker      tracker.Client
	CategoryRepo repository.CategoryRepository
	Mapper       *category.Mapper
	Dispatcher   events.Dispatcher
	Logger       *zap.Logger
}

// EffectiveCategory is the category a portal user sees for a ticket.
type EffectiveCategory struct {
	TicketKey     string
	Category      domain.Category
	Source        domain.CategorySource
	TrackerStatus string
}

// NewCategorySyncService constructs the service.
func NewCategorySyncService(deps CategorySyncDependencies) *CategorySyncService {
	mapper := deps.Mapper
	if mapper == nil {
		mapper = category.NewMapper(category.Rules, category.Default)
	}
	return &CategorySyncService{
		tracker:    deps.Tracker,
		categories: deps.CategoryRepo,
		mapper:     mapper,
		dispatcher: deps.Dispatcher,
		logger:     nopLogger(deps.Logger),
	}
}

// Mapper exposes the status mapper in use.
func (s *CategorySyncService) Mapper() *category.Mapper {
	return s.mapper
}

// SelectTransition returns the first transition whose name or destination matches
// one of the candidate names, trying candidates in order.
func SelectTransition(transitions []domain.Transition, candidates []string) (domain.Transition, bool) {
	for _, want := range candidates {
		for _, t := range transitions {
			if strings.EqualFold(t.Name, want) || strings.EqualFold(t.ToName, want) {
				return t, true
			}
		}
	}
	return domain.Transition{}, false
}

// SyncCategoryToTracker issues exactly one tracker transition toward the state for c.
// A workflow with no matching transition yields a TRANSITION_UNAVAILABLE error
// wrapping tracker.ErrTransitionUnavailable.
func (s *CategorySyncService) SyncCategoryToTracker(ctx context.Context, ticketKey string, c domain.Category) error {
	target, ok := category.TrackerTarget(c)
	if !ok {
		return apperrors.NewValidationError("unknown category", map[string]any{"category": c})
	}
	if err := s.tracker.Configured(); err != nil {
		return err
	}
	transitions, err := s.tracker.GetAvailableTransitions(ctx, ticketKey)
	if err != nil {
		return err
	}
	chosen, ok := SelectTransition(transitions, target.Statuses)
	if !ok {
		s.logger.Info("no matching transition",
			zap.String("ticket_key", ticketKey),
			zap.String("target", target.Primary()),
			zap.Int("available", len(transitions)))
		return apperrors.NewTransitionUnavailable(ticketKey, target.Primary(), tracker.ErrTransitionUnavailable)
	}
	resolution := ""
	if target.Resolution != "" && chosen.HasField("resolution") {
		resolution = target.Resolution
	}
	if err := s.tracker.Transition(ctx, ticketKey, chosen.ID, resolution); err != nil {
		return err
	}
	s.logger.Info("tracker status synced",
		zap.String("ticket_key", ticketKey),
		zap.String("category", string(c)),
		zap.String("transition", chosen.Name))
	return nil
}

// UpsertCategory writes the override row and announces the change.
func (s *CategorySyncService) UpsertCategory(ctx context.Context, ticketKey string, c domain.Category) (*domain.CategoryOverride, error) {
	return s.upsert(ctx, ticketKey, "", c, "manual", "")
}

func (s *CategorySyncService) upsert(ctx context.Context, ticketKey string, from, to domain.Category, reason, actor string) (*domain.CategoryOverride, error) {
	if strings.TrimSpace(ticketKey) == "" {
		return nil, apperrors.NewValidationError("ticketKey is required", nil)
	}
	if !to.Valid() {
		return nil, apperrors.NewValidationError("unknown category", map[string]any{"category": to})
	}
	row, err := s.categories.Upsert(ctx, ticketKey, to)
	if err != nil {
		return nil, err
	}
	publish(ctx, s.dispatcher, s.logger, events.New(events.EventCategoryChanged, ticketKey, actor, events.CategoryChangedPayload{
		OldCategory: from,
		NewCategory: to,
		Reason:      reason,
	}))
	return row, nil
}

// EffectiveCategory prefers the override row and falls back to the mapped tracker status.
func (s *CategorySyncService) EffectiveCategory(ctx context.Context, ticketKey string) (*EffectiveCategory, error) {
	override, err := s.categories.Get(ctx, ticketKey)
	if err != nil {
		return nil, classify(err)
	}
	if override != nil {
		return &EffectiveCategory{TicketKey: ticketKey, Category: override.Category, Source: domain.CategorySourceOverride}, nil
	}
	ticket, err := s.tracker.GetTicket(ctx, ticketKey)
	if err != nil {
		return nil, classify(err)
	}
	return s.derive(*ticket, nil), nil
}

func (s *CategorySyncService) derive(ticket domain.Ticket, override *domain.CategoryOverride) *EffectiveCategory {
	if override != nil {
		return &EffectiveCategory{
			TicketKey:     ticket.Key,
			Category:      override.Category,
			Source:        domain.CategorySourceOverride,
			TrackerStatus: ticket.TrackerStatus,
		}
	}
	return &EffectiveCategory{
		TicketKey:     ticket.Key,
		Category:      s.mapper.Map(ticket.TrackerStatus),
		Source:        domain.CategorySourceTracker,
		TrackerStatus: ticket.TrackerStatus,
	}
}

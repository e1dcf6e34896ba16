package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-portal/internal/category"
	"github.com/spec-kit/helpdesk-portal/internal/config"
	"github.com/spec-kit/helpdesk-portal/internal/domain"
	"github.com/spec-kit/helpdesk-portal/internal/repository"
	"github.com/spec-kit/helpdesk-portal/internal/tracker"
	apperrors "github.com/spec-kit/helpdesk-portal/pkg/util/errorutil"
)

// BulkResult summarizes a bulk resolve run.
type BulkResult struct {
	Resolved int      `json:"resolved"`
	Failed   int      `json:"failed"`
	Errors   []string `json:"errors"`
}

// SyncReport summarizes a store to tracker reconciliation run.
type SyncReport struct {
	Synced int      `json:"synced"`
	Failed int      `json:"failed"`
	Total  int      `json:"total"`
	Errors []string `json:"errors"`
}

// ReconcileService runs the sequential bulk jobs.
type ReconcileService struct {
	sync       *CategorySyncService
	tracker    tracker.Client
	categories repository.CategoryRepository
	portal     config.PortalConfig
	sleep      func(context.Context, time.Duration) error
	logger     *zap.Logger
}

// ReconcileDependencies bundles collaborators for the reconcile service.
type ReconcileDependencies struct {
	Sync         *CategorySyncService
	Tracker      tracker.Client
	CategoryRepo repository.CategoryRepository
	Portal       config.PortalConfig
	// Sleep replaces the inter-item wait, mainly for tests.
	Sleep  func(context.Context, time.Duration) error
	Logger *zap.Logger
}

// NewReconcileService constructs the service.
func NewReconcileService(deps ReconcileDependencies) *ReconcileService {
	sleep := deps.Sleep
	if sleep == nil {
		sleep = sleepContext
	}
	return &ReconcileService{
		sync:       deps.Sync,
		tracker:    deps.Tracker,
		categories: deps.CategoryRepo,
		portal:     deps.Portal,
		sleep:      sleep,
		logger:     nopLogger(deps.Logger),
	}
}

// Authorize checks that initiator is the master account.
func (s *ReconcileService) Authorize(initiatorEmail string) error {
	if err := s.portal.Validate(); err != nil {
		return apperrors.NewConfigurationError(err)
	}
	if !s.portal.IsMaster(initiatorEmail) {
		s.logger.Warn("bulk operation denied", zap.String("initiator", initiatorEmail))
		return apperrors.NewForbidden("bulk operations are restricted to the support account")
	}
	return nil
}

type resolveItem struct {
	key    string
	status string
	known  bool
	from   domain.Category
}

// BulkResolve resolves every ticket in the project.
func (s *ReconcileService) BulkResolve(ctx context.Context, initiatorEmail string) (*BulkResult, error) {
	if err := s.Authorize(initiatorEmail); err != nil {
		return nil, err
	}
	tickets, err := s.tracker.ProjectTickets(ctx)
	if err != nil {
		return nil, classify(err)
	}
	items := make([]resolveItem, 0, len(tickets))
	for _, t := range tickets {
		items = append(items, resolveItem{key: t.Key, status: t.TrackerStatus, known: true, from: s.sync.Mapper().Map(t.TrackerStatus)})
	}
	return s.resolveAll(ctx, items, initiatorEmail), nil
}

// BulkResolvePending resolves only tickets whose override is Pending Reply.
func (s *ReconcileService) BulkResolvePending(ctx context.Context, initiatorEmail string) (*BulkResult, error) {
	if err := s.Authorize(initiatorEmail); err != nil {
		return nil, err
	}
	if err := s.tracker.Configured(); err != nil {
		return nil, classify(err)
	}
	overrides, err := s.categories.ListByCategory(ctx, domain.CategoryPendingReply)
	if err != nil {
		return nil, classify(err)
	}
	items := make([]resolveItem, 0, len(overrides))
	for _, o := range overrides {
		items = append(items, resolveItem{key: o.TicketKey, from: o.Category})
	}
	return s.resolveAll(ctx, items, initiatorEmail), nil
}

func (s *ReconcileService) resolveAll(ctx context.Context, items []resolveItem, actor string) *BulkResult {
	result := &BulkResult{Errors: []string{}}
	wrote := false
	for _, item := range items {
		if err := ctx.Err(); err != nil {
			result.Failed++
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", item.key, err))
			continue
		}
		if err := s.resolveOne(ctx, item, actor, &wrote); err != nil {
			result.Failed++
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", item.key, err))
			s.logger.Warn("bulk resolve item failed", zap.String("ticket_key", item.key), zap.Error(err))
			continue
		}
		result.Resolved++
	}
	s.logger.Info("bulk resolve finished",
		zap.Int("resolved", result.Resolved),
		zap.Int("failed", result.Failed),
		zap.Int("total", len(items)))
	return result
}

// resolveOne moves the tracker to a Done-equivalent state, then records Resolved.
// Tickets already terminal in the tracker skip the transition.
func (s *ReconcileService) resolveOne(ctx context.Context, item resolveItem, actor string, wrote *bool) error {
	status := item.status
	if !item.known {
		ticket, err := s.tracker.GetTicket(ctx, item.key)
		if err != nil {
			return err
		}
		status = ticket.TrackerStatus
	}
	if !category.IsTerminalStatus(status) {
		if err := s.pace(ctx, wrote); err != nil {
			return err
		}
		if err := s.sync.SyncCategoryToTracker(ctx, item.key, domain.CategoryResolved); err != nil {
			return err
		}
	}
	if _, err := s.sync.upsert(ctx, item.key, item.from, domain.CategoryResolved, "bulk_resolve", actor); err != nil {
		return fmt.Errorf("store: %w", err)
	}
	return nil
}

// pace waits the configured delay before every tracker write but the first.
func (s *ReconcileService) pace(ctx context.Context, wrote *bool) error {
	if *wrote {
		if err := s.sleep(ctx, s.portal.BulkDelay); err != nil {
			return err
		}
	}
	*wrote = true
	return nil
}

// BulkSyncAllCategories pushes every stored override to the tracker.
func (s *ReconcileService) BulkSyncAllCategories(ctx context.Context) (*SyncReport, error) {
	if err := s.tracker.Configured(); err != nil {
		return nil, classify(err)
	}
	overrides, err := s.categories.List(ctx)
	if err != nil {
		return nil, classify(err)
	}

	report := &SyncReport{Total: len(overrides), Errors: []string{}}
	wrote := false
	for _, o := range overrides {
		err := s.syncOne(ctx, o, &wrote)
		if err != nil {
			report.Failed++
			report.Errors = append(report.Errors, fmt.Sprintf("%s: %v", o.TicketKey, err))
			if errors.Is(err, tracker.ErrTransitionUnavailable) {
				s.logger.Info("category not reachable in tracker", zap.String("ticket_key", o.TicketKey), zap.Error(err))
			} else {
				s.logger.Warn("category sync failed", zap.String("ticket_key", o.TicketKey), zap.Error(err))
			}
			continue
		}
		report.Synced++
	}
	s.logger.Info("category sync finished",
		zap.Int("synced", report.Synced),
		zap.Int("failed", report.Failed),
		zap.Int("total", report.Total))
	return report, nil
}

func (s *ReconcileService) syncOne(ctx context.Context, o domain.CategoryOverride, wrote *bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	ticket, err := s.tracker.GetTicket(ctx, o.TicketKey)
	if err != nil {
		return err
	}
	if s.sync.Mapper().Map(ticket.TrackerStatus) == o.Category {
		return nil
	}
	if err := s.pace(ctx, wrote); err != nil {
		return err
	}
	return s.sync.SyncCategoryToTracker(ctx, o.TicketKey, o.Category)
}

package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-portal/internal/api/dto"
	"github.com/spec-kit/helpdesk-portal/internal/domain"
	"github.com/spec-kit/helpdesk-portal/internal/observability"
	"github.com/spec-kit/helpdesk-portal/internal/service"
	"github.com/spec-kit/helpdesk-portal/internal/tracker"
	apperrors "github.com/spec-kit/helpdesk-portal/pkg/util/errorutil"
)

// SyncHandler exposes category sync endpoints.
type SyncHandler struct {
	sync      *service.CategorySyncService
	reconcile *service.ReconcileService
	metrics   *observability.Metrics
	logger    *zap.Logger
}

// NewSyncHandler constructs handler.
func NewSyncHandler(sync *service.CategorySyncService, reconcile *service.ReconcileService, metrics *observability.Metrics, logger *zap.Logger) *SyncHandler {
	return &SyncHandler{sync: sync, reconcile: reconcile, metrics: metrics, logger: logger}
}

// SyncJiraStatus POST /sync-jira-status.
func (h *SyncHandler) SyncJiraStatus(c *fiber.Ctx) error {
	report, err := h.reconcile.BulkSyncAllCategories(c.UserContext())
	if err != nil {
		return err
	}
	h.metrics.RecordSync("sync_categories", report.Synced, report.Failed)
	return c.JSON(report)
}

// SyncCategory POST /jira/sync-category.
func (h *SyncHandler) SyncCategory(c *fiber.Ctx) error {
	var req dto.SyncCategoryRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	req.TicketKey = strings.TrimSpace(req.TicketKey)
	if req.TicketKey == "" || strings.TrimSpace(req.Category) == "" {
		return apperrors.NewValidationError("ticketKey and category are required", nil)
	}
	category, ok := domain.ParseCategory(req.Category)
	if !ok {
		return apperrors.NewValidationError("unknown category", map[string]any{
			"category": req.Category,
			"allowed":  domain.Categories,
		})
	}

	err := h.sync.SyncCategoryToTracker(c.UserContext(), req.TicketKey, category)
	if err == nil {
		return c.JSON(dto.SyncCategoryResponse{Success: true, TicketKey: req.TicketKey, Category: category})
	}
	if errors.Is(err, tracker.ErrNotConfigured) {
		return apperrors.NewConfigurationError(err)
	}
	var domainErr *apperrors.DomainError
	if !errors.As(err, &domainErr) {
		domainErr = apperrors.ToDomainError(apperrors.NewUpstreamError("tracker", err))
	}
	if domainErr.HTTPStatus < http.StatusInternalServerError {
		return domainErr
	}
	h.logger.Warn("category sync failed", zap.String("ticket_key", req.TicketKey), zap.String("code", domainErr.Code), zap.Error(err))
	return c.Status(http.StatusInternalServerError).JSON(dto.SyncCategoryResponse{
		Success:   false,
		TicketKey: req.TicketKey,
		Message:   domainErr.Error(),
		Code:      domainErr.Code,
	})
}

// GetCategory GET /tickets/:key/category.
func (h *SyncHandler) GetCategory(c *fiber.Ctx) error {
	eff, err := h.sync.EffectiveCategory(c.UserContext(), c.Params("key"))
	if err != nil {
		return err
	}
	return c.JSON(dto.CategoryResponse{
		TicketKey:     eff.TicketKey,
		Category:      eff.Category,
		Source:        eff.Source,
		TrackerStatus: eff.TrackerStatus,
	})
}

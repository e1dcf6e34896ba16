package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-portal/internal/api/dto"
	"github.com/spec-kit/helpdesk-portal/internal/auth"
	"github.com/spec-kit/helpdesk-portal/internal/observability"
	"github.com/spec-kit/helpdesk-portal/internal/service"
	apperrors "github.com/spec-kit/helpdesk-portal/pkg/util/errorutil"
)

// BulkHandler exposes the master-only bulk resolve endpoints.
type BulkHandler struct {
	reconcile *service.ReconcileService
	metrics   *observability.Metrics
}

// NewBulkHandler constructs handler.
func NewBulkHandler(reconcile *service.ReconcileService, metrics *observability.Metrics) *BulkHandler {
	return &BulkHandler{reconcile: reconcile, metrics: metrics}
}

// ResolveAll POST /jira/bulk-resolve.
func (h *BulkHandler) ResolveAll(c *fiber.Ctx) error {
	identity, ok := auth.IdentityFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	res, err := h.reconcile.BulkResolve(c.UserContext(), identity.Email)
	if err != nil {
		return err
	}
	h.metrics.RecordSync("bulk_resolve", res.Resolved, res.Failed)
	return c.JSON(res)
}

// ResolveTickets POST /tickets/bulk-resolve. {"scope":"pending"} limits the run
// to tickets whose stored category is Pending Reply.
func (h *BulkHandler) ResolveTickets(c *fiber.Ctx) error {
	identity, ok := auth.IdentityFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.BulkResolveRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return apperrors.NewValidationError("invalid payload", nil)
		}
	}

	var (
		res *service.BulkResult
		err error
		job = "bulk_resolve"
	)
	switch strings.ToLower(strings.TrimSpace(req.Scope)) {
	case "", "all":
		res, err = h.reconcile.BulkResolve(c.UserContext(), identity.Email)
	case dto.BulkResolveScopePending:
		job = "bulk_resolve_pending"
		res, err = h.reconcile.BulkResolvePending(c.UserContext(), identity.Email)
	default:
		return apperrors.NewValidationError("unknown scope", map[string]any{"scope": req.Scope})
	}
	if err != nil {
		return err
	}
	h.metrics.RecordSync(job, res.Resolved, res.Failed)
	return c.JSON(res)
}

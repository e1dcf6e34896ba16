package handlers

import (
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-portal/internal/api/dto"
	"github.com/spec-kit/helpdesk-portal/internal/service"
	apperrors "github.com/spec-kit/helpdesk-portal/pkg/util/errorutil"
)

// PendingHandler exposes pending ticket tracking.
type PendingHandler struct {
	pending *service.PendingTicketService
}

// NewPendingHandler constructs handler.
func NewPendingHandler(pending *service.PendingTicketService) *PendingHandler {
	return &PendingHandler{pending: pending}
}

// Create POST /pending-tickets.
func (h *PendingHandler) Create(c *fiber.Ctx) error {
	var req dto.CreatePendingTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.EmailTimestamp <= 0 {
		return apperrors.NewValidationError("emailTimestamp is required", nil)
	}
	pt, err := h.pending.Create(c.UserContext(), req.UserEmail, time.UnixMilli(req.EmailTimestamp))
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.PendingTicketFromDomain(pt)})
}

// Get GET /pending-tickets/:id. Each read makes one lookup attempt.
func (h *PendingHandler) Get(c *fiber.Ctx) error {
	pt, err := h.pending.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.PendingTicketFromDomain(pt)})
}

// List GET /pending-tickets?email=.
func (h *PendingHandler) List(c *fiber.Ctx) error {
	items, err := h.pending.List(c.UserContext(), c.Query("email"))
	if err != nil {
		return err
	}
	out := make([]dto.PendingTicketResponse, 0, len(items))
	for i := range items {
		out = append(out, dto.PendingTicketFromDomain(&items[i]))
	}
	return c.JSON(fiber.Map{"data": out})
}

package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-portal/internal/api/dto"
	"github.com/spec-kit/helpdesk-portal/internal/service"
)

// HistoryHandler exposes the category audit trail.
type HistoryHandler struct {
	history *service.HistoryService
}

// NewHistoryHandler constructs handler.
func NewHistoryHandler(history *service.HistoryService) *HistoryHandler {
	return &HistoryHandler{history: history}
}

// List GET /tickets/:key/category/history.
func (h *HistoryHandler) List(c *fiber.Ctx) error {
	changes, err := h.history.List(c.UserContext(), c.Params("key"))
	if err != nil {
		return err
	}
	items := make([]dto.CategoryChangeResponse, 0, len(changes))
	for _, ch := range changes {
		items = append(items, dto.CategoryChangeResponse{
			OldCategory: ch.OldCategory,
			NewCategory: ch.NewCategory,
			Reason:      ch.Reason,
			Actor:       ch.Actor,
			CreatedAt:   ch.CreatedAt,
		})
	}
	return c.JSON(fiber.Map{"data": items})
}

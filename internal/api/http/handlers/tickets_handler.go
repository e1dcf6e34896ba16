package handlers

import (
	"fmt"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-portal/internal/api/dto"
	"github.com/spec-kit/helpdesk-portal/internal/auth"
	"github.com/spec-kit/helpdesk-portal/internal/domain"
	"github.com/spec-kit/helpdesk-portal/internal/service"
	apperrors "github.com/spec-kit/helpdesk-portal/pkg/util/errorutil"
)

// TicketsHandler manages customer ticket endpoints.
type TicketsHandler struct {
	service *service.TicketService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(ticketService *service.TicketService) *TicketsHandler {
	return &TicketsHandler{service: ticketService}
}

// ListTickets GET /tickets. The caller's identity wins over ?email=.
func (h *TicketsHandler) ListTickets(c *fiber.Ctx) error {
	email := c.Query("email")
	if identity, ok := auth.IdentityFromContext(c); ok {
		email = identity.Email
	}
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			return apperrors.NewValidationError("invalid limit", map[string]any{"limit": raw})
		}
		limit = parsed
	}
	views, err := h.service.ListUserTickets(c.UserContext(), email, limit)
	if err != nil {
		return err
	}
	items := make([]dto.TicketSummary, 0, len(views))
	for _, v := range views {
		items = append(items, ticketSummary(v))
	}
	return c.JSON(fiber.Map{"data": items})
}

// GetTicket GET /tickets/:key.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	detail, err := h.service.GetTicketDetail(c.UserContext(), c.Params("key"))
	if err != nil {
		return err
	}
	resp := dto.TicketDetailResponse{
		TicketSummary: ticketSummary(detail.TicketView),
		Description:   detail.Ticket.Description,
		Attachments:   make([]dto.AttachmentResponse, 0, len(detail.Ticket.Attachments)),
		Conversation:  make([]dto.ConversationResponse, 0, len(detail.Conversation)),
	}
	for _, a := range detail.Ticket.Attachments {
		resp.Attachments = append(resp.Attachments, dto.AttachmentResponse{
			ID:        a.ID,
			Filename:  a.Filename,
			MimeType:  a.MimeType,
			SizeBytes: a.SizeBytes,
			URL:       "/attachments/" + a.ID,
			CreatedAt: a.CreatedAt,
		})
	}
	for _, e := range detail.Conversation {
		resp.Conversation = append(resp.Conversation, dto.ConversationResponse{
			ID:          e.ID,
			SenderEmail: e.SenderEmail,
			Message:     e.Message,
			Role:        e.Role,
			Source:      e.Source,
			CreatedAt:   e.CreatedAt,
		})
	}
	return c.JSON(fiber.Map{"data": resp})
}

// Resolve POST /tickets/:key/resolve.
func (h *TicketsHandler) Resolve(c *fiber.Ctx) error {
	identity, ok := auth.IdentityFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	key := c.Params("key")
	res, err := h.service.Resolve(c.UserContext(), key, identity.Email)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.ResolveResponse{
		TicketKey:     key,
		Category:      domain.CategoryResolved,
		TrackerSynced: res.TrackerSynced,
		TrackerError:  res.TrackerError,
	}})
}

// Attachment GET /attachments/:id streams the tracker attachment through the portal.
func (h *TicketsHandler) Attachment(c *fiber.Ctx) error {
	content, err := h.service.FetchAttachment(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	c.Set(fiber.HeaderContentType, content.ContentType)
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("inline; filename=%q", content.Filename))
	return c.Send(content.Data)
}

func ticketSummary(v service.TicketView) dto.TicketSummary {
	return dto.TicketSummary{
		Key:            v.Ticket.Key,
		Summary:        v.Ticket.Summary,
		TrackerStatus:  v.Ticket.TrackerStatus,
		Category:       v.Category,
		CategorySource: v.Source,
		ReporterEmail:  v.Ticket.ReporterEmail,
		CreatedAt:      v.Ticket.CreatedAt,
		UpdatedAt:      v.Ticket.UpdatedAt,
	}
}

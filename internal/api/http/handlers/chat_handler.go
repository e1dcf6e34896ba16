package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-portal/internal/api/dto"
	"github.com/spec-kit/helpdesk-portal/internal/domain"
	"github.com/spec-kit/helpdesk-portal/internal/service"
	apperrors "github.com/spec-kit/helpdesk-portal/pkg/util/errorutil"
)

// ChatHandler manages chat message endpoints.
type ChatHandler struct {
	messages *service.MessageService
}

// NewChatHandler constructs handler.
func NewChatHandler(messages *service.MessageService) *ChatHandler {
	return &ChatHandler{messages: messages}
}

// Create POST /chat-messages. Mirroring and category changes happen after the response.
func (h *ChatHandler) Create(c *fiber.Ctx) error {
	var req dto.CreateChatMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	msg, err := h.messages.PostMessage(c.UserContext(), service.PostMessageInput{
		TicketKey: req.TicketKey,
		UserEmail: req.UserEmail,
		Message:   req.Message,
		Role:      domain.MessageRole(req.Role),
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.ChatMessageFromDomain(msg)})
}

// List GET /chat-messages?ticketKey=.
func (h *ChatHandler) List(c *fiber.Ctx) error {
	key := c.Query("ticketKey")
	if key == "" {
		return apperrors.NewValidationError("ticketKey is required", nil)
	}
	msgs, err := h.messages.ListMessages(c.UserContext(), key)
	if err != nil {
		return err
	}
	items := make([]dto.ChatMessageResponse, 0, len(msgs))
	for i := range msgs {
		items = append(items, dto.ChatMessageFromDomain(&msgs[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

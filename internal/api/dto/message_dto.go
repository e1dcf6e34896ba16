package dto

import (
	"time"

	"github.com/spec-kit/helpdesk-portal/internal/domain"
)

// CreateChatMessageRequest payload.
type CreateChatMessageRequest struct {
	TicketKey string `json:"ticketKey"`
	UserEmail string `json:"userEmail"`
	Message   string `json:"message"`
	Role      string `json:"role"`
}

// ChatMessageResponse represents a stored chat message.
type ChatMessageResponse struct {
	ID        string             `json:"id"`
	TicketKey string             `json:"ticketKey"`
	UserEmail string             `json:"userEmail"`
	Message   string             `json:"message"`
	Role      domain.MessageRole `json:"role"`
	CreatedAt time.Time          `json:"createdAt"`
}

// ChatMessageFromDomain converts a stored message.
func ChatMessageFromDomain(m *domain.ChatMessage) ChatMessageResponse {
	return ChatMessageResponse{
		ID:        m.ID,
		TicketKey: m.TicketKey,
		UserEmail: m.UserEmail,
		Message:   m.Message,
		Role:      m.Role,
		CreatedAt: m.CreatedAt,
	}
}

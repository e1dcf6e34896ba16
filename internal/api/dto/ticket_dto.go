package dto

import (
	"time"

	"github.com/spec-kit/helpdesk-portal/internal/domain"
)

// TicketSummary response.
type TicketSummary struct {
	Key            string                `json:"key"`
	Summary        string                `json:"summary"`
	TrackerStatus  string                `json:"trackerStatus"`
	Category       domain.Category       `json:"category"`
	CategorySource domain.CategorySource `json:"categorySource"`
	ReporterEmail  string                `json:"reporterEmail"`
	CreatedAt      time.Time             `json:"createdAt"`
	UpdatedAt      time.Time             `json:"updatedAt"`
}

// AttachmentResponse describes a downloadable attachment.
type AttachmentResponse struct {
	ID        string    `json:"id"`
	Filename  string    `json:"filename"`
	MimeType  string    `json:"mimeType"`
	SizeBytes int64     `json:"sizeBytes"`
	URL       string    `json:"url"`
	CreatedAt time.Time `json:"createdAt"`
}

// TicketDetailResponse provides full ticket info.
type TicketDetailResponse struct {
	TicketSummary
	Description  string                 `json:"description"`
	Attachments  []AttachmentResponse   `json:"attachments"`
	Conversation []ConversationResponse `json:"conversation"`
}

// ConversationResponse represents one merged thread entry.
type ConversationResponse struct {
	ID          string               `json:"id"`
	SenderEmail string               `json:"senderEmail"`
	Message     string               `json:"message"`
	Role        domain.MessageRole   `json:"role"`
	Source      domain.MessageSource `json:"source"`
	CreatedAt   time.Time            `json:"createdAt"`
}

// ResolveResponse reports a single ticket resolve.
type ResolveResponse struct {
	TicketKey     string          `json:"ticketKey"`
	Category      domain.Category `json:"category"`
	TrackerSynced bool            `json:"trackerSynced"`
	TrackerError  string          `json:"trackerError,omitempty"`
}

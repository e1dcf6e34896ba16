package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/helpdesk-portal/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventChatMessagePosted       EventType = "chat_message_posted"
	EventCategoryChanged         EventType = "category_changed"
	EventAcknowledgementVerified EventType = "acknowledgement_verified"
	EventPendingTicketSettled    EventType = "pending_ticket_settled"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	TicketKey string    `json:"ticket_key"`
	Actor     string    `json:"actor,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload"`
}

// New stamps an event with a fresh id and the current time.
func New(eventType EventType, ticketKey, actor string, payload any) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		TicketKey: ticketKey,
		Actor:     actor,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
}

// ChatMessagePostedPayload payload.
type ChatMessagePostedPayload struct {
	Message        domain.ChatMessage `json:"message"`
	SenderIsMaster bool               `json:"sender_is_master"`
}

// CategoryChangedPayload payload.
type CategoryChangedPayload struct {
	OldCategory domain.Category `json:"old_category"`
	NewCategory domain.Category `json:"new_category"`
	Reason      string          `json:"reason"`
}

// AcknowledgementVerifiedPayload payload.
type AcknowledgementVerifiedPayload struct {
	CustomerEmail  string    `json:"customer_email"`
	TicketSummary  string    `json:"ticket_summary"`
	TicketCreated  time.Time `json:"ticket_created"`
	EmailTimestamp time.Time `json:"email_timestamp"`
}

// PendingTicketSettledPayload payload.
type PendingTicketSettledPayload struct {
	PendingID string                     `json:"pending_id"`
	UserEmail string                     `json:"user_email"`
	Status    domain.PendingTicketStatus `json:"status"`
	Error     string                     `json:"error,omitempty"`
}

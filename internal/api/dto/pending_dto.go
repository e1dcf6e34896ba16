package dto

import (
	"time"

	"github.com/spec-kit/helpdesk-portal/internal/domain"
)

// CreatePendingTicketRequest payload. EmailTimestamp is epoch milliseconds.
type CreatePendingTicketRequest struct {
	UserEmail      string `json:"userEmail"`
	EmailTimestamp int64  `json:"emailTimestamp"`
}

// PendingTicketResponse represents a pending ticket record.
type PendingTicketResponse struct {
	ID             string                     `json:"id"`
	UserEmail      string                     `json:"userEmail"`
	Status         domain.PendingTicketStatus `json:"status"`
	EmailTimestamp time.Time                  `json:"emailTimestamp"`
	TicketKey      *string                    `json:"ticketKey,omitempty"`
	ErrorMessage   *string                    `json:"errorMessage,omitempty"`
	Attempts       int                        `json:"attempts"`
	CreatedAt      time.Time                  `json:"createdAt"`
	UpdatedAt      time.Time                  `json:"updatedAt"`
}

// PendingTicketFromDomain converts a pending record.
func PendingTicketFromDomain(pt *domain.PendingTicket) PendingTicketResponse {
	return PendingTicketResponse{
		ID:             pt.ID,
		UserEmail:      pt.UserEmail,
		Status:         pt.Status,
		EmailTimestamp: pt.EmailTimestamp,
		TicketKey:      pt.TicketKey,
		ErrorMessage:   pt.ErrorMessage,
		Attempts:       pt.Attempts,
		CreatedAt:      pt.CreatedAt,
		UpdatedAt:      pt.UpdatedAt,
	}
}

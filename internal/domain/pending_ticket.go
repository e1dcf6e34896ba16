package domain

import "time"

// PendingTicketStatus enumerates provisional ticket states.
type PendingTicketStatus string

const (
	PendingStatusPending PendingTicketStatus = "pending"
	PendingStatusCreated PendingTicketStatus = "created"
	PendingStatusFailed  PendingTicketStatus = "failed"
)

// Terminal reports whether no further resolution attempts apply.
func (s PendingTicketStatus) Terminal() bool {
	return s == PendingStatusCreated || s == PendingStatusFailed
}

// PendingTicket is recorded before the tracker has created the real ticket.
type PendingTicket struct {
	ID             string
	UserEmail      string
	Status         PendingTicketStatus
	EmailTimestamp time.Time
	TicketKey      *string
	ErrorMessage   *string
	Attempts       int
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

package domain

import "time"

// Acknowledgement records a verified correlation between an auto-reply and a ticket.
type Acknowledgement struct {
	ID             string
	CustomerEmail  string
	TicketKey      string
	MessageID      string
	EmailTimestamp *time.Time
	Acknowledged   bool
	Verified       bool
	CreatedAt      time.Time
}

package domain

import "time"

// CategoryChange is an immutable audit entry for one override write.
type CategoryChange struct {
	ID          string
	TicketKey   string
	OldCategory Category
	NewCategory Category
	Reason      string
	Actor       string
	CreatedAt   time.Time
}

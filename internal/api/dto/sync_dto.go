package dto

import (
	"time"

	"github.com/spec-kit/helpdesk-portal/internal/domain"
)

// SyncCategoryRequest payload for a single Store to Tracker push.
type SyncCategoryRequest struct {
	TicketKey string `json:"ticketKey"`
	Category  string `json:"category"`
}

// SyncCategoryResponse reports a single push.
type SyncCategoryResponse struct {
	Success   bool            `json:"success"`
	TicketKey string          `json:"ticketKey"`
	Category  domain.Category `json:"category,omitempty"`
	Message   string          `json:"message,omitempty"`
	Code      string          `json:"code,omitempty"`
}

// BulkResolveRequest optionally narrows bulk resolve to Pending Reply overrides.
type BulkResolveRequest struct {
	Scope string `json:"scope"`
}

// BulkResolveScopePending selects the category-driven variant.
const BulkResolveScopePending = "pending"

// CategoryResponse is the effective category of a ticket.
type CategoryResponse struct {
	TicketKey     string                `json:"ticketKey"`
	Category      domain.Category       `json:"category"`
	Source        domain.CategorySource `json:"source"`
	TrackerStatus string                `json:"trackerStatus,omitempty"`
}

// CategoryChangeResponse is one category audit entry.
type CategoryChangeResponse struct {
	OldCategory domain.Category `json:"oldCategory,omitempty"`
	NewCategory domain.Category `json:"newCategory"`
	Reason      string          `json:"reason"`
	Actor       string          `json:"actor,omitempty"`
	CreatedAt   time.Time       `json:"createdAt"`
}

package domain

import (
	"strings"
	"time"
)

// Category is the display classification shown to portal users.
type Category string

const (
	CategoryInProgress   Category = "In Progress"
	CategoryPendingReply Category = "Pending Reply"
	CategoryResolved     Category = "Resolved"
)

// Categories lists every canonical category.
var Categories = []Category{CategoryInProgress, CategoryPendingReply, CategoryResolved}

// Valid reports whether c is one of the canonical categories.
func (c Category) Valid() bool {
	switch c {
	case CategoryInProgress, CategoryPendingReply, CategoryResolved:
		return true
	}
	return false
}

// ParseCategory accepts a canonical category in any letter case.
func ParseCategory(raw string) (Category, bool) {
	raw = strings.TrimSpace(raw)
	for _, c := range Categories {
		if strings.EqualFold(raw, string(c)) {
			return c, true
		}
	}
	return "", false
}

// CategorySource tells where an effective category came from.
type CategorySource string

const (
	CategorySourceOverride CategorySource = "override"
	CategorySourceTracker  CategorySource = "tracker"
)

// CategoryOverride is the stored category row for a ticket.
type CategoryOverride struct {
	TicketKey string
	Category  Category
	UpdatedAt time.Time
}

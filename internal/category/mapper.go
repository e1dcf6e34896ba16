// Package category derives portal categories from free-text tracker statuses
// and maps categories back to tracker workflow targets.
package category

import (
	"strings"

	"github.com/spec-kit/helpdesk-portal/internal/domain"
)

// Rule matches a tracker status by keyword and yields a category.
type Rule struct {
	Name     string
	Keywords []string
	Category domain.Category
}

// Matches reports whether the lowercased status contains any of the rule keywords.
func (r Rule) Matches(status string) bool {
	for _, kw := range r.Keywords {
		if strings.Contains(status, kw) {
			return true
		}
	}
	return false
}

// Rules is evaluated in order; the first match wins.
var Rules = []Rule{
	{Name: "active", Keywords: []string{"progress", "development", "review"}, Category: domain.CategoryInProgress},
	{Name: "terminal", Keywords: []string{"done", "resolved", "closed"}, Category: domain.CategoryResolved},
	{Name: "awaiting", Keywords: []string{"waiting", "pending", "feedback"}, Category: domain.CategoryPendingReply},
}

// Default applies when no rule matches.
const Default = domain.CategoryInProgress

// Mapper evaluates an ordered rule list.
type Mapper struct {
	rules    []Rule
	fallback domain.Category
}

// NewMapper builds a mapper over rules with a fallback category.
func NewMapper(rules []Rule, fallback domain.Category) *Mapper {
	return &Mapper{rules: rules, fallback: fallback}
}

// Map returns the category for status. It never fails.
func (m *Mapper) Map(status string) domain.Category {
	_, c := m.Match(status)
	return c
}

// Match returns the matching rule name ("" for the fallback) and the category.
func (m *Mapper) Match(status string) (string, domain.Category) {
	normalized := strings.ToLower(strings.TrimSpace(status))
	if normalized == "" {
		return "", m.fallback
	}
	for _, r := range m.rules {
		if r.Matches(normalized) {
			return r.Name, r.Category
		}
	}
	return "", m.fallback
}

var defaultMapper = NewMapper(Rules, Default)

// FromStatus maps a tracker status with the default rule list.
func FromStatus(status string) domain.Category {
	return defaultMapper.Map(status)
}

// IsTerminalStatus reports whether a tracker status is a Done-equivalent state.
func IsTerminalStatus(status string) bool {
	return FromStatus(status) == domain.CategoryResolved
}

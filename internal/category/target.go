package category

import "github.com/spec-kit/helpdesk-portal/internal/domain"

// Target names the tracker workflow state a category is pushed to.
type Target struct {
	// Statuses are candidate transition or destination names, most preferred first.
	Statuses   []string
	Resolution string
}

// Primary returns the preferred tracker status name.
func (t Target) Primary() string {
	if len(t.Statuses) == 0 {
		return ""
	}
	return t.Statuses[0]
}

var targets = map[domain.Category]Target{
	domain.CategoryResolved:     {Statuses: []string{"Done", "Resolved", "Closed"}, Resolution: "Done"},
	domain.CategoryPendingReply: {Statuses: []string{"Pending Reply"}},
	domain.CategoryInProgress:   {Statuses: []string{"In Progress"}},
}

// TrackerTarget returns the tracker workflow target for c.
func TrackerTarget(c domain.Category) (Target, bool) {
	t, ok := targets[c]
	return t, ok
}

package domain

import (
	"fmt"
	"sort"

	"github.com/hashicorp/go-multierror"
)

// BulkResult is the outcome of a non-transactional bulk operation. Every item
// succeeds or fails on its own; successes are never rolled back.
type BulkResult struct {
	Action    string           `json:"action"` // e.g. "cancel"
	Noun      string           `json:"noun"`   // e.g. "charge"
	Requested int              `json:"requested"`
	Succeeded []string         `json:"succeeded"`
	Failed    map[string]error `json:"-"`
}

// FailedIDs returns the IDs of failed items in sorted order.
func (r BulkResult) FailedIDs() []string {
	ids := make([]string, 0, len(r.Failed))
	for id := range r.Failed {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Err aggregates all item failures, or returns nil if every item succeeded.
func (r BulkResult) Err() error {
	var result *multierror.Error
	for _, id := range r.FailedIDs() {
		result = multierror.Append(result, fmt.Errorf("%s %s: %w", r.Noun, id, r.Failed[id]))
	}
	return result.ErrorOrNil()
}

// Outcome classifies the result for auditing.
func (r BulkResult) Outcome() AuditOutcome {
	switch {
	case len(r.Failed) == 0:
		return AuditSucceeded
	case len(r.Succeeded) == 0:
		return AuditFailed
	default:
		return AuditPartial
	}
}

// Summary is a single operator-facing message, e.g. "Failed to cancel 2 of 5 charges".
func (r BulkResult) Summary() string {
	noun := r.Noun
	if r.Requested != 1 {
		noun += "s"
	}
	if len(r.Failed) > 0 {
		return fmt.Sprintf("Failed to %s %d of %d %s", r.Action, len(r.Failed), r.Requested, noun)
	}
	return fmt.Sprintf("Completed %s for %d of %d %s", r.Action, len(r.Succeeded), r.Requested, noun)
}

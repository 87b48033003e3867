package billing

import (
	"fmt"

	"github.com/SscSPs/billing_backoffice/internal/apperrors"
)

// ChargeSelectionSet tracks the charges an operator selected on one listing,
// across all of its pages. The selection only ever contains IDs that are part
// of the last loaded listing.
//
// ChargeSelectionSet is not safe for concurrent use.
type ChargeSelectionSet struct {
	known    map[string]struct{}
	selected map[string]struct{}
	order    []string
}

// NewChargeSelectionSet returns an empty selection over the given listing IDs.
func NewChargeSelectionSet(knownIDs ...string) *ChargeSelectionSet {
	s := &ChargeSelectionSet{
		known:    make(map[string]struct{}, len(knownIDs)),
		selected: make(map[string]struct{}),
	}
	for _, id := range knownIDs {
		s.known[id] = struct{}{}
	}
	return s
}

// ReplaceKnownIDs swaps the listing universe after a reload or filter change.
// Selected IDs that are no longer part of the listing are dropped silently and
// returned for logging.
func (s *ChargeSelectionSet) ReplaceKnownIDs(ids []string) []string {
	s.known = make(map[string]struct{}, len(ids))
	for _, id := range ids {
		s.known[id] = struct{}{}
	}

	var dropped []string
	kept := s.order[:0]
	for _, id := range s.order {
		if _, ok := s.known[id]; ok {
			kept = append(kept, id)
			continue
		}
		delete(s.selected, id)
		dropped = append(dropped, id)
	}
	s.order = kept
	return dropped
}

// Toggle flips the selection of id and reports whether it is now selected.
func (s *ChargeSelectionSet) Toggle(id string) (bool, error) {
	if _, ok := s.known[id]; !ok {
		return false, fmt.Errorf("%w: %s", apperrors.ErrUnknownCharge, id)
	}
	if _, ok := s.selected[id]; ok {
		s.remove(id)
		return false, nil
	}
	s.add(id)
	return true, nil
}

// SelectAllVisible selects every given ID. Either all IDs are known and get
// selected, or nothing changes.
func (s *ChargeSelectionSet) SelectAllVisible(visibleIDs []string) error {
	for _, id := range visibleIDs {
		if _, ok := s.known[id]; !ok {
			return fmt.Errorf("%w: %s", apperrors.ErrUnknownCharge, id)
		}
	}
	for _, id := range visibleIDs {
		if _, ok := s.selected[id]; !ok {
			s.add(id)
		}
	}
	return nil
}

// Clear deselects everything. The known IDs are kept.
func (s *ChargeSelectionSet) Clear() {
	s.selected = make(map[string]struct{})
	s.order = nil
}

// IsSelected reports whether id is selected.
func (s *ChargeSelectionSet) IsSelected(id string) bool {
	_, ok := s.selected[id]
	return ok
}

// SelectedIDs returns the selected IDs in insertion order.
func (s *ChargeSelectionSet) SelectedIDs() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// Count returns the number of selected IDs.
func (s *ChargeSelectionSet) Count() int {
	return len(s.order)
}

// IsKnown reports whether id is part of the current listing.
func (s *ChargeSelectionSet) IsKnown(id string) bool {
	_, ok := s.known[id]
	return ok
}

func (s *ChargeSelectionSet) add(id string) {
	s.selected[id] = struct{}{}
	s.order = append(s.order, id)
}

func (s *ChargeSelectionSet) remove(id string) {
	delete(s.selected, id)
	for i, v := range s.order {
		if v == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			return
		}
	}
}

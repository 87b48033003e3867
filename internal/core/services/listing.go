package services

import (
	"fmt"
	"sync"
	"time"

	"github.com/SscSPs/billing_backoffice/internal/apperrors"
	"github.com/SscSPs/billing_backoffice/internal/core/billing"
	"github.com/SscSPs/billing_backoffice/internal/core/domain"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

// ListingKey identifies one operator's view of one listing of one account.
type ListingKey struct {
	OperatorID string
	AccountID  string
	Kind       domain.ListingKind
}

// ListingSession holds the last committed listing and the selection made on
// it. Reloads are tagged with a token from Begin; only the most recent token
// may commit, so a slow response never overwrites a newer one.
type ListingSession struct {
	mu        sync.Mutex
	key       ListingKey
	latest    uint64
	committed bool
	charges   []domain.Charge
	byID      map[string]domain.Charge
	selection *billing.ChargeSelectionSet
	loadedAt  time.Time
}

func newListingSession(key ListingKey) *ListingSession {
	return &ListingSession{
		key:       key,
		byID:      map[string]domain.Charge{},
		selection: billing.NewChargeSelectionSet(),
	}
}

// ListingSnapshot is a consistent copy of a session's state.
type ListingSnapshot struct {
	Key         ListingKey
	Committed   bool
	Charges     []domain.Charge
	ByID        map[string]domain.Charge
	SelectedIDs []string
	LoadedAt    time.Time
}

// Begin starts a reload and returns its token.
func (s *ListingSession) Begin() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.latest++
	return s.latest
}

// Commit installs charges as the current listing if token is still the
// latest reload. The selection is pruned to the new charge IDs in the same
// critical section; the pruned IDs are returned.
func (s *ListingSession) Commit(token uint64, charges []domain.Charge, now time.Time) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if token != s.latest {
		return nil, fmt.Errorf("%w: token %d, latest %d", apperrors.ErrStaleResponse, token, s.latest)
	}

	s.charges = make([]domain.Charge, len(charges))
	copy(s.charges, charges)
	s.byID = make(map[string]domain.Charge, len(charges))
	ids := make([]string, len(charges))
	for i, c := range charges {
		s.byID[c.ChargeID] = c
		ids[i] = c.ChargeID
	}
	s.committed = true
	s.loadedAt = now
	return s.selection.ReplaceKnownIDs(ids), nil
}

// Snapshot returns a copy of the session state.
func (s *ListingSession) Snapshot() ListingSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *ListingSession) snapshotLocked() ListingSnapshot {
	charges := make([]domain.Charge, len(s.charges))
	copy(charges, s.charges)
	byID := make(map[string]domain.Charge, len(s.byID))
	for id, c := range s.byID {
		byID[id] = c
	}
	return ListingSnapshot{
		Key:         s.key,
		Committed:   s.committed,
		Charges:     charges,
		ByID:        byID,
		SelectedIDs: s.selection.SelectedIDs(),
		LoadedAt:    s.loadedAt,
	}
}

// Toggle flips the selection of one charge of the committed listing.
func (s *ListingSession) Toggle(chargeID string) (ListingSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.selection.Toggle(chargeID); err != nil {
		return ListingSnapshot{}, err
	}
	return s.snapshotLocked(), nil
}

// SelectAll selects every charge of the committed listing.
func (s *ListingSession) SelectAll() (ListingSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, len(s.charges))
	for i, c := range s.charges {
		ids[i] = c.ChargeID
	}
	if err := s.selection.SelectAllVisible(ids); err != nil {
		return ListingSnapshot{}, err
	}
	return s.snapshotLocked(), nil
}

// Clear empties the selection.
func (s *ListingSession) Clear() ListingSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selection.Clear()
	return s.snapshotLocked()
}

// SelectionForBuild returns a copy of the selection set and the charge lookup,
// for handing to the invoice assembler outside the lock.
func (s *ListingSession) SelectionForBuild() (*billing.ChargeSelectionSet, map[string]domain.Charge) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := s.snapshotLocked()
	known := make([]string, len(snap.Charges))
	for i, c := range snap.Charges {
		known[i] = c.ChargeID
	}
	sel := billing.NewChargeSelectionSet(known...)
	for _, id := range snap.SelectedIDs {
		_, _ = sel.Toggle(id)
	}
	return sel, snap.ByID
}

// ListingRegistry owns the listing sessions of all operators. Sessions idle
// for longer than the TTL expire.
type ListingRegistry struct {
	mu       sync.Mutex
	sessions *expirable.LRU[ListingKey, *ListingSession]
}

// NewListingRegistry creates a registry. A non-positive idleTTL keeps
// sessions forever.
func NewListingRegistry(idleTTL time.Duration) *ListingRegistry {
	return &ListingRegistry{
		sessions: expirable.NewLRU[ListingKey, *ListingSession](0, nil, idleTTL),
	}
}

// Session returns the session for key, creating it if needed.
func (r *ListingRegistry) Session(key ListingKey) *ListingSession {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions.Get(key)
	if !ok {
		s = newListingSession(key)
	}
	// re-adding renews the idle deadline
	r.sessions.Add(key, s)
	return s
}

// Len returns the number of live sessions.
func (r *ListingRegistry) Len() int {
	return len(r.sessions.Keys())
}

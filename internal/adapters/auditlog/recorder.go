// Package auditlog records operator mutations as structured log lines and
// keeps the most recent entries in memory. When a durable repository is
// attached, entries are also written through to it and reads are served
// from it.
package auditlog

import (
	"context"
	"log/slog"
	"slices"
	"strings"

	"github.com/SscSPs/billing_backoffice/internal/core/domain"
	portsrepo "github.com/SscSPs/billing_backoffice/internal/core/ports/repositories"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

// DefaultCapacity is the number of entries kept in memory.
const DefaultCapacity = 1000

// Recorder implements portsrepo.AuditRepositoryFacade.
type Recorder struct {
	logger   *slog.Logger
	durable  portsrepo.AuditRepositoryFacade
	recent   *expirable.LRU[string, domain.AuditEntry]
	capacity int
}

var _ portsrepo.AuditRepositoryFacade = (*Recorder)(nil)

// Option configures a Recorder.
type Option func(*Recorder)

// WithCapacity sets how many entries are kept in memory.
func WithCapacity(n int) Option {
	return func(r *Recorder) {
		if n > 0 {
			r.capacity = n
		}
	}
}

// WithDurableRepository writes every entry through to repo and serves reads from it.
func WithDurableRepository(repo portsrepo.AuditRepositoryFacade) Option {
	return func(r *Recorder) {
		r.durable = repo
	}
}

// NewRecorder creates a Recorder logging to logger.
func NewRecorder(logger *slog.Logger, opts ...Option) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Recorder{logger: logger, capacity: DefaultCapacity}
	for _, opt := range opts {
		opt(r)
	}
	r.recent = expirable.NewLRU[string, domain.AuditEntry](r.capacity, nil, 0)
	return r
}

// SaveAuditEntry logs the entry, keeps it in memory and forwards it to the
// durable repository when one is attached.
func (r *Recorder) SaveAuditEntry(ctx context.Context, entry domain.AuditEntry) error {
	r.logger.LogAttrs(ctx, slog.LevelInfo, "Audit",
		slog.String("audit_id", entry.AuditID),
		slog.String("operator_id", entry.OperatorID),
		slog.String("action", entry.Action),
		slog.String("account_id", entry.AccountID),
		slog.Any("target_ids", entry.TargetIDs),
		slog.String("outcome", string(entry.Outcome)),
		slog.String("detail", entry.Detail),
	)

	entry.TargetIDs = slices.Clone(entry.TargetIDs)
	r.recent.Add(entry.AuditID, entry)

	if r.durable != nil {
		return r.durable.SaveAuditEntry(ctx, entry)
	}
	return nil
}

// ListAuditEntries returns the entries of q.AccountID, newest first.
func (r *Recorder) ListAuditEntries(ctx context.Context, q domain.AuditQuery) ([]domain.AuditEntry, error) {
	if r.durable != nil {
		return r.durable.ListAuditEntries(ctx, q)
	}

	matching := []domain.AuditEntry{}
	for _, e := range r.recent.Values() {
		if e.AccountID != q.AccountID {
			continue
		}
		e.TargetIDs = slices.Clone(e.TargetIDs)
		matching = append(matching, e)
	}

	slices.SortFunc(matching, func(a, b domain.AuditEntry) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.AuditID, b.AuditID)
	})

	out := []domain.AuditEntry{}
	for _, e := range matching {
		if q.Limit > 0 && len(out) == q.Limit {
			break
		}
		if q.After != nil && !q.After.After(e) {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

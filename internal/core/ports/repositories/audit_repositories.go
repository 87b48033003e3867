package repositories

import (
	"context"

	"github.com/SscSPs/billing_backoffice/internal/core/domain"
)

// AuditWriter defines write operations for the audit trail
type AuditWriter interface {
	// SaveAuditEntry stores one audit entry.
	SaveAuditEntry(ctx context.Context, entry domain.AuditEntry) error
}

// AuditReader defines read operations for the audit trail
type AuditReader interface {
	// ListAuditEntries returns the entries selected by q, newest first.
	ListAuditEntries(ctx context.Context, q domain.AuditQuery) ([]domain.AuditEntry, error)
}

// AuditRepositoryFacade combines all audit repository interfaces
type AuditRepositoryFacade interface {
	AuditWriter
	AuditReader
}

// AuditRepositoryWithTx combines the audit repository with transaction management
type AuditRepositoryWithTx interface {
	AuditRepositoryFacade
	TransactionManager
}

package pgsql

import (
	portsrepo "github.com/SscSPs/billing_backoffice/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5/pgxpool"
)

func NewRepositoryProvider(dbPool *pgxpool.Pool) portsrepo.RepositoryProvider {
	return portsrepo.RepositoryProvider{
		AuditRepo: newPgxAuditRepository(dbPool),
	}
}

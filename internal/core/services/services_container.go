package services

import (
	"github.com/SscSPs/billing_backoffice/internal/core/ports/gateways"
	portsrepo "github.com/SscSPs/billing_backoffice/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/billing_backoffice/internal/core/ports/services"
	"github.com/SscSPs/billing_backoffice/internal/observability/metrics"
	"github.com/SscSPs/billing_backoffice/internal/platform/config"
)

// NewServiceContainer creates a new service container with properly initialized dependencies
func NewServiceContainer(cfg *config.Config, backend gateways.BillingBackend, repos portsrepo.RepositoryProvider, m *metrics.Metrics) *portssvc.ServiceContainer {
	options := []BillingServiceOption{
		WithMetrics(m),
		WithBulkConcurrency(cfg.BulkConcurrency),
		WithDefaultCurrency(cfg.DefaultCurrency),
		WithLocation(cfg.DisplayTimezone),
		WithListingRegistry(NewListingRegistry(cfg.SessionIdleTTL)),
	}
	if repos.AuditRepo != nil {
		options = append(options, WithAuditRepository(repos.AuditRepo))
	}

	return &portssvc.ServiceContainer{
		Billing: NewBillingService(backend, options...),
	}
}

// Helper to check interface implementations at compile time
var (
	_ portssvc.BillingSvcFacade = (*BillingService)(nil)
)

package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SscSPs/billing_backoffice/internal/adapters/auditlog"
	"github.com/SscSPs/billing_backoffice/internal/adapters/billingapi"
	"github.com/SscSPs/billing_backoffice/internal/core/ports/gateways"
	portsrepo "github.com/SscSPs/billing_backoffice/internal/core/ports/repositories"
	"github.com/SscSPs/billing_backoffice/internal/core/services"
	"github.com/SscSPs/billing_backoffice/internal/handlers"
	"github.com/SscSPs/billing_backoffice/internal/middleware"
	"github.com/SscSPs/billing_backoffice/internal/migration"
	"github.com/SscSPs/billing_backoffice/internal/observability/metrics"
	"github.com/SscSPs/billing_backoffice/internal/platform/config"
	"github.com/SscSPs/billing_backoffice/internal/platform/logging"
	"github.com/SscSPs/billing_backoffice/internal/repositories/database/pgsql"
	"github.com/SscSPs/billing_backoffice/pkg/database"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

//go:generate swag init -g main.go -o ../docs -d .,../../internal/handlers,../../internal/dto

// @title Billing Back Office API
// @version 1.0
// @description Operator facing billing back office: charge listings, selections, invoicing, bulk actions, ledger and payments.

// @host localhost:8080
// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

// @security BearerAuth
func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("Failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger := logging.Setup(os.Stdout, cfg.LogLevel, cfg.IsProduction)

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	appMetrics := metrics.New(registry)

	backend, err := newBillingBackend(cfg, appMetrics, logger)
	if err != nil {
		logger.Error("Failed to initialize billing backend", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repos, closeRepos, err := newRepositoryProvider(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize audit storage", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer closeRepos()

	serviceContainer := services.NewServiceContainer(cfg, backend, repos, appMetrics)

	if cfg.IsProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware (logging, recovery, cors, metrics)
	r.Use(
		middleware.StructuredLoggingMiddleware(logger),
		gin.Recovery(),
		cors.New(cors.Config{
			AllowOrigins:     cfg.CORSAllowedOrigins,
			AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
			ExposeHeaders:    []string{"X-RateLimit-Limit", "X-RateLimit-Remaining", "X-Request-ID"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}),
		metrics.GinMiddleware(appMetrics),
	)

	if err := r.SetTrustedProxies(nil); err != nil {
		logger.Error("Failed to set trusted proxies", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if err := handlers.RegisterRoutes(r, cfg, serviceContainer, appMetrics); err != nil {
		logger.Error("Failed to register routes", slog.String("error", err.Error()))
		os.Exit(1)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Server starting", slog.String("port", cfg.Port), slog.Bool("mock_backend", cfg.EnableMockAPI))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server failed to run", slog.String("error", err.Error()))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown failed", slog.String("error", err.Error()))
	}
}

func newBillingBackend(cfg *config.Config, m *metrics.Metrics, logger *slog.Logger) (gateways.BillingBackend, error) {
	if cfg.EnableMockAPI {
		logger.Warn("Using the in-memory mock billing backend")
		return billingapi.NewMockBackend(cfg.DefaultCurrency), nil
	}
	return billingapi.NewClient(cfg.BillingAPIBaseURL, cfg.BillingAPIToken,
		billingapi.WithTimeout(cfg.BillingAPITimeout),
		billingapi.WithMetrics(m),
	)
}

// newRepositoryProvider wires the audit trail. Entries always go to the
// in-memory recorder; with a database configured they are also persisted.
func newRepositoryProvider(ctx context.Context, cfg *config.Config, logger *slog.Logger) (portsrepo.RepositoryProvider, func(), error) {
	if cfg.DatabaseURL == "" {
		logger.Info("PGSQL_URL not set, audit entries are kept in memory only")
		return portsrepo.RepositoryProvider{AuditRepo: auditlog.NewRecorder(logger)}, func() {}, nil
	}

	applied, err := migration.Up(cfg.DatabaseURL, logger)
	if err != nil {
		return portsrepo.RepositoryProvider{}, nil, err
	}
	if applied {
		logger.Info("Database migrations applied successfully.")
	} else {
		logger.Info("No new migrations to apply.")
	}

	dbPool, err := database.NewPgxPool(ctx, cfg.DatabaseURL, database.PoolOptions{
		ConnectTimeout: 5 * time.Second,
		Ping:           cfg.EnableDBCheck,
	})
	if err != nil {
		return portsrepo.RepositoryProvider{}, nil, err
	}

	durable := pgsql.NewRepositoryProvider(dbPool)
	repos := portsrepo.RepositoryProvider{
		AuditRepo: auditlog.NewRecorder(logger, auditlog.WithDurableRepository(durable.AuditRepo)),
	}
	return repos, func() { database.ClosePgxPool(dbPool) }, nil
}

package metrics_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/SscSPs/billing_backoffice/internal/observability/metrics"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilMetricsIsNoop(t *testing.T) {
	var m *metrics.Metrics
	assert.NotPanics(t, func() {
		m.ObserveBackendCall("list_charges", "ok", time.Millisecond)
		m.IncStaleDiscard("charges")
		m.AddBulkItems("cancel", 1, 1)
		m.ObserveHTTPRequest("GET", "/x", "200", time.Millisecond)
	})
}

func TestMetricsAreExposed(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	m.ObserveBackendCall("cancel_charge", "ok", 20*time.Millisecond)
	m.ObserveBackendCall("cancel_charge", "timeout", 10*time.Second)
	m.IncStaleDiscard("uninvoiced")
	m.AddBulkItems("cancel", 3, 2)

	count, err := testutil.GatherAndCount(reg, "billing_backoffice_backend_calls_total")
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `billing_backoffice_listing_stale_discards_total{listing="uninvoiced"} 1`)
	assert.Contains(t, rec.Body.String(), `billing_backoffice_bulk_items_total{action="cancel",result="failed"} 2`)
}

func TestGinMiddlewareRecordsRoute(t *testing.T) {
	gin.SetMode(gin.TestMode)
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	router := gin.New()
	router.Use(metrics.GinMiddleware(m))
	router.GET("/accounts/:accountID", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/accounts/42", nil))
	require.Equal(t, http.StatusNoContent, rec.Code)

	count, err := testutil.GatherAndCount(reg, "billing_backoffice_http_request_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

package metrics

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"anthrilo/internal/core/apperror"
	"anthrilo/internal/domain/reports"
)

func TestMetrics_ObserveReport(t *testing.T) {
	m := New()

	m.ObserveReport(reports.NameDailySales, 20*time.Millisecond, nil)
	m.ObserveReport(reports.NameDailySales, 30*time.Millisecond, nil)
	m.ObserveReport(reports.NamePanelSettlement, time.Millisecond,
		fmt.Errorf("generate report: %w", apperror.NewNotFound("panel", 9)))
	m.ObserveReport(reports.NameSummary, time.Millisecond, fmt.Errorf("boom"))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.reportsTotal.WithLabelValues(reports.NameDailySales, OutcomeOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.reportsTotal.WithLabelValues(reports.NamePanelSettlement, apperror.CodeNotFound)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.reportsTotal.WithLabelValues(reports.NameSummary, OutcomeError)))
	assert.Equal(t, 3, testutil.CollectAndCount(m.reportDuration))
}

func TestMetrics_CacheLookup(t *testing.T) {
	m := New()
	m.CacheLookup(true)
	m.CacheLookup(false)
	m.CacheLookup(false)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.cacheLookups.WithLabelValues("hit")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.cacheLookups.WithLabelValues("miss")))
}

func TestMetrics_CachePurged(t *testing.T) {
	m := New()
	m.CachePurged("sales", 3)
	m.CachePurged("panels", 0)
	m.CachePurged("inventory", 2)

	assert.Equal(t, 5.0, testutil.ToFloat64(m.cachePurged))
}

func TestMetrics_MiddlewareAndHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := New()

	r := gin.New()
	r.Use(m.Middleware())
	r.GET("/api/v1/reports/sales/daily/:date", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/metrics", gin.WrapH(m.Handler()))

	for _, path := range []string{"/api/v1/reports/sales/daily/2024-03-01", "/api/v1/reports/sales/daily/2024-03-02", "/nope"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(
		m.httpRequests.WithLabelValues(http.MethodGet, "/api/v1/reports/sales/daily/:date", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(
		m.httpRequests.WithLabelValues(http.MethodGet, "unmatched", "404")))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.True(t, strings.Contains(body, "anthrilo_http_requests_total"))
	assert.True(t, strings.Contains(body, "go_goroutines"))
}

package v1

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"anthrilo/internal/core/apperror"
	"anthrilo/internal/domain/catalog"
	"anthrilo/internal/domain/reports"
	"anthrilo/internal/infrastructure/cache"
	"anthrilo/internal/infrastructure/export"
	"anthrilo/internal/infrastructure/http/v1/dto"
	"anthrilo/internal/infrastructure/http/v1/handlers"
	"anthrilo/internal/infrastructure/http/v1/middleware"
	"anthrilo/internal/infrastructure/metrics"
	"anthrilo/internal/infrastructure/storage/memory"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var fixedNow = time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func testStore() *memory.Store {
	day := time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC)
	return memory.New(memory.Dataset{
		Garments: []catalog.Garment{{ID: 1, StyleSKU: "TS-01", Name: "Crew Tee", MRP: decimal.NewFromInt(500)}},
		Panels:   []catalog.Panel{{ID: 1, PanelName: "Myntra", PanelType: "MARKETPLACE", IsActive: true}},
		Sales: []catalog.Sale{
			{ID: 1, TransactionDate: day, GarmentID: 1, PanelID: 1, Size: "M", Quantity: 3, UnitPrice: decimal.NewFromInt(400), TotalAmount: decimal.NewFromInt(1200)},
			{ID: 2, TransactionDate: day, GarmentID: 1, PanelID: 1, Size: "M", Quantity: 1, UnitPrice: decimal.NewFromInt(400), TotalAmount: decimal.NewFromInt(400), IsReturn: true},
		},
	})
}

type testEnv struct {
	router  *gin.Engine
	metrics *metrics.Metrics
}

func newTestEnv(t *testing.T, checks map[string]handlers.Pinger) testEnv {
	t.Helper()
	return newTestEnvAt(t, checks, func() time.Time { return fixedNow })
}

func newTestEnvAt(t *testing.T, checks map[string]handlers.Pinger, clock func() time.Time) testEnv {
	t.Helper()
	reportCache, err := cache.NewReportCache(cache.NewMemoryBackend(), "test:", time.Minute)
	require.NoError(t, err)
	t.Cleanup(func() { _ = reportCache.Close() })

	m := metrics.New()
	service := reports.NewService(testStore(), reports.DefaultSettings(),
		reports.WithClock(clock),
		reports.WithObserver(m),
	)
	return testEnv{
		router: NewRouter(RouterConfig{
			Service:        service,
			Cache:          reportCache,
			Metrics:        m,
			HealthChecks:   checks,
			RequestTimeout: 5 * time.Second,
		}),
		metrics: m,
	}
}

func (e testEnv) get(path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	e.router.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) dto.ErrorResponse {
	t.Helper()
	var resp dto.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestRouter_Catalog(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.get("/api/v1/reports")
	require.Equal(t, http.StatusOK, w.Code)

	var resp dto.ReportCatalogResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Reports, len(reports.Names))
	assert.Equal(t, reports.NameFabricStockTotal, resp.Reports[0].Name)
	assert.Equal(t, "/api/v1/reports/fabric/stock-sheet/total", resp.Reports[0].Path)
}

func TestRouter_DailySalesCaching(t *testing.T) {
	env := newTestEnv(t, nil)

	first := env.get("/api/v1/reports/sales/daily/2024-03-05")
	require.Equal(t, http.StatusOK, first.Code, first.Body.String())
	assert.Equal(t, "MISS", first.Header().Get(handlers.HeaderCache))
	assert.NotEmpty(t, first.Header().Get(middleware.HeaderRequestID))

	var report reports.DailySalesReport
	require.NoError(t, json.Unmarshal(first.Body.Bytes(), &report))
	assert.Equal(t, "2024-03-05", report.ReportDate)
	assert.Equal(t, int64(3), report.Summary.TotalUnitsSold)
	assert.Equal(t, int64(1), report.Summary.TotalUnitsReturned)
	assert.Equal(t, int64(2), report.Summary.NetUnits)

	second := env.get("/api/v1/reports/sales/daily/2024-03-05")
	require.Equal(t, http.StatusOK, second.Code)
	assert.Equal(t, "HIT", second.Header().Get(handlers.HeaderCache))
	assert.JSONEq(t, first.Body.String(), second.Body.String())
}

func TestRouter_ClockRelativeCacheRollsOverAtMidnight(t *testing.T) {
	now := time.Date(2024, 3, 7, 23, 59, 0, 0, time.UTC)
	env := newTestEnvAt(t, nil, func() time.Time { return now })
	const path = "/api/v1/reports/sales/inactive-panels?days_threshold=2"

	inactive := func(w *httptest.ResponseRecorder) int {
		t.Helper()
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		var report reports.InactivePanelsReport
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &report))
		return len(report.InactivePanels)
	}

	first := env.get(path)
	assert.Equal(t, "MISS", first.Header().Get(handlers.HeaderCache))
	assert.Equal(t, 0, inactive(first), "last sale on 03-05 is within two days of 03-07")

	same := env.get(path)
	assert.Equal(t, "HIT", same.Header().Get(handlers.HeaderCache))

	now = time.Date(2024, 3, 8, 0, 1, 0, 0, time.UTC)
	next := env.get(path)
	assert.Equal(t, "MISS", next.Header().Get(handlers.HeaderCache))
	assert.Equal(t, 1, inactive(next), "on 03-08 the panel has gone quiet")
}

func TestRouter_ExplicitZeroThreshold(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.get("/api/v1/reports/sales/inactive-panels?days_threshold=0")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var report reports.InactivePanelsReport
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &report))
	assert.Equal(t, 0, report.DaysThreshold)
	assert.Len(t, report.InactivePanels, 1)

	w = env.get("/api/v1/reports/sales/inactive-panels")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "MISS", w.Header().Get(handlers.HeaderCache), "unset and zero are cached apart")
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &report))
	assert.Equal(t, reports.DefaultDaysThreshold, report.DaysThreshold)
}

func TestRouter_SKUSales(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.get("/api/v1/reports/sales/daily/2024-03-05/sku/1")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var report reports.DailySKUSalesReport
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &report))
	assert.Equal(t, "TS-01", report.StyleSKU)
}

func TestRouter_XLSX(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.get("/api/v1/reports/sales/daily/2024-03-05?format=xlsx")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, export.ContentTypeXLSX, w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "attachment")
	assert.Empty(t, w.Header().Get(handlers.HeaderCache))

	f, err := excelize.OpenReader(w.Body)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows("Report")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, len(rows), 2)
}

func TestRouter_Errors(t *testing.T) {
	env := newTestEnv(t, nil)

	tests := []struct {
		name   string
		path   string
		status int
		code   string
	}{
		{"unsupported format", "/api/v1/reports/fabric/cost-sheet?format=csv", http.StatusNotAcceptable, apperror.CodeUnsupportedFormat},
		{"bad path date", "/api/v1/reports/sales/daily/05-03-2024", http.StatusBadRequest, apperror.CodeValidation},
		{"bad query date", "/api/v1/reports/sales/panel-wise?start_date=2024-13-01&end_date=2024-03-31", http.StatusBadRequest, apperror.CodeValidation},
		{"missing range", "/api/v1/reports/sales/panel-wise", http.StatusBadRequest, apperror.CodeValidation},
		{"reversed range", "/api/v1/reports/ads/roi?start_date=2024-03-31&end_date=2024-03-01", http.StatusBadRequest, apperror.CodeValidation},
		{"bad garment id", "/api/v1/reports/sales/daily/2024-03-05/sku/abc", http.StatusBadRequest, apperror.CodeValidation},
		{"negative days", "/api/v1/reports/inventory/slow-moving?days_period=-3", http.StatusBadRequest, apperror.CodeValidation},
		{"zero days period", "/api/v1/reports/inventory/fast-moving?days_period=0", http.StatusBadRequest, apperror.CodeValidation},
		{"plan status one bound", "/api/v1/reports/production/plan-status?start_date=2024-03-01", http.StatusBadRequest, apperror.CodeValidation},
		{"bad threshold", "/api/v1/reports/raw-materials/yarn-forecast?threshold=lots", http.StatusBadRequest, apperror.CodeValidation},
		{"unknown panel", "/api/v1/reports/panels/settlement?start_date=2024-03-01&end_date=2024-03-31&panel_id=99", http.StatusNotFound, apperror.CodeNotFound},
		{"unknown route", "/api/v1/reports/nope", http.StatusNotFound, apperror.CodeNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.get(tt.path)
			require.Equal(t, tt.status, w.Code, w.Body.String())
			assert.Equal(t, tt.code, decodeError(t, w).Code)
		})
	}
}

func TestRouter_Health(t *testing.T) {
	t.Run("ready", func(t *testing.T) {
		env := newTestEnv(t, map[string]handlers.Pinger{
			"store": testStore(),
		})

		w := env.get("/health/live")
		assert.Equal(t, http.StatusOK, w.Code)

		w = env.get("/health/ready")
		require.Equal(t, http.StatusOK, w.Code)
		var resp dto.HealthResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, dto.StatusOK, resp.Status)
		assert.Equal(t, "healthy", resp.Checks["store"])
	})

	t.Run("not ready", func(t *testing.T) {
		env := newTestEnv(t, map[string]handlers.Pinger{
			"store":    testStore(),
			"database": pingFunc(func(context.Context) error { return errors.New("connection refused") }),
		})

		w := env.get("/health/ready")
		require.Equal(t, http.StatusServiceUnavailable, w.Code)
		var resp dto.HealthResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, dto.StatusError, resp.Status)
		assert.Contains(t, resp.Checks["database"], "connection refused")
	})
}

func TestRouter_Metrics(t *testing.T) {
	env := newTestEnv(t, nil)

	env.get("/api/v1/reports/sales/daily/2024-03-05")
	env.get("/api/v1/reports/sales/daily/2024-03-05")

	w := env.get("/metrics")
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.True(t, strings.Contains(body, `anthrilo_report_cache_lookups_total{result="hit"} 1`), body)
	assert.Contains(t, body, `report="daily-sales"`)
}

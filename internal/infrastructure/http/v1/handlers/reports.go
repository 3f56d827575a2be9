package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"anthrilo/internal/core/apperror"
	"anthrilo/internal/domain/reports"
	"anthrilo/internal/infrastructure/export"
	"anthrilo/internal/infrastructure/http/v1/dto"
)

// HeaderCache reports whether a JSON response was served from the cache.
const HeaderCache = "X-Cache"

const jsonContentType = "application/json; charset=utf-8"

// ReportGenerator produces reports by name.
type ReportGenerator interface {
	Generate(ctx context.Context, name string, p reports.Params) (reports.Tabular, error)
	// Today is the date clock-relative reports are computed against.
	Today() time.Time
}

// ReportCache stores rendered JSON report payloads.
type ReportCache interface {
	Get(ctx context.Context, name string, p reports.Params) ([]byte, bool)
	Set(ctx context.Context, name string, p reports.Params, payload []byte)
}

// CacheRecorder observes cache lookups.
type CacheRecorder interface {
	CacheLookup(hit bool)
}

type nopRecorder struct{}

func (nopRecorder) CacheLookup(bool) {}

// pathParam copies a path parameter into the report parameters.
type pathParam func(h *ReportsHandler, c *gin.Context, p *reports.Params) error

func dateFromPath(h *ReportsHandler, c *gin.Context, p *reports.Params) error {
	date, err := h.ParseDateParam(c, "date")
	if err != nil {
		return err
	}
	p.Date = date
	return nil
}

func garmentFromPath(h *ReportsHandler, c *gin.Context, p *reports.Params) error {
	id, err := h.ParseIDParam(c, "garmentId")
	if err != nil {
		return err
	}
	p.GarmentID = &id
	return nil
}

func fabricTypeFromPath(_ *ReportsHandler, c *gin.Context, p *reports.Params) error {
	p.FabricType = strings.ToUpper(strings.TrimSpace(c.Param("fabricType")))
	return nil
}

type reportRoute struct {
	path   string
	name   string
	params []pathParam
}

// reportRoutes maps every report to its route, in catalogue order.
var reportRoutes = []reportRoute{
	{path: "/fabric/stock-sheet/total", name: reports.NameFabricStockTotal},
	{path: "/fabric/stock-sheet/by-type/:fabricType", name: reports.NameFabricStockByType, params: []pathParam{fabricTypeFromPath}},
	{path: "/fabric/stock-sheet/by-period", name: reports.NameFabricStockByPeriod},
	{path: "/fabric/cost-sheet", name: reports.NameFabricCostSheet},
	{path: "/sales/daily/:date", name: reports.NameDailySales, params: []pathParam{dateFromPath}},
	{path: "/sales/daily/:date/sku/:garmentId", name: reports.NameDailySalesSKU, params: []pathParam{dateFromPath, garmentFromPath}},
	{path: "/sales/panel-wise", name: reports.NamePanelWiseSales},
	{path: "/sales/inactive-panels", name: reports.NameInactivePanels},
	{path: "/inventory/slow-moving", name: reports.NameSlowMoving},
	{path: "/inventory/fast-moving", name: reports.NameFastMoving},
	{path: "/production/plan-status", name: reports.NamePlanStatus},
	{path: "/production/daily-variance/:date", name: reports.NameProductionVariance, params: []pathParam{dateFromPath}},
	{path: "/raw-materials/yarn-forecast", name: reports.NameYarnForecast},
	{path: "/sales/bundle-sku", name: reports.NameBundleSKUSales},
	{path: "/sales/discount-general", name: reports.NameDiscountGeneral},
	{path: "/sales/discount-by-panel", name: reports.NameDiscountByPanel},
	{path: "/panels/settlement", name: reports.NamePanelSettlement},
	{path: "/ads/roi", name: reports.NameAdROI},
	{path: "/summary/all", name: reports.NameSummary},
}

// ReportsHandler handles HTTP requests for reports.
type ReportsHandler struct {
	*BaseHandler
	service  ReportGenerator
	cache    ReportCache
	recorder CacheRecorder
	now      func() time.Time
	basePath string
}

// ReportsOption configures a ReportsHandler.
type ReportsOption func(*ReportsHandler)

// WithCache serves JSON responses through cache.
func WithCache(cache ReportCache) ReportsOption {
	return func(h *ReportsHandler) { h.cache = cache }
}

// WithCacheRecorder reports cache hits and misses to r.
func WithCacheRecorder(r CacheRecorder) ReportsOption {
	return func(h *ReportsHandler) { h.recorder = r }
}

// NewReportsHandler creates a new reports handler.
func NewReportsHandler(base *BaseHandler, service ReportGenerator, opts ...ReportsOption) *ReportsHandler {
	h := &ReportsHandler{
		BaseHandler: base,
		service:     service,
		recorder:    nopRecorder{},
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// RegisterRoutes registers the catalogue and every report route.
func (h *ReportsHandler) RegisterRoutes(rg *gin.RouterGroup) {
	h.basePath = strings.TrimSuffix(rg.BasePath(), "/")
	rg.GET("", h.Catalog)
	for _, route := range reportRoutes {
		rg.GET(route.path, h.handle(route))
	}
}

// Catalog handles GET /reports.
func (h *ReportsHandler) Catalog(c *gin.Context) {
	resp := dto.ReportCatalogResponse{Reports: make([]dto.ReportInfo, len(reportRoutes))}
	for i, route := range reportRoutes {
		resp.Reports[i] = dto.ReportInfo{Name: route.name, Path: h.basePath + route.path}
	}
	h.OK(c, resp)
}

func (h *ReportsHandler) handle(route reportRoute) gin.HandlerFunc {
	return func(c *gin.Context) {
		var q dto.ReportQuery
		if !h.BindQuery(c, &q) {
			return
		}
		format, err := q.ResponseFormat()
		if err != nil {
			h.Error(c, err)
			return
		}
		params, err := q.ToParams()
		if err != nil {
			h.Error(c, err)
			return
		}
		for _, fill := range route.params {
			if err := fill(h, c, &params); err != nil {
				h.Error(c, err)
				return
			}
		}

		if format == dto.FormatXLSX {
			h.renderXLSX(c, route.name, params)
			return
		}
		h.renderJSON(c, route.name, params)
	}
}

func (h *ReportsHandler) renderJSON(c *gin.Context, name string, params reports.Params) {
	ctx := c.Request.Context()

	if h.cache != nil && reports.DependsOnClock(name) {
		today := h.service.Today()
		params.AsOf = &today
	}

	if h.cache != nil {
		payload, hit := h.cache.Get(ctx, name, params)
		h.recorder.CacheLookup(hit)
		if hit {
			c.Header(HeaderCache, "HIT")
			c.Data(http.StatusOK, jsonContentType, payload)
			return
		}
	}

	report, err := h.service.Generate(ctx, name, params)
	if err != nil {
		h.Error(c, err)
		return
	}

	payload, err := json.Marshal(report)
	if err != nil {
		h.Error(c, apperror.NewInternal(fmt.Errorf("encode %s report: %w", name, err)))
		return
	}

	if h.cache != nil {
		h.cache.Set(ctx, name, params, payload)
		c.Header(HeaderCache, "MISS")
	}
	c.Data(http.StatusOK, jsonContentType, payload)
}

func (h *ReportsHandler) renderXLSX(c *gin.Context, name string, params reports.Params) {
	report, err := h.service.Generate(c.Request.Context(), name, params)
	if err != nil {
		h.Error(c, err)
		return
	}

	var buf bytes.Buffer
	if err := export.WriteXLSX(&buf, report.Table()); err != nil {
		h.Error(c, apperror.NewInternal(fmt.Errorf("export %s report: %w", name, err)))
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, export.FileName(name, h.now())))
	c.Data(http.StatusOK, export.ContentTypeXLSX, buf.Bytes())
}
